package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeDuplex = "duplex"
	ModePlayer = "player"
)

type Config struct {
	Mode           string
	CaptureDevice  string
	PlaybackDevice string
	SampleRate     int
	Channels       int
	PeriodFrames   int
	Latency        time.Duration
	Crossfade      time.Duration
	Source         string
	ProfileFile    string
	StateFile      string
	LockMemory     bool

	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTTopic    string
}

func Load() *Config {
	broker := getEnv("MQTT_BROKER", "")
	if broker != "" && !strings.HasPrefix(broker, "tcp://") && !strings.HasPrefix(broker, "ssl://") {
		broker = "tcp://" + broker
	}

	cfg := &Config{
		Mode:           getEnv("AUDIO_MODE", ModeDuplex),
		CaptureDevice:  getEnv("INPUT_DEVICE", ""),
		PlaybackDevice: getEnv("OUTPUT_DEVICE", ""),
		SampleRate:     getEnvInt("SAMPLE_RATE", 48000),
		Channels:       getEnvInt("CHANNELS", 2),
		PeriodFrames:   getEnvInt("PERIOD_FRAMES", 480),
		Latency:        time.Duration(getEnvInt("LATENCY_MS", 100)) * time.Millisecond,
		Crossfade:      time.Duration(getEnvFloat("CROSSFADE_MS", 5) * float64(time.Millisecond)),
		Source:         getEnv("SOURCE", "pink"),
		ProfileFile:    getEnv("PROFILE_FILE", ""),
		StateFile:      getEnv("STATE_FILE", "/var/lib/eqlayer/state.json"),
		LockMemory:     getEnvBool("LOCK_MEMORY", false),
		MQTTBroker:     broker,
		MQTTPort:       getEnvInt("MQTT_PORT", 1883),
		MQTTUser:       getEnv("MQTT_USER", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTTopic:      getEnv("MQTT_TOPIC", "homeassistant/eqlayer"),
	}

	log.Printf("Config: mode=%s, rate=%d Hz, channels=%d, period=%d, latency=%v",
		cfg.Mode, cfg.SampleRate, cfg.Channels, cfg.PeriodFrames, cfg.Latency)
	return cfg
}

// MQTTEnabled reports whether a broker was configured.
func (c *Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

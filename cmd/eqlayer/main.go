package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/agusx1211/eqlayer/internal/analysis"
	"github.com/agusx1211/eqlayer/internal/audio"
	"github.com/agusx1211/eqlayer/internal/config"
	"github.com/agusx1211/eqlayer/internal/engine"
	"github.com/agusx1211/eqlayer/internal/filter"
	"github.com/agusx1211/eqlayer/internal/mqtt"
	"github.com/agusx1211/eqlayer/internal/profile"
	"github.com/agusx1211/eqlayer/internal/source"
)

type PersistedState struct {
	ProfileText string   `json:"profile_text"`
	Bypass      bool     `json:"bypass"`
	CrossfadeMS *float64 `json:"crossfade_ms,omitempty"`
}

type app struct {
	cfg     *config.Config
	manager *engine.Manager

	mu         sync.Mutex
	lastReport engine.Report
}

func main() {
	listDevices := flag.Bool("list", false, "list audio devices and exit")
	printCurve := flag.Bool("curve", false, "print the response of the profile and exit")
	profilePath := flag.String("profile", "", "equalizer profile file (overrides PROFILE_FILE)")
	sourceName := flag.String("source", "", "player source: white, pink, brown, tone[:<hz>] or a WAV path")
	mode := flag.String("mode", "", "audio mode: duplex or player")
	flag.Parse()

	if *listDevices {
		if err := printDevices(); err != nil {
			log.Fatalf("Failed to list devices: %v", err)
		}
		return
	}

	cfg := config.Load()
	if *profilePath != "" {
		cfg.ProfileFile = *profilePath
	}
	if *sourceName != "" {
		cfg.Source = *sourceName
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	if *printCurve {
		if err := curve(cfg); err != nil {
			log.Fatalf("Failed to compute response: %v", err)
		}
		return
	}

	state, haveState := loadState(cfg.StateFile)
	if haveState && state.CrossfadeMS != nil {
		cfg.Crossfade = time.Duration(*state.CrossfadeMS * float64(time.Millisecond))
	}

	if cfg.LockMemory {
		if err := audio.LockMemory(); err != nil {
			log.Printf("Failed to lock memory: %v", err)
		}
	}

	var src source.Source
	if cfg.Mode == config.ModePlayer {
		var err error
		src, err = source.Open(cfg.Source, float64(cfg.SampleRate))
		if err != nil {
			log.Fatalf("Failed to open source: %v", err)
		}
		switch s := src.(type) {
		case *source.WAV:
			defer s.Close()
			if s.SampleRate() != cfg.SampleRate {
				log.Printf("Using WAV sample rate %d Hz instead of %d Hz", s.SampleRate(), cfg.SampleRate)
				cfg.SampleRate = s.SampleRate()
			}
		case *source.Noise:
			if seed, ok := randomSeed(); ok {
				s.Reseed(seed)
			}
		}
	}

	eng, err := engine.New(float64(cfg.SampleRate), cfg.Channels,
		engine.WithCrossfade(cfg.Crossfade),
		engine.WithMaxFrames(cfg.PeriodFrames))
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	a := &app{cfg: cfg, manager: engine.NewManager(eng)}
	a.restore(state, haveState, *profilePath != "")

	switch cfg.Mode {
	case config.ModeDuplex:
		d, err := audio.NewDuplex(audio.DuplexConfig{
			CaptureDevice:  cfg.CaptureDevice,
			PlaybackDevice: cfg.PlaybackDevice,
			SampleRate:     cfg.SampleRate,
			Channels:       cfg.Channels,
			PeriodFrames:   cfg.PeriodFrames,
			Latency:        cfg.Latency,
		}, eng)
		if err != nil {
			log.Fatalf("Failed to open audio devices: %v", err)
		}
		defer d.Close()
		if err := d.Start(); err != nil {
			log.Fatalf("Failed to start audio: %v", err)
		}
	case config.ModePlayer:
		player, err := audio.NewPlayer(cfg.SampleRate, cfg.Channels, cfg.PeriodFrames, cfg.Latency)
		if err != nil {
			log.Fatalf("Failed to create audio player: %v", err)
		}
		defer player.Close()
		player.Start(src, eng)
		go func() {
			<-player.Done()
			log.Println("Source finished")
		}()
	default:
		log.Fatalf("Unknown audio mode: %s", cfg.Mode)
	}

	var mqttClient *mqtt.Client
	commandChan := make(chan mqtt.Command, 100)
	if cfg.MQTTEnabled() {
		mqttClient, err = mqtt.NewClient(
			cfg.MQTTBroker,
			cfg.MQTTPort,
			cfg.MQTTUser,
			cfg.MQTTPassword,
			cfg.MQTTTopic,
			a.state,
			commandChan,
		)
		if err != nil {
			log.Fatalf("Failed to create MQTT client: %v", err)
		}
		defer mqttClient.Close()
	}

	go a.processCommands(commandChan, mqttClient)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			commandChan <- mqtt.Command{Action: mqtt.ActionReload}
			continue
		}
		break
	}

	log.Println("Shutting down...")
}

// restore installs the starting profile. An explicit -profile wins over the
// saved state; the saved state wins over PROFILE_FILE.
func (a *app) restore(state PersistedState, haveState, explicitProfile bool) {
	e := a.manager.Engine()

	switch {
	case explicitProfile || (!haveState && a.cfg.ProfileFile != ""):
		a.reload()
	case haveState:
		a.apply(a.manager.ApplyText(state.ProfileText))
	}

	if haveState {
		e.SetBypass(state.Bypass)
		log.Printf("Restored state: bypass=%v, crossfade=%v", state.Bypass, a.cfg.Crossfade)
	}
}

func (a *app) reload() {
	if a.cfg.ProfileFile == "" {
		log.Println("No profile file configured")
		return
	}
	p, warnings, err := profile.Load(a.cfg.ProfileFile)
	if err != nil {
		log.Printf("Failed to load profile: %v", err)
		return
	}
	for _, w := range warnings {
		log.Printf("Profile warning: %v", w)
	}
	r, err := a.manager.Apply(p)
	r.Warnings = warnings
	a.apply(r, err)
}

func (a *app) apply(r engine.Report, err error) {
	if err != nil {
		log.Printf("Failed to apply profile: %v", err)
		return
	}
	a.mu.Lock()
	a.lastReport = r
	a.mu.Unlock()
}

func (a *app) report() engine.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastReport
}

func (a *app) processCommands(cmdChan <-chan mqtt.Command, mqttClient *mqtt.Client) {
	stateTicker := time.NewTicker(2 * time.Second)
	defer stateTicker.Stop()

	for {
		select {
		case cmd, ok := <-cmdChan:
			if !ok {
				return
			}
			a.handle(cmd)
			saveState(a, a.cfg.StateFile)
			if mqttClient != nil {
				mqttClient.PublishState()
			}
		case <-stateTicker.C:
			if mqttClient != nil {
				mqttClient.PublishState()
			}
		}
	}
}

func (a *app) handle(cmd mqtt.Command) {
	e := a.manager.Engine()

	switch cmd.Action {
	case mqtt.ActionSetProfile:
		a.apply(a.manager.ApplyText(cmd.Text))
	case mqtt.ActionBypassOn:
		e.SetBypass(true)
	case mqtt.ActionBypassOff:
		e.SetBypass(false)
	case mqtt.ActionSetPreamp:
		r, err := a.manager.SetPreamp(cmd.Value)
		r.Warnings = a.report().Warnings
		a.apply(r, err)
	case mqtt.ActionReset:
		e.RequestReset()
	case mqtt.ActionReload:
		a.reload()
	default:
		log.Printf("Unknown command: %s", cmd.Action)
	}
}

func (a *app) state() mqtt.State {
	e := a.manager.Engine()
	p := a.manager.Profile()
	stats := e.Stats()
	report := a.report()

	stages := 0
	if c := e.Current(); c != nil {
		stages = c.NumSections()
	}

	return mqtt.State{
		Enabled:     !e.Bypassed(),
		PreampDB:    p.PreampDB,
		Filters:     len(p.Filters),
		Stages:      stages,
		Warnings:    len(report.Warnings) + len(report.DesignErrors),
		SampleRate:  e.SampleRate(),
		Blocks:      stats.Blocks,
		Passthrough: stats.Passthrough,
		Profile:     profile.Format(p),
	}
}

func loadState(path string) (PersistedState, bool) {
	var state PersistedState

	data, err := os.ReadFile(path)
	if err != nil {
		return state, false
	}
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("Failed to parse saved state: %v", err)
		return state, false
	}
	return state, true
}

func saveState(a *app, path string) {
	crossfade := float64(a.cfg.Crossfade) / float64(time.Millisecond)
	state := PersistedState{
		ProfileText: a.manager.Text(),
		Bypass:      a.manager.Engine().Bypassed(),
		CrossfadeMS: &crossfade,
	}

	data, err := json.Marshal(state)
	if err != nil {
		log.Printf("Failed to marshal state: %v", err)
		return
	}

	os.MkdirAll(filepath.Dir(path), 0755)
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("Failed to save state: %v", err)
	}
}

func randomSeed() (int64, bool) {
	f, err := os.Open("/dev/random")
	if err != nil {
		log.Printf("Failed to open /dev/random: %v", err)
		return 0, false
	}
	defer f.Close()

	var seed int64
	if err := binary.Read(f, binary.LittleEndian, &seed); err != nil {
		log.Printf("Failed to read /dev/random: %v", err)
		return 0, false
	}
	return seed, true
}

func printDevices() error {
	capture, playback, err := audio.Devices()
	if err != nil {
		return err
	}
	fmt.Println("Capture devices:")
	for _, name := range capture {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Playback devices:")
	for _, name := range playback {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// curve prints the analytic response of the configured profile next to the
// response measured from its impulse response.
func curve(cfg *config.Config) error {
	if cfg.ProfileFile == "" {
		return fmt.Errorf("no profile file given")
	}
	p, warnings, err := profile.Load(cfg.ProfileFile)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Printf("Profile warning: %v", w)
	}

	chain, dropped, err := filter.Compile(p.PreampDB, p.Filters, filter.Format{
		SampleRate: float64(cfg.SampleRate),
		Channels:   1,
	})
	if err != nil {
		return err
	}
	for _, d := range dropped {
		log.Printf("Dropping filter: %v", d)
	}

	spectrum, err := analysis.Measure(chain, 16384)
	if err != nil {
		return err
	}

	fmt.Printf("%10s %10s %10s %10s\n", "freq_hz", "gain_db", "phase_rad", "measured")
	for _, pt := range analysis.Curve(chain, 64) {
		fmt.Printf("%10.1f %10.3f %10.4f %10.3f\n", pt.FreqHz, pt.MagnitudeDB, pt.PhaseRad, spectrum.MagnitudeDB(pt.FreqHz))
	}
	return nil
}

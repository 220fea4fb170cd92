package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	ActionSetProfile = "set_profile"
	ActionBypassOn   = "set_bypass_on"
	ActionBypassOff  = "set_bypass_off"
	ActionSetPreamp  = "set_preamp"
	ActionReset      = "reset"
	ActionReload     = "reload"
)

type Command struct {
	Action string
	Value  float64
	Text   string
}

// State is what gets published on <topic>/state.
type State struct {
	Enabled     bool    `json:"enabled"`
	PreampDB    float64 `json:"preamp_db"`
	Filters     int     `json:"filters"`
	Stages      int     `json:"stages"`
	Warnings    int     `json:"warnings"`
	SampleRate  float64 `json:"sample_rate"`
	Blocks      uint64  `json:"blocks"`
	Passthrough uint64  `json:"passthrough"`
	Profile     string  `json:"profile"`
}

type Client struct {
	client      mqtt.Client
	topic       string
	state       func() State
	commandChan chan<- Command
}

func NewClient(broker string, port int, user, password, topic string, state func() State, cmdChan chan<- Command) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s:%d", broker, port))
	opts.SetClientID(fmt.Sprintf("eqlayer-%d", time.Now().Unix()))

	if user != "" {
		opts.SetUsername(user)
	}
	if password != "" {
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)

	c := &Client{
		topic:       topic,
		state:       state,
		commandChan: cmdChan,
	}

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = c.onConnectionLost
	opts.SetWill(topic+"/availability", "offline", 0, true)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return c, nil
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("Connected to MQTT broker")

	client.Publish(c.topic+"/availability", 0, true, "online")

	for topic, handler := range c.handlers() {
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			log.Printf("Failed to subscribe to %s: %v", topic, token.Error())
		}
	}

	c.publishDiscovery()
	c.PublishState()
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
}

func (c *Client) handlers() map[string]mqtt.MessageHandler {
	return map[string]mqtt.MessageHandler{
		c.topic + "/profile/set": c.handleProfile,
		c.topic + "/enabled/set": c.handleEnabled,
		c.topic + "/preamp/set":  c.handlePreamp,
		c.topic + "/reset/set":   c.handleReset,
		c.topic + "/reload/set":  c.handleReload,
	}
}

func (c *Client) handleProfile(client mqtt.Client, msg mqtt.Message) {
	c.sendCommand(commandForProfile(msg.Payload()))
}

func (c *Client) handleEnabled(client mqtt.Client, msg mqtt.Message) {
	c.sendCommand(commandForEnabled(msg.Payload()))
}

func (c *Client) handlePreamp(client mqtt.Client, msg mqtt.Message) {
	if cmd, ok := commandForPreamp(msg.Payload()); ok {
		c.sendCommand(cmd)
	}
}

func (c *Client) handleReset(client mqtt.Client, msg mqtt.Message) {
	c.sendCommand(Command{Action: ActionReset})
}

func (c *Client) handleReload(client mqtt.Client, msg mqtt.Message) {
	c.sendCommand(Command{Action: ActionReload})
}

func commandForProfile(payload []byte) Command {
	return Command{Action: ActionSetProfile, Text: string(payload)}
}

// commandForEnabled maps the switch payload to a bypass command. The switch
// shows the EQ as enabled, so OFF means bypass.
func commandForEnabled(payload []byte) Command {
	if strings.TrimSpace(string(payload)) == "ON" {
		return Command{Action: ActionBypassOff}
	}
	return Command{Action: ActionBypassOn}
}

func commandForPreamp(payload []byte) (Command, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Action: ActionSetPreamp, Value: v}, true
}

func (c *Client) sendCommand(cmd Command) {
	select {
	case c.commandChan <- cmd:
	default:
		log.Println("Command channel full")
	}
}

func (c *Client) publishDiscovery() {
	device := map[string]interface{}{
		"identifiers":  []string{"eqlayer"},
		"name":         "EQ Layer",
		"manufacturer": "EQ Layer",
		"model":        "Parametric Equalizer",
	}

	availability := map[string]interface{}{
		"topic": c.topic + "/availability",
	}

	c.publishEntity("switch", "eqlayer_enabled", map[string]interface{}{
		"name":           "Equalizer",
		"unique_id":      "eqlayer_enabled",
		"device":         device,
		"availability":   availability,
		"command_topic":  c.topic + "/enabled/set",
		"state_topic":    c.topic + "/state",
		"value_template": "{% if value_json.enabled %}ON{% else %}OFF{% endif %}",
		"payload_on":     "ON",
		"payload_off":    "OFF",
		"icon":           "mdi:equalizer",
	})

	c.publishEntity("number", "eqlayer_preamp", map[string]interface{}{
		"name":                "Preamp",
		"unique_id":           "eqlayer_preamp",
		"device":              device,
		"availability":        availability,
		"command_topic":       c.topic + "/preamp/set",
		"state_topic":         c.topic + "/state",
		"value_template":      "{{ value_json.preamp_db }}",
		"min":                 -30,
		"max":                 12,
		"step":                0.5,
		"unit_of_measurement": "dB",
		"icon":                "mdi:volume-high",
	})

	c.publishEntity("sensor", "eqlayer_stages", map[string]interface{}{
		"name":           "Active Filters",
		"unique_id":      "eqlayer_stages",
		"device":         device,
		"availability":   availability,
		"state_topic":    c.topic + "/state",
		"value_template": "{{ value_json.stages }}",
		"icon":           "mdi:tune-vertical",
	})

	c.publishEntity("button", "eqlayer_reset", map[string]interface{}{
		"name":          "Reset Filters",
		"unique_id":     "eqlayer_reset",
		"device":        device,
		"availability":  availability,
		"command_topic": c.topic + "/reset/set",
		"icon":          "mdi:restore",
	})

	c.publishEntity("button", "eqlayer_reload", map[string]interface{}{
		"name":          "Reload Profile",
		"unique_id":     "eqlayer_reload",
		"device":        device,
		"availability":  availability,
		"command_topic": c.topic + "/reload/set",
		"icon":          "mdi:file-refresh",
	})

	log.Println("Published MQTT discovery (5 entities)")
}

func (c *Client) publishEntity(domain, entityID string, config map[string]interface{}) {
	data, _ := json.Marshal(config)
	topic := fmt.Sprintf("homeassistant/%s/%s/config", domain, entityID)
	if token := c.client.Publish(topic, 0, true, data); token.Wait() && token.Error() != nil {
		log.Printf("Failed to publish discovery for %s: %v", entityID, token.Error())
	}
}

func (c *Client) PublishState() {
	data, _ := json.Marshal(c.state())
	c.client.Publish(c.topic+"/state", 0, true, data)
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Publish(c.topic+"/availability", 0, true, "offline")
		c.client.Disconnect(250)
	}
}

// Package mqtt drives zigbee2mqtt-style lights: one state topic per
// device, JSON payloads carrying on/off, brightness and an HS color.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Bulb is a single MQTT-addressable light. One unit emission box.
type Bulb struct {
	uid   string
	name  string
	topic string
}

func (b *Bulb) UID() string { return b.uid }
func (b *Bulb) Type() light.ProviderType { return light.ProviderMQTT }
func (b *Bulb) Name() string { return b.name }
func (b *Bulb) LightBoundingBoxes() []light.Box { return []light.Box{light.UnitBox()} }

// statePayload is the published message shape (zigbee2mqtt "set" schema).
type statePayload struct {
	State      string `json:"state"`
	Brightness int    `json:"brightness,omitempty"`
	Color      *struct {
		Hue        float64 `json:"hue"`
		Saturation float64 `json:"saturation"`
	} `json:"color,omitempty"`
}

type mqttSection struct {
	Devices []deviceRecord `yaml:"Devices"`
}

type deviceRecord struct {
	Name  string `yaml:"Name"`
	Topic string `yaml:"Topic"`
}

// Provider is the MQTT backend driver.
type Provider struct {
	cfg    config.MQTTConfig
	client pahomqtt.Client

	mu      sync.Mutex
	devices map[string]*Bulb
	sent    map[string]light.Color

	running bool
}

// NewProvider creates the MQTT backend. Devices come from config; Load may
// add previously saved ones on top.
func NewProvider(cfg config.MQTTConfig) *Provider {
	p := &Provider{
		cfg:     cfg,
		devices: make(map[string]*Bulb),
		sent:    make(map[string]light.Color),
	}
	for _, d := range cfg.Devices {
		p.addDevice(d.Name, d.Topic)
	}
	return p
}

func (p *Provider) Type() light.ProviderType { return light.ProviderMQTT }

// Start connects to the broker. Auto-reconnect is left to the paho client;
// only the initial connection is allowed to fail the start.
func (p *Provider) Start() error {
	if p.running {
		return nil
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(p.cfg.Broker).
		SetClientID(p.cfg.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	if p.cfg.Username != "" {
		opts.SetUsername(p.cfg.Username)
		opts.SetPassword(p.cfg.Password)
	}
	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		slog.Info("MQTT: connected", "broker", p.cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		slog.Warn("MQTT: connection lost", "error", err)
	})

	p.client = pahomqtt.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(p.cfg.ConnectTimeout()) {
		return fmt.Errorf("connecting to MQTT broker %s: timeout after %v", p.cfg.Broker, p.cfg.ConnectTimeout())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker %s: %w", p.cfg.Broker, err)
	}
	p.running = true
	return nil
}

func (p *Provider) Stop() {
	if !p.running {
		return
	}
	p.client.Disconnect(250)
	p.running = false
}

// Compare orders MQTT devices by topic; topics are unique per device.
func (p *Provider) Compare(a, b light.DeviceInScene) bool {
	ba, okA := a.Device.(*Bulb)
	bb, okB := b.Device.(*Bulb)
	if okA && okB && ba.topic != bb.topic {
		return ba.topic < bb.topic
	}
	return a.Device.UID() < b.Device.UID()
}

// Update publishes one state message per device whose color changed since
// the last publish. Publish failures are logged; the broker connection
// heals itself.
func (p *Provider) Update(params light.UpdateParams) {
	i := 0
	for i < params.Len() {
		dev := params.Devices[i]
		j := i + 1
		for j < params.Len() && params.Devices[j] == dev {
			j++
		}
		if bulb, ok := dev.(*Bulb); ok {
			p.publish(bulb, params.Colors[i])
		}
		i = j
	}
}

func (p *Provider) ResolveDevice(uid string) light.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.devices[uid]; ok {
		return b
	}
	return nil
}

func (p *Provider) Save(settings *store.Settings) error {
	p.mu.Lock()
	section := mqttSection{Devices: make([]deviceRecord, 0, len(p.devices))}
	for _, b := range p.devices {
		section.Devices = append(section.Devices, deviceRecord{Name: b.name, Topic: b.topic})
	}
	p.mu.Unlock()
	return settings.SetProviderSection(string(light.ProviderMQTT), section)
}

func (p *Provider) Load(settings *store.Settings) error {
	var section mqttSection
	found, err := settings.ProviderSection(string(light.ProviderMQTT), &section)
	if err != nil || !found {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range section.Devices {
		p.addDevice(rec.Name, rec.Topic)
	}
	return nil
}

func (p *Provider) addDevice(name, topic string) {
	uid := light.MakeUID(light.ProviderMQTT, name)
	if _, exists := p.devices[uid]; exists {
		return
	}
	p.devices[uid] = &Bulb{uid: uid, name: name, topic: topic}
}

func (p *Provider) publish(b *Bulb, c light.Color) {
	p.mu.Lock()
	last, seen := p.sent[b.uid]
	p.mu.Unlock()
	if seen && colorsClose(last, c) {
		return
	}

	payload := statePayload{State: "OFF"}
	if !c.IsOff() {
		payload.State = "ON"
		payload.Brightness = int(math.Round(c.L * 254))
		payload.Color = &struct {
			Hue        float64 `json:"hue"`
			Saturation float64 `json:"saturation"`
		}{Hue: c.H, Saturation: c.S * 100}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("MQTT: encoding state payload", "device", b.name, "error", err)
		return
	}

	if p.client == nil || !p.client.IsConnectionOpen() {
		return
	}
	token := p.client.Publish(b.topic+"/set", 0, false, body)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			slog.Error("MQTT: publish failed", "device", b.name, "error", err)
			return
		}
		p.mu.Lock()
		p.sent[b.uid] = c
		p.mu.Unlock()
	}()
}

func colorsClose(a, b light.Color) bool {
	return math.Abs(a.H-b.H) < 0.5 &&
		math.Abs(a.S-b.S) < 0.01 &&
		math.Abs(a.L-b.L) < 0.01
}

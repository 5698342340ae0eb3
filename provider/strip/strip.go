// Package strip drives SPI-attached LED chains (APA102 or WS2801) on a
// Raspberry Pi. All configured strips share one physical chain; each strip
// device owns a contiguous LED range identified by its offset.
package strip

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Strip is one LED strip device: leds emission boxes in a row along the
// device-local X axis, mapped onto chain positions offset..offset+leds-1.
type Strip struct {
	uid    string
	name   string
	leds   int
	offset int
}

func (s *Strip) UID() string { return s.uid }
func (s *Strip) Type() light.ProviderType { return light.ProviderStrip }
func (s *Strip) Name() string { return s.name }

func (s *Strip) LightBoundingBoxes() []light.Box {
	boxes := make([]light.Box, s.leds)
	shift := -float64(s.leds-1) / 2
	for i := range boxes {
		b := light.UnitBox()
		b.Min[0] += shift + float64(i)
		b.Max[0] += shift + float64(i)
		boxes[i] = b
	}
	return boxes
}

type stripSection struct {
	Strips []stripRecord `yaml:"Strips"`
}

type stripRecord struct {
	Name   string `yaml:"Name"`
	Leds   int    `yaml:"Leds"`
	Offset int    `yaml:"Offset"`
}

// exchangeFunc pushes one assembled frame out over the bus.
type exchangeFunc func([]byte)

// Provider is the SPI strip backend driver.
type Provider struct {
	cfg    config.StripConfig
	driver ledDriver

	mu      sync.Mutex
	devices map[string]*Strip

	spiMutex  sync.Mutex
	chain     []rgb
	lastFrame []byte
	exchange  exchangeFunc

	running  bool
	hardware bool
}

// NewProvider creates the strip backend. Devices come from config; Load
// may add previously saved ones on top.
func NewProvider(cfg config.StripConfig) *Provider {
	p := &Provider{
		cfg:     cfg,
		devices: make(map[string]*Strip),
	}
	for _, s := range cfg.Strips {
		p.addStrip(s.Name, s.Leds, s.Offset)
	}
	return p
}

func (p *Provider) Type() light.ProviderType { return light.ProviderStrip }

// Start selects the chipset driver and initialises GPIO and SPI. A
// pre-injected exchange function bypasses the hardware setup.
func (p *Provider) Start() error {
	if p.running {
		return nil
	}

	correction := [3]float64{1, 1, 1}
	if len(p.cfg.ColorCorrection) == 3 {
		copy(correction[:], p.cfg.ColorCorrection)
	}
	switch strings.ToUpper(p.cfg.LEDType) {
	case "APA102":
		p.driver = newAPA102Driver(p.cfg.APA102Brightness, correction)
	case "WS2801":
		p.driver = newWS2801Driver(correction)
	default:
		return fmt.Errorf("unknown LED type: %s", p.cfg.LEDType)
	}

	if p.exchange == nil {
		slog.Info("Strip: initialising GPIO and SPI", "frequency", p.cfg.SPIFrequency)
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("opening rpio: %w", err)
		}
		if err := rpio.SpiBegin(rpio.Spi0); err != nil {
			rpio.Close()
			return fmt.Errorf("beginning spi: %w", err)
		}
		rpio.SpiSpeed(p.cfg.SPIFrequency)
		p.exchange = func(data []byte) { rpio.SpiExchange(data) }
		p.hardware = true
	}

	p.resizeChain()
	p.running = true
	return nil
}

func (p *Provider) Stop() {
	if !p.running {
		return
	}
	if p.hardware {
		rpio.SpiEnd(rpio.Spi0)
		if err := rpio.Close(); err != nil {
			slog.Error("Strip: closing rpio", "error", err)
		}
	}
	p.running = false
}

// Compare orders strips by their position on the physical chain.
func (p *Provider) Compare(a, b light.DeviceInScene) bool {
	sa, okA := a.Device.(*Strip)
	sb, okB := b.Device.(*Strip)
	if okA && okB && sa.offset != sb.offset {
		return sa.offset < sb.offset
	}
	return a.Device.UID() < b.Device.UID()
}

// Update copies the per-box colors onto the chain positions of each strip
// in the view and pushes one frame for the whole chain.
func (p *Provider) Update(params light.UpdateParams) {
	if params.Empty() || !p.running {
		return
	}

	p.spiMutex.Lock()
	defer p.spiMutex.Unlock()

	i := 0
	for i < params.Len() {
		dev := params.Devices[i]
		j := i + 1
		for j < params.Len() && params.Devices[j] == dev {
			j++
		}
		if s, ok := dev.(*Strip); ok {
			for k := i; k < j; k++ {
				pos := s.offset + (k-i)%s.leds
				if pos >= len(p.chain) {
					continue
				}
				r, g, b := params.Colors[k].RGB255()
				p.chain[pos] = rgb{r: r, g: g, b: b}
			}
		}
		i = j
	}

	frame := p.driver.frame(p.chain)
	if bytes.Equal(frame, p.lastFrame) {
		return
	}
	p.exchange(frame)
	p.lastFrame = frame
}

func (p *Provider) ResolveDevice(uid string) light.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.devices[uid]; ok {
		return s
	}
	return nil
}

func (p *Provider) Save(settings *store.Settings) error {
	p.mu.Lock()
	section := stripSection{Strips: make([]stripRecord, 0, len(p.devices))}
	for _, s := range p.devices {
		section.Strips = append(section.Strips, stripRecord{Name: s.name, Leds: s.leds, Offset: s.offset})
	}
	p.mu.Unlock()
	return settings.SetProviderSection(string(light.ProviderStrip), section)
}

func (p *Provider) Load(settings *store.Settings) error {
	var section stripSection
	found, err := settings.ProviderSection(string(light.ProviderStrip), &section)
	if err != nil || !found {
		return err
	}
	p.mu.Lock()
	for _, rec := range section.Strips {
		p.addStrip(rec.Name, rec.Leds, rec.Offset)
	}
	p.mu.Unlock()

	p.spiMutex.Lock()
	p.resizeChain()
	p.spiMutex.Unlock()
	return nil
}

func (p *Provider) addStrip(name string, leds, offset int) {
	uid := light.MakeUID(light.ProviderStrip, name)
	if _, exists := p.devices[uid]; exists {
		return
	}
	p.devices[uid] = &Strip{uid: uid, name: name, leds: leds, offset: offset}
}

// resizeChain grows the chain buffer to cover the highest configured LED
// position. Existing colors are kept.
func (p *Provider) resizeChain() {
	p.mu.Lock()
	total := 0
	for _, s := range p.devices {
		if end := s.offset + s.leds; end > total {
			total = end
		}
	}
	p.mu.Unlock()

	if total <= len(p.chain) {
		return
	}
	grown := make([]rgb, total)
	copy(grown, p.chain)
	p.chain = grown
	p.lastFrame = nil
}

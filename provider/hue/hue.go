// Package hue drives lights behind a Philips-Hue-style bridge over the
// CLIP v2 REST API. Per-tick color updates are coalesced per light and
// deduplicated against the last state actually sent. A rate-limited sender
// goroutine drains them, because the bridge silently drops frames when
// flooded.
package hue

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gammazero/deque"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Light is one bulb or gradient strip on the bridge. A plain bulb emits
// from a single unit box; a gradient strip reports one box per addressable
// segment, laid out in a row along the device-local X axis.
type Light struct {
	uid    string
	rid    string
	name   string
	points int
}

func (l *Light) UID() string { return l.uid }
func (l *Light) Type() light.ProviderType { return light.ProviderHue }
func (l *Light) Name() string { return l.name }

func (l *Light) LightBoundingBoxes() []light.Box {
	if l.points <= 1 {
		return []light.Box{light.UnitBox()}
	}
	boxes := make([]light.Box, l.points)
	offset := -float64(l.points-1) / 2
	for i := range boxes {
		b := light.UnitBox()
		b.Min[0] += offset + float64(i)
		b.Max[0] += offset + float64(i)
		boxes[i] = b
	}
	return boxes
}

// sentState is the last state pushed to the bridge, kept to suppress
// no-op updates.
type sentState struct {
	x, y, brightness float64
	on               bool
	valid            bool
}

type hueSection struct {
	Lights []lightRecord `yaml:"Lights"`
}

type lightRecord struct {
	RID    string `yaml:"RID"`
	Name   string `yaml:"Name"`
	Points int    `yaml:"Points"`
}

// Provider is the hue backend driver.
type Provider struct {
	cfg    config.HueConfig
	client *client

	mu      sync.Mutex
	devices map[string]*Light
	sent    map[string]sentState

	queueMu sync.Mutex
	queue   deque.Deque[string]
	pending map[string]lightState

	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewProvider creates the hue backend from its config section.
func NewProvider(cfg config.HueConfig) *Provider {
	return &Provider{
		cfg:     cfg,
		client:  newClient(cfg.BridgeAddress, cfg.APIKey, cfg.RequestTimeout()),
		devices: make(map[string]*Light),
		sent:    make(map[string]sentState),
		pending: make(map[string]lightState),
	}
}

func (p *Provider) Type() light.ProviderType { return light.ProviderHue }

// Start refreshes the device list from the bridge and spawns the sender.
// An unreachable bridge is not fatal: previously saved devices keep
// resolving and the sender will fail per-update until the bridge returns.
func (p *Provider) Start() error {
	if p.running {
		return nil
	}

	lights, err := p.client.lights()
	if err != nil {
		slog.Warn("Hue: could not query bridge, continuing with saved devices", "error", err)
	} else {
		p.mu.Lock()
		for _, bl := range lights {
			p.addLight(bl.ID, bl.Metadata.Name, gradientPoints(bl))
		}
		p.mu.Unlock()
		slog.Info("Hue: bridge queried", "lights", len(lights))
	}

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.sender()
	p.running = true
	return nil
}

// Stop drains nothing: queued updates that have not been sent yet are
// dropped with the queue.
func (p *Provider) Stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

// Compare orders hue devices by bridge name, falling back to uid so the
// order stays total when names collide.
func (p *Provider) Compare(a, b light.DeviceInScene) bool {
	la, okA := a.Device.(*Light)
	lb, okB := b.Device.(*Light)
	if okA && okB && la.name != lb.name {
		return la.name < lb.name
	}
	return a.Device.UID() < b.Device.UID()
}

// Update coalesces the view into one target state per light and enqueues
// the ones that actually changed.
func (p *Provider) Update(params light.UpdateParams) {
	if params.Empty() {
		return
	}

	i := 0
	for i < params.Len() {
		dev := params.Devices[i]
		j := i + 1
		for j < params.Len() && params.Devices[j] == dev {
			j++
		}
		hl, ok := dev.(*Light)
		if ok {
			p.enqueue(hl, averageColor(params.Colors[i:j]))
		}
		i = j
	}
}

// ResolveDevice maps a stored uid back to a live device.
func (p *Provider) ResolveDevice(uid string) light.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.devices[uid]; ok {
		return l
	}
	return nil
}

// Save persists the known device list so scenes resolve without a bridge
// round trip on the next load.
func (p *Provider) Save(settings *store.Settings) error {
	p.mu.Lock()
	section := hueSection{Lights: make([]lightRecord, 0, len(p.devices))}
	for _, l := range p.devices {
		section.Lights = append(section.Lights, lightRecord{RID: l.rid, Name: l.name, Points: l.points})
	}
	p.mu.Unlock()
	return settings.SetProviderSection(string(light.ProviderHue), section)
}

// Load restores saved devices. Devices later reported by the bridge
// overwrite these entries in place.
func (p *Provider) Load(settings *store.Settings) error {
	var section hueSection
	found, err := settings.ProviderSection(string(light.ProviderHue), &section)
	if err != nil || !found {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range section.Lights {
		p.addLight(rec.RID, rec.Name, rec.Points)
	}
	return nil
}

// addLight inserts or refreshes a device. Callers hold p.mu.
func (p *Provider) addLight(rid, name string, points int) {
	uid := light.MakeUID(light.ProviderHue, rid)
	if existing, ok := p.devices[uid]; ok {
		existing.name = name
		existing.points = points
		return
	}
	p.devices[uid] = &Light{uid: uid, rid: rid, name: name, points: points}
}

func gradientPoints(bl bridgeLight) int {
	if bl.Gradient == nil {
		return 1
	}
	return bl.Gradient.PointsCapable
}

// enqueue stores the latest desired state per light and queues the light
// for sending unless an update for it is already waiting.
func (p *Provider) enqueue(l *Light, c light.Color) {
	x, y, brightness := c.Xy()
	on := !c.IsOff()

	p.mu.Lock()
	last := p.sent[l.uid]
	p.mu.Unlock()
	if last.valid && last.on == on &&
		math.Abs(last.x-x) < 1e-4 && math.Abs(last.y-y) < 1e-4 &&
		math.Abs(last.brightness-brightness) < 0.5 {
		return
	}

	state := lightState{On: &onState{On: on}}
	if on {
		state.Dimming = &dimmingState{Brightness: brightness}
		state.Color = &colorState{XY: xyPoint{X: x, Y: y}}
	}

	p.queueMu.Lock()
	if _, waiting := p.pending[l.uid]; !waiting {
		p.queue.PushBack(l.uid)
	}
	p.pending[l.uid] = state
	p.queueMu.Unlock()

	p.mu.Lock()
	p.sent[l.uid] = sentState{x: x, y: y, brightness: brightness, on: on, valid: true}
	p.mu.Unlock()
}

// sender drains the queue at the configured rate. Transport failures are
// logged and the state cache invalidated so the update is retried on the
// next differing tick.
func (p *Provider) sender() {
	defer p.wg.Done()
	interval := time.Second / time.Duration(p.cfg.UpdatesPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			slog.Info("Hue: ending sender go-routine")
			return
		case <-ticker.C:
			uid, state, ok := p.nextPending()
			if !ok {
				continue
			}
			p.mu.Lock()
			l := p.devices[uid]
			p.mu.Unlock()
			if l == nil {
				continue
			}
			if err := p.client.setLightState(l.rid, state); err != nil {
				slog.Error("Hue: light update failed", "light", l.name, "error", err)
				p.mu.Lock()
				delete(p.sent, uid)
				p.mu.Unlock()
			}
		}
	}
}

func (p *Provider) nextPending() (string, lightState, bool) {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	if p.queue.Len() == 0 {
		return "", lightState{}, false
	}
	uid := p.queue.PopFront()
	state := p.pending[uid]
	delete(p.pending, uid)
	return uid, state, true
}

// averageColor folds a device's per-box colors into the single state a
// non-gradient API call can express.
func averageColor(colors []light.Color) light.Color {
	if len(colors) == 1 {
		return colors[0]
	}
	var h, s, l float64
	for _, c := range colors {
		h += c.H
		s += c.S
		l += c.L
	}
	n := float64(len(colors))
	return light.NewColor(h/n, s/n, l/n)
}

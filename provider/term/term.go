// Package term is a simulation backend: it renders devices as colored
// blocks in a terminal UI instead of driving real lights. Useful for
// editing scenes on a machine without any hardware attached.
package term

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/exp/maps"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/logging"
	"lautenbacher.net/lumen/store"
	"lautenbacher.net/lumen/util"
)

// Cell is one simulated light. One unit emission box.
type Cell struct {
	uid  string
	name string
}

func (c *Cell) UID() string { return c.uid }
func (c *Cell) Type() light.ProviderType { return light.ProviderTerm }
func (c *Cell) Name() string { return c.name }
func (c *Cell) LightBoundingBoxes() []light.Box { return []light.Box{light.UnitBox()} }

type termSection struct {
	Devices []string `yaml:"Devices"`
}

// frame is one rendered state: the color each device currently shows.
type frame map[string]light.Color

// Provider is the terminal simulation backend.
type Provider struct {
	osSignalChan chan os.Signal

	app     *tview.Application
	display *tview.TextView

	mu      sync.Mutex
	devices map[string]*Cell

	frames *util.AtomicEvent[frame]

	running   bool
	stopChan  chan struct{}
	wg        sync.WaitGroup
	loganchor sync.Once
}

// NewProvider creates the terminal backend. Key presses in the UI are
// translated into process signals delivered on osSignalChan.
func NewProvider(cfg config.TermConfig, osSignalChan chan os.Signal) *Provider {
	p := &Provider{
		osSignalChan: osSignalChan,
		devices:      make(map[string]*Cell),
		frames:       util.NewAtomicEvent[frame](),
	}
	for _, name := range cfg.Devices {
		p.addCell(name)
	}
	return p
}

func (p *Provider) Type() light.ProviderType { return light.ProviderTerm }

// Start builds the UI and runs it in its own goroutine. The log pane is
// handed to the logger only after the first draw, so startup output stays
// buffered until the screen exists.
func (p *Provider) Start() error {
	if p.running {
		return nil
	}

	intro := tview.NewTextView()
	intro.SetBorder(true).SetTitle(" Lumen Simulation ").SetTitleColor(tcell.ColorLightBlue)
	intro.SetText("Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload the scenes file")
	intro.SetTextAlign(1)
	intro.SetDynamicColors(true)
	intro.SetBackgroundColor(tcell.ColorDarkSlateGray)

	display := tview.NewTextView()
	display.SetBorder(true).SetTitle(" Devices ")
	display.SetTextAlign(0)
	display.SetDynamicColors(true)
	display.SetBackgroundColor(tcell.ColorDarkSlateGray)

	logView := tview.NewTextView()
	logView.SetBorder(true).SetTitle(" Log ")
	logView.SetDynamicColors(true)
	logView.SetScrollable(true)
	logView.SetMaxLines(500)

	layout := tview.NewFlex()
	layout.SetDirection(tview.FlexRow)
	layout.AddItem(intro, 4, 1, false)
	layout.AddItem(display, len(p.devices)+3, 1, false)
	layout.AddItem(logView, 0, 1, false)

	p.app = tview.NewApplication()
	p.app.SetRoot(layout, true)
	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q', 'Q':
			p.app.Stop()
			p.osSignalChan <- os.Interrupt
		case 'r', 'R':
			p.osSignalChan <- syscall.SIGHUP
		}
		return event
	})
	display.SetChangedFunc(func() { p.app.Draw() })
	logView.SetChangedFunc(func() { p.app.Draw() })
	p.app.SetAfterDrawFunc(func(_ tcell.Screen) {
		p.loganchor.Do(func() {
			if err := logging.SetOutput(tview.ANSIWriter(logView)); err != nil {
				fmt.Fprintf(os.Stderr, "switching log output to UI: %v\n", err)
			}
		})
	})
	p.display = display

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.render()
	go func() {
		if err := p.app.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "running terminal UI: %v\n", err)
			p.osSignalChan <- os.Interrupt
		}
	}()

	p.running = true
	return nil
}

func (p *Provider) Stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.app.Stop()
	p.running = false
}

// Compare orders term devices by name.
func (p *Provider) Compare(a, b light.DeviceInScene) bool {
	ca, okA := a.Device.(*Cell)
	cb, okB := b.Device.(*Cell)
	if okA && okB && ca.name != cb.name {
		return ca.name < cb.name
	}
	return a.Device.UID() < b.Device.UID()
}

// Update snapshots the view into a frame. Frames are coalesced: when the
// render goroutine falls behind only the latest frame is drawn.
func (p *Provider) Update(params light.UpdateParams) {
	if !p.running {
		return
	}
	f := make(frame, params.Len())
	for i := 0; i < params.Len(); i++ {
		if c, ok := params.Devices[i].(*Cell); ok {
			f[c.name] = params.Colors[i]
		}
	}
	p.frames.Send(f)
}

func (p *Provider) ResolveDevice(uid string) light.Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.devices[uid]; ok {
		return c
	}
	return nil
}

func (p *Provider) Save(settings *store.Settings) error {
	p.mu.Lock()
	section := termSection{Devices: make([]string, 0, len(p.devices))}
	for _, c := range p.devices {
		section.Devices = append(section.Devices, c.name)
	}
	p.mu.Unlock()
	sort.Strings(section.Devices)
	return settings.SetProviderSection(string(light.ProviderTerm), section)
}

func (p *Provider) Load(settings *store.Settings) error {
	var section termSection
	found, err := settings.ProviderSection(string(light.ProviderTerm), &section)
	if err != nil || !found {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range section.Devices {
		p.addCell(name)
	}
	return nil
}

func (p *Provider) addCell(name string) {
	uid := light.MakeUID(light.ProviderTerm, name)
	if _, exists := p.devices[uid]; exists {
		return
	}
	p.devices[uid] = &Cell{uid: uid, name: name}
}

func (p *Provider) render() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			slog.Info("Term: ending render go-routine")
			return
		case <-p.frames.Channel():
			p.display.SetText(p.renderFrame(p.frames.Value()))
		}
	}
}

// renderFrame draws one line per device: the name, a block of the device's
// color scaled to full brightness, and the raw color values.
func (p *Provider) renderFrame(f frame) string {
	p.mu.Lock()
	cells := maps.Values(p.devices)
	p.mu.Unlock()
	sort.Slice(cells, func(i, j int) bool { return cells[i].name < cells[j].name })

	width := 0
	for _, c := range cells {
		if len(c.name) > width {
			width = len(c.name)
		}
	}

	var buf strings.Builder
	for _, c := range cells {
		color, ok := f[c.name]
		buf.WriteString(fmt.Sprintf(" %-*s ", width, c.name))
		if !ok || color.IsOff() {
			buf.WriteString("[#404040]········[-] off\n")
			continue
		}
		r, g, b := color.RGB255()
		buf.WriteString(fmt.Sprintf("%s████████[-] H=%5.1f S=%4.2f L=%4.2f\n",
			scaledColor(r, g, b), color.H, color.S, color.L))
	}
	return buf.String()
}

// scaledColor maps a color to a tview tag at full brightness so dim colors
// stay distinguishable on screen. Lightness is shown numerically instead.
func scaledColor(r, g, b uint8) string {
	maxColor := math.Max(float64(r), math.Max(float64(g), float64(b)))
	if maxColor == 0 {
		return "[#000000]"
	}
	factor := 255 / maxColor
	return fmt.Sprintf("[#%02x%02x%02x]",
		byte(math.Min(float64(r)*factor, 255)),
		byte(math.Min(float64(g)*factor, 255)),
		byte(math.Min(float64(b)*factor, 255)))
}

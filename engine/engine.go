// Package engine drives the render/dispatch loop: it owns the
// authoritative scene list, the registered device providers and the
// background worker that, at a fixed tick rate, snapshots the active scene,
// sorts and flattens its devices into parallel bounding-box/device/color
// buffers, partitions them into contiguous per-backend ranges, runs the
// effect stack and hands every backend its slice of the result.
package engine

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/scene"
)

// DefaultTick approximates 60 Hz.
const DefaultTick = 16670 * time.Microsecond

// minRest is slept even when a tick overruns its budget, so a slow backend
// can never starve the rest of the process.
const minRest = time.Millisecond

// Engine owns the scene list and the tick worker. All exported methods are
// safe for concurrent use; the worker itself never holds the scene lock
// across computation.
type Engine struct {
	tick time.Duration

	// mu guards scenes and active, nothing else. Writers go through
	// SceneWriter, which also raises the dirty flag.
	mu     sync.Mutex
	scenes []scene.Scene
	active int

	// dirty tells the worker the scene list changed since its snapshot.
	// It is set by every writer operation and never cleared: once the
	// list has changed the worker re-snapshots every tick.
	dirty atomic.Bool

	providers map[light.ProviderType]light.Provider
	order     []light.ProviderType

	lifecycleMu sync.Mutex
	running     bool
	stopChan    chan struct{}
	doneChan    chan struct{}
}

// New creates an engine ticking at the given period. A zero or negative
// tick selects the ~60 Hz default.
func New(tick time.Duration) *Engine {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Engine{
		tick:      tick,
		providers: make(map[light.ProviderType]light.Provider),
	}
}

// RegisterProvider adds a backend driver. Providers are fixed state of the
// engine instance: they must all be registered before Start.
func (e *Engine) RegisterProvider(p light.Provider) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if e.running {
		return fmt.Errorf("cannot register provider %q on a running engine", p.Type())
	}
	if _, exists := e.providers[p.Type()]; exists {
		return fmt.Errorf("provider %q already registered", p.Type())
	}
	e.providers[p.Type()] = p
	e.order = append(e.order, p.Type())
	sort.Slice(e.order, func(i, j int) bool { return e.order[i] < e.order[j] })
	return nil
}

// Provider returns the registered backend of the given type, or nil.
func (e *Engine) Provider(t light.ProviderType) light.Provider {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	return e.providers[t]
}

// Start brings up all providers and then spawns the tick worker. Calling
// Start on a running engine is a no-op.
func (e *Engine) Start() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if e.running {
		return nil
	}

	started := make([]light.Provider, 0, len(e.order))
	for _, t := range e.order {
		p := e.providers[t]
		if err := p.Start(); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				started[i].Stop()
			}
			return fmt.Errorf("starting provider %q: %w", t, err)
		}
		started = append(started, p)
	}

	e.stopChan = make(chan struct{})
	e.doneChan = make(chan struct{})
	e.running = true
	go e.run(e.stopChan, e.doneChan)
	return nil
}

// Stop signals the worker, waits for it to finish its current tick and
// exit, then stops the providers in reverse start order. Calling Stop on a
// stopped engine is a no-op.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if !e.running {
		return
	}
	close(e.stopChan)
	<-e.doneChan
	for i := len(e.order) - 1; i >= 0; i-- {
		e.providers[e.order[i]].Stop()
	}
	e.running = false
}

// IsRunning reports whether the tick worker is active.
func (e *Engine) IsRunning() bool {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	return e.running
}

// Scenes returns a point-in-time copy of the scene list.
func (e *Engine) Scenes() []scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]scene.Scene, len(e.scenes))
	for i, s := range e.scenes {
		out[i] = s.Clone()
	}
	return out
}

// ActiveScene returns the index of the scene being rendered.
func (e *Engine) ActiveScene() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Writer returns the single choke point for scene-list mutation.
func (e *Engine) Writer() *SceneWriter {
	return &SceneWriter{engine: e}
}

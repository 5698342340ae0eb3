package engine

import (
	"sort"
	"time"

	"lautenbacher.net/lumen/effect"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/scene"
)

// run is the tick worker. The render scene and the three flattened buffers
// are private to this goroutine. They are rebuilt only when the dirty flag
// says the scene list changed, and the slices are reused across rebuilds.
func (e *Engine) run(stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	var (
		renderScene scene.Scene
		boxes       []light.Box
		devices     []light.Device
		colors      []light.Color
		updates     = make(map[light.ProviderType]light.UpdateParams, len(e.order))
	)
	defer func() { stopEffects(renderScene.Effects, nil) }()

	lastStart := time.Now()
	for {
		select {
		case <-stopChan:
			return
		default:
		}

		start := time.Now()
		// Wall-clock delta between tick starts. An overrunning tick feeds
		// a larger delta forward, it is never fast-forwarded or dropped.
		deltaTime := start.Sub(lastStart)
		lastStart = start

		if e.dirty.Load() {
			previous := renderScene.Effects
			e.mu.Lock()
			if e.active >= 0 && e.active < len(e.scenes) {
				renderScene = e.scenes[e.active].Clone()
			} else {
				renderScene = scene.Scene{}
			}
			e.mu.Unlock()
			stopEffects(previous, renderScene.Effects)

			e.sortDevices(renderScene.Devices)
			boxes, devices = flatten(renderScene.Devices, boxes[:0], devices[:0])
			colors = resetColors(colors, len(boxes))
			e.partition(boxes, devices, colors, updates)
		}

		for _, eff := range renderScene.Effects {
			eff.Advance(deltaTime)
			eff.Apply(boxes, colors)
		}

		for _, t := range e.order {
			e.providers[t].Update(updates[t])
		}

		rest := e.tick - time.Since(start)
		if rest < minRest {
			rest = minRest
		}
		select {
		case <-stopChan:
			return
		case <-time.After(rest):
		}
	}
}

// stopEffects stops every effect in old that is not also in kept. Effects
// are pointers, so identity comparison is enough. Only effects holding
// background resources implement Stopper; the rest are skipped.
func stopEffects(old, kept []effect.Effect) {
	for _, e := range old {
		s, ok := e.(effect.Stopper)
		if !ok {
			continue
		}
		retained := false
		for _, k := range kept {
			if k == e {
				retained = true
				break
			}
		}
		if !retained {
			s.Stop()
		}
	}
}

// sortDevices groups the render scene's devices by backend type and orders
// each group with its provider's comparator. partition relies on devices of
// one type being contiguous after this. Stale entries sort to the end.
func (e *Engine) sortDevices(devices []light.DeviceInScene) {
	sort.SliceStable(devices, func(i, j int) bool {
		a, b := devices[i], devices[j]
		if a.Device == nil {
			return false
		}
		if b.Device == nil {
			return true
		}
		if a.Device.Type() == b.Device.Type() {
			if p := e.providers[a.Device.Type()]; p != nil {
				return p.Compare(a, b)
			}
		}
		return light.Less(a.Device, b.Device)
	})
}

// flatten queries every placed device for its scene-space bounding boxes
// and appends one device handle per box, keeping the two arrays parallel.
// A device reporting zero boxes contributes nothing.
func flatten(placed []light.DeviceInScene, boxes []light.Box, devices []light.Device) ([]light.Box, []light.Device) {
	for _, dis := range placed {
		if dis.Device == nil {
			continue
		}
		for _, box := range dis.LightBoundingBoxes() {
			boxes = append(boxes, box)
			devices = append(devices, dis.Device)
		}
	}
	return boxes, devices
}

// resetColors resizes the color buffer to n and discards previous values;
// effects regenerate every color each tick.
func resetColors(colors []light.Color, n int) []light.Color {
	if cap(colors) < n {
		return make([]light.Color, n)
	}
	colors = colors[:n]
	for i := range colors {
		colors[i] = light.Color{}
	}
	return colors
}

// partition records, for every registered backend, the contiguous run of
// the flattened arrays holding that backend's devices. A backend with no
// devices gets an empty view. Devices of unregistered types keep their
// buffer slots (effects still paint them) but are dispatched to no one.
func (e *Engine) partition(boxes []light.Box, devices []light.Device, colors []light.Color, updates map[light.ProviderType]light.UpdateParams) {
	for _, t := range e.order {
		updates[t] = light.UpdateParams{
			BoxesDirty:   true,
			DevicesDirty: true,
			ColorsDirty:  true,
		}
	}

	i := 0
	for i < len(devices) {
		t := devices[i].Type()
		j := i + 1
		for j < len(devices) && devices[j].Type() == t {
			j++
		}
		if _, registered := e.providers[t]; registered {
			updates[t] = light.UpdateParams{
				Boxes:        boxes[i:j],
				Devices:      devices[i:j],
				Colors:       colors[i:j],
				BoxesDirty:   true,
				DevicesDirty: true,
				ColorsDirty:  true,
			}
		}
		i = j
	}
}

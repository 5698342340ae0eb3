// Package scene defines the unit of rendering: a set of positioned devices
// plus an ordered effect stack.
package scene

import (
	"github.com/google/uuid"

	"lautenbacher.net/lumen/effect"
	"lautenbacher.net/lumen/light"
)

// Scene is an ordered list of placed devices and an ordered list of
// effects. Device order only matters until the engine's per-tick sort;
// effect order is execution order and determines layering.
//
// Scenes are replaced wholesale rather than mutated in place; the engine's
// writer is the only sanctioned mutation path.
type Scene struct {
	ID      string
	Name    string
	Devices []light.DeviceInScene
	Effects []effect.Effect
}

// New creates an empty named scene with a fresh id.
func New(name string) Scene {
	return Scene{
		ID:   uuid.NewString(),
		Name: name,
	}
}

// Clone returns a copy safe to hand to the render worker: fresh slices,
// shared referents. Devices stay owned by their providers and effects keep
// their state across ticks, so sharing the elements is the point.
func (s Scene) Clone() Scene {
	out := Scene{ID: s.ID, Name: s.Name}
	if len(s.Devices) > 0 {
		out.Devices = make([]light.DeviceInScene, len(s.Devices))
		copy(out.Devices, s.Devices)
	}
	if len(s.Effects) > 0 {
		out.Effects = make([]effect.Effect, len(s.Effects))
		copy(out.Effects, s.Effects)
	}
	return out
}

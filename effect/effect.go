// Package effect holds the per-scene behavior units that paint colors onto
// bounding boxes. Effects are advanced by wall-clock elapsed time once per
// tick and then applied to the full flattened buffers, in scene order.
// They are never invoked concurrently.
package effect

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Effect is a stateful, time-driven color generator. Apply may read the
// boxes but must only write colors, and only at matching indices; both
// slices are guaranteed to be of equal length.
type Effect interface {
	Type() string
	Advance(elapsed time.Duration)
	Apply(boxes []light.Box, colors []light.Color)
	// Encode produces the stored form of the effect.
	Encode() (store.EffectRecord, error)
}

// Stopper is implemented by effects that own background resources, like the
// audio effect's capture goroutine. The engine stops an effect when it
// leaves the render scene; a later Advance may start it again.
type Stopper interface {
	Stop()
}

// Effect type tags, fixed at construction (no dynamic discovery).
const (
	TypeStatic     = "static"
	TypeRainbow    = "rainbow"
	TypePulse      = "pulse"
	TypeNightlight = "nightlight"
	TypeAudio      = "audio"
)

// Decode reconstructs an effect from its stored record. Unknown type tags
// are an error; the caller decides whether that skips the entry or fails
// the load.
func Decode(rec store.EffectRecord) (Effect, error) {
	switch rec.Type {
	case TypeStatic:
		return decodeStatic(rec)
	case TypeRainbow:
		return decodeRainbow(rec)
	case TypePulse:
		return decodePulse(rec)
	case TypeNightlight:
		return decodeNightlight(rec)
	case TypeAudio:
		return decodeAudio(rec)
	default:
		return nil, fmt.Errorf("unknown effect type %q", rec.Type)
	}
}

func encodeRecord(typ string, params any) (store.EffectRecord, error) {
	var node yaml.Node
	if err := node.Encode(params); err != nil {
		return store.EffectRecord{}, fmt.Errorf("encoding %s effect params: %w", typ, err)
	}
	return store.EffectRecord{Type: typ, Params: node}, nil
}

func decodeParams(rec store.EffectRecord, out any) error {
	if rec.Params.IsZero() {
		return nil
	}
	if err := rec.Params.Decode(out); err != nil {
		return fmt.Errorf("decoding %s effect params: %w", rec.Type, err)
	}
	return nil
}

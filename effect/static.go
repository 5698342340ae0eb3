package effect

import (
	"time"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Static paints every box with one constant color.
type Static struct {
	color light.Color
}

type staticParams struct {
	H float64 `yaml:"H"`
	S float64 `yaml:"S"`
	L float64 `yaml:"L"`
}

// NewStatic creates a constant-color effect.
func NewStatic(color light.Color) *Static {
	return &Static{color: color}
}

func (e *Static) Type() string { return TypeStatic }

func (e *Static) Advance(elapsed time.Duration) {}

func (e *Static) Apply(boxes []light.Box, colors []light.Color) {
	for i := range colors {
		colors[i] = e.color
	}
}

func (e *Static) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypeStatic, staticParams{H: e.color.H, S: e.color.S, L: e.color.L})
}

func decodeStatic(rec store.EffectRecord) (*Static, error) {
	var p staticParams
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return NewStatic(light.NewColor(p.H, p.S, p.L)), nil
}

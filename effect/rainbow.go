package effect

import (
	"time"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Rainbow sweeps the hue wheel over time, spread spatially along the X
// axis so neighbouring devices show neighbouring hues.
type Rainbow struct {
	speed      float64 // degrees of hue per second
	spread     float64 // degrees of hue per scene unit along X
	saturation float64
	lightness  float64
	phase      float64 // current hue offset, degrees
}

type rainbowParams struct {
	Speed      float64 `yaml:"Speed"`
	Spread     float64 `yaml:"Spread"`
	Saturation float64 `yaml:"Saturation"`
	Lightness  float64 `yaml:"Lightness"`
}

// NewRainbow creates a hue sweep. speed is degrees per second, spread is
// degrees per scene unit along the X axis.
func NewRainbow(speed, spread, saturation, lightness float64) *Rainbow {
	return &Rainbow{
		speed:      speed,
		spread:     spread,
		saturation: saturation,
		lightness:  lightness,
	}
}

func (e *Rainbow) Type() string { return TypeRainbow }

func (e *Rainbow) Advance(elapsed time.Duration) {
	e.phase += e.speed * elapsed.Seconds()
	for e.phase >= 360 {
		e.phase -= 360
	}
	for e.phase < 0 {
		e.phase += 360
	}
}

func (e *Rainbow) Apply(boxes []light.Box, colors []light.Color) {
	for i, box := range boxes {
		hue := e.phase + box.Center().X()*e.spread
		colors[i] = light.NewColor(hue, e.saturation, e.lightness)
	}
}

func (e *Rainbow) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypeRainbow, rainbowParams{
		Speed:      e.speed,
		Spread:     e.spread,
		Saturation: e.saturation,
		Lightness:  e.lightness,
	})
}

func decodeRainbow(rec store.EffectRecord) (*Rainbow, error) {
	p := rainbowParams{Speed: 36, Spread: 30, Saturation: 1, Lightness: 0.6}
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return NewRainbow(p.Speed, p.Spread, p.Saturation, p.Lightness), nil
}

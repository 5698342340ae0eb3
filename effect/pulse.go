package effect

import (
	"math"
	"time"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Pulse breathes a single color: the lightness swings sinusoidally between
// a floor and a ceiling with a fixed period.
type Pulse struct {
	hue        float64
	saturation float64
	minL       float64
	maxL       float64
	period     time.Duration
	elapsed    float64 // seconds into the current cycle
}

type pulseParams struct {
	H            float64 `yaml:"H"`
	S            float64 `yaml:"S"`
	MinLightness float64 `yaml:"MinLightness"`
	MaxLightness float64 `yaml:"MaxLightness"`
	PeriodMillis int     `yaml:"PeriodMillis"`
}

// NewPulse creates a breathing effect with the given color and period.
func NewPulse(hue, saturation, minL, maxL float64, period time.Duration) *Pulse {
	if period <= 0 {
		period = 2 * time.Second
	}
	if maxL < minL {
		minL, maxL = maxL, minL
	}
	return &Pulse{
		hue:        hue,
		saturation: saturation,
		minL:       minL,
		maxL:       maxL,
		period:     period,
	}
}

func (e *Pulse) Type() string { return TypePulse }

func (e *Pulse) Advance(elapsed time.Duration) {
	e.elapsed += elapsed.Seconds()
	period := e.period.Seconds()
	for e.elapsed >= period {
		e.elapsed -= period
	}
}

func (e *Pulse) Apply(boxes []light.Box, colors []light.Color) {
	fraction := e.elapsed / e.period.Seconds()
	// Cosine so the cycle starts at the floor.
	level := e.minL + (e.maxL-e.minL)*(1-math.Cos(2*math.Pi*fraction))/2
	c := light.NewColor(e.hue, e.saturation, level)
	for i := range colors {
		colors[i] = c
	}
}

func (e *Pulse) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypePulse, pulseParams{
		H:            e.hue,
		S:            e.saturation,
		MinLightness: e.minL,
		MaxLightness: e.maxL,
		PeriodMillis: int(e.period / time.Millisecond),
	})
}

func decodePulse(rec store.EffectRecord) (*Pulse, error) {
	p := pulseParams{S: 1, MinLightness: 0.1, MaxLightness: 0.7, PeriodMillis: 2000}
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return NewPulse(p.H, p.S, p.MinLightness, p.MaxLightness,
		time.Duration(p.PeriodMillis)*time.Millisecond), nil
}

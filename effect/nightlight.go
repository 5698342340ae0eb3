package effect

import (
	"time"

	"github.com/nathan-osman/go-sunrise"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Nightlight paints a dim warm color between sunset and sunrise and goes
// dark during the day. Sun times are computed for the configured location;
// the check is cached and refreshed at most once per minute since ticks are
// far more frequent than dusk.
type Nightlight struct {
	latitude  float64
	longitude float64
	color     light.Color

	now       func() time.Time
	lastCheck time.Time
	night     bool
}

type nightlightParams struct {
	Latitude  float64 `yaml:"Latitude"`
	Longitude float64 `yaml:"Longitude"`
	H         float64 `yaml:"H"`
	S         float64 `yaml:"S"`
	L         float64 `yaml:"L"`
}

// NewNightlight creates a night-only constant effect for the location.
func NewNightlight(latitude, longitude float64, color light.Color) *Nightlight {
	return &Nightlight{
		latitude:  latitude,
		longitude: longitude,
		color:     color,
		now:       time.Now,
	}
}

func (e *Nightlight) Type() string { return TypeNightlight }

func (e *Nightlight) Advance(elapsed time.Duration) {
	now := e.now()
	if !e.lastCheck.IsZero() && now.Sub(e.lastCheck) < time.Minute {
		return
	}
	e.lastCheck = now
	rise, set := sunrise.SunriseSunset(e.latitude, e.longitude, now.Year(), now.Month(), now.Day())
	e.night = now.Before(rise) || now.After(set)
}

func (e *Nightlight) Apply(boxes []light.Box, colors []light.Color) {
	c := light.Color{}
	if e.night {
		c = e.color
	}
	for i := range colors {
		colors[i] = c
	}
}

func (e *Nightlight) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypeNightlight, nightlightParams{
		Latitude:  e.latitude,
		Longitude: e.longitude,
		H:         e.color.H,
		S:         e.color.S,
		L:         e.color.L,
	})
}

func decodeNightlight(rec store.EffectRecord) (*Nightlight, error) {
	p := nightlightParams{H: 25, S: 0.9, L: 0.15}
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return NewNightlight(p.Latitude, p.Longitude, light.NewColor(p.H, p.S, p.L)), nil
}

//go:build !cgo

package effect

import (
	"log/slog"
	"time"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

// Audio is a stub for builds without CGO: it keeps the scene loadable but
// paints nothing.
type Audio struct {
	params audioParams
}

type audioParams struct {
	Device     string  `yaml:"Device"`
	H          float64 `yaml:"H"`
	S          float64 `yaml:"S"`
	MaxL       float64 `yaml:"MaxL"`
	MinDB      float64 `yaml:"MinDB"`
	MaxDB      float64 `yaml:"MaxDB"`
	SampleRate int     `yaml:"SampleRate"`
	Frames     int     `yaml:"Frames"`
}

// newAudio returns the stub and logs a warning once.
func newAudio(p audioParams) *Audio {
	slog.Warn("Audio effect: audio support is disabled in this build (requires CGO)")
	return &Audio{params: p}
}

func (e *Audio) Type() string { return TypeAudio }

func (e *Audio) Advance(elapsed time.Duration) {}

func (e *Audio) Stop() {}

func (e *Audio) Apply(boxes []light.Box, colors []light.Color) {}

func (e *Audio) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypeAudio, e.params)
}

func decodeAudio(rec store.EffectRecord) (*Audio, error) {
	p := audioParams{H: 280, S: 1, MaxL: 0.8, MinDB: -50, MaxDB: -5, SampleRate: 44100, Frames: 512}
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return newAudio(p), nil
}

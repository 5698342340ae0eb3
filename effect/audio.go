//go:build cgo

package effect

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

var (
	paMutex       sync.Mutex
	paInitialized bool
)

// Audio modulates a base color's lightness with the level of an audio
// input (a VU meter across the whole scene). A background goroutine owns
// the portaudio stream and publishes the latest level; Advance smooths it
// so the lights don't flicker at buffer granularity.
type Audio struct {
	device     string
	hue        float64
	saturation float64
	maxL       float64
	minDB      float64
	maxDB      float64

	mu       sync.Mutex
	rawLevel float64 // latest level from the capture goroutine, 0..1
	started  bool
	stop     chan struct{}

	level float64 // smoothed level used by Apply
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

// newAudio creates an audio-reactive effect reading from the first input
// device whose name contains device (case-insensitive).
func newAudio(p audioParams) *Audio {
	return &Audio{
		device:     p.Device,
		hue:        p.H,
		saturation: p.S,
		maxL:       p.MaxL,
		minDB:      p.MinDB,
		maxDB:      p.MaxDB,
	}
}

func (e *Audio) Type() string { return TypeAudio }

func (e *Audio) Advance(elapsed time.Duration) {
	e.mu.Lock()
	if !e.started {
		e.started = true
		e.stop = make(chan struct{})
		go e.capture(e.stop)
	}
	target := e.rawLevel
	e.mu.Unlock()

	// Exponential smoothing with ~100ms time constant.
	alpha := 1 - math.Exp(-elapsed.Seconds()/0.1)
	e.level += (target - e.level) * alpha
}

// Stop ends the capture goroutine and closes its stream. The engine calls
// this when the effect leaves the render scene; a later Advance starts a
// fresh capture.
func (e *Audio) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return
	}
	close(e.stop)
	e.started = false
	e.rawLevel = 0
}

func (e *Audio) Apply(boxes []light.Box, colors []light.Color) {
	c := light.NewColor(e.hue, e.saturation, e.level*e.maxL)
	for i := range colors {
		colors[i] = c
	}
}

func (e *Audio) Encode() (store.EffectRecord, error) {
	return encodeRecord(TypeAudio, audioParams{
		Device: e.device,
		H:      e.hue,
		S:      e.saturation,
		MaxL:   e.maxL,
		MinDB:  e.minDB,
		MaxDB:  e.maxDB,
	})
}

func decodeAudio(rec store.EffectRecord) (*Audio, error) {
	p := audioParams{H: 280, S: 1, MaxL: 0.8, MinDB: -50, MaxDB: -5, SampleRate: 44100, Frames: 512}
	if err := decodeParams(rec, &p); err != nil {
		return nil, err
	}
	return newAudio(p), nil
}

// maxConsecutiveReadErrors ends a capture whose stream keeps failing. Input
// overflow under load resets the count on the next good read.
const maxConsecutiveReadErrors = 50

// capture owns the audio stream until stop is closed or the stream dies.
func (e *Audio) capture(stop <-chan struct{}) {
	paMutex.Lock()
	if !paInitialized {
		if err := portaudio.Initialize(); err != nil {
			slog.Error("Audio effect: failed to initialize portaudio", "error", err)
			paMutex.Unlock()
			return
		}
		paInitialized = true
		slog.Info("Audio effect: PortAudio initialized")
	}
	paMutex.Unlock()

	inDevice, err := e.findDevice()
	if err != nil {
		slog.Error("Audio effect: no input device", "error", err)
		return
	}

	const frames = 512
	buffer := make([]float32, frames*inDevice.MaxInputChannels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   inDevice,
			Channels: inDevice.MaxInputChannels,
			Latency:  inDevice.DefaultLowInputLatency,
		},
		SampleRate:      inDevice.DefaultSampleRate,
		FramesPerBuffer: frames,
	}, buffer)
	if err != nil {
		slog.Error("Audio effect: failed to open stream", "error", err)
		return
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		slog.Error("Audio effect: failed to start stream", "error", err)
		return
	}
	defer stream.Stop()

	slog.Info("Audio effect: capturing", "device", inDevice.Name)
	readErrors := 0
	for {
		select {
		case <-stop:
			slog.Info("Audio effect: ending capture go-routine")
			return
		default:
		}
		if err := stream.Read(); err != nil {
			readErrors++
			if readErrors >= maxConsecutiveReadErrors {
				slog.Error("Audio effect: stream keeps failing, giving up", "error", err)
				return
			}
			continue
		}
		readErrors = 0
		db := rmsToDB(calculateRMS(buffer))
		level := (db - e.minDB) / (e.maxDB - e.minDB)
		e.mu.Lock()
		e.rawLevel = math.Min(math.Max(level, 0), 1)
		e.mu.Unlock()
	}
}

func (e *Audio) findDevice() (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("could not list audio devices: %w", err)
	}
	for _, device := range devices {
		if device.MaxInputChannels > 0 &&
			strings.Contains(strings.ToLower(device.Name), strings.ToLower(e.device)) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("no suitable audio input device found")
}

func calculateRMS(samples []float32) float64 {
	var sumSquare float64
	for _, sample := range samples {
		sumSquare += float64(sample * sample)
	}
	return math.Sqrt(sumSquare / float64(len(samples)))
}

func rmsToDB(rms float64) float64 {
	rms = math.Max(0.0001, rms)
	return 20 * math.Log10(rms)
}

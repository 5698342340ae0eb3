package strip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

func TestWS2801Frame(t *testing.T) {
	d := newWS2801Driver([3]float64{1, 1, 1})
	frame := d.frame([]rgb{
		{r: 10, g: 20, b: 30},
		{r: 40, g: 50, b: 60},
	})
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60}, frame)
}

func TestWS2801ColorCorrection(t *testing.T) {
	d := newWS2801Driver([3]float64{0.5, 1, 2})
	frame := d.frame([]rgb{{r: 100, g: 100, b: 200}})
	assert.Equal(t, []byte{50, 100, 255}, frame, "correction scales and clamps at 255")
}

func TestAPA102Frame(t *testing.T) {
	d := newAPA102Driver(31, [3]float64{1, 1, 1})
	frame := d.frame([]rgb{
		{r: 1, g: 2, b: 3},
		{r: 4, g: 5, b: 6},
	})

	// 4 start bytes, brightness/blue/green/red per LED, 1 end byte.
	expected := []byte{
		0x00, 0x00, 0x00, 0x00,
		0xFF, 3, 2, 1,
		0xFF, 6, 5, 4,
		0xFF,
	}
	assert.Equal(t, expected, frame)
}

func TestAPA102Brightness(t *testing.T) {
	d := newAPA102Driver(1, [3]float64{1, 1, 1})
	frame := d.frame([]rgb{{}})
	assert.Equal(t, byte(0xE1), frame[4], "brightness is OR-ed with the 0xE0 marker")
}

func TestAPA102EndFrameLength(t *testing.T) {
	d := newAPA102Driver(31, [3]float64{1, 1, 1})

	frame := d.frame(make([]rgb, 16))
	assert.Len(t, frame, 4+16*4+2, "16 LEDs need 2 end bytes")

	frame = d.frame(make([]rgb, 15))
	assert.Len(t, frame, 4+15*4+1)
}

func testConfig() config.StripConfig {
	return config.StripConfig{
		Enabled:          true,
		LEDType:          "WS2801",
		SPIFrequency:     2000000,
		APA102Brightness: 31,
		ColorCorrection:  []float64{1, 1, 1},
		Strips: []config.StripDeviceConfig{
			{Name: "left", Leds: 2, Offset: 0},
			{Name: "right", Leds: 2, Offset: 2},
		},
	}
}

func TestUpdateWritesChainFrame(t *testing.T) {
	p := NewProvider(testConfig())
	var frames [][]byte
	p.exchange = func(data []byte) {
		frames = append(frames, append([]byte(nil), data...))
	}
	require.NoError(t, p.Start())
	defer p.Stop()

	left := p.ResolveDevice("strip-left").(*Strip)
	right := p.ResolveDevice("strip-right").(*Strip)

	devices := []light.Device{left, left, right, right}
	boxes := make([]light.Box, 4)
	colors := []light.Color{
		light.NewColor(0, 0, 1), light.NewColor(0, 0, 1), // white
		{}, {}, // off
	}
	p.Update(light.UpdateParams{Boxes: boxes, Devices: devices, Colors: colors})

	require.Len(t, frames, 1)
	assert.Equal(t, []byte{255, 255, 255, 255, 255, 255, 0, 0, 0, 0, 0, 0}, frames[0])
}

func TestUpdateSkipsUnchangedFrames(t *testing.T) {
	p := NewProvider(testConfig())
	calls := 0
	p.exchange = func([]byte) { calls++ }
	require.NoError(t, p.Start())
	defer p.Stop()

	left := p.ResolveDevice("strip-left").(*Strip)
	params := light.UpdateParams{
		Boxes:   make([]light.Box, 2),
		Devices: []light.Device{left, left},
		Colors:  []light.Color{light.NewColor(120, 1, 0.5), light.NewColor(120, 1, 0.5)},
	}

	p.Update(params)
	p.Update(params)
	assert.Equal(t, 1, calls, "identical chain state must not be re-sent")

	params.Colors[0] = light.NewColor(240, 1, 0.5)
	p.Update(params)
	assert.Equal(t, 2, calls)
}

func TestStartRejectsUnknownLEDType(t *testing.T) {
	cfg := testConfig()
	cfg.LEDType = "neopixel"
	p := NewProvider(cfg)
	p.exchange = func([]byte) {}
	assert.Error(t, p.Start())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := NewProvider(testConfig())
	settings := store.New()
	require.NoError(t, p.Save(settings))

	restored := NewProvider(config.StripConfig{LEDType: "WS2801", ColorCorrection: []float64{1, 1, 1}})
	require.NoError(t, restored.Load(settings))

	dev := restored.ResolveDevice("strip-right")
	require.NotNil(t, dev)
	s := dev.(*Strip)
	assert.Equal(t, 2, s.leds)
	assert.Equal(t, 2, s.offset)
	assert.Len(t, restored.chain, 4, "chain grows to cover loaded strips")
}

func TestStripBoundingBoxesFormARow(t *testing.T) {
	s := &Strip{uid: "strip-x", name: "x", leds: 3}
	boxes := s.LightBoundingBoxes()
	require.Len(t, boxes, 3)
	assert.InDelta(t, -1.0, boxes[0].Center().X(), 1e-9)
	assert.InDelta(t, 0.0, boxes[1].Center().X(), 1e-9)
	assert.InDelta(t, 1.0, boxes[2].Center().X(), 1e-9)
}

func TestCompareOrdersByOffset(t *testing.T) {
	p := NewProvider(testConfig())
	left := p.ResolveDevice("strip-left")
	right := p.ResolveDevice("strip-right")

	a := light.DeviceInScene{Device: left}
	b := light.DeviceInScene{Device: right}
	assert.True(t, p.Compare(a, b))
	assert.False(t, p.Compare(b, a))
}

package hue

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

const lightsJSON = `{
	"errors": [],
	"data": [
		{"id": "rid-1", "metadata": {"name": "Desk", "archetype": "sultan_bulb"}, "on": {"on": true}},
		{"id": "rid-2", "metadata": {"name": "Shelf", "archetype": "hue_lightstrip"}, "on": {"on": false},
		 "gradient": {"points_capable": 5}}
	]
}`

func newTestBridge(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	ts := httptest.NewTLSServer(handler)
	t.Cleanup(ts.Close)
	return newClient(ts.URL, "test-key", 2*time.Second)
}

func TestClientLights(t *testing.T) {
	c := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/clip/v2/resource/light", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("hue-application-key"))
		io.WriteString(w, lightsJSON)
	})

	lights, err := c.lights()
	require.NoError(t, err)
	require.Len(t, lights, 2)
	assert.Equal(t, "Desk", lights[0].Metadata.Name)
	assert.Nil(t, lights[0].Gradient)
	require.NotNil(t, lights[1].Gradient)
	assert.Equal(t, 5, lights[1].Gradient.PointsCapable)
}

func TestClientLightsBridgeError(t *testing.T) {
	c := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"errors": [{"description": "unauthorized user"}], "data": []}`)
	})

	_, err := c.lights()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized user")
}

func TestClientSetLightState(t *testing.T) {
	var captured lightState
	c := newTestBridge(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clip/v2/resource/light/rid-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, `{"errors": [], "data": []}`)
	})

	state := lightState{
		On:      &onState{On: true},
		Dimming: &dimmingState{Brightness: 50},
		Color:   &colorState{XY: xyPoint{X: 0.31, Y: 0.33}},
	}
	require.NoError(t, c.setLightState("rid-1", state))
	require.NotNil(t, captured.On)
	assert.True(t, captured.On.On)
	assert.Equal(t, 50.0, captured.Dimming.Brightness)
}

func TestOffStateOmitsColor(t *testing.T) {
	state := lightState{On: &onState{On: false}}
	body, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"on": {"on": false}}`, string(body))
}

func TestGradientLightBoxes(t *testing.T) {
	plain := &Light{uid: "hue-a", rid: "a", name: "Desk", points: 1}
	assert.Len(t, plain.LightBoundingBoxes(), 1)

	strip := &Light{uid: "hue-b", rid: "b", name: "Shelf", points: 5}
	boxes := strip.LightBoundingBoxes()
	require.Len(t, boxes, 5)
	assert.InDelta(t, -2.0, boxes[0].Center().X(), 1e-9)
	assert.InDelta(t, 2.0, boxes[4].Center().X(), 1e-9)
	assert.InDelta(t, 0.0, boxes[2].Center().X(), 1e-9)
}

func TestAverageColor(t *testing.T) {
	single := averageColor([]light.Color{light.NewColor(120, 1, 0.5)})
	assert.Equal(t, light.NewColor(120, 1, 0.5), single)

	avg := averageColor([]light.Color{
		light.NewColor(100, 1, 0.4),
		light.NewColor(140, 0.5, 0.6),
	})
	assert.InDelta(t, 120.0, avg.H, 1e-9)
	assert.InDelta(t, 0.75, avg.S, 1e-9)
	assert.InDelta(t, 0.5, avg.L, 1e-9)
}

func TestUpdateCoalescesPerLight(t *testing.T) {
	p := NewProvider(config.HueConfig{UpdatesPerSecond: 10})
	p.addLight("rid-1", "Desk", 1)
	p.addLight("rid-2", "Shelf", 3)
	desk := p.ResolveDevice("hue-rid-1").(*Light)
	shelf := p.ResolveDevice("hue-rid-2").(*Light)

	boxes := make([]light.Box, 4)
	devices := []light.Device{desk, shelf, shelf, shelf}
	colors := []light.Color{
		light.NewColor(0, 0, 1),
		light.NewColor(100, 1, 0.4), light.NewColor(100, 1, 0.4), light.NewColor(100, 1, 0.4),
	}
	p.Update(light.UpdateParams{Boxes: boxes, Devices: devices, Colors: colors})

	uid1, state1, ok := p.nextPending()
	require.True(t, ok)
	assert.Equal(t, "hue-rid-1", uid1)
	assert.True(t, state1.On.On)

	uid2, state2, ok := p.nextPending()
	require.True(t, ok)
	assert.Equal(t, "hue-rid-2", uid2)
	require.NotNil(t, state2.Dimming)
	assert.InDelta(t, 40.0, state2.Dimming.Brightness, 1e-6)

	_, _, ok = p.nextPending()
	assert.False(t, ok, "one queue entry per light")
}

func TestEnqueueSuppressesNoopUpdates(t *testing.T) {
	p := NewProvider(config.HueConfig{UpdatesPerSecond: 10})
	p.addLight("rid-1", "Desk", 1)
	desk := p.ResolveDevice("hue-rid-1").(*Light)

	p.enqueue(desk, light.NewColor(120, 1, 0.5))
	_, _, ok := p.nextPending()
	require.True(t, ok)

	// Same color again: nothing new to send.
	p.enqueue(desk, light.NewColor(120, 1, 0.5))
	_, _, ok = p.nextPending()
	assert.False(t, ok)

	// A real change queues again.
	p.enqueue(desk, light.NewColor(240, 1, 0.5))
	_, _, ok = p.nextPending()
	assert.True(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := NewProvider(config.HueConfig{UpdatesPerSecond: 10})
	p.addLight("rid-1", "Desk", 1)
	p.addLight("rid-2", "Shelf", 5)

	settings := store.New()
	require.NoError(t, p.Save(settings))

	restored := NewProvider(config.HueConfig{UpdatesPerSecond: 10})
	require.NoError(t, restored.Load(settings))

	dev := restored.ResolveDevice("hue-rid-2")
	require.NotNil(t, dev)
	l := dev.(*Light)
	assert.Equal(t, "Shelf", l.name)
	assert.Equal(t, 5, l.points)
	assert.Nil(t, restored.ResolveDevice("hue-rid-9"))
}

func TestCompareOrdersByName(t *testing.T) {
	p := NewProvider(config.HueConfig{UpdatesPerSecond: 10})
	p.addLight("rid-1", "Zebra", 1)
	p.addLight("rid-2", "Aardvark", 1)

	a := light.DeviceInScene{Device: p.ResolveDevice("hue-rid-2")}
	z := light.DeviceInScene{Device: p.ResolveDevice("hue-rid-1")}
	assert.True(t, p.Compare(a, z))
	assert.False(t, p.Compare(z, a))
}

package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/store"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:  true,
		Broker:   "tcp://localhost:1883",
		ClientID: "lumen-test",
		Devices: []config.MQTTDeviceConfig{
			{Name: "desk", Topic: "zigbee2mqtt/desk"},
			{Name: "shelf", Topic: "zigbee2mqtt/shelf"},
		},
	}
}

func TestConfigDevicesAreRegistered(t *testing.T) {
	p := NewProvider(testConfig())

	dev := p.ResolveDevice("mqtt-desk")
	require.NotNil(t, dev)
	assert.Equal(t, light.ProviderMQTT, dev.Type())
	assert.Equal(t, "zigbee2mqtt/desk", dev.(*Bulb).topic)
	assert.Nil(t, p.ResolveDevice("mqtt-unknown"))
}

func TestStatePayloadShape(t *testing.T) {
	payload := statePayload{State: "ON", Brightness: 127}
	payload.Color = &struct {
		Hue        float64 `json:"hue"`
		Saturation float64 `json:"saturation"`
	}{Hue: 120, Saturation: 80}

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"ON","brightness":127,"color":{"hue":120,"saturation":80}}`, string(body))
}

func TestOffPayloadOmitsColor(t *testing.T) {
	body, err := json.Marshal(statePayload{State: "OFF"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"OFF"}`, string(body))
}

func TestColorsClose(t *testing.T) {
	a := light.NewColor(120, 0.5, 0.5)
	assert.True(t, colorsClose(a, light.NewColor(120.2, 0.5, 0.5)))
	assert.False(t, colorsClose(a, light.NewColor(121, 0.5, 0.5)))
	assert.False(t, colorsClose(a, light.NewColor(120, 0.52, 0.5)))
	assert.False(t, colorsClose(a, light.NewColor(120, 0.5, 0.48)))
}

func TestCompareOrdersByTopic(t *testing.T) {
	p := NewProvider(testConfig())
	desk := light.DeviceInScene{Device: p.ResolveDevice("mqtt-desk")}
	shelf := light.DeviceInScene{Device: p.ResolveDevice("mqtt-shelf")}

	assert.True(t, p.Compare(desk, shelf))
	assert.False(t, p.Compare(shelf, desk))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := NewProvider(testConfig())
	settings := store.New()
	require.NoError(t, p.Save(settings))

	restored := NewProvider(config.MQTTConfig{})
	require.NoError(t, restored.Load(settings))

	dev := restored.ResolveDevice("mqtt-shelf")
	require.NotNil(t, dev)
	assert.Equal(t, "zigbee2mqtt/shelf", dev.(*Bulb).topic)
}

func TestLoadWithoutSectionIsANoop(t *testing.T) {
	p := NewProvider(config.MQTTConfig{})
	require.NoError(t, p.Load(store.New()))
	assert.Nil(t, p.ResolveDevice("mqtt-desk"))
}

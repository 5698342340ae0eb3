package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, "Term:\n  Enabled: true\n"))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Engine.FrameRate)
	assert.Equal(t, "scenes.yml", cfg.Engine.ScenesFile)
	assert.Equal(t, time.Second/60, cfg.Engine.Tick())
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 2*time.Second, cfg.Hue.RequestTimeout())
	assert.Equal(t, 10, cfg.Hue.UpdatesPerSecond)
	assert.Equal(t, "lumen", cfg.MQTT.ClientID)
	assert.Equal(t, 5*time.Second, cfg.MQTT.ConnectTimeout())
	assert.Equal(t, "APA102", cfg.Strip.LEDType)
	assert.Equal(t, 31, cfg.Strip.APA102Brightness)
	assert.True(t, cfg.Term.Enabled)
}

func TestReadConfigFull(t *testing.T) {
	cfg, err := ReadConfig(writeConfig(t, `
Engine:
  FrameRate: 30
  ScenesFile: /var/lib/lumen/scenes.yml
  WatchScenesFile: true
Hue:
  Enabled: true
  BridgeAddress: 192.168.1.2
  APIKey: secret
  UpdatesPerSecond: 5
MQTT:
  Enabled: true
  Broker: tcp://localhost:1883
  Devices:
    - Name: desk
      Topic: zigbee2mqtt/desk
Strip:
  Enabled: true
  LEDType: WS2801
  Strips:
    - Name: shelf
      Leds: 60
      Offset: 0
`))
	require.NoError(t, err)

	assert.Equal(t, time.Second/30, cfg.Engine.Tick())
	assert.True(t, cfg.Engine.WatchScenesFile)
	assert.Equal(t, "192.168.1.2", cfg.Hue.BridgeAddress)
	require.Len(t, cfg.MQTT.Devices, 1)
	assert.Equal(t, "zigbee2mqtt/desk", cfg.MQTT.Devices[0].Topic)
	assert.Equal(t, "WS2801", cfg.Strip.LEDType)
	require.Len(t, cfg.Strip.Strips, 1)
	assert.Equal(t, 60, cfg.Strip.Strips[0].Leds)
}

func TestReadConfigRejectsUnknownKeys(t *testing.T) {
	_, err := ReadConfig(writeConfig(t, "Enginee:\n  FrameRate: 30\n"))
	assert.Error(t, err, "typos in section names must not pass silently")
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"framerate too high", "Engine:\n  FrameRate: 5000\n"},
		{"hue without bridge", "Hue:\n  Enabled: true\n  APIKey: k\n"},
		{"hue without key", "Hue:\n  Enabled: true\n  BridgeAddress: a\n"},
		{"mqtt without broker", "MQTT:\n  Enabled: true\n"},
		{"bad color correction", "Strip:\n  Enabled: true\n  ColorCorrection: [1.0]\n"},
		{"strip without leds", "Strip:\n  Enabled: true\n  Strips:\n    - Name: x\n      Leds: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadConfig(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

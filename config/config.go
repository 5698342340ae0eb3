// Package config reads and validates the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full content of the config file. Durations are configured
// as integers with the unit in the field name.
type Config struct {
	Engine  EngineConfig  `yaml:"Engine"`
	Logging LoggingConfig `yaml:"Logging"`
	Hue     HueConfig     `yaml:"Hue"`
	MQTT    MQTTConfig    `yaml:"MQTT"`
	Strip   StripConfig   `yaml:"Strip"`
	Term    TermConfig    `yaml:"Term"`
}

type EngineConfig struct {
	// FrameRate is the tick frequency in Hz.
	FrameRate  int    `yaml:"FrameRate"`
	ScenesFile string `yaml:"ScenesFile"`
	// WatchScenesFile reloads scenes when the file changes on disk.
	WatchScenesFile bool `yaml:"WatchScenesFile"`
}

// Tick returns the tick period derived from the frame rate.
func (c EngineConfig) Tick() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

type LoggingConfig struct {
	Level     string `yaml:"Level"`
	Format    string `yaml:"Format"`
	LogToFile bool   `yaml:"LogToFile"`
	LogFile   string `yaml:"LogFile"`
}

type HueConfig struct {
	Enabled              bool   `yaml:"Enabled"`
	BridgeAddress        string `yaml:"BridgeAddress"`
	APIKey               string `yaml:"APIKey"`
	RequestTimeoutMillis int    `yaml:"RequestTimeoutMillis"`
	UpdatesPerSecond     int    `yaml:"UpdatesPerSecond"`
}

// RequestTimeout returns the per-request timeout for bridge calls.
func (c HueConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

type MQTTConfig struct {
	Enabled           bool               `yaml:"Enabled"`
	Broker            string             `yaml:"Broker"`
	ClientID          string             `yaml:"ClientID"`
	Username          string             `yaml:"Username"`
	Password          string             `yaml:"Password"`
	ConnectTimeoutSec int                `yaml:"ConnectTimeoutSec"`
	Devices           []MQTTDeviceConfig `yaml:"Devices"`
}

// ConnectTimeout returns how long the initial broker connect may take.
func (c MQTTConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSec) * time.Second
}

type MQTTDeviceConfig struct {
	Name  string `yaml:"Name"`
	Topic string `yaml:"Topic"`
}

type StripConfig struct {
	Enabled          bool                `yaml:"Enabled"`
	LEDType          string              `yaml:"LEDType"`
	SPIFrequency     int                 `yaml:"SPIFrequency"`
	APA102Brightness int                 `yaml:"APA102_Brightness"`
	ColorCorrection  []float64           `yaml:"ColorCorrection"`
	Strips           []StripDeviceConfig `yaml:"Strips"`
}

type StripDeviceConfig struct {
	Name string `yaml:"Name"`
	Leds int    `yaml:"Leds"`
	// Offset is the device's first LED index within the physical chain.
	Offset int `yaml:"Offset"`
}

type TermConfig struct {
	Enabled bool     `yaml:"Enabled"`
	Devices []string `yaml:"Devices"`
}

// ReadConfig loads and validates the config file at path.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file %s: %w", path, err)
	}
	defer f.Close()

	conf := defaultConfig()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return conf, nil
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			FrameRate:  60,
			ScenesFile: "scenes.yml",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		Hue: HueConfig{
			RequestTimeoutMillis: 2000,
			UpdatesPerSecond:     10,
		},
		MQTT: MQTTConfig{
			ClientID:          "lumen",
			ConnectTimeoutSec: 5,
		},
		Strip: StripConfig{
			LEDType:          "APA102",
			SPIFrequency:     2000000,
			APA102Brightness: 31,
			ColorCorrection:  []float64{1.0, 1.0, 1.0},
		},
	}
}

func (c *Config) validate() error {
	if c.Engine.FrameRate <= 0 || c.Engine.FrameRate > 1000 {
		return fmt.Errorf("Engine.FrameRate must be between 1 and 1000, got %d", c.Engine.FrameRate)
	}
	if c.Engine.ScenesFile == "" {
		return fmt.Errorf("Engine.ScenesFile must not be empty")
	}
	if c.Hue.Enabled {
		if c.Hue.BridgeAddress == "" {
			return fmt.Errorf("Hue.BridgeAddress is required when the hue provider is enabled")
		}
		if c.Hue.APIKey == "" {
			return fmt.Errorf("Hue.APIKey is required when the hue provider is enabled")
		}
		if c.Hue.UpdatesPerSecond <= 0 {
			return fmt.Errorf("Hue.UpdatesPerSecond must be positive, got %d", c.Hue.UpdatesPerSecond)
		}
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("MQTT.Broker is required when the mqtt provider is enabled")
	}
	if c.Strip.Enabled {
		if len(c.Strip.ColorCorrection) != 3 {
			return fmt.Errorf("Strip.ColorCorrection needs exactly 3 values, got %d", len(c.Strip.ColorCorrection))
		}
		for _, s := range c.Strip.Strips {
			if s.Leds <= 0 {
				return fmt.Errorf("strip %q must have a positive LED count", s.Name)
			}
		}
	}
	return nil
}

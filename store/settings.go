// Package store persists engine state to a single YAML settings file.
//
// The file carries one opaque section per device provider (each provider
// encodes and decodes its own state) followed by the scene list. A device
// entry inside a scene is nothing but the device's unique id and the nine
// numeric transform fields; resolving the id back to a live device is the
// owning provider's job at load time.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the full content of the settings file.
type Settings struct {
	Providers map[string]yaml.Node `yaml:"Providers,omitempty"`
	Scenes    []SceneRecord        `yaml:"Scenes"`
}

// SceneRecord is the stored form of a single scene.
type SceneRecord struct {
	ID      string         `yaml:"ID"`
	Name    string         `yaml:"Name,omitempty"`
	Effects []EffectRecord `yaml:"Effects"`
	Devices []DeviceRecord `yaml:"Devices"`
}

// EffectRecord is the stored form of an effect: a type tag plus whatever
// parameters the effect chose to encode.
type EffectRecord struct {
	Type   string    `yaml:"Type"`
	Params yaml.Node `yaml:"Params,omitempty"`
}

// DeviceRecord pairs a device's unique id with its transform in the scene.
type DeviceRecord struct {
	ID     string  `yaml:"ID"`
	X      float64 `yaml:"X"`
	Y      float64 `yaml:"Y"`
	Z      float64 `yaml:"Z"`
	ScaleX float64 `yaml:"ScaleX"`
	ScaleY float64 `yaml:"ScaleY"`
	ScaleZ float64 `yaml:"ScaleZ"`
	Pitch  float64 `yaml:"Pitch"`
	Yaw    float64 `yaml:"Yaw"`
	Roll   float64 `yaml:"Roll"`
}

// New returns an empty Settings ready to be filled by Save paths.
func New() *Settings {
	return &Settings{
		Providers: make(map[string]yaml.Node),
	}
}

// SetProviderSection encodes v into the named provider section, replacing
// any previous content.
func (s *Settings) SetProviderSection(name string, v any) error {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return fmt.Errorf("encoding provider section %q: %w", name, err)
	}
	if s.Providers == nil {
		s.Providers = make(map[string]yaml.Node)
	}
	s.Providers[name] = node
	return nil
}

// ProviderSection decodes the named provider section into out. The first
// return value reports whether the section exists at all.
func (s *Settings) ProviderSection(name string, out any) (bool, error) {
	node, ok := s.Providers[name]
	if !ok {
		return false, nil
	}
	if err := node.Decode(out); err != nil {
		return true, fmt.Errorf("decoding provider section %q: %w", name, err)
	}
	return true, nil
}

// Load reads and decodes a settings file. A missing file is not an error:
// it yields empty settings, the same as a first run.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	settings := New()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("decoding settings file %s: %w", path, err)
	}
	if settings.Providers == nil {
		settings.Providers = make(map[string]yaml.Node)
	}
	return settings, nil
}

// Save writes the settings file atomically (write to a temp file in the
// same directory, then rename).
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lumen-settings-*")
	if err != nil {
		return fmt.Errorf("creating temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing settings file %s: %w", path, err)
	}
	return nil
}

package engine

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"lautenbacher.net/lumen/effect"
	"lautenbacher.net/lumen/light"
	"lautenbacher.net/lumen/scene"
	"lautenbacher.net/lumen/store"
)

// Save writes the engine state into settings: every provider persists its
// own section first, then the scene list follows as id + transform per
// device and one record per effect.
func (e *Engine) Save(settings *store.Settings) error {
	for _, t := range e.order {
		if err := e.providers[t].Save(settings); err != nil {
			return fmt.Errorf("saving provider %q: %w", t, err)
		}
	}

	scenes := e.Scenes()
	settings.Scenes = make([]store.SceneRecord, 0, len(scenes))
	for _, s := range scenes {
		rec := store.SceneRecord{
			ID:      s.ID,
			Name:    s.Name,
			Effects: make([]store.EffectRecord, 0, len(s.Effects)),
			Devices: make([]store.DeviceRecord, 0, len(s.Devices)),
		}
		for _, eff := range s.Effects {
			effRec, err := eff.Encode()
			if err != nil {
				return fmt.Errorf("saving scene %q: %w", s.Name, err)
			}
			rec.Effects = append(rec.Effects, effRec)
		}
		for _, dis := range s.Devices {
			if dis.Device == nil {
				continue
			}
			t := dis.Transform
			rec.Devices = append(rec.Devices, store.DeviceRecord{
				ID:     dis.Device.UID(),
				X:      t.Location.X(),
				Y:      t.Location.Y(),
				Z:      t.Location.Z(),
				ScaleX: t.Scale.X(),
				ScaleY: t.Scale.Y(),
				ScaleZ: t.Scale.Z(),
				Pitch:  t.Rotation.X(),
				Yaw:    t.Rotation.Y(),
				Roll:   t.Rotation.Z(),
			})
		}
		settings.Scenes = append(settings.Scenes, rec)
	}
	return nil
}

// Load rebuilds the scene list from settings. Providers load first so they
// can resolve device ids; entries that cannot be resolved (unknown backend,
// absent provider, vanished device) and effects of unknown type are skipped
// with a log line rather than failing the whole load.
func (e *Engine) Load(settings *store.Settings) error {
	for _, t := range e.order {
		if err := e.providers[t].Load(settings); err != nil {
			return fmt.Errorf("loading provider %q: %w", t, err)
		}
	}

	scenes := make([]scene.Scene, 0, len(settings.Scenes))
	for _, rec := range settings.Scenes {
		s := scene.Scene{ID: rec.ID, Name: rec.Name}
		if s.ID == "" {
			s = scene.New(rec.Name)
		}
		for _, effRec := range rec.Effects {
			eff, err := effect.Decode(effRec)
			if err != nil {
				slog.Warn("Skipping effect while loading scene", "scene", rec.Name, "error", err)
				continue
			}
			s.Effects = append(s.Effects, eff)
		}
		for _, devRec := range rec.Devices {
			dev := e.resolveDevice(devRec.ID)
			if dev == nil {
				slog.Warn("Skipping unresolvable device while loading scene",
					"scene", rec.Name, "uid", devRec.ID)
				continue
			}
			s.Devices = append(s.Devices, light.DeviceInScene{
				Device: dev,
				Transform: light.Transform{
					Location: mgl64.Vec3{devRec.X, devRec.Y, devRec.Z},
					Scale:    mgl64.Vec3{devRec.ScaleX, devRec.ScaleY, devRec.ScaleZ},
					Rotation: mgl64.Vec3{devRec.Pitch, devRec.Yaw, devRec.Roll},
				},
			})
		}
		scenes = append(scenes, s)
	}

	e.Writer().SetScenes(scenes)
	return nil
}

func (e *Engine) resolveDevice(uid string) light.Device {
	t := light.ProviderTypeFromUID(uid)
	if t == "" {
		return nil
	}
	p := e.providers[t]
	if p == nil {
		return nil
	}
	return p.ResolveDevice(uid)
}

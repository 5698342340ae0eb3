// Lumen renders animated lighting scenes onto real lights. A fixed-rate
// engine advances the active scene's effects and hands per-device color
// buffers to the enabled backends: a Philips Hue bridge, MQTT bulbs, SPI
// LED strips or a terminal simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"lautenbacher.net/lumen/config"
	"lautenbacher.net/lumen/engine"
	"lautenbacher.net/lumen/logging"
	"lautenbacher.net/lumen/provider/hue"
	"lautenbacher.net/lumen/provider/mqtt"
	"lautenbacher.net/lumen/provider/strip"
	"lautenbacher.net/lumen/provider/term"
	"lautenbacher.net/lumen/store"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "lumen: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return err
	}

	// With the terminal UI enabled, log output is buffered until the UI
	// hands over its log pane.
	if err := logging.Init(cfg.Term.Enabled, cfg.Logging.Level, cfg.Logging.Format,
		cfg.Logging.LogToFile, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initialising logging: %w", err)
	}
	defer logging.Close()

	osSignalChan := make(chan os.Signal, 1)
	signal.Notify(osSignalChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	eng := engine.New(cfg.Engine.Tick())
	if err := registerProviders(eng, cfg, osSignalChan); err != nil {
		return err
	}

	if err := loadScenes(eng, cfg.Engine.ScenesFile); err != nil {
		return err
	}
	if err := eng.Start(); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	var fileChanged <-chan struct{}
	if cfg.Engine.WatchScenesFile {
		watcher, err := store.NewWatcher(cfg.Engine.ScenesFile)
		if err != nil {
			return fmt.Errorf("watching scenes file: %w", err)
		}
		defer watcher.Close()
		fileChanged = watcher.Changed()
	}

	slog.Info("Lumen started", "framerate", cfg.Engine.FrameRate, "scenes", cfg.Engine.ScenesFile)

loop:
	for {
		select {
		case sig := <-osSignalChan:
			if sig == syscall.SIGHUP {
				slog.Info("Reloading scenes file on SIGHUP")
				reloadScenes(eng, cfg.Engine.ScenesFile)
				continue
			}
			slog.Info("Shutting down", "signal", sig)
			break loop
		case <-fileChanged:
			slog.Info("Scenes file changed on disk, reloading")
			reloadScenes(eng, cfg.Engine.ScenesFile)
		}
	}

	eng.Stop()
	return saveScenes(eng, cfg.Engine.ScenesFile)
}

func registerProviders(eng *engine.Engine, cfg *config.Config, osSignalChan chan os.Signal) error {
	if cfg.Hue.Enabled {
		if err := eng.RegisterProvider(hue.NewProvider(cfg.Hue)); err != nil {
			return err
		}
	}
	if cfg.MQTT.Enabled {
		if err := eng.RegisterProvider(mqtt.NewProvider(cfg.MQTT)); err != nil {
			return err
		}
	}
	if cfg.Strip.Enabled {
		if err := eng.RegisterProvider(strip.NewProvider(cfg.Strip)); err != nil {
			return err
		}
	}
	if cfg.Term.Enabled {
		if err := eng.RegisterProvider(term.NewProvider(cfg.Term, osSignalChan)); err != nil {
			return err
		}
	}
	return nil
}

func loadScenes(eng *engine.Engine, path string) error {
	settings, err := store.Load(path)
	if err != nil {
		return fmt.Errorf("loading scenes file %s: %w", path, err)
	}
	if err := eng.Load(settings); err != nil {
		return fmt.Errorf("restoring scenes from %s: %w", path, err)
	}
	return nil
}

// reloadScenes re-reads the scenes file into the running engine. A broken
// file is logged and the engine keeps playing the scenes it has.
func reloadScenes(eng *engine.Engine, path string) {
	if err := loadScenes(eng, path); err != nil {
		slog.Error("Reload failed, keeping current scenes", "error", err)
	}
}

func saveScenes(eng *engine.Engine, path string) error {
	settings := store.New()
	if err := eng.Save(settings); err != nil {
		return fmt.Errorf("collecting state for %s: %w", path, err)
	}
	if err := settings.Save(path); err != nil {
		return fmt.Errorf("writing scenes file %s: %w", path, err)
	}
	slog.Info("Scenes saved", "file", path)
	return nil
}

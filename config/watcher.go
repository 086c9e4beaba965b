package config

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

var (
	gLock   sync.RWMutex
	gConfig *Config
)

// configFromFile reads path over the built-in defaults, then lets
// SCARECAM_* environment variables override the result.
func configFromFile(path string) (*Config, error) {
	config := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := json.NewDecoder(f)
	if err := p.Decode(config); err != nil {
		return nil, err
	}
	if err := env.Parse(config); err != nil {
		return nil, err
	}
	config.Normalize()
	log.Infof("Loaded configuration: %v", spew.Sdump(config))
	return config, nil
}

func Get() *Config {
	gLock.RLock()
	defer gLock.RUnlock()
	return gConfig
}

func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-watcher.Events:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Second / 10):
	}
	return ctx.Err()
}

// Load reads the config file and starts a watcher goroutine that reloads
// it whenever it changes. The detection tunables of every loaded config
// are pushed into settings so edits take effect on the next frame.
func Load(ctx context.Context, path string, settings *Settings) error {
	config, err := configFromFile(path)
	if err != nil {
		return err
	}
	gConfig = config
	if settings != nil {
		settings.ApplyConfig(config)
	}
	go func() {
		for ctx.Err() == nil {
			if err := waitForChange(ctx, path); err != nil {
				log.Errorf("Error waiting for file change: %v", err)
				continue
			}

			config, err := configFromFile(path)
			if err != nil {
				log.Errorf("Failed to load new config: %v", err)
				continue
			}
			gLock.Lock()
			gConfig = config
			gLock.Unlock()
			if settings != nil {
				settings.ApplyConfig(config)
			}
		}
	}()
	return nil
}

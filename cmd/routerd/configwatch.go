package main

import (
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/FairForge/meshrouter/internal/config"
)

// watchConfig watches path for writes and calls onReload with the newly
// parsed RouterConfig each time. The caller owns the returned watcher and
// must Close it on shutdown.
func watchConfig(path string, logger *zap.Logger, onReload func(*config.RouterConfig)) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := config.Load(path)
				if err != nil {
					logger.Warn("configwatch: reload failed, keeping previous config", zap.Error(err))
					continue
				}
				logger.Info("configwatch: reloaded", zap.Int("capacity", cfg.Capacity), zap.Duration("max_idle", cfg.MaxIdle))
				onReload(cfg)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("configwatch: watcher error", zap.Error(err))
			}
		}
	}()

	return watcher, nil
}

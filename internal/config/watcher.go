package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk and delivers each
// valid result on Updates. Invalid files are logged and skipped.
type Watcher struct {
	path     string
	log      *zap.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
	updates  chan *Config
}

// NewWatcher watches the directory holding path so that editors which
// replace the file by rename are still seen.
func NewWatcher(path string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		path:     abs,
		log:      log.Named("config"),
		debounce: DefaultDebounce,
		watcher:  fw,
		updates:  make(chan *Config, 1),
	}, nil
}

func (w *Watcher) Updates() <-chan *Config { return w.updates }

// Run blocks until ctx is done, then closes the watcher and Updates.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.updates)
	defer w.watcher.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("config event", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warn("config reload failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.log.Info("config reloaded", zap.String("path", w.path))
			w.deliver(cfg)
		}
	}
}

// deliver keeps only the newest pending config.
func (w *Watcher) deliver(cfg *Config) {
	select {
	case <-w.updates:
	default:
	}
	w.updates <- cfg
}

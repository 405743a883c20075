package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads the config file whenever it changes on disk and hands
// each valid result to a callback. Invalid edits are logged and skipped so
// the last good config stays in effect.
type Watcher struct {
	path       string
	runtimeDir string
	onChange   func(*Config)
	log        zerolog.Logger

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher starts watching configPath. The parent directory is watched
// rather than the file so editors that replace the file are still seen.
func NewWatcher(configPath, runtimeDir string, log zerolog.Logger, onChange func(*Config)) (*Watcher, error) {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:       filepath.Clean(configPath),
		runtimeDir: runtimeDir,
		onChange:   onChange,
		log:        log,
		watcher:    fw,
		cancel:     cancel,
	}

	w.wg.Add(1)
	go w.run(ctx)

	return w, nil
}

// Close stops watching. Pending reloads are dropped.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path, w.runtimeDir)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("ignoring invalid config change")
		return
	}

	w.log.Info().Str("path", w.path).Msg("config reloaded")
	w.onChange(cfg)
}

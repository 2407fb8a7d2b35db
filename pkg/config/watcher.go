package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	evolveerrors "github.com/go-drift/evolve/pkg/errors"
)

// DefaultDebounce is how long the Watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes and reapplies it to
// a Registry. Widgets that already exist keep their variant; only widgets
// created after a reload see the new settings. Each reload, environment
// overrides included, is installed with a single Registry.Replace.
//
// The directory is watched rather than the file so editors that replace the
// file by rename are still seen.
type Watcher struct {
	path     string
	registry *Registry
	debounce time.Duration
	onReload func(*File)
	logger   *slog.Logger
	env      bool
	environ  []string

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the settle window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook is called with each successfully applied file.
func WithReloadHook(fn func(*File)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// WithEnvOverrides layers ApplyEnv overrides on every reloaded file before
// it is installed. environ is in os.Environ form; nil reads the process
// environment at each reload.
func WithEnvOverrides(environ []string) WatcherOption {
	return func(w *Watcher) {
		w.env = true
		w.environ = environ
	}
}

// WithLogger sets the logger used for reload messages.
func WithLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher prepares a watcher for path. Call Start to begin watching.
func NewWatcher(path string, r *Registry, opts ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		registry: r,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		watcher:  fw,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			evolveerrors.Report(evolveerrors.New("config.watch", evolveerrors.KindConfig, err))
		case <-fire:
			fire = nil
			w.Reload()
		}
	}
}

// Reload reads the file and applies it. Failures are reported through the
// error handler and leave the registry untouched.
func (w *Watcher) Reload() {
	f, err := Load(w.path)
	if err != nil {
		evolveerrors.Report(evolveerrors.New("config.reload", evolveerrors.KindConfig, err))
		return
	}
	staged, err := f.stage()
	if err == nil && w.env {
		err = applyEnv(staged, w.environ)
	}
	if err != nil {
		evolveerrors.Report(evolveerrors.New("config.reload", evolveerrors.KindConfig, err))
		return
	}
	w.registry.Replace(staged)
	w.logger.Info("configuration reloaded", "path", w.path)
	if w.onReload != nil {
		w.onReload(f)
	}
}

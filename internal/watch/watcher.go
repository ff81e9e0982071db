package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/navbuilder/internal/logfields"
)

// BuildFunc runs one navigation build. Errors are logged, not fatal to the
// watch loop.
type BuildFunc func(ctx context.Context) error

// Watcher monitors the annotated index for changes and triggers rebuilds,
// optionally on a periodic schedule as well.
type Watcher struct {
	target    string // absolute path of the annotated index
	build     BuildFunc
	watcher   *fsnotify.Watcher
	scheduler gocron.Scheduler
	interval  time.Duration
	debounce  time.Duration

	mu          sync.Mutex
	stopChan    chan struct{}
	rebuildChan chan struct{}
	started     bool
}

// New creates a watcher for the annotated index at target. A non-zero
// interval adds a periodic rebuild on top of filesystem events.
func New(target string, debounce, interval time.Duration, build BuildFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to resolve watch target: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	w := &Watcher{
		target:      absTarget,
		build:       build,
		watcher:     fsw,
		interval:    interval,
		debounce:    debounce,
		stopChan:    make(chan struct{}),
		rebuildChan: make(chan struct{}, 1),
	}

	if interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(w.Trigger),
			gocron.WithName("periodic-nav-build"),
		); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to create periodic build job: %w", err)
		}
		w.scheduler = scheduler
	}

	return w, nil
}

// Start begins monitoring. The directory containing the target is watched
// rather than the file itself, so regeneration via rename/replace is caught.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	targetDir := filepath.Dir(w.target)
	if err := w.watcher.Add(targetDir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", targetDir, err)
	}

	slog.Info("Starting annotated index watcher",
		logfields.File(w.target),
		slog.Duration("debounce", w.debounce))

	go w.watchLoop(ctx)
	go w.rebuildLoop(ctx)
	if w.scheduler != nil {
		w.scheduler.Start()
		slog.Info("Periodic rebuild scheduled", slog.Duration("interval", w.interval))
	}
	w.started = true
	return nil
}

// Stop shuts the watcher down. Safe to call once after Start.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.Info("Stopping annotated index watcher")
	close(w.stopChan)
	var err error
	if w.scheduler != nil {
		err = w.scheduler.Shutdown()
	}
	if cerr := w.watcher.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Trigger requests a rebuild, coalescing with any pending request.
func (w *Watcher) Trigger() {
	select {
	case w.rebuildChan <- struct{}{}:
	default:
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("Annotated index changed", logfields.File(event.Name), slog.String("op", event.Op.String()))
			w.Trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// rebuildLoop debounces triggers: a rebuild runs only after the quiet window
// elapses without further triggers.
func (w *Watcher) rebuildLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.rebuildChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := w.build(ctx); err != nil {
				slog.Error("Watch-triggered build failed", logfields.Error(err))
			}
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Package watch saves a local file as a draft whenever it settles after
// being edited.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"codevault/internal/vcs"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 750 * time.Millisecond

// SaveFunc receives the file body once edits have settled.
type SaveFunc func(ctx context.Context, content string) error

// Watcher observes a single file. Editors that save by writing a temp file
// and renaming it over the original are handled by watching the parent
// directory and filtering on the file name.
type Watcher struct {
	path     string
	debounce time.Duration
	save     SaveFunc
	logger   vcs.Logger
	fsw      *fsnotify.Watcher
	last     string
}

// New starts watching path. The file must exist. Call Run to process events
// and Close when done.
func New(path string, debounce time.Duration, save SaveFunc, logger vcs.Logger) (*Watcher, error) {
	if save == nil {
		return nil, errors.New("watch: save func is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = vcs.NewNopLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	body, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		save:     save,
		logger:   logger,
		fsw:      fsw,
		last:     string(body),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run processes file events until ctx is cancelled. A pending save is
// flushed before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if pending {
				w.flush(context.WithoutCancel(ctx))
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			pending = false
			fire = nil
			w.flush(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// flush saves the current body unless it matches what was last saved.
func (w *Watcher) flush(ctx context.Context) {
	body, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("reading watched file", "path", w.path, "error", err)
		return
	}
	content := string(body)
	if content == w.last {
		return
	}

	if err := w.save(ctx, content); err != nil {
		w.logger.Error("saving draft", "path", w.path, "error", err)
		return
	}
	w.last = content
	w.logger.Info("draft saved", "path", w.path, "bytes", len(content))
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

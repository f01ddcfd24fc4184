// Package watch re-runs a conversion whenever one of its hand-editable side
// files changes on disk.
package watch

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a set of files inside one directory.
type Watcher struct {
	Dir      string
	Files    []string // base names inside Dir
	Debounce time.Duration
	Logger   *slog.Logger
	// Run is called after a change settles. Its error is logged; watching
	// goes on.
	Run func(ctx context.Context) error

	sums map[string][sha256.Size]byte
}

// Watch blocks until ctx is cancelled. Changes are detected by content, so
// files rewritten unchanged by Run itself do not trigger another run.
func (w *Watcher) Watch(ctx context.Context) error {
	if w.Run == nil {
		return errors.New("watch: no run function")
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: new watcher: %w", err)
	}
	defer fw.Close()

	// Editors often replace files by rename, which drops a per-file watch;
	// watching the directory survives that.
	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.Dir, err)
	}
	w.snapshot()
	logger.Info("watcher: started", slog.String("dir", w.Dir), slog.Any("files", w.Files))

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed := w.changed()
			if len(changed) == 0 {
				continue
			}
			logger.Info("watcher: side files changed", slog.Any("files", changed))
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher: run failed", slog.String("error", err.Error()))
			}
			w.snapshot()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !slices.Contains(w.Files, filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) snapshot() {
	w.sums = w.checksums()
}

// changed lists the watched files whose content differs from the snapshot.
// A file that disappeared counts as changed.
func (w *Watcher) changed() []string {
	now := w.checksums()
	var out []string
	for _, name := range w.Files {
		old, had := w.sums[name]
		cur, has := now[name]
		if had != has || !bytes.Equal(old[:], cur[:]) {
			out = append(out, name)
		}
	}
	return out
}

func (w *Watcher) checksums() map[string][sha256.Size]byte {
	sums := make(map[string][sha256.Size]byte, len(w.Files))
	for _, name := range w.Files {
		data, err := os.ReadFile(filepath.Join(w.Dir, name))
		if err != nil {
			continue
		}
		sums[name] = sha256.Sum256(data)
	}
	return sums
}

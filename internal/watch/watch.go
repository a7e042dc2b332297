// Package watch emits store change events so the editing UI can refresh its
// tree live. The store never depends on the watcher; when it fails, the
// service keeps running and the failure is only logged.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event is one observed change under the store root.
type Event struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Watcher watches the store root recursively and fans events out to
// subscribers. Slow subscribers drop events rather than blocking the loop.
type Watcher struct {
	fw   *fsnotify.Watcher
	root string

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// New creates a watcher over root, registering all existing directories.
func New(root string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:   fw,
		root: root,
		subs: make(map[chan Event]struct{}),
	}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Subscribe registers a new event channel and returns it with its cancel
// function.
func (w *Watcher) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	w.mu.Lock()
	w.subs[ch] = struct{}{}
	w.mu.Unlock()
	return ch, func() {
		w.mu.Lock()
		delete(w.subs, ch)
		w.mu.Unlock()
	}
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		_ = w.fw.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			// New directories need their own watch for recursion.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fw.Add(ev.Name); err != nil {
						slog.Warn("failed to watch new directory", "dir", ev.Name, "err", err)
					}
				}
			}
			rel, err := filepath.Rel(w.root, ev.Name)
			if err != nil {
				continue
			}
			w.publish(Event{Op: ev.Op.String(), Path: filepath.ToSlash(rel)})
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) publish(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- ev:
		default:
			// Dropping beats blocking the event loop.
		}
	}
}

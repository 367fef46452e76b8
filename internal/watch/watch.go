// Package watch implements the config-file watcher behind hot reload
// (spec.md §9, SPEC_FULL.md §4.9): on write events to the config file it
// debounces, re-parses, and atomically swaps the gateway's route table,
// broadcasting the outcome to the admin feed. It never exits the process
// on a bad reload; the previous table stays live.
package watch

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shellgate/shellgate/internal/admin"
	"github.com/shellgate/shellgate/internal/config"
	"github.com/shellgate/shellgate/internal/gateway"
	"github.com/shellgate/shellgate/internal/route"
	"github.com/shellgate/shellgate/internal/router"
)

// debounceDelay coalesces bursts of writes (editors often save via a
// rename-and-replace that fires several fsnotify events per save).
const debounceDelay = 100 * time.Millisecond

// Watcher reloads path into h whenever it changes on disk.
type Watcher struct {
	fs   *fsnotify.Watcher
	path string
	opts config.LoadOptions
	h    *gateway.Handler
	feed *admin.Feed
	log  *slog.Logger
}

// New creates a Watcher for path. opts supplies the CLI-level overrides
// (listen, port, extra routes) that must be re-applied on every reload,
// matching the precedence rule in internal/config.
//
// The watch is registered on path's containing directory rather than on
// path itself: editors and config-management tools commonly save via an
// atomic rename-replace, which swaps the inode out from under a
// file-level watch and silently stops it from firing. Watching the
// directory and filtering events down to path survives that.
func New(path string, opts config.LoadOptions, h *gateway.Handler, feed *admin.Feed, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{fs: fs, path: path, opts: opts, h: h, feed: feed, log: logger}, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks, reloading on each debounced write event, until the
// watcher's event channel closes (i.e. Close was called).
func (w *Watcher) Run() {
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(debounceDelay)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)

		case <-debounce.C:
			w.reload()
		}
	}
}

// reload re-parses the config file and, if every route is valid, swaps
// the live route table. A bad reload logs, broadcasts a failure event,
// and leaves the previous table serving traffic.
func (w *Watcher) reload() {
	opts := w.opts
	opts.FilePath = w.path

	cfg, err := config.Load(opts)
	if err != nil {
		w.log.Warn("config reload failed", "path", w.path, "error", err)
		w.feed.Broadcast(admin.ReloadEvent{Kind: "reload_failed", Message: err.Error(), Timestamp: w.now()})
		return
	}

	routes := make([]*route.Route, 0, len(cfg.Routes))
	for _, spec := range cfg.Routes {
		r, err := route.Parse(spec)
		if err != nil {
			w.log.Warn("config reload failed", "path", w.path, "error", err, "route", spec)
			w.feed.Broadcast(admin.ReloadEvent{Kind: "reload_failed", Message: err.Error(), Timestamp: w.now()})
			return
		}
		routes = append(routes, r)
	}

	w.h.Swap(router.New(routes))
	w.log.Info("config reloaded", "path", w.path, "routes", len(routes))
	w.feed.Broadcast(admin.ReloadEvent{Kind: "reloaded", Message: "", Timestamp: w.now()})
}

func (w *Watcher) now() time.Time {
	return time.Now()
}

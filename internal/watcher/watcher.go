// Package watcher implements the secondary toggle channel: any process
// with filesystem access can trigger a toggle by touching a well-known
// marker file.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Watcher polls a marker path and fires onToggle when its modification
// time strictly increases. A missing path means "no signal yet"; a marker
// recreated with an older timestamp never fires.
type Watcher struct {
	path     string
	interval time.Duration
	onToggle func()
	lastSeen time.Time
	log      *slog.Logger
}

// New creates a watcher. The last-seen timestamp is primed from the
// marker's current mtime so a marker left over from an earlier run does
// not fire a toggle the moment the service starts.
func New(path string, interval time.Duration, onToggle func(), log *slog.Logger) *Watcher {
	w := &Watcher{
		path:     path,
		interval: interval,
		onToggle: onToggle,
		log:      log.With("component", "watcher"),
	}
	if info, err := os.Stat(path); err == nil {
		w.lastSeen = info.ModTime()
	}
	return w
}

// Run polls until ctx is canceled. It blocks; run it on its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	w.log.Info("watching toggle marker", "path", w.path, "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		return // no signal yet
	}
	mtime := info.ModTime()
	if mtime.After(w.lastSeen) {
		w.lastSeen = mtime
		w.log.Debug("toggle marker touched", "mtime", mtime)
		w.onToggle()
	}
}

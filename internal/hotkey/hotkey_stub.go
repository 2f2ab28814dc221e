//go:build !linux

package hotkey

import "log/slog"

// Listener is unsupported off X11; New always fails and the caller falls
// back to the file-watcher trigger.
type Listener struct{}

func New(toggleKey, cancelKey string, onToggle, onCancel func(), log *slog.Logger) (*Listener, error) {
	return nil, ErrUnsupported
}

func (l *Listener) Run() error { return ErrUnsupported }

func (l *Listener) Close() {}

//go:build linux

package hotkey

import (
	"fmt"
	"log/slog"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/record"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/keybind"
)

// Listener consumes system-wide key press/release events through the X11
// RECORD extension. Run blocks the goroutine it is called on; callbacks
// fire from that goroutine, so they must hand off anything slow.
type Listener struct {
	onToggle func()
	onCancel func()
	log      *slog.Logger

	ctrl    *xgbutil.XUtil // keysym mapping and keycode resolution
	data    *xgb.Conn      // dedicated connection the record context streams over
	recCtx  record.Context
	tracker modTracker
}

// New connects to the X server and prepares a RECORD context covering key
// events from all clients. toggleKey fires onToggle while Ctrl+Shift are
// held; cancelKey fires onCancel on its own.
func New(toggleKey, cancelKey string, onToggle, onCancel func(), log *slog.Logger) (*Listener, error) {
	ctrl, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X11: %w", err)
	}
	keybind.Initialize(ctrl)

	data, err := xgb.NewConn()
	if err != nil {
		ctrl.Conn().Close()
		return nil, fmt.Errorf("connect to X11 (record): %w", err)
	}
	if err := record.Init(data); err != nil {
		ctrl.Conn().Close()
		data.Close()
		return nil, fmt.Errorf("RECORD extension unavailable: %w", err)
	}

	l := &Listener{
		onToggle: onToggle,
		onCancel: onCancel,
		log:      log.With("component", "hotkey"),
		ctrl:     ctrl,
		data:     data,
	}

	l.tracker.toggleCodes, err = l.keycodesFor(toggleKey)
	if err != nil {
		l.Close()
		return nil, err
	}
	l.tracker.cancelCodes, err = l.keycodesFor(cancelKey)
	if err != nil {
		l.Close()
		return nil, err
	}

	l.recCtx, err = record.NewContextId(data)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("allocate record context: %w", err)
	}
	rng := record.Range{
		DeviceEvents: record.Range8{First: wireKeyPress, Last: wireKeyRelease},
	}
	err = record.CreateContextChecked(data, l.recCtx, record.ElementHeader(0), 1, 1,
		[]record.ClientSpec{record.ClientSpec(record.CsAllClients)},
		[]record.Range{rng}).Check()
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("create record context: %w", err)
	}

	return l, nil
}

func (l *Listener) keycodesFor(name string) ([]byte, error) {
	codes := keybind.StrToKeycodes(l.ctrl, name)
	if len(codes) == 0 {
		return nil, fmt.Errorf("no keycode found for %q", name)
	}
	out := make([]byte, len(codes))
	for i, c := range codes {
		out[i] = byte(c)
	}
	return out, nil
}

// Run enables the record context and consumes its reply stream until the
// connection dies. It never returns nil while the X server is up.
func (l *Listener) Run() error {
	l.log.Info("keyboard listener started")
	cookie := record.EnableContext(l.data, l.recCtx)
	for {
		reply, err := cookie.Reply()
		if err != nil {
			return fmt.Errorf("record stream: %w", err)
		}
		if reply == nil {
			return nil
		}
		if reply.Category != 0 { // only device events from the server
			continue
		}
		l.consume(reply.Data)
	}
}

// consume walks a reply's payload, a concatenation of raw 32-byte wire
// events, and feeds each key event to the tracker.
func (l *Listener) consume(data []byte) {
	for ; len(data) >= wireEventSize; data = data[wireEventSize:] {
		press, keycode, ok := decodeKeyEvent(data)
		if !ok {
			continue
		}
		keysym := uint32(keybind.KeysymGet(l.ctrl, xproto.Keycode(keycode), 0))
		if !press {
			l.tracker.release(keysym)
			continue
		}
		switch l.tracker.press(keysym, keycode) {
		case actionToggle:
			l.log.Debug("toggle chord pressed")
			l.onToggle()
		case actionCancel:
			l.log.Debug("cancel key pressed")
			if l.onCancel != nil {
				l.onCancel()
			}
		}
	}
}

// Close tears down both X connections, unblocking Run.
func (l *Listener) Close() {
	l.ctrl.Conn().Close()
	l.data.Close()
}

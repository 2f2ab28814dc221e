// Package hotkey turns the X server's global key event stream into toggle
// and cancel triggers. The platform-independent part lives here: decoding
// raw wire events and tracking modifier state; the X plumbing is in
// hotkey_x11.go.
package hotkey

import "errors"

// ErrUnsupported is returned where no global keyboard hook backend exists;
// the service then runs on the file-watcher trigger alone.
var ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

// X11 core keysyms for the keys the tracker cares about.
const (
	keysymShiftL   = 0xffe1
	keysymShiftR   = 0xffe2
	keysymControlL = 0xffe3
	keysymControlR = 0xffe4
)

// X11 wire event codes.
const (
	wireKeyPress   = 2
	wireKeyRelease = 3
	wireEventSize  = 32
)

type action int

const (
	actionNone action = iota
	actionToggle
	actionCancel
)

// decodeKeyEvent splits one raw 32-byte X11 wire event into press/release
// and keycode. ok is false for anything that is not a key event.
func decodeKeyEvent(data []byte) (press bool, keycode byte, ok bool) {
	if len(data) < 2 {
		return false, 0, false
	}
	switch data[0] & 0x7f {
	case wireKeyPress:
		return true, data[1], true
	case wireKeyRelease:
		return false, data[1], true
	}
	return false, 0, false
}

// modTracker derives ctrl/shift state from the press/release stream and
// matches the toggle chord and the cancel key. The toggle key fires only
// with both modifiers held; the cancel key fires regardless of modifiers.
type modTracker struct {
	ctrlDown  bool
	shiftDown bool

	toggleCodes []byte
	cancelCodes []byte
}

func (m *modTracker) press(keysym uint32, keycode byte) action {
	switch keysym {
	case keysymControlL, keysymControlR:
		m.ctrlDown = true
		return actionNone
	case keysymShiftL, keysymShiftR:
		m.shiftDown = true
		return actionNone
	}
	if containsCode(m.toggleCodes, keycode) && m.ctrlDown && m.shiftDown {
		return actionToggle
	}
	if containsCode(m.cancelCodes, keycode) {
		return actionCancel
	}
	return actionNone
}

func (m *modTracker) release(keysym uint32) {
	switch keysym {
	case keysymControlL, keysymControlR:
		m.ctrlDown = false
	case keysymShiftL, keysymShiftR:
		m.shiftDown = false
	}
}

func containsCode(codes []byte, code byte) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

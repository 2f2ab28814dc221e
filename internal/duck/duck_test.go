package duck

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDucker(run runner) *Ducker {
	return &Ducker{
		available: true,
		run:       run,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestMuteThenRestore(t *testing.T) {
	var cmds [][]string
	d := testDucker(func(args ...string) ([]byte, error) {
		cmds = append(cmds, args)
		if args[0] == "list" {
			return []byte("12\t1\t55\tprotocol-native\ts16le 2ch 44100Hz\n34\t1\t55\tprotocol-native\ts16le 2ch 48000Hz\n"), nil
		}
		return nil, nil
	})

	d.MuteOthers()
	assert.Equal(t, []string{"12", "34"}, d.mutedTargets())

	d.Restore()
	assert.Empty(t, d.mutedTargets())

	var muted, unmuted []string
	for _, c := range cmds {
		if c[0] != "set-sink-input-mute" {
			continue
		}
		if c[2] == "1" {
			muted = append(muted, c[1])
		} else {
			unmuted = append(unmuted, c[1])
		}
	}
	assert.Equal(t, []string{"12", "34"}, muted)
	assert.Equal(t, []string{"12", "34"}, unmuted)
}

func TestMuteFailuresAreSwallowed(t *testing.T) {
	d := testDucker(func(args ...string) ([]byte, error) {
		if args[0] == "list" {
			return []byte("12\t...\n34\t...\n56\t...\n"), nil
		}
		if args[0] == "set-sink-input-mute" && args[1] == "34" {
			return nil, errors.New("mute denied")
		}
		return nil, nil
	})

	d.MuteOthers()
	// The failed target is not tracked; the rest are.
	assert.Equal(t, []string{"12", "56"}, d.mutedTargets())
}

func TestRestoreClearsSetEvenWhenUnmuteFails(t *testing.T) {
	d := testDucker(func(args ...string) ([]byte, error) {
		if args[0] == "list" {
			return []byte("12\t...\n"), nil
		}
		if args[0] == "set-sink-input-mute" && strings.HasSuffix(args[2], "0") {
			return nil, errors.New("unmute failed")
		}
		return nil, nil
	})

	d.MuteOthers()
	require.Equal(t, []string{"12"}, d.mutedTargets())

	d.Restore()
	assert.Empty(t, d.mutedTargets(), "the muted set is cleared even when unmuting fails")
}

func TestRestoreWithoutMuteIsNoop(t *testing.T) {
	calls := 0
	d := testDucker(func(args ...string) ([]byte, error) {
		calls++
		return nil, nil
	})

	d.Restore()
	assert.Zero(t, calls)
}

func TestUnavailableDuckerIsNoop(t *testing.T) {
	calls := 0
	d := testDucker(func(args ...string) ([]byte, error) {
		calls++
		return nil, nil
	})
	d.available = false

	d.MuteOthers()
	d.Restore()
	assert.Zero(t, calls)
	assert.Empty(t, d.mutedTargets())
}

func TestEnumerationFailureAbortsQuietly(t *testing.T) {
	d := testDucker(func(args ...string) ([]byte, error) {
		if args[0] == "list" {
			return nil, errors.New("pulse connection refused")
		}
		t.Fatalf("unexpected command %v", args)
		return nil, nil
	})

	d.MuteOthers()
	assert.Empty(t, d.mutedTargets())
}

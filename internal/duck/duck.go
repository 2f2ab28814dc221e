// Package duck suppresses other applications' audio output during a
// recording, via the PulseAudio command-line controller.
package duck

import (
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// runner executes the mixer control utility and returns its stdout.
type runner func(args ...string) ([]byte, error)

func pactlRunner(args ...string) ([]byte, error) {
	return exec.Command("pactl", args...).Output()
}

// Ducker mutes every active sink input from other processes on MuteOthers
// and unmutes the recorded set on Restore. Everything is best-effort:
// individual failures are swallowed and a missing pactl degrades both
// operations to no-ops.
type Ducker struct {
	mu        sync.Mutex
	muted     []string
	available bool
	run       runner
	log       *slog.Logger
}

// New probes for pactl and returns a ducker. The returned ducker is always
// usable; without pactl it simply does nothing.
func New(log *slog.Logger) *Ducker {
	_, err := exec.LookPath("pactl")
	if err != nil {
		log.Warn("pactl not found; audio ducking disabled")
	}
	return &Ducker{
		available: err == nil,
		run:       pactlRunner,
		log:       log.With("component", "duck"),
	}
}

// MuteOthers enumerates active sink inputs and mutes each, remembering
// which were muted so Restore can undo it.
func (d *Ducker) MuteOthers() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.available {
		return
	}

	out, err := d.run("list", "short", "sink-inputs")
	if err != nil {
		d.log.Debug("sink-input enumeration failed", "err", err)
		return
	}
	for _, id := range parseSinkInputs(out) {
		if _, err := d.run("set-sink-input-mute", id, "1"); err != nil {
			d.log.Debug("mute failed", "sink_input", id, "err", err)
			continue
		}
		d.muted = append(d.muted, id)
	}
	if len(d.muted) > 0 {
		d.log.Debug("muted sink inputs", "count", len(d.muted))
	}
}

// Restore unmutes every previously muted sink input and clears the set
// unconditionally, even when unmuting fails, so nothing stays tracked as
// muted across sessions. Safe to call when nothing was muted.
func (d *Ducker) Restore() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.muted {
		if _, err := d.run("set-sink-input-mute", id, "0"); err != nil {
			d.log.Debug("unmute failed", "sink_input", id, "err", err)
		}
	}
	d.muted = nil
}

// parseSinkInputs extracts the leading id column from
// `pactl list short sink-inputs` output.
func parseSinkInputs(out []byte) []string {
	var ids []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		ids = append(ids, fields[0])
	}
	return ids
}

// mutedTargets is exposed for tests.
func (d *Ducker) mutedTargets() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.muted...)
}

package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/itsaibarr/glaido-free/internal/audio"
)

// CaptureStream is a live hardware input stream. Closing it stops block
// delivery.
type CaptureStream interface {
	Close() error
}

// StreamOpener opens a capture stream that pushes PCM blocks into onBlock
// from its own goroutine.
type StreamOpener func(onBlock func([]int16)) (CaptureStream, error)

// Ducker suppresses other applications' audio for the duration of a
// recording. Both operations are best-effort.
type Ducker interface {
	MuteOthers()
	Restore()
}

// Transcriber converts a persisted audio artifact into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Sink receives recorder outcomes. Implementations must not block: they are
// called from trigger goroutines and from background transcription tasks.
type Sink interface {
	Started()
	Stopped(duration time.Duration)
	Canceled()
	NoAudio()
	Transcript(text string)
	Failed(err error)
}

// Options configures a Recorder.
type Options struct {
	Open           StreamOpener
	Duck           Ducker
	Transcriber    Transcriber
	Sink           Sink
	ArtifactPath   string
	SampleRate     int
	MaxDuration    time.Duration // 0 disables auto-stop
	RequestTimeout time.Duration
	Log            *slog.Logger
}

// Recorder is the recording coordinator: a two-state machine (idle,
// recording) driven by Toggle and Cancel from any goroutine. One mutex
// guards the state transitions and the frame-append path; everything slow
// (stream open/close, serialization, the network call) happens outside it.
type Recorder struct {
	mu        sync.Mutex
	active    bool
	gen       uint64 // session counter; stale auto-stop timers check it
	frames    [][]int16
	startedAt time.Time
	stream    CaptureStream
	timer     *time.Timer

	opts Options
	log  *slog.Logger
}

// New creates an idle recorder.
func New(opts Options) *Recorder {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	return &Recorder{opts: opts, log: log.With("component", "recorder")}
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Toggle starts a recording when idle and stops-and-finalizes one when
// active. The direction is decided on a snapshot of the state; the
// transition itself is an atomic check-and-set, so of two concurrent
// toggles from the same state exactly one wins the edge and the other
// no-ops.
func (r *Recorder) Toggle() {
	if !r.Recording() {
		r.start()
	} else {
		r.stop(false)
	}
}

// Cancel discards an active recording without persisting or transcribing.
// A no-op when idle.
func (r *Recorder) Cancel() {
	r.stop(true)
}

func (r *Recorder) start() {
	r.mu.Lock()
	if r.active {
		// Lost the race against a concurrent toggle.
		r.mu.Unlock()
		return
	}
	r.active = true
	r.gen++
	r.frames = nil
	r.startedAt = time.Now()
	r.mu.Unlock()
	r.startCapture()
}

func (r *Recorder) stop(canceled bool) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.finish(canceled)
}

// appendBlock is the capture sink. A block that arrives after the active
// flag cleared is dropped; losing the boundary block is tolerated.
func (r *Recorder) appendBlock(block []int16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.frames = append(r.frames, block)
}

func (r *Recorder) startCapture() {
	stream, err := r.opts.Open(r.appendBlock)
	if err != nil {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
		r.log.Error("failed to start capture", "err", err)
		r.opts.Sink.Failed(fmt.Errorf("recording failed to start: %w", err))
		return
	}

	r.mu.Lock()
	if !r.active {
		// Stopped or canceled while the stream was opening; the session is
		// already discarded.
		r.mu.Unlock()
		_ = stream.Close()
		return
	}
	r.stream = stream
	gen := r.gen
	if r.opts.MaxDuration > 0 {
		r.timer = time.AfterFunc(r.opts.MaxDuration, func() { r.autoStop(gen) })
	}
	r.mu.Unlock()

	r.opts.Duck.MuteOthers()

	// A stop or cancel may have slipped in between the unlock above and the
	// mute call; its Restore already ran, so undo the late mute or other
	// applications would stay silenced with the recorder idle.
	r.mu.Lock()
	stale := !r.active || r.gen != gen
	r.mu.Unlock()
	if stale {
		r.opts.Duck.Restore()
		return
	}

	r.log.Info("recording started")
	r.opts.Sink.Started()
}

func (r *Recorder) autoStop(gen uint64) {
	r.mu.Lock()
	if !r.active || r.gen != gen {
		// Session already over, or a stale timer from a previous session.
		r.mu.Unlock()
		return
	}
	r.log.Info("auto-stop timeout reached")
	r.finish(false)
}

// finish runs the recording->idle transition. Called with r.mu held and
// r.active true; unlocks before touching the stream so the append path can
// never deadlock against stream teardown.
func (r *Recorder) finish(canceled bool) {
	r.active = false
	stream := r.stream
	r.stream = nil
	frames := r.frames
	r.frames = nil
	timer := r.timer
	r.timer = nil
	startedAt := r.startedAt
	r.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			r.log.Warn("stream close error", "err", err)
		}
	}
	// Restore unconditionally, even when nothing was captured or muted.
	r.opts.Duck.Restore()

	if canceled {
		r.log.Info("recording canceled", "elapsed", time.Since(startedAt))
		r.opts.Sink.Canceled()
		return
	}

	total := 0
	for _, b := range frames {
		total += len(b)
	}
	if total == 0 {
		r.log.Info("no audio recorded")
		r.opts.Sink.NoAudio()
		return
	}

	samples := make([]int16, 0, total)
	for _, b := range frames {
		samples = append(samples, b...)
	}
	if err := audio.WriteWAV(r.opts.ArtifactPath, samples, r.opts.SampleRate); err != nil {
		r.log.Error("failed to save recording", "err", err)
		r.opts.Sink.Failed(err)
		return
	}

	duration := time.Duration(total) * time.Second / time.Duration(r.opts.SampleRate)
	r.log.Info("recording stopped", "duration", duration, "samples", total)
	r.opts.Sink.Stopped(duration)

	// The transcription task owns no recorder state and holds no lock; a new
	// recording may start while it is still in flight.
	go r.transcribe(r.opts.ArtifactPath)
}

func (r *Recorder) transcribe(path string) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if r.opts.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	text, err := r.opts.Transcriber.Transcribe(ctx, path)
	if err != nil {
		r.log.Error("transcription failed", "err", err)
		r.opts.Sink.Failed(err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		r.log.Warn("empty transcript")
		r.opts.Sink.Failed(errors.New("empty result from transcription"))
		return
	}
	r.opts.Sink.Transcript(text)
}

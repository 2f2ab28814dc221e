// Package app wires the recording coordinator to its trigger sources and
// delivery sinks and owns the service lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsaibarr/glaido-free/internal/asr"
	"github.com/itsaibarr/glaido-free/internal/audio"
	"github.com/itsaibarr/glaido-free/internal/clipboard"
	"github.com/itsaibarr/glaido-free/internal/config"
	"github.com/itsaibarr/glaido-free/internal/duck"
	"github.com/itsaibarr/glaido-free/internal/hotkey"
	"github.com/itsaibarr/glaido-free/internal/notify"
	"github.com/itsaibarr/glaido-free/internal/record"
	"github.com/itsaibarr/glaido-free/internal/watcher"
)

// Run builds the service and blocks until SIGINT/SIGTERM.
func Run(cfg config.Config, log *slog.Logger) error {
	audio.CleanupTemp(cfg.ArtifactPath, log)

	ducker := duck.New(log)
	asrClient := asr.New(cfg, asr.NewHTTPClient(cfg), log)
	sink := &notifySink{cfg: cfg, log: log.With("component", "sink")}

	rec := record.New(record.Options{
		Open: func(onBlock func([]int16)) (record.CaptureStream, error) {
			return audio.OpenStream(cfg.SampleRate, cfg.Channels, onBlock, log)
		},
		Duck:           ducker,
		Transcriber:    asrClient,
		Sink:           sink,
		ArtifactPath:   cfg.ArtifactPath,
		SampleRate:     cfg.SampleRate,
		MaxDuration:    cfg.MaxDuration,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watcher.New(cfg.TogglePath, cfg.PollInterval, rec.Toggle, log)
	go w.Run(ctx)

	// The listener's event loop blocks its goroutine; toggle/cancel calls
	// it makes are near-instantaneous, so the loop stays responsive.
	listener, err := hotkey.New(cfg.ToggleKey, cfg.CancelKey, rec.Toggle, rec.Cancel, log)
	if err != nil {
		log.Warn("keyboard listener unavailable; toggle marker is the only trigger", "err", err)
	} else {
		defer listener.Close()
		go func() {
			if err := listener.Run(); err != nil {
				log.Warn("keyboard listener exited", "err", err)
			}
		}()
	}

	log.Info("glaido ready",
		"toggle", "ctrl+shift+"+cfg.ToggleKey,
		"cancel", cfg.CancelKey,
		"marker", cfg.TogglePath)
	sink.notify("✅ Glaido is ready!\nPress Ctrl+Shift+" + cfg.ToggleKey + " to record")

	<-ctx.Done()
	log.Info("shutting down")
	// Discard any in-flight recording so ducking is restored before exit.
	rec.Cancel()
	return nil
}

// notifySink delivers recorder outcomes to the desktop: notifications for
// every state change, the clipboard for transcripts. It holds no state.
type notifySink struct {
	cfg config.Config
	log *slog.Logger
}

func (s *notifySink) notify(message string) {
	if s.cfg.Notification {
		notify.Notify("Glaido", message)
	}
}

func (s *notifySink) Started() {
	s.notify("🎙️ Recording started")
}

func (s *notifySink) Stopped(d time.Duration) {
	s.notify(fmt.Sprintf("🔄 Recorded %.1fs — transcribing…", d.Seconds()))
}

func (s *notifySink) Canceled() {
	s.notify("🚫 Recording discarded")
}

func (s *notifySink) NoAudio() {
	s.notify("⚠️ No audio recorded")
}

func (s *notifySink) Transcript(text string) {
	if err := clipboard.SetText(text); err != nil {
		// The transcript still reaches the user through the notification.
		s.log.Warn("clipboard write failed", "err", err)
		s.notify("📝 " + notify.Preview(text))
		return
	}
	if s.cfg.Paste {
		if err := clipboard.Paste(); err != nil {
			s.log.Warn("paste failed", "err", err)
		}
	}
	s.notify("✅ Copied to clipboard!\n\n" + notify.Preview(text))
}

func (s *notifySink) Failed(err error) {
	s.log.Error("recording pipeline failure", "err", err)
	s.notify("❌ " + err.Error())
}

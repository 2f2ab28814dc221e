package audio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

// blockFrames is the number of samples delivered to the sink per block.
const blockFrames = 1024

// Stream captures fixed-format PCM (mono, 16-bit signed) from the default
// input device and pushes each block to a sink callback from its own
// goroutine. The sink receives a fresh slice per block; the internal read
// buffer is never shared.
type Stream struct {
	stream *portaudio.Stream
	buf    []int16
	quit   chan struct{}
	done   chan struct{}
	log    *slog.Logger
}

// OpenStream initializes PortAudio, opens the default input stream at the
// given sample rate, and starts pumping blocks into onBlock.
func OpenStream(sampleRate, channels int, onBlock func([]int16), log *slog.Logger) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init failed: %w", err)
	}
	in := make([]int16, blockFrames)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(sampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("open stream failed: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("start stream failed: %w", err)
	}

	s := &Stream{
		stream: stream,
		buf:    in,
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		log:    log,
	}
	go s.pump(onBlock)
	return s, nil
}

func (s *Stream) pump(onBlock func([]int16)) {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		default:
		}

		// Read blocks until a full buffer arrives, pacing the loop.
		if err := s.stream.Read(); err != nil {
			s.log.Warn("stream read error", "err", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		block := make([]int16, len(s.buf))
		copy(block, s.buf)
		onBlock(block)
	}
}

// Close stops the pump, closes the stream, and terminates PortAudio.
// After Close returns no further blocks are delivered.
func (s *Stream) Close() error {
	close(s.quit)
	<-s.done

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	portaudio.Terminate()

	if stopErr != nil {
		return fmt.Errorf("stop stream failed: %w", stopErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close stream failed: %w", closeErr)
	}
	return nil
}

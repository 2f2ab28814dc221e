package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// WriteWAV serializes samples as a mono 16-bit PCM WAV at the given path,
// overwriting any prior file. The file is written to a temp name first and
// renamed into place so a reader never sees a half-written artifact.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	tmp := tempArtifactPath(path)
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create wav failed: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	intBuf := make([]int, len(samples))
	for i, v := range samples {
		intBuf[i] = int(v)
	}
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           intBuf,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("wav write failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("wav close failed: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("wav close failed: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("wav rename failed: %w", err)
	}
	return nil
}

// ReadWAV decodes a WAV file back into samples and its sample rate.
func ReadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wav decode failed: %w", err)
	}
	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}
	return samples, buf.Format.SampleRate, nil
}

// CleanupTemp removes temp artifacts a crashed run may have left next to
// the artifact path.
func CleanupTemp(artifactPath string, log *slog.Logger) {
	matches, err := filepath.Glob(artifactPath + ".tmp-*")
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			log.Warn("failed to remove stale temp artifact", "path", m, "err", err)
		}
	}
}

func tempArtifactPath(path string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s.tmp-%s", path, id)
}

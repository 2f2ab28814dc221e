package audio

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glaido_recording.wav")

	samples := make([]int16, 4800)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	require.NoError(t, WriteWAV(path, samples, 16000))

	got, rate, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)
	assert.Equal(t, samples, got)
}

func TestWriteWAVOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glaido_recording.wav")

	require.NoError(t, WriteWAV(path, make([]int16, 3200), 16000))
	require.NoError(t, WriteWAV(path, make([]int16, 1600), 16000))

	got, _, err := ReadWAV(path)
	require.NoError(t, err)
	assert.Len(t, got, 1600)

	// No temp leftovers after a successful rename.
	matches, err := filepath.Glob(path + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCleanupTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "glaido_recording.wav")

	stale := path + ".tmp-deadbeef"
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	CleanupTemp(path, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path)
	assert.NoError(t, err, "the artifact itself must survive cleanup")
}

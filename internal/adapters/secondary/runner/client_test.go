package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzarta/piano-transcription-service/internal/config"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.wav")
	require.NoError(t, os.WriteFile(path, []byte("fake audio"), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/transcribe", r.URL.Path)
		assert.Equal(t, "1", r.Header.Get("X-Numeric-Threads"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("audio")
		require.NoError(t, err)
		assert.Equal(t, "song.wav", hdr.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model_version":"icassp-2022-1.0","notes":[{"start":0,"end":0.5,"pitch":60,"velocity":100}]}`))
	}))
	defer srv.Close()

	c := NewClient(&config.RunnerConfig{URL: srv.URL, Timeout: 5 * time.Second}, 1)
	assert.Equal(t, "unknown", c.ModelVersion())

	notes, err := c.Transcribe(context.Background(), writeTempAudio(t))
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, uint8(60), notes[0].Pitch)
	assert.Equal(t, "icassp-2022-1.0", c.ModelVersion())
}

func TestTranscribe_RunnerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model load failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(&config.RunnerConfig{URL: srv.URL, Timeout: 5 * time.Second}, 1)
	_, err := c.Transcribe(context.Background(), writeTempAudio(t))
	assert.ErrorIs(t, err, domain.ErrTranscriberFailed)
	assert.Contains(t, err.Error(), "model load failed")
}

func TestHealthy(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c := NewClient(&config.RunnerConfig{URL: srv.URL, Timeout: 5 * time.Second}, 1)
	assert.NoError(t, c.Healthy(context.Background()))

	healthy = false
	assert.ErrorIs(t, c.Healthy(context.Background()), domain.ErrModelNotReady)
}

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
)

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/public/audio-uploads/song.wav", r.URL.Path)
		w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	target := domain.StorageTarget{BaseURL: srv.URL, APIKey: "key"}

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), target, "song.wav", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "audio-bytes", buf.String())
}

func TestDownload_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	var buf bytes.Buffer
	_, err := c.Download(context.Background(), domain.StorageTarget{BaseURL: srv.URL, APIKey: "key"}, "gone.wav", &buf)
	assert.ErrorIs(t, err, domain.ErrAudioNotFound)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/storage/v1/object/midi-files/song.wav.mid", r.URL.Path)
		assert.Equal(t, "Bearer svc-key", r.Header.Get("Authorization"))
		assert.Equal(t, "audio/midi", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "midi-bytes", string(body))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	err := c.Upload(context.Background(), domain.StorageTarget{BaseURL: srv.URL, APIKey: "svc-key"},
		"song.wav.mid", strings.NewReader("midi-bytes"), "audio/midi")
	assert.NoError(t, err)
}

func TestUpload_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	err := c.Upload(context.Background(), domain.StorageTarget{BaseURL: srv.URL, APIKey: "k"},
		"x.mid", strings.NewReader("m"), "audio/midi")
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestUpdateStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/v1/transcriptions", r.URL.Path)
		assert.Equal(t, "input_file=eq.song.wav", r.URL.RawQuery)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		assert.Equal(t, "completed", patch["status"])
		assert.Equal(t, "song.wav.mid", patch["output_file"])

		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	err := c.UpdateStatus(context.Background(), domain.StorageTarget{BaseURL: srv.URL, APIKey: "k"},
		"song.wav", ports.StatusPatch{Status: domain.StatusCompleted, OutputFile: "song.wav.mid"})
	assert.NoError(t, err)
}

func TestUpdateStatus_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	err := c.UpdateStatus(context.Background(), domain.StorageTarget{BaseURL: srv.URL, APIKey: "bad"},
		"song.wav", ports.StatusPatch{Status: domain.StatusError, ErrorMessage: "boom"})
	assert.ErrorIs(t, err, domain.ErrStatusUpdateFailed)
}

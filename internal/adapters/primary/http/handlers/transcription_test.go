package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huzarta/piano-transcription-service/internal/config"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/services"
	"github.com/huzarta/piano-transcription-service/internal/midi"
	"github.com/huzarta/piano-transcription-service/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerMocks struct {
	repo  *testutil.MockTranscriptionRepo
	store *testutil.MockObjectStore
	tr    *testutil.MockTranscriber
}

func newTestRouter(t *testing.T) (*gin.Engine, *handlerMocks) {
	t.Helper()
	m := &handlerMocks{
		repo:  new(testutil.MockTranscriptionRepo),
		store: &testutil.MockObjectStore{AudioBytes: []byte("audio")},
		tr:    new(testutil.MockTranscriber),
	}
	svc := services.NewTranscriptionService(m.repo, m.store, m.tr, nil, midi.NewEncoder(120), 1, time.Hour)
	artifacts := services.NewArtifactService(config.ModelConfig{Path: "/models/nmp.onnx"}, m.tr)

	r := gin.New()
	New(svc, artifacts).RegisterRoutes(r)
	return r, m
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func transcribeURL(fileID string) string {
	q := url.Values{}
	q.Set("audio_file_id", fileID)
	q.Set("supabase_url", "https://proj.supabase.co")
	q.Set("supabase_key", "svc-key")
	return "/transcribe?" + q.Encode()
}

func TestTranscribeHandler_Success(t *testing.T) {
	r, m := newTestRouter(t)

	m.tr.On("ModelVersion").Return("icassp-2022-1.0")
	m.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.store.On("Download", mock.Anything, mock.Anything, "song.wav").Return(nil)
	m.tr.On("Transcribe", mock.Anything, mock.Anything).Return([]domain.NoteEvent{
		{Start: 0, End: 0.5, Pitch: 60, Velocity: 100},
	}, nil)
	m.store.On("Upload", mock.Anything, mock.Anything, "song.wav.mid", "audio/midi").Return(nil)
	m.store.On("UpdateStatus", mock.Anything, mock.Anything, "song.wav", mock.Anything).Return(nil)
	m.repo.On("UpdateResult", mock.Anything, mock.Anything).Return(nil)

	w := doRequest(r, http.MethodPost, transcribeURL("song.wav"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "song.wav.mid", resp["midi_file"])
}

func TestTranscribeHandler_MissingParams(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/transcribe?audio_file_id=song.wav")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscribeHandler_AudioNotFound(t *testing.T) {
	r, m := newTestRouter(t)

	m.tr.On("ModelVersion").Return("icassp-2022-1.0")
	m.repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.store.On("Download", mock.Anything, mock.Anything, "gone.wav").Return(domain.ErrAudioNotFound)
	m.store.On("UpdateStatus", mock.Anything, mock.Anything, "gone.wav", mock.Anything).Return(nil)
	m.repo.On("UpdateResult", mock.Anything, mock.Anything).Return(nil)

	w := doRequest(r, http.MethodPost, transcribeURL("gone.wav"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscribeHandler_PathTraversal(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, transcribeURL("../secrets"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRootAndHealth(t *testing.T) {
	r, m := newTestRouter(t)
	m.tr.On("ModelVersion").Return("icassp-2022-1.0")

	w := doRequest(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "online", resp["status"])
	assert.Equal(t, "audio-transcription", resp["service"])

	w = doRequest(r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestGetTranscription(t *testing.T) {
	r, m := newTestRouter(t)

	id := uuid.New()
	m.repo.On("GetByID", mock.Anything, id).Return(&domain.Transcription{
		ID:        id,
		InputFile: "song.wav",
		Status:    domain.StatusCompleted,
	}, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/transcriptions/"+id.String())
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "song.wav", resp["input_file"])
}

func TestGetTranscription_InvalidID(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doRequest(r, http.MethodGet, "/api/v1/transcriptions/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTranscription_NotFound(t *testing.T) {
	r, m := newTestRouter(t)

	id := uuid.New()
	m.repo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrTranscriptionNotFound)

	w := doRequest(r, http.MethodGet, "/api/v1/transcriptions/"+id.String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

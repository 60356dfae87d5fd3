package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

func TestToTranscribeResponse(t *testing.T) {
	tr := &domain.Transcription{
		ID:         uuid.New(),
		OutputFile: "song.wav.mid",
		Cached:     true,
	}

	resp := ToTranscribeResponse(tr)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "song.wav.mid", resp.MidiFile)
	assert.True(t, resp.Cached)
	assert.Equal(t, tr.ID.String(), resp.JobID)
}

func TestToTranscriptionResponse(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr := &domain.Transcription{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		InputFile:    "song.wav",
		OutputFile:   "song.wav.mid",
		Status:       domain.StatusCompleted,
		ModelVersion: "icassp-2022-1.0",
		NoteCount:    42,
		AudioSeconds: 12.5,
		DurationMS:   3100,
	}

	resp := ToTranscriptionResponse(tr)
	assert.Equal(t, "2024-05-01T12:00:00Z", resp.CreatedAt)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 42, resp.NoteCount)
	assert.Equal(t, 12.5, resp.AudioSeconds)
}

func TestToTranscriptionListResponse_Empty(t *testing.T) {
	resp := ToTranscriptionListResponse(nil, 0)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.Total)
}

package dto

import (
	"time"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

// TranscribeRequest binds the original query-parameter contract. A JSON body
// with the same field names is accepted as well.
type TranscribeRequest struct {
	AudioFileID string `form:"audio_file_id" json:"audio_file_id"`
	SupabaseURL string `form:"supabase_url" json:"supabase_url"`
	SupabaseKey string `form:"supabase_key" json:"supabase_key"`
}

type TranscribeResponse struct {
	Status   string `json:"status"`
	MidiFile string `json:"midi_file"`
	Cached   bool   `json:"cached,omitempty"`
	JobID    string `json:"job_id,omitempty"`
}

type TranscriptionResponse struct {
	ID           string  `json:"id"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
	InputFile    string  `json:"input_file"`
	OutputFile   string  `json:"output_file,omitempty"`
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	ModelVersion string  `json:"model_version,omitempty"`
	NoteCount    int     `json:"note_count"`
	AudioSeconds float64 `json:"audio_seconds,omitempty"`
	DurationMS   int64   `json:"duration_ms"`
}

type TranscriptionListResponse struct {
	Items []TranscriptionResponse `json:"items"`
	Total int                     `json:"total"`
}

func ToTranscribeResponse(t *domain.Transcription) TranscribeResponse {
	return TranscribeResponse{
		Status:   "success",
		MidiFile: t.OutputFile,
		Cached:   t.Cached,
		JobID:    t.ID.String(),
	}
}

func ToTranscriptionResponse(t *domain.Transcription) TranscriptionResponse {
	return TranscriptionResponse{
		ID:           t.ID.String(),
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.UTC().Format(time.RFC3339),
		InputFile:    t.InputFile,
		OutputFile:   t.OutputFile,
		Status:       string(t.Status),
		ErrorMessage: t.ErrorMessage,
		ModelVersion: t.ModelVersion,
		NoteCount:    t.NoteCount,
		AudioSeconds: t.AudioSeconds,
		DurationMS:   t.DurationMS,
	}
}

func ToTranscriptionListResponse(items []*domain.Transcription, total int) TranscriptionListResponse {
	out := TranscriptionListResponse{
		Items: make([]TranscriptionResponse, 0, len(items)),
		Total: total,
	}
	for _, t := range items {
		out.Items = append(out.Items, ToTranscriptionResponse(t))
	}
	return out
}

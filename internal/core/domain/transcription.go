package domain

import (
	"time"

	"github.com/google/uuid"
)

type TranscriptionStatus string

const (
	StatusPending    TranscriptionStatus = "pending"
	StatusProcessing TranscriptionStatus = "processing"
	StatusCompleted  TranscriptionStatus = "completed"
	StatusError      TranscriptionStatus = "error"
)

// Transcription is one audio-to-MIDI job tracked in the local registry.
// InputFile is the caller's storage object ID; OutputFile is set to
// "<InputFile>.mid" once the MIDI has been uploaded.
type Transcription struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	InputFile    string
	OutputFile   string
	Status       TranscriptionStatus
	ErrorMessage string
	ModelVersion string
	NoteCount    int
	AudioSeconds float64
	DurationMS   int64
	Cached       bool
}

// NoteEvent is a single transcribed note. Start and End are seconds from the
// beginning of the audio, Pitch is a MIDI key number (A0=21 .. C8=108 for
// piano), Velocity is 1-127.
type NoteEvent struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Pitch      uint8   `json:"pitch"`
	Velocity   uint8   `json:"velocity"`
	Confidence float64 `json:"confidence,omitempty"`
}

// StorageTarget carries the per-request Supabase project credentials the
// caller hands us for fetching audio and delivering results.
type StorageTarget struct {
	BaseURL string
	APIKey  string
}

// ModelInfo describes the provisioned checkpoint, reported on the root
// endpoint and used to scope the result cache.
type ModelInfo struct {
	Path     string `json:"path"`
	Version  string `json:"version"`
	Checksum string `json:"checksum,omitempty"`
	Warm     bool   `json:"warm"`
}

package ports

import (
	"context"
	"time"
)

// CachedResult is the minimal record needed to answer a repeated request for
// an already transcribed audio object without rerunning the model.
type CachedResult struct {
	OutputFile   string  `json:"output_file"`
	ModelVersion string  `json:"model_version"`
	NoteCount    int     `json:"note_count"`
	AudioSeconds float64 `json:"audio_seconds"`
}

// ResultCache is optional; a nil cache disables reuse entirely.
type ResultCache interface {
	Get(ctx context.Context, key string) (*CachedResult, bool)
	Set(ctx context.Context, key string, res CachedResult, ttl time.Duration) error
	Close() error
}

package ports

import (
	"context"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

// Transcriber runs audio through the pretrained model and returns note
// events. The production implementation calls the model-runner process that
// holds the checkpoint.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]domain.NoteEvent, error)
	Healthy(ctx context.Context) error
	ModelVersion() string
}

package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

type TranscriptionListFilter struct {
	Status string
	Limit  int
	Offset int
}

// TranscriptionRepository is the local job registry. Rows are created when a
// job starts processing and updated exactly once with the terminal result.
type TranscriptionRepository interface {
	Create(ctx context.Context, t *domain.Transcription) error
	UpdateResult(ctx context.Context, t *domain.Transcription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcription, error)
	List(ctx context.Context, filter TranscriptionListFilter) ([]*domain.Transcription, int, error)
}

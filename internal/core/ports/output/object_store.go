package ports

import (
	"context"
	"io"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

// StatusPatch mirrors the columns the caller's transcriptions table expects.
type StatusPatch struct {
	Status       domain.TranscriptionStatus `json:"status"`
	OutputFile   string                     `json:"output_file,omitempty"`
	ErrorMessage string                     `json:"error_message,omitempty"`
}

// ObjectStore talks to the caller's storage project. Credentials arrive with
// every request, so implementations hold no per-target state.
type ObjectStore interface {
	// Download streams the audio object into w. Returns
	// domain.ErrAudioNotFound when the object does not exist.
	Download(ctx context.Context, target domain.StorageTarget, fileID string, w io.Writer) (int64, error)

	// Upload stores the finished MIDI object under the given name.
	Upload(ctx context.Context, target domain.StorageTarget, object string, r io.Reader, contentType string) error

	// UpdateStatus patches the caller's transcriptions row for fileID.
	UpdateStatus(ctx context.Context, target domain.StorageTarget, fileID string, patch StatusPatch) error
}

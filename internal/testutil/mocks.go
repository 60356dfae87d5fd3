package testutil

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
)

// MockTranscriptionRepo is a mock of TranscriptionRepository.
type MockTranscriptionRepo struct {
	mock.Mock
}

func (m *MockTranscriptionRepo) Create(ctx context.Context, t *domain.Transcription) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTranscriptionRepo) UpdateResult(ctx context.Context, t *domain.Transcription) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTranscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transcription), args.Error(1)
}

func (m *MockTranscriptionRepo) List(ctx context.Context, filter ports.TranscriptionListFilter) ([]*domain.Transcription, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Transcription), args.Int(1), args.Error(2)
}

// MockObjectStore is a mock of ObjectStore.
type MockObjectStore struct {
	mock.Mock

	// AudioBytes, when set, is written to the download writer on success.
	AudioBytes []byte
}

func (m *MockObjectStore) Download(ctx context.Context, target domain.StorageTarget, fileID string, w io.Writer) (int64, error) {
	args := m.Called(ctx, target, fileID)
	if err := args.Error(0); err != nil {
		return 0, err
	}
	n, _ := w.Write(m.AudioBytes)
	return int64(n), nil
}

func (m *MockObjectStore) Upload(ctx context.Context, target domain.StorageTarget, object string, r io.Reader, contentType string) error {
	io.Copy(io.Discard, r)
	args := m.Called(ctx, target, object, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) UpdateStatus(ctx context.Context, target domain.StorageTarget, fileID string, patch ports.StatusPatch) error {
	args := m.Called(ctx, target, fileID, patch)
	return args.Error(0)
}

// MockTranscriber is a mock of Transcriber.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) ([]domain.NoteEvent, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.NoteEvent), args.Error(1)
}

func (m *MockTranscriber) Healthy(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTranscriber) ModelVersion() string {
	args := m.Called()
	return args.String(0)
}

// MockResultCache is a mock of ResultCache.
type MockResultCache struct {
	mock.Mock
}

func (m *MockResultCache) Get(ctx context.Context, key string) (*ports.CachedResult, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*ports.CachedResult), args.Bool(1)
}

func (m *MockResultCache) Set(ctx context.Context, key string, res ports.CachedResult, ttl time.Duration) error {
	args := m.Called(ctx, key, res, ttl)
	return args.Error(0)
}

func (m *MockResultCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

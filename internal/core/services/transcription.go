package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/huzarta/piano-transcription-service/internal/audio"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
	"github.com/huzarta/piano-transcription-service/internal/metrics"
	"github.com/huzarta/piano-transcription-service/internal/midi"
)

type TranscribeRequest struct {
	FileID string
	Target domain.StorageTarget
}

type TranscriptionService struct {
	repo        ports.TranscriptionRepository
	store       ports.ObjectStore
	transcriber ports.Transcriber
	cache       ports.ResultCache
	encoder     *midi.Encoder
	sem         chan struct{}
	cacheTTL    time.Duration
}

// NewTranscriptionService wires the pipeline. cache may be nil. maxConcurrency
// bounds simultaneous jobs; excess requests queue on the semaphore the way the
// original single-worker deployment queued them in the server backlog.
func NewTranscriptionService(
	repo ports.TranscriptionRepository,
	store ports.ObjectStore,
	transcriber ports.Transcriber,
	cache ports.ResultCache,
	encoder *midi.Encoder,
	maxConcurrency int,
	cacheTTL time.Duration,
) *TranscriptionService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &TranscriptionService{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		cache:       cache,
		encoder:     encoder,
		sem:         make(chan struct{}, maxConcurrency),
		cacheTTL:    cacheTTL,
	}
}

// Transcribe runs the full flow: fetch the audio object, run the model,
// encode MIDI, upload it, and patch the caller's transcriptions row. The
// local registry row records the outcome either way.
func (s *TranscriptionService) Transcribe(ctx context.Context, req TranscribeRequest) (*domain.Transcription, error) {
	if err := validateFileID(req.FileID); err != nil {
		return nil, err
	}
	if req.Target.BaseURL == "" || req.Target.APIKey == "" {
		return nil, domain.ErrMissingStorageTarget
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	if hit := s.cachedResult(ctx, req); hit != nil {
		return hit, nil
	}

	started := time.Now()
	tr := &domain.Transcription{
		ID:           uuid.New(),
		CreatedAt:    started,
		UpdatedAt:    started,
		InputFile:    req.FileID,
		Status:       domain.StatusProcessing,
		ModelVersion: s.transcriber.ModelVersion(),
	}
	if err := s.repo.Create(ctx, tr); err != nil {
		return nil, fmt.Errorf("create transcription record: %w", err)
	}

	result, err := s.run(ctx, tr, req)
	tr.DurationMS = time.Since(started).Milliseconds()
	tr.UpdatedAt = time.Now()

	if err != nil {
		tr.Status = domain.StatusError
		tr.ErrorMessage = err.Error()
		s.patchRemote(ctx, req.Target, req.FileID, ports.StatusPatch{
			Status:       domain.StatusError,
			ErrorMessage: err.Error(),
		})
		if repoErr := s.repo.UpdateResult(ctx, tr); repoErr != nil {
			log.WithError(repoErr).Warn("failed to record transcription error")
		}
		metrics.TranscriptionsTotal.WithLabelValues(string(domain.StatusError)).Inc()
		return nil, err
	}

	tr.Status = domain.StatusCompleted
	tr.OutputFile = result.outputFile
	tr.NoteCount = result.noteCount
	tr.AudioSeconds = result.audioSeconds
	if repoErr := s.repo.UpdateResult(ctx, tr); repoErr != nil {
		log.WithError(repoErr).Warn("failed to record transcription result")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(tr.ModelVersion, req), ports.CachedResult{
			OutputFile:   tr.OutputFile,
			ModelVersion: tr.ModelVersion,
			NoteCount:    tr.NoteCount,
			AudioSeconds: tr.AudioSeconds,
		}, s.cacheTTL); err != nil {
			log.WithError(err).Debug("result cache set failed")
		}
	}

	metrics.TranscriptionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()
	metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
	metrics.TranscriptionNotes.Observe(float64(tr.NoteCount))

	log.WithFields(log.Fields{
		"input_file":  tr.InputFile,
		"output_file": tr.OutputFile,
		"notes":       tr.NoteCount,
		"duration_ms": tr.DurationMS,
	}).Info("transcription completed")

	return tr, nil
}

type runResult struct {
	outputFile   string
	noteCount    int
	audioSeconds float64
}

func (s *TranscriptionService) run(ctx context.Context, tr *domain.Transcription, req TranscribeRequest) (*runResult, error) {
	tmpDir, err := os.MkdirTemp("", "transcribe-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, req.FileID)
	f, err := os.Create(audioPath)
	if err != nil {
		return nil, fmt.Errorf("create temp audio file: %w", err)
	}

	size, err := s.store.Download(ctx, req.Target, req.FileID, f)
	f.Close()
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"input_file": req.FileID, "bytes": size}).Debug("audio downloaded")

	var audioSeconds float64
	if info, err := audio.Probe(audioPath); err == nil {
		audioSeconds = info.Duration.Seconds()
	}

	notes, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, domain.ErrEmptyTranscription
	}

	var midiBuf bytes.Buffer
	if err := s.encoder.Encode(&midiBuf, notes); err != nil {
		return nil, err
	}

	outputFile := req.FileID + ".mid"
	if err := s.store.Upload(ctx, req.Target, outputFile, &midiBuf, "audio/midi"); err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatus(ctx, req.Target, req.FileID, ports.StatusPatch{
		Status:     domain.StatusCompleted,
		OutputFile: outputFile,
	}); err != nil {
		return nil, err
	}

	return &runResult{
		outputFile:   outputFile,
		noteCount:    len(notes),
		audioSeconds: audioSeconds,
	}, nil
}

func (s *TranscriptionService) cachedResult(ctx context.Context, req TranscribeRequest) *domain.Transcription {
	if s.cache == nil {
		return nil
	}
	res, ok := s.cache.Get(ctx, cacheKey(s.transcriber.ModelVersion(), req))
	if !ok {
		return nil
	}
	metrics.CacheHits.Inc()
	now := time.Now()
	return &domain.Transcription{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		InputFile:    req.FileID,
		OutputFile:   res.OutputFile,
		Status:       domain.StatusCompleted,
		ModelVersion: res.ModelVersion,
		NoteCount:    res.NoteCount,
		AudioSeconds: res.AudioSeconds,
		Cached:       true,
	}
}

// patchRemote is best effort: the original service also tried to flag the
// error on the caller's row and moved on if that failed too.
func (s *TranscriptionService) patchRemote(ctx context.Context, target domain.StorageTarget, fileID string, patch ports.StatusPatch) {
	if err := s.store.UpdateStatus(ctx, target, fileID, patch); err != nil {
		log.WithError(err).WithField("input_file", fileID).Warn("failed to patch remote transcription status")
	}
}

func validateFileID(fileID string) error {
	if fileID == "" ||
		strings.ContainsAny(fileID, `/\`) ||
		strings.Contains(fileID, "..") {
		return domain.ErrInvalidFileID
	}
	return nil
}

// cacheKey scopes results to the caller's storage project as well as the
// model and object: a hit means this exact target already received the MIDI
// and its status row was patched. Without the target in the key, a second
// caller reusing a file ID would be told "success" while its own bucket
// stayed empty.
func cacheKey(modelVersion string, req TranscribeRequest) string {
	sum := sha256.Sum256([]byte(modelVersion + ":" + req.Target.BaseURL + ":" + req.FileID))
	return "transcriber:result:" + hex.EncodeToString(sum[:])
}

// Get returns a registry row by ID.
func (s *TranscriptionService) Get(ctx context.Context, id uuid.UUID) (*domain.Transcription, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns registry rows, newest first.
func (s *TranscriptionService) List(ctx context.Context, filter ports.TranscriptionListFilter) ([]*domain.Transcription, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"

	"github.com/huzarta/piano-transcription-service/internal/audio"
	"github.com/huzarta/piano-transcription-service/internal/config"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
	"github.com/huzarta/piano-transcription-service/internal/metrics"
)

const warmupSampleRate = 16000

// ArtifactService provisions the pretrained checkpoint before the server
// accepts traffic: download it if missing, verify its checksum, and push one
// second of silence through the model so the first real request pays no
// cold-start cost.
type ArtifactService struct {
	cfg         config.ModelConfig
	transcriber ports.Transcriber
	client      *http.Client
	warm        bool
	checksum    string
}

func NewArtifactService(cfg config.ModelConfig, transcriber ports.Transcriber) *ArtifactService {
	return &ArtifactService{
		cfg:         cfg,
		transcriber: transcriber,
		client:      &http.Client{Timeout: cfg.DownloadTimeout},
	}
}

// EnsureLocal makes the checkpoint available at cfg.Path. An existing file
// with a matching checksum short-circuits the download.
func (s *ArtifactService) EnsureLocal(ctx context.Context) error {
	if ok, err := s.verifyExisting(); err != nil {
		return err
	} else if ok {
		log.WithField("path", s.cfg.Path).Info("model checkpoint already present")
		return nil
	}

	if s.cfg.URL == "" {
		return fmt.Errorf("model checkpoint missing at %s and MODEL_URL is not set", s.cfg.Path)
	}

	started := time.Now()
	expb := backoff.NewExponentialBackOff()
	expb.MaxElapsedTime = s.cfg.DownloadTimeout

	err := backoff.Retry(func() error {
		if err := s.download(ctx); err != nil {
			log.WithError(err).Warn("model download attempt failed")
			return err
		}
		return nil
	}, backoff.WithContext(expb, ctx))
	if err != nil {
		return fmt.Errorf("download model: %w", err)
	}

	metrics.ModelDownloadSeconds.Set(time.Since(started).Seconds())
	log.WithFields(log.Fields{
		"path":    s.cfg.Path,
		"elapsed": time.Since(started).Round(time.Millisecond).String(),
	}).Info("model checkpoint downloaded")
	return nil
}

// Warmup mirrors the provisioning scripts: a one second silent buffer forces
// the runner to load the checkpoint. Silence legitimately yields no notes.
func (s *ArtifactService) Warmup(ctx context.Context) error {
	tmp, err := os.CreateTemp("", "warmup-*.wav")
	if err != nil {
		return fmt.Errorf("create warmup file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := audio.WriteSilence(tmp, warmupSampleRate, time.Second); err != nil {
		tmp.Close()
		return fmt.Errorf("write warmup audio: %w", err)
	}
	tmp.Close()

	if _, err := s.transcriber.Transcribe(ctx, tmp.Name()); err != nil {
		return fmt.Errorf("warmup transcription: %w", err)
	}

	s.warm = true
	log.Info("model warmed up")
	return nil
}

// Ready gates readiness on the warmup contract: when warmup is enabled the
// service only reports healthy once the checkpoint has served the silent
// warmup buffer.
func (s *ArtifactService) Ready() error {
	if s.cfg.WarmupOnStart && !s.warm {
		return domain.ErrModelNotReady
	}
	return nil
}

func (s *ArtifactService) Info() domain.ModelInfo {
	return domain.ModelInfo{
		Path:     s.cfg.Path,
		Version:  s.transcriber.ModelVersion(),
		Checksum: s.checksum,
		Warm:     s.warm,
	}
}

// verifyExisting reports whether a usable checkpoint is already on disk. A
// checksum mismatch on an existing file is fatal rather than silently
// re-downloaded, so an operator notices corrupted volumes.
func (s *ArtifactService) verifyExisting() (bool, error) {
	if _, err := os.Stat(s.cfg.Path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat model checkpoint: %w", err)
	}

	sum, err := fileSHA256(s.cfg.Path)
	if err != nil {
		return false, err
	}
	if s.cfg.SHA256 != "" && sum != s.cfg.SHA256 {
		return false, fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, s.cfg.Path)
	}
	s.checksum = sum
	return true, nil
}

func (s *ArtifactService) download(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("model hub returned %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.Path), 0o755); err != nil {
		return backoff.Permanent(fmt.Errorf("create model dir: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.cfg.Path), ".download-*")
	if err != nil {
		return backoff.Permanent(err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if s.cfg.SHA256 != "" && sum != s.cfg.SHA256 {
		return backoff.Permanent(fmt.Errorf("%w: got %s", domain.ErrChecksumMismatch, sum))
	}

	if err := os.Rename(tmp.Name(), s.cfg.Path); err != nil {
		return backoff.Permanent(err)
	}
	s.checksum = sum
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

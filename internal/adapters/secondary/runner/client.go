// Package runner implements the Transcriber port against the model-runner
// process that holds the pretrained checkpoint and exposes it over HTTP.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/huzarta/piano-transcription-service/internal/config"
	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

type Client struct {
	baseURL        string
	http           *http.Client
	numericThreads int

	mu           sync.RWMutex
	modelVersion string
}

type transcribeResponse struct {
	ModelVersion string             `json:"model_version"`
	Notes        []domain.NoteEvent `json:"notes"`
}

func NewClient(cfg *config.RunnerConfig, numericThreads int) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        8,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		numericThreads: numericThreads,
	}
}

func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]domain.NoteEvent, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcribe", &body)
	if err != nil {
		return nil, fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	// The runner caps its BLAS/OMP pools per request to match the
	// deployment's thread budget.
	req.Header.Set("X-Numeric-Threads", strconv.Itoa(c.numericThreads))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTranscriberFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: runner returned %d: %s", domain.ErrTranscriberFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrTranscriberFailed, err)
	}
	if out.ModelVersion != "" {
		c.mu.Lock()
		c.modelVersion = out.ModelVersion
		c.mu.Unlock()
	}
	return out.Notes, nil
}

func (c *Client) Healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrModelNotReady, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: runner returned %d", domain.ErrModelNotReady, resp.StatusCode)
	}
	return nil
}

// ModelVersion reports the version announced by the runner, or a stable
// placeholder before the first response has been seen.
func (c *Client) ModelVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.modelVersion == "" {
		return "unknown"
	}
	return c.modelVersion
}

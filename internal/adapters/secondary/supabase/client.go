// Package supabase implements the ObjectStore port against Supabase's
// storage and PostgREST APIs. Credentials are per request: the caller owns
// the project we read from and write to.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
)

const (
	uploadBucket   = "midi-files"
	downloadBucket = "audio-uploads"
)

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (c *Client) Download(ctx context.Context, target domain.StorageTarget, fileID string, w io.Writer) (int64, error) {
	u := fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimRight(target.BaseURL, "/"), downloadBucket, url.PathEscape(fileID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, domain.ErrAudioNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download audio: storage returned %d", resp.StatusCode)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream audio: %w", err)
	}
	return n, nil
}

func (c *Client) Upload(ctx context.Context, target domain.StorageTarget, object string, r io.Reader, contentType string) error {
	u := fmt.Sprintf("%s/storage/v1/object/%s/%s",
		strings.TrimRight(target.BaseURL, "/"), uploadBucket, url.PathEscape(object))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, r)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+target.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: storage returned %d", domain.ErrUploadFailed, resp.StatusCode)
	}
	return nil
}

func (c *Client) UpdateStatus(ctx context.Context, target domain.StorageTarget, fileID string, patch ports.StatusPatch) error {
	u := fmt.Sprintf("%s/rest/v1/transcriptions?input_file=eq.%s",
		strings.TrimRight(target.BaseURL, "/"), url.QueryEscape(fileID))

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal status patch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+target.APIKey)
	req.Header.Set("apikey", target.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStatusUpdateFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: postgrest returned %d", domain.ErrStatusUpdateFailed, resp.StatusCode)
	}
	return nil
}

// Package video submits narration scripts to the talking-avatar
// rendering upstream and polls jobs until they finish.
package video

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Job terminal conditions
var (
	// ErrSubmissionRejected means the upstream did not accept the render request
	ErrSubmissionRejected = errors.New("video submission rejected")
	// ErrJobFailed means the upstream reported the job as failed
	ErrJobFailed = errors.New("video job failed")
	// ErrTimeout means polling exhausted all attempts without a terminal status
	ErrTimeout = errors.New("video job timed out")
)

// Job statuses reported by the upstream
const (
	StatusDone  = "done"
	StatusError = "error"
)

// Config holds the rendering upstream settings
type Config struct {
	BaseURL      string
	APIKey       string
	VoiceID      string
	PresenterID  string
	PollInterval time.Duration
	MaxAttempts  int
}

// Client talks to the avatar rendering API
type Client struct {
	cfg        Config
	authHeader string
	client     *http.Client
}

// NewClient creates a rendering client. The upstream expects HTTP Basic
// auth with the base64 of the raw key, no trailing colon.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.d-id.com"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 60
	}
	return &Client{
		cfg:        cfg,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.APIKey)),
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type submitRequest struct {
	Script      script       `json:"script"`
	PresenterID string       `json:"presenter_id"`
	Config      renderConfig `json:"config"`
}

type script struct {
	Type     string        `json:"type"`
	Input    string        `json:"input"`
	Provider voiceProvider `json:"provider"`
}

type voiceProvider struct {
	Type    string `json:"type"`
	VoiceID string `json:"voice_id"`
}

type renderConfig struct {
	Fluent   bool    `json:"fluent"`
	PadAudio float64 `json:"pad_audio"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type pollResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// Submit sends a text script for rendering. The upstream answers 201
// with a job id when it accepts the request; anything else is a
// submission failure.
func (c *Client) Submit(ctx context.Context, text string) (string, error) {
	req := submitRequest{
		Script: script{
			Type:  "text",
			Input: text,
			Provider: voiceProvider{
				Type:    "elevenlabs",
				VoiceID: c.cfg.VoiceID,
			},
		},
		PresenterID: c.cfg.PresenterID,
		Config:      renderConfig{Fluent: false, PadAudio: 0.0},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/talks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.authHeader)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Warn().Int("status", resp.StatusCode).Msg("video submission rejected")
		return "", fmt.Errorf("%w: status %d", ErrSubmissionRejected, resp.StatusCode)
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("failed to decode submit response: %w", err)
	}
	if submitResp.ID == "" {
		return "", fmt.Errorf("%w: no job id in response", ErrSubmissionRejected)
	}

	return submitResp.ID, nil
}

// AwaitCompletion polls the job at a fixed interval until it reaches a
// terminal status or the attempt budget runs out. A non-200 poll is
// treated as transient and retried on the next tick. Cancelling ctx
// releases the poll loop.
func (c *Client) AwaitCompletion(ctx context.Context, jobID string) (string, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, url, err := c.poll(ctx, jobID)
		if err != nil {
			log.Debug().Err(err).Str("job_id", jobID).Int("attempt", attempt+1).Msg("poll failed, retrying")
			continue
		}

		switch status {
		case StatusDone:
			return url, nil
		case StatusError:
			log.Warn().Str("job_id", jobID).Msg("upstream reported job failure")
			return "", ErrJobFailed
		}
	}

	return "", ErrTimeout
}

func (c *Client) poll(ctx context.Context, jobID string) (status, url string, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/talks/"+jobID, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.authHeader)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("poll returned status %d", resp.StatusCode)
	}

	var pollResp pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&pollResp); err != nil {
		return "", "", fmt.Errorf("failed to decode poll response: %w", err)
	}

	return pollResp.Status, pollResp.ResultURL, nil
}

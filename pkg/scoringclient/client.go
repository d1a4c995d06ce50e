/**
 * @description
 * This package provides a client for the external ML scoring API. It
 * encapsulates request construction, the scoring and liveness timeouts, and
 * response parsing. Callers treat any error from this client as a signal to
 * fall back to the local heuristic scorer; the client itself never retries.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package scoringclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lendwise/credit-service/internal/domain"
)

const (
	// ScoreTimeout bounds a scoring call end to end.
	ScoreTimeout = 10 * time.Second
	// HealthTimeout bounds the liveness probe.
	HealthTimeout = 5 * time.Second
)

// Client is a client for the ML scoring API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new scoring API client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: ScoreTimeout,
		},
	}
}

// StatusError reports a non-2xx response from the scoring API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scoring api returned status %d: %s", e.StatusCode, e.Body)
}

// Score submits a scoring request and returns the model's result.
func (c *Client) Score(ctx context.Context, req domain.ScoringRequest) (*domain.ScoringResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scoring request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, ScoreTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/score", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result domain.ScoringResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode scoring response: %w", err)
	}
	return &result, nil
}

// HealthCheck probes the scoring API's liveness endpoint. A nil error means
// the service answered with a 2xx.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, HealthTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// Package services holds thin HTTP clients for the external collaborators:
// AI code review, code execution, and API scaffolding. None of them touch
// room state, and none are called while a room lock is held.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReviewClient talks to the AI code-review backend. The call is stateless;
// upstream failure is surfaced as-is with no retries.
type ReviewClient struct {
	base string
	hc   *http.Client
}

// NewReviewClient points at the review backend base URL.
func NewReviewClient(base string) *ReviewClient {
	return &ReviewClient{base: base, hc: &http.Client{Timeout: 60 * time.Second}}
}

type reviewRequest struct {
	Code string `json:"code"`
}

// Review submits source text and returns the review text.
func (c *ReviewClient) Review(ctx context.Context, code string) (string, error) {
	body, _ := json.Marshal(reviewRequest{Code: code})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/get-review", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("review service: %s: %s", res.Status, raw)
	}

	// The backend returns either a bare JSON string or plain text.
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	return string(raw), nil
}

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

// ScaffoldClient talks to the API scaffold generator.
type ScaffoldClient struct {
	base string
	hc   *http.Client
}

// NewScaffoldClient points at the generator base URL.
func NewScaffoldClient(base string) *ScaffoldClient {
	return &ScaffoldClient{base: base, hc: &http.Client{Timeout: 60 * time.Second}}
}

// RouteSpec describes one route the generator should scaffold.
type RouteSpec struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Name   string `json:"name,omitempty"`
}

// ScaffoldRequest is the generator input: routes plus stack choices.
type ScaffoldRequest struct {
	Routes     []RouteSpec `json:"routes"`
	Middleware []string    `json:"middleware,omitempty"`
	Database   string      `json:"database,omitempty"`
}

type scaffoldResponse struct {
	Code string `json:"code"`
}

// Generate asks the upstream service for scaffolded source text.
func (c *ScaffoldClient) Generate(ctx context.Context, r ScaffoldRequest) (string, error) {
	body, _ := json.Marshal(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/generate-api", bytes.NewReader(body))
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
		return "", fmt.Errorf("scaffold service: %s: %s", res.Status, raw)
	}

	var sr scaffoldResponse
	if err := json.Unmarshal(raw, &sr); err == nil && sr.Code != "" {
		return sr.Code, nil
	}
	return string(raw), nil
}

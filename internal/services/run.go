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

// RunClient talks to a Piston-style code execution service.
type RunClient struct {
	base string
	hc   *http.Client
}

// NewRunClient points at the execution service base URL.
func NewRunClient(base string) *RunClient {
	return &RunClient{base: base, hc: &http.Client{Timeout: 30 * time.Second}}
}

// Runtime is one supported language+version pair.
type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases,omitempty"`
}

// RunRequest is a single execution: language, version, source, and stdin.
type RunRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin"`
}

// RunResult is what the sandbox produced.
type RunResult struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

type pistonFile struct {
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonResponse struct {
	Run struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
		Code   int    `json:"code"`
	} `json:"run"`
	Message string `json:"message"`
}

// Runtimes lists the languages the execution service supports.
func (c *RunClient) Runtimes(ctx context.Context) ([]Runtime, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/runtimes", nil)
	if err != nil {
		return nil, err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("run service: %s: %s", res.Status, raw)
	}
	var out []Runtime
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Execute runs source text and returns stdout/stderr/exit info.
func (c *RunClient) Execute(ctx context.Context, r RunRequest) (RunResult, error) {
	body, _ := json.Marshal(pistonRequest{
		Language: r.Language,
		Version:  r.Version,
		Files:    []pistonFile{{Content: r.Code}},
		Stdin:    r.Stdin,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/execute", bytes.NewReader(body))
	if err != nil {
		return RunResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return RunResult{}, err
	}
	defer res.Body.Close()

	var pr pistonResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return RunResult{}, err
	}
	if res.StatusCode != http.StatusOK {
		return RunResult{}, fmt.Errorf("run service: %s: %s", res.Status, pr.Message)
	}
	return RunResult{Stdout: pr.Run.Stdout, Stderr: pr.Run.Stderr, ExitCode: pr.Run.Code}, nil
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RemoteClient talks to a providers runner: a process hosting the provider
// library and exposing its entry points as JSON endpoints.
type RemoteClient struct {
	baseURL    string
	target     string
	httpClient *http.Client
}

type runAllRequest struct {
	Media       Media    `json:"media"`
	SourceOrder []string `json:"sourceOrder,omitempty"`
	EmbedOrder  []string `json:"embedOrder,omitempty"`
	Target      string   `json:"target"`
}

type runSourceRequest struct {
	ID     string `json:"id"`
	Media  Media  `json:"media"`
	Target string `json:"target"`
}

type runEmbedRequest struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Target string `json:"target"`
}

type runnerError struct {
	Error string `json:"error"`
}

func NewRemoteClient(baseURL, target string, fetcher *http.Client) *RemoteClient {
	return &RemoteClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		target:     target,
		httpClient: fetcher,
	}
}

func (c *RemoteClient) RunAll(ctx context.Context, opts RunOptions) (*RunOutput, error) {
	var output *RunOutput
	err := c.do(ctx, http.MethodPost, "/run/all", runAllRequest{
		Media:       opts.Media,
		SourceOrder: opts.SourceOrder,
		EmbedOrder:  opts.EmbedOrder,
		Target:      c.target,
	}, &output)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runAll failed: %w", err)
	}
	return output, nil
}

func (c *RemoteClient) RunSourceScraper(ctx context.Context, opts SourceRunOptions) (*SourcererOutput, error) {
	var output SourcererOutput
	err := c.do(ctx, http.MethodPost, "/run/source", runSourceRequest{
		ID:     opts.ID,
		Media:  opts.Media,
		Target: c.target,
	}, &output)
	if err != nil {
		return nil, fmt.Errorf("source %s failed: %w", opts.ID, err)
	}
	return &output, nil
}

func (c *RemoteClient) RunEmbedScraper(ctx context.Context, opts EmbedRunOptions) (*EmbedOutput, error) {
	var output EmbedOutput
	err := c.do(ctx, http.MethodPost, "/run/embed", runEmbedRequest{
		ID:     opts.ID,
		URL:    opts.URL,
		Target: c.target,
	}, &output)
	if err != nil {
		return nil, fmt.Errorf("embed %s failed: %w", opts.ID, err)
	}
	return &output, nil
}

func (c *RemoteClient) ListSources(ctx context.Context) ([]SourceInfo, error) {
	var sources []SourceInfo
	if err := c.do(ctx, http.MethodGet, "/sources", nil, &sources); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

func (c *RemoteClient) HealthCheck(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil); err != nil {
		return fmt.Errorf("providers runner health check failed: %w", err)
	}
	return nil
}

// do sends body as JSON and decodes a 200 answer into dst. A 204 leaves dst
// untouched, a 404 carrying the runner's error body maps to ErrNotFound.
func (c *RemoteClient) do(ctx context.Context, method, path string, body, dst interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach providers runner: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// A bare 404 comes from a wrong URL, not from the runner.
		msg := readRunnerError(resp.Body)
		if msg == "" {
			return &HTTPError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &HTTPError{StatusCode: resp.StatusCode, Message: readRunnerError(resp.Body)}
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode runner response: %w", err)
	}
	return nil
}

func readRunnerError(r io.Reader) string {
	var body runnerError
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.Error
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is used when no backend host is configured.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultChatPath is the streaming completion endpoint.
	DefaultChatPath = "/api/v1/chat/completions"

	// DefaultUploadPath is the document ingestion endpoint.
	DefaultUploadPath = "/api/upload"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 5 * time.Minute

	// maxErrorBodySize caps how much of an error response is kept.
	maxErrorBodySize = 4 * 1024

	userAgent = "talkchat/0.1.0"
)

var (
	// streamingClient has no overall timeout; streams are bounded by context.
	streamingClient = &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	// ErrNoBody indicates a success status without a response body.
	ErrNoBody = errors.New("no response body")
)

// =============================================================================
// TYPES
// =============================================================================

// ChatMessage is one entry of the outbound message list.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the JSON payload of the completion endpoint.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Model    string        `json:"model"`
}

// StatusError is a non-success HTTP status from the backend.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP error: %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("HTTP error: %d", e.Status)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one backend host.
type Client struct {
	baseURL    string
	chatPath   string
	uploadPath string

	httpClient   *http.Client
	streamClient *http.Client
	maxUpload    int64
	log          zerolog.Logger
}

// NewClient creates a client for the given host. A missing scheme means
// plain http, so "localhost:8000" is accepted.
func NewClient(host string) (*Client, error) {
	base, err := NormalizeBaseURL(host)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:      base,
		chatPath:     DefaultChatPath,
		uploadPath:   DefaultUploadPath,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: streamingClient,
		maxUpload:    DefaultMaxUploadSize,
		log:          zerolog.Nop(),
	}, nil
}

// NormalizeBaseURL validates host and returns it with a scheme and without
// a trailing slash.
func NormalizeBaseURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return DefaultBaseURL, nil
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid backend URL %q: unsupported scheme %q", host, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid backend URL %q: missing host", host)
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// WithChatPath sets the completion endpoint path.
func (c *Client) WithChatPath(path string) *Client {
	if path != "" {
		c.chatPath = "/" + strings.TrimPrefix(path, "/")
	}
	return c
}

// WithUploadPath sets the upload endpoint path.
func (c *Client) WithUploadPath(path string) *Client {
	if path != "" {
		c.uploadPath = "/" + strings.TrimPrefix(path, "/")
	}
	return c
}

// WithHTTPClient replaces both underlying HTTP clients (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// WithLogger sets the request logger.
func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log.With().Str("component", "backend").Logger()
	return c
}

// WithMaxUploadSize sets the largest accepted upload in bytes.
func (c *Client) WithMaxUploadSize(n int64) *Client {
	if n > 0 {
		c.maxUpload = n
	}
	return c
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ChatURL returns the full completion endpoint URL.
func (c *Client) ChatURL() string {
	return c.baseURL + c.chatPath
}

// OpenChat posts req and returns the streamed response body. The caller
// must close it. Cancelling ctx aborts both the request and body reads.
func (c *Client) OpenChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ChatURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain, text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Authorization", "none")
	httpReq.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Dur("latency", time.Since(start)).
		Msg("chat stream opened")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}
	return resp.Body, nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return &StatusError{
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}

// Ping reports whether the backend host answers HTTP at all. Any status,
// including 404, counts as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("backend unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	return resp.StatusCode, nil
}

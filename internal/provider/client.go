// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider is the HTTP client for the entity-news search provider.
// A search is submitted once per entity and then checked by identifier
// until the provider reports it completed.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/NotAlvin/Argus-Pub/internal/httputil"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// maxBody bounds how much of a response body is read.
const maxBody = 32 << 20

// Client talks to the provider's /search endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client for cfg.
func New(cfg types.ProviderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) endpoint() string { return c.baseURL + "/search" }

// Submit posts a new search and returns the provider's query identifier.
// Only HTTP 201 is success; any other status is a *httputil.StatusError.
// Submissions are never retried here.
func (c *Client) Submit(ctx context.Context, body types.SubmitRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building submission: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submitting search: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("reading submission response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", &httputil.StatusError{URL: c.endpoint(), StatusCode: resp.StatusCode}
	}

	var sr types.SubmitResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return "", fmt.Errorf("%w: decoding submission response: %v", types.ErrSchemaDrift, err)
	}
	return sr.ID()
}

// Check fetches the current state of query id. A non-200 status is a
// *httputil.StatusError; an undecodable body wraps types.ErrSchemaDrift.
func (c *Client) Check(ctx context.Context, id string) (*types.SearchResponse, error) {
	u := c.endpoint() + "?id=" + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("checking query %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &httputil.StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading status response: %w", err)
	}

	var sr types.SearchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("%w: decoding status response: %v", types.ErrSchemaDrift, err)
	}
	if err := sr.Validate(); err != nil {
		return nil, err
	}
	return &sr, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
}

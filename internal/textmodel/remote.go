// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NotAlvin/Argus-Pub/internal/httputil"
)

// Remote calls an inference server exposing POST /summarize, /sentiment,
// and /embed with JSON bodies.
type Remote struct {
	base   string
	apiKey string
	http   *http.Client
}

// NewRemote returns a client for the server at base.
func NewRemote(base, apiKey string) *Remote {
	return &Remote{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *Remote) Summarize(ctx context.Context, text, lang string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := r.post(ctx, "/summarize", map[string]string{"text": text, "lang": lang}, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (r *Remote) Score(ctx context.Context, text string) (float64, error) {
	var out struct {
		Score float64 `json:"score"`
	}
	if err := r.post(ctx, "/sentiment", map[string]string{"text": text}, &out); err != nil {
		return 0, err
	}
	return clamp(out.Score), nil
}

func (r *Remote) Embed(ctx context.Context, text string) ([]float64, error) {
	var out struct {
		Vector []float64 `json:"vector"`
	}
	if err := r.post(ctx, "/embed", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return out.Vector, nil
}

func (r *Remote) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, r.http, req, 3)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &httputil.StatusError{URL: r.base + path, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

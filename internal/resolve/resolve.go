// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve turns an entity name into a search provider query
// identifier, reusing cached identifiers while they are fresh.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/httputil"
	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// ResolutionError reports a submission the provider did not accept.
type ResolutionError struct {
	Entity     string
	StatusCode int
	Err        error
}

func (e *ResolutionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("resolving %q: provider returned HTTP %d", e.Entity, e.StatusCode)
	}
	return fmt.Sprintf("resolving %q: %v", e.Entity, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Submitter posts a search and returns its identifier.
type Submitter interface {
	Submit(ctx context.Context, body types.SubmitRequest) (string, error)
}

// IDCache stores identifiers by normalized entity name.
type IDCache interface {
	Lookup(ctx context.Context, entity string) (string, bool)
	Save(ctx context.Context, entity, id string) error
}

// Resolver maps entity names to query identifiers.
type Resolver struct {
	provider Submitter
	cache    IDCache
	log      *slog.Logger
}

// New returns a Resolver. A nil logger uses slog.Default().
func New(provider Submitter, cache IDCache, log *slog.Logger) *Resolver {
	return &Resolver{
		provider: provider,
		cache:    cache,
		log:      logging.OrDefault(log),
	}
}

// Key is the cache key for name. See cache.QueryKey.
func (r *Resolver) Key(name string) string {
	return cache.QueryKey(name)
}

// Resolve returns the query identifier for name. A fresh cached identifier
// is returned without network traffic. Otherwise one submission is made;
// a non-201 reply is a *ResolutionError and is not retried.
//
// Two concurrent first resolutions of the same name may both submit. The
// later Save wins, and either identifier is usable.
func (r *Resolver) Resolve(ctx context.Context, name string, entityType types.EntityType) (string, error) {
	key := r.Key(name)
	if key == "" {
		return "", &ResolutionError{Entity: name, Err: errors.New("empty entity name")}
	}

	if id, ok := r.cache.Lookup(ctx, key); ok {
		r.log.Debug("using cached query id", "entity", name, "query_id", id)
		return id, nil
	}

	body := SubmissionFor(strings.TrimSpace(name), entityType)
	r.log.Debug("submitting search", "entity", name, "script", DetectScript(name).String())

	id, err := r.provider.Submit(ctx, body)
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) {
			return "", &ResolutionError{Entity: name, StatusCode: se.StatusCode, Err: err}
		}
		return "", &ResolutionError{Entity: name, Err: err}
	}

	if err := r.cache.Save(ctx, key, id); err != nil {
		r.log.Warn("could not cache query id", "entity", name, "error", err)
	}
	r.log.Info("resolved entity", "entity", name, "query_id", id)
	return id, nil
}

// SubmissionFor builds the submission body for name, filling the language
// fields chosen by DetectScript.
func SubmissionFor(name string, entityType types.EntityType) types.SubmitRequest {
	body := types.SubmitRequest{EntityType: entityType}
	switch DetectScript(name) {
	case ScriptLatin:
		body.EntityNameEN = name
	case ScriptHan:
		body.EntityNameZH = name
	default:
		body.EntityNameEN = name
		body.EntityNameZH = name
	}
	return body
}

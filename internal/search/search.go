// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries bibliographic databases with Boolean queries.
// Implements: prd005-search-backends (R1-R4);
//
//	docs/ARCHITECTURE § Search Backends.
package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Backend searches a single bibliographic database. Each backend (OpenAlex,
// Web of Science, Scopus) implements this interface per the Strategy
// pattern (R1.1). The query string is backend-specific Boolean syntax and
// is passed through opaquely; the returned slice preserves the backend's
// ranking order and never exceeds limit.
//
// Backends wrap connection failures, non-200 responses, and rejected
// queries in types.ErrSearchUnavailable so the refinement loop can treat
// them as fatal (R1.4).
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]types.Record, error)
}

// ForName constructs the backend selected by cfg.Database (R1.2). The zero
// value selects OpenAlex, matching the hosted default: it needs no API key.
func ForName(cfg types.SearchConfig) (Backend, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(cfg.Database) {
	case "", "openalex":
		return &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail, UserAgent: cfg.UserAgent}, nil
	case "wos":
		if cfg.WosAPIKey == "" {
			return nil, fmt.Errorf("wos backend requires an API key (secret wos-api-key)")
		}
		return &WosBackend{Client: client, APIKey: cfg.WosAPIKey, UserAgent: cfg.UserAgent}, nil
	case "scopus":
		if cfg.ScopusAPIKey == "" {
			return nil, fmt.Errorf("scopus backend requires an API key (secret scopus-api-key)")
		}
		return &ScopusBackend{
			Client:    client,
			APIKey:    cfg.ScopusAPIKey,
			InstToken: cfg.ScopusInstToken,
			UserAgent: cfg.UserAgent,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database backend %q (want openalex, wos, or scopus)", cfg.Database)
	}
}

// clampLimit applies the shared page-size bounds: positive, capped at the
// most restrictive per-backend maximum the caller supplies.
func clampLimit(limit, backendMax int) int {
	if limit <= 0 {
		limit = 20
	}
	if limit > backendMax {
		limit = backendMax
	}
	return limit
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/review-engine/internal/httputil"
	"github.com/pdiddy/review-engine/pkg/types"
)

// wosSearchBase is the Web of Science Starter documents endpoint. Declared
// as a var so tests can substitute an httptest server.
var wosSearchBase = "https://api.clarivate.com/apis/wos-starter/v1/documents"

// WosBackend queries the Web of Science Starter API (R2.3). The Starter
// tier returns metadata only; abstracts are usually absent, so escalated
// records carry title-only context.
type WosBackend struct {
	Client    *http.Client
	APIKey    string
	UserAgent string
}

// Name returns the backend identifier.
func (b *WosBackend) Name() string { return "wos" }

// Search queries the WoS Starter API and returns records in ranking order.
func (b *WosBackend) Search(ctx context.Context, query string, limit int) ([]types.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty WoS query: %w", types.ErrSearchUnavailable)
	}

	limit = clampLimit(limit, 50)

	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
		"page":  {"1"},
	}

	reqURL := wosSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-ApiKey", b.APIKey)
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("WoS API request: %w: %v", types.ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WoS API returned HTTP %d: %w", resp.StatusCode, types.ErrSearchUnavailable)
	}

	var wr wosResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing WoS response: %w: %v", types.ErrSearchUnavailable, err)
	}

	var records []types.Record
	for _, doc := range wr.Hits {
		if len(records) == limit {
			break
		}

		r := types.Record{
			ID:    doc.UID,
			Title: doc.Title,
			DOI:   doc.Identifiers.DOI,
		}
		if doc.Source.PublishYear > 0 {
			r.Year = doc.Source.PublishYear
		}
		for _, a := range doc.Names.Authors {
			if a.DisplayName != "" {
				r.Authors = append(r.Authors, a.DisplayName)
			}
		}

		records = append(records, r)
	}
	return records, nil
}

// WoS Starter API JSON structures.
type wosResponse struct {
	Metadata wosMetadata `json:"metadata"`
	Hits     []wosHit    `json:"hits"`
}

type wosMetadata struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type wosHit struct {
	UID         string         `json:"uid"`
	Title       string         `json:"title"`
	Names       wosNames       `json:"names"`
	Source      wosSource      `json:"source"`
	Identifiers wosIdentifiers `json:"identifiers"`
}

type wosNames struct {
	Authors []wosAuthor `json:"authors"`
}

type wosAuthor struct {
	DisplayName string `json:"displayName"`
}

type wosSource struct {
	PublishYear int `json:"publishYear"`
}

type wosIdentifiers struct {
	DOI string `json:"doi"`
}

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

// scopusSearchBase is the Elsevier Scopus Search endpoint. Declared as a
// var so tests can substitute an httptest server.
var scopusSearchBase = "https://api.elsevier.com/content/search/scopus"

// ScopusBackend queries the Elsevier Scopus Search API (R2.4). Whether the
// description field carries an abstract depends on the subscriber level.
type ScopusBackend struct {
	Client    *http.Client
	APIKey    string
	InstToken string
	UserAgent string
}

// Name returns the backend identifier.
func (b *ScopusBackend) Name() string { return "scopus" }

// Search queries the Scopus Search API and returns records in ranking order.
func (b *ScopusBackend) Search(ctx context.Context, query string, limit int) ([]types.Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty Scopus query: %w", types.ErrSearchUnavailable)
	}

	limit = clampLimit(limit, 25)

	params := url.Values{
		"query": {query},
		"count": {strconv.Itoa(limit)},
		"start": {"0"},
	}

	reqURL := scopusSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ELS-APIKey", b.APIKey)
	if b.InstToken != "" {
		req.Header.Set("X-ELS-Insttoken", b.InstToken)
	}
	req.Header.Set("User-Agent", b.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Scopus API request: %w: %v", types.ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Scopus API returned HTTP %d: %w", resp.StatusCode, types.ErrSearchUnavailable)
	}

	var sr scopusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Scopus response: %w: %v", types.ErrSearchUnavailable, err)
	}

	var records []types.Record
	for _, entry := range sr.SearchResults.Entries {
		if len(records) == limit {
			break
		}
		// An error entry means the query matched nothing or was malformed;
		// Scopus reports it inline rather than with a status code.
		if entry.Error != "" {
			continue
		}

		r := types.Record{
			ID:       entry.EID,
			Title:    entry.Title,
			Abstract: entry.Description,
			DOI:      entry.DOI,
		}
		if len(entry.CoverDate) >= 4 {
			if y, err := strconv.Atoi(entry.CoverDate[:4]); err == nil {
				r.Year = y
			}
		}
		if entry.Creator != "" {
			r.Authors = []string{entry.Creator}
		}

		records = append(records, r)
	}
	return records, nil
}

// Scopus Search API JSON structures.
type scopusResponse struct {
	SearchResults scopusSearchResults `json:"search-results"`
}

type scopusSearchResults struct {
	TotalResults string        `json:"opensearch:totalResults"`
	Entries      []scopusEntry `json:"entry"`
}

type scopusEntry struct {
	Error       string `json:"error"`
	EID         string `json:"eid"`
	Title       string `json:"dc:title"`
	Creator     string `json:"dc:creator"`
	Description string `json:"dc:description"`
	CoverDate   string `json:"prism:coverDate"`
	DOI         string `json:"prism:doi"`
}

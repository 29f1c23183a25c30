// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/review-engine/pkg/types"
)

const scopusSample = `{
	"search-results": {
		"opensearch:totalResults": "2",
		"entry": [
			{
				"eid": "2-s2.0-001",
				"dc:title": "Reproducibility Evaluation Methods",
				"dc:creator": "Curie M.",
				"dc:description": "A survey of evaluation protocols.",
				"prism:coverDate": "2022-06-15",
				"prism:doi": "10.9999/repro.2"
			},
			{
				"eid": "2-s2.0-002",
				"dc:title": "Off Topic Paper",
				"prism:coverDate": ""
			}
		]
	}
}`

const scopusEmptySample = `{
	"search-results": {
		"opensearch:totalResults": "0",
		"entry": [{"error": "Result set was empty"}]
	}
}`

func TestScopusSearch(t *testing.T) {
	var gotKey, gotInst, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-ELS-APIKey")
		gotInst = r.Header.Get("X-ELS-Insttoken")
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, scopusSample)
	}))
	defer ts.Close()

	orig := scopusSearchBase
	scopusSearchBase = ts.URL
	defer func() { scopusSearchBase = orig }()

	b := &ScopusBackend{Client: ts.Client(), APIKey: "sc-key", InstToken: "inst", UserAgent: "test/0.1"}
	records, err := b.Search(context.Background(), `TITLE-ABS-KEY(reproducibility)`, 20)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if gotKey != "sc-key" || gotInst != "inst" {
		t.Errorf("auth headers = %q / %q", gotKey, gotInst)
	}
	if gotQuery != `TITLE-ABS-KEY(reproducibility)` {
		t.Errorf("query = %q, should pass through verbatim", gotQuery)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	first := records[0]
	if first.ID != "2-s2.0-001" || first.Year != 2022 || first.DOI != "10.9999/repro.2" {
		t.Errorf("first record = %+v", first)
	}
	if first.Abstract != "A survey of evaluation protocols." {
		t.Errorf("Abstract = %q", first.Abstract)
	}
	if len(first.Authors) != 1 || first.Authors[0] != "Curie M." {
		t.Errorf("Authors = %v", first.Authors)
	}
	if records[1].Year != 0 {
		t.Errorf("empty cover date should leave year zero, got %d", records[1].Year)
	}
}

func TestScopusSearchEmptyResultSet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, scopusEmptySample)
	}))
	defer ts.Close()

	orig := scopusSearchBase
	scopusSearchBase = ts.URL
	defer func() { scopusSearchBase = orig }()

	b := &ScopusBackend{Client: ts.Client(), APIKey: "sc-key", UserAgent: "test/0.1"}
	records, err := b.Search(context.Background(), "TITLE-ABS-KEY(nonexistent)", 20)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len(records) = %d, inline error entries should be dropped", len(records))
	}
}

func TestScopusSearchServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	orig := scopusSearchBase
	scopusSearchBase = ts.URL
	defer func() { scopusSearchBase = orig }()

	b := &ScopusBackend{Client: ts.Client(), APIKey: "sc-key", UserAgent: "test/0.1"}
	_, err := b.Search(context.Background(), "TITLE-ABS-KEY(x)", 20)
	if !errors.Is(err, types.ErrSearchUnavailable) {
		t.Errorf("err = %v, want ErrSearchUnavailable", err)
	}
}

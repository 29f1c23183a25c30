// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"
	"time"

	"github.com/pdiddy/review-engine/pkg/types"
)

func testSearchCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
	}
}

func TestForName(t *testing.T) {
	tests := []struct {
		name     string
		database string
		cfg      func(types.SearchConfig) types.SearchConfig
		want     string
		wantErr  bool
	}{
		{"default is openalex", "", nil, "openalex", false},
		{"openalex explicit", "openalex", nil, "openalex", false},
		{"case insensitive", "OpenAlex", nil, "openalex", false},
		{
			"wos with key", "wos",
			func(c types.SearchConfig) types.SearchConfig { c.WosAPIKey = "k"; return c },
			"wos", false,
		},
		{"wos without key", "wos", nil, "", true},
		{
			"scopus with key", "scopus",
			func(c types.SearchConfig) types.SearchConfig { c.ScopusAPIKey = "k"; return c },
			"scopus", false,
		},
		{"scopus without key", "scopus", nil, "", true},
		{"unknown backend", "pubmed", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSearchCfg()
			cfg.Database = tt.database
			if tt.cfg != nil {
				cfg = tt.cfg(cfg)
			}

			b, err := ForName(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ForName() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("ForName() error: %v", err)
			}
			if b.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		backendMax int
		want       int
	}{
		{"in range", 20, 200, 20},
		{"zero defaults", 0, 200, 20},
		{"negative defaults", -5, 200, 20},
		{"capped", 500, 200, 200},
		{"default above cap", 0, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit, tt.backendMax); got != tt.want {
				t.Errorf("clampLimit(%d, %d) = %d, want %d", tt.limit, tt.backendMax, got, tt.want)
			}
		})
	}
}

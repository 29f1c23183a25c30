// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/review-engine/internal/claude"
	"github.com/pdiddy/review-engine/pkg/types"
)

func optimizerReplying(t *testing.T, reply string, promptSink *string) *ClaudeOptimizer {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if promptSink != nil {
			*promptSink = string(body)
		}
		fmt.Fprintf(w, `{"content": [{"type": "text", "text": %q}]}`, reply)
	}))
	t.Cleanup(ts.Close)

	orig := claude.APIURL
	claude.APIURL = ts.URL
	t.Cleanup(func() { claude.APIURL = orig })

	cfg := types.OptimizeConfig{
		AIConfig: types.AIConfig{Model: "claude-sonnet-4-5-20250929", APIKey: "k"},
	}
	return NewClaudeOptimizer(cfg, ts.Client())
}

func falsePositives(n int) []types.Record {
	records := make([]types.Record, n)
	for i := range records {
		records[i] = types.Record{ID: fmt.Sprintf("fp-%d", i), Title: fmt.Sprintf("Off Topic %d", i), Year: 2020 + i}
	}
	return records
}

func TestSuggestParsesReply(t *testing.T) {
	var prompt string
	o := optimizerReplying(t,
		`{"critique": "polysemy of reproducibility", "new_query": "(reproducibility AND computational) NOT biology", "expected_improvement": "narrows to computational context"}`,
		&prompt)

	s, err := o.Suggest(context.Background(), "reproducibility", falsePositives(2))
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if s.NewQuery != "(reproducibility AND computational) NOT biology" {
		t.Errorf("NewQuery = %q", s.NewQuery)
	}
	if s.Critique == "" || s.ExpectedImprovement == "" {
		t.Errorf("suggestion incomplete: %+v", s)
	}

	if !strings.Contains(prompt, "CURRENT QUERY: reproducibility") {
		t.Errorf("prompt missing current query")
	}
	if !strings.Contains(prompt, "Off Topic 0") {
		t.Errorf("prompt missing false positives")
	}
}

func TestSuggestCapsFalsePositiveExamples(t *testing.T) {
	var prompt string
	o := optimizerReplying(t,
		`{"critique": "c", "new_query": "q", "expected_improvement": "e"}`,
		&prompt)

	_, err := o.Suggest(context.Background(), "q0", falsePositives(12))
	if err != nil {
		t.Fatalf("Suggest() error: %v", err)
	}
	if strings.Contains(prompt, "Off Topic 5") {
		t.Errorf("prompt should include at most 5 examples")
	}
	if !strings.Contains(prompt, "Off Topic 4") {
		t.Errorf("prompt should include the first 5 examples")
	}
}

func TestSuggestFailures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty new query", `{"critique": "c", "new_query": "   ", "expected_improvement": "e"}`},
		{"not json", `try adding NOT biology`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := optimizerReplying(t, tt.reply, nil)
			_, err := o.Suggest(context.Background(), "q0", falsePositives(1))
			if !errors.Is(err, types.ErrOptimizationFailed) {
				t.Errorf("err = %v, want ErrOptimizationFailed", err)
			}
		})
	}
}

func TestSuggestRequiresFalsePositives(t *testing.T) {
	o := &ClaudeOptimizer{MaxExamples: 5}
	_, err := o.Suggest(context.Background(), "q0", nil)
	if !errors.Is(err, types.ErrOptimizationFailed) {
		t.Errorf("err = %v, want ErrOptimizationFailed", err)
	}
}

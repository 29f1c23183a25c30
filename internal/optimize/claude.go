// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package optimize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"

	"github.com/pdiddy/review-engine/internal/claude"
	"github.com/pdiddy/review-engine/pkg/types"
)

// optimizePromptTmpl is the query-critique prompt sent to the Claude API.
// Per prd002-refinement R4.4.
var optimizePromptTmpl = template.Must(template.New("optimize").Parse(`You are refining a Boolean bibliographic search query for a systematic review.

CURRENT QUERY: {{.Query}}

PROBLEM: The query returned these IRRELEVANT records (false positives):
{{.FalsePositives}}

TASK:
1. Analyze why these records were caught (e.g. polysemy, wrong context, overly broad terms).
2. Construct a new Boolean query string, compatible with the same database, that excludes these kinds of records while keeping relevant ones.
3. Explain why the new query should perform better.

Respond with a JSON object containing exactly these fields:
- critique: your analysis of the false positives
- new_query: the new Boolean query string
- expected_improvement: why the new query is better

Do not include any text outside the JSON object.
`))

// ClaudeOptimizer proposes replacement queries via the Claude Messages API.
type ClaudeOptimizer struct {
	Client *claude.Client

	// MaxExamples limits how many false positives the prompt includes
	// (default 5). Titles alone carry enough signal for the critique.
	MaxExamples int
}

// NewClaudeOptimizer builds an optimizer from the optimization configuration.
func NewClaudeOptimizer(cfg types.OptimizeConfig, httpClient *http.Client) *ClaudeOptimizer {
	maxExamples := cfg.MaxExamples
	if maxExamples <= 0 {
		maxExamples = 5
	}
	return &ClaudeOptimizer{
		Client:      claude.NewClient(cfg.AIConfig, httpClient),
		MaxExamples: maxExamples,
	}
}

// suggestReply is the structured JSON the prompt asks for.
type suggestReply struct {
	Critique            string `json:"critique"`
	NewQuery            string `json:"new_query"`
	ExpectedImprovement string `json:"expected_improvement"`
}

// Suggest critiques the current query against the false positives and
// returns a replacement. The new query is validated non-empty; its backend
// syntax is not checked here and is logged verbatim by the caller.
func (o *ClaudeOptimizer) Suggest(ctx context.Context, currentQuery string, irrelevant []types.Record) (types.QuerySuggestion, error) {
	if len(irrelevant) == 0 {
		return types.QuerySuggestion{}, fmt.Errorf("no irrelevant records to learn from: %w", types.ErrOptimizationFailed)
	}

	var buf bytes.Buffer
	err := optimizePromptTmpl.Execute(&buf, struct{ Query, FalsePositives string }{
		Query:          currentQuery,
		FalsePositives: formatFalsePositives(irrelevant, o.MaxExamples),
	})
	if err != nil {
		return types.QuerySuggestion{}, fmt.Errorf("rendering prompt: %w: %v", types.ErrOptimizationFailed, err)
	}

	text, err := o.Client.Complete(ctx, buf.String())
	if err != nil {
		return types.QuerySuggestion{}, fmt.Errorf("%w: %v", types.ErrOptimizationFailed, err)
	}

	var reply suggestReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return types.QuerySuggestion{}, fmt.Errorf("parsing suggestion JSON: %w: %v", types.ErrOptimizationFailed, err)
	}

	if strings.TrimSpace(reply.NewQuery) == "" {
		return types.QuerySuggestion{}, fmt.Errorf("model returned empty query: %w", types.ErrOptimizationFailed)
	}

	return types.QuerySuggestion{
		Critique:            reply.Critique,
		NewQuery:            reply.NewQuery,
		ExpectedImprovement: reply.ExpectedImprovement,
	}, nil
}

// formatFalsePositives renders up to max irrelevant records as a bulleted
// title list for the prompt.
func formatFalsePositives(records []types.Record, max int) string {
	if len(records) > max {
		records = records[:max]
	}
	var b strings.Builder
	for _, r := range records {
		b.WriteString("- " + r.Title)
		if r.Year > 0 {
			fmt.Fprintf(&b, " (%d)", r.Year)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"

	"github.com/pdiddy/review-engine/internal/claude"
	"github.com/pdiddy/review-engine/pkg/types"
)

// classifyPromptTmpl is the prompt sent to the Claude API for each record.
// It instructs the model to judge the record against the criteria and
// respond with a single JSON object. Per prd001-screening R1.2.
var classifyPromptTmpl = template.Must(template.New("classify").Parse(`You are a systematic-review screening assistant. Judge the following bibliographic record against the research criteria.

RECORD:
{{.Record}}

{{.Criteria}}
Task: Classify the record as "relevant", "irrelevant", or "uncertain". Use "uncertain" when the title and abstract do not carry enough signal to decide either way.

Respond with a JSON object containing exactly these fields:
- relevance: "relevant", "irrelevant", or "uncertain"
- confidence: a float between 0.0 and 1.0
- reasoning: a brief explanation of the decision based on the criteria

Do not include any text outside the JSON object.

Example response:
{"relevance": "irrelevant", "confidence": 0.85, "reasoning": "The paper studies crop yield reproducibility, not computational experiment reproducibility."}
`))

// ClaudeClassifier judges records by calling the Claude Messages API.
type ClaudeClassifier struct {
	Client *claude.Client
}

// NewClaudeClassifier builds a classifier from the screening configuration.
func NewClaudeClassifier(cfg types.ClassifyConfig, httpClient *http.Client) *ClaudeClassifier {
	return &ClaudeClassifier{Client: claude.NewClient(cfg.AIConfig, httpClient)}
}

// classifyReply is the structured JSON the prompt asks for.
type classifyReply struct {
	Relevance  string  `json:"relevance"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify renders the screening prompt for one record and parses the
// model's JSON verdict. All failures wrap types.ErrClassificationFailed so
// the batch layer degrades the record to uncertain instead of aborting.
func (c *ClaudeClassifier) Classify(ctx context.Context, record types.Record, criteria types.Criteria) (types.Classification, error) {
	var buf bytes.Buffer
	err := classifyPromptTmpl.Execute(&buf, struct{ Record, Criteria string }{
		Record:   record.PromptText(),
		Criteria: criteria.PromptText(),
	})
	if err != nil {
		return types.Classification{}, fmt.Errorf("rendering prompt: %w: %v", types.ErrClassificationFailed, err)
	}

	text, err := c.Client.Complete(ctx, buf.String())
	if err != nil {
		return types.Classification{}, fmt.Errorf("%w: %v", types.ErrClassificationFailed, err)
	}

	var reply classifyReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return types.Classification{}, fmt.Errorf("parsing verdict JSON: %w: %v", types.ErrClassificationFailed, err)
	}

	outcome := types.Outcome(reply.Relevance)
	if !outcome.ValidClassification() {
		return types.Classification{}, fmt.Errorf("model returned outcome %q: %w", reply.Relevance, types.ErrClassificationFailed)
	}
	if reply.Confidence < 0.0 || reply.Confidence > 1.0 {
		return types.Classification{}, fmt.Errorf("model returned confidence %f out of range [0,1]: %w", reply.Confidence, types.ErrClassificationFailed)
	}

	return types.Classification{
		Outcome:    outcome,
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
	}, nil
}

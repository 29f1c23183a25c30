// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// QuerySuggestion is the optimizer's critique of the current query and its
// proposed replacement. Produced at most once per iteration; the replacement
// becomes the next iteration's query only if the loop continues
// (prd002-refinement R4.1-R4.3).
type QuerySuggestion struct {
	// Critique analyzes why the current query admitted false positives.
	Critique string `json:"critique" yaml:"critique"`

	// NewQuery is the proposed replacement Boolean query. Always non-empty;
	// backend syntax is the optimizer's responsibility.
	NewQuery string `json:"new_query" yaml:"new_query"`

	// ExpectedImprovement explains why the new query should perform better.
	ExpectedImprovement string `json:"expected_improvement" yaml:"expected_improvement"`
}

// IterationResult is the authoritative audit unit for one iteration of the
// refinement loop. Immutable once appended to the audit log
// (prd002-refinement R3.1, prd004-audit-log R1.1).
type IterationResult struct {
	// Index is the 1-based iteration number.
	Index int `json:"index" yaml:"index"`

	// Query is the Boolean query this iteration searched with, verbatim.
	Query string `json:"query" yaml:"query"`

	// TotalRetrieved is the number of records the search returned.
	TotalRetrieved int `json:"total_retrieved" yaml:"total_retrieved"`

	// RelevantCount is the number of records finally judged relevant.
	RelevantCount int `json:"relevant_count" yaml:"relevant_count"`

	// IrrelevantCount is the number of records finally judged irrelevant.
	IrrelevantCount int `json:"irrelevant_count" yaml:"irrelevant_count"`

	// SkippedCount is the number of records the reviewer skipped. Skipped
	// records enter neither tally nor the precision denominator.
	SkippedCount int `json:"skipped_count" yaml:"skipped_count"`

	// Precision is RelevantCount / (RelevantCount + IrrelevantCount),
	// defined as 0.0 when the denominator is zero.
	Precision float64 `json:"precision" yaml:"precision"`

	// Suggestion holds the optimizer output when optimization was attempted.
	Suggestion *QuerySuggestion `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Consistent reports whether the tallies add up to the retrieved total
// (prd002-refinement R3.2).
func (r IterationResult) Consistent() bool {
	return r.RelevantCount+r.IrrelevantCount+r.SkippedCount == r.TotalRetrieved
}

// RunStatus distinguishes how a refinement run ended. Policy stops leave the
// final query trustworthy; failure stops do not (prd002-refinement R5.3).
type RunStatus string

const (
	// StatusStoppedByPolicy means a stopping rule fired: threshold met,
	// budget exhausted, no results, or nothing left to learn from.
	StatusStoppedByPolicy RunStatus = "stopped_by_policy"

	// StatusStoppedByFailure means optimization failed; completed
	// iterations remain valid.
	StatusStoppedByFailure RunStatus = "stopped_by_failure"

	// StatusAborted means the search backend became unavailable.
	StatusAborted RunStatus = "aborted"
)

// StopReason records which rule or failure ended the run.
type StopReason string

const (
	StopThresholdMet       StopReason = "threshold_met"
	StopBudgetExhausted    StopReason = "budget_exhausted"
	StopNoResults          StopReason = "no_results"
	StopNoIrrelevant       StopReason = "no_irrelevant"
	StopOptimizationFailed StopReason = "optimization_failed"
	StopSearchUnavailable  StopReason = "search_unavailable"
	StopCancelled          StopReason = "cancelled"
)

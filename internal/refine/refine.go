// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refine drives the closed-loop search, classify, escalate,
// summarize, optimize cycle that iteratively sharpens a Boolean query.
// Implements: prd002-refinement (R1-R5);
//
//	docs/ARCHITECTURE § Refinement Loop.
package refine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/review-engine/internal/classify"
	"github.com/pdiddy/review-engine/internal/optimize"
	"github.com/pdiddy/review-engine/internal/review"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

// State names one phase of the iteration machine (R2.1). Escalating is the
// loop's suspension point: nothing else proceeds while a review is open.
type State string

const (
	StateSearching   State = "searching"
	StateClassifying State = "classifying"
	StateEscalating  State = "escalating"
	StateSummarizing State = "summarizing"
	StateOptimizing  State = "optimizing"
	StateStopped     State = "stopped"
	StateAborted     State = "aborted"
)

// Recorder receives the append-only audit trail. Results are written once
// and never updated (prd004-audit-log R1.1). The SQLite store implements
// this; tests substitute an in-memory one.
type Recorder interface {
	// AppendIteration persists one finalized IterationResult.
	AppendIteration(ctx context.Context, result types.IterationResult) error

	// AppendDecision persists the final outcome for one record: the
	// automated classification plus, for escalated records, who decided.
	AppendDecision(ctx context.Context, iteration int, record types.Record, cls types.Classification, final types.Outcome, decidedBy string) error
}

// NopRecorder discards the audit trail. Useful for dry runs.
type NopRecorder struct{}

func (NopRecorder) AppendIteration(context.Context, types.IterationResult) error {
	return nil
}

func (NopRecorder) AppendDecision(context.Context, int, types.Record, types.Classification, types.Outcome, string) error {
	return nil
}

// Session owns one refinement run: the active query, the adapter set, and
// the audit trail. Sessions are single-use and not safe for concurrent
// runs; two concurrent sessions must not share a Session value (R1.5).
type Session struct {
	Backend    search.Backend
	Classifier classify.Classifier
	Gate       review.Gate
	Optimizer  optimize.Optimizer
	Recorder   Recorder

	Refine   types.RefineConfig
	Classify types.ClassifyConfig

	// Out receives progress lines. Defaults to io.Discard.
	Out io.Writer
}

// RunOutput is the caller-facing result of a refinement run. Iterations
// are always complete for every finished iteration, whatever ended the
// run (R5.2).
type RunOutput struct {
	Iterations []types.IterationResult
	Status     types.RunStatus
	Reason     types.StopReason

	// FinalQuery is the last query actually searched. Trustworthy only
	// when Status is StatusStoppedByPolicy (R5.3).
	FinalQuery string
}

// Run executes the refinement loop from seedQuery until a stopping rule
// fires, the iteration budget is exhausted, or an adapter fails fatally.
// Completed IterationResults are always returned, also on failure; the
// returned error is non-nil only for fatal adapter failures (R5.1, R5.2).
func (s *Session) Run(ctx context.Context, seedQuery string, criteria types.Criteria) (RunOutput, error) {
	if err := s.validate(seedQuery); err != nil {
		return RunOutput{}, err
	}

	out := s.Out
	if out == nil {
		out = io.Discard
	}
	recorder := s.Recorder
	if recorder == nil {
		recorder = NopRecorder{}
	}

	maxIterations := s.Refine.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}
	pageSize := s.Refine.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	threshold := s.Refine.PrecisionThreshold
	if threshold <= 0 {
		threshold = 0.8
	}

	run := RunOutput{FinalQuery: seedQuery}
	query := seedQuery

	for iteration := 1; iteration <= maxIterations; iteration++ {
		// Cancellation is honored only between iterations, never between
		// a record's classification and its tally (R1.6).
		if ctx.Err() != nil {
			run.Status = types.StatusStoppedByPolicy
			run.Reason = types.StopCancelled
			return run, nil
		}

		fmt.Fprintf(out, "iteration %d: %s query=%q\n", iteration, StateSearching, query)
		run.FinalQuery = query

		records, err := s.Backend.Search(ctx, query, pageSize)
		if err != nil {
			fmt.Fprintf(out, "iteration %d: %s: search failed: %v\n", iteration, StateAborted, err)
			run.Status = types.StatusAborted
			run.Reason = types.StopSearchUnavailable
			return run, err
		}

		if len(records) == 0 {
			// No records means no classification signal. The empty
			// iteration still enters the audit trail.
			result := types.IterationResult{Index: iteration, Query: query}
			s.append(ctx, recorder, out, &run, result)
			run.Status = types.StatusStoppedByPolicy
			run.Reason = types.StopNoResults
			return run, nil
		}

		fmt.Fprintf(out, "iteration %d: %s %d records\n", iteration, StateClassifying, len(records))
		batch := classify.ClassifyAll(ctx, s.Classifier, records, criteria, s.Classify)
		if batch.Failed > 0 {
			fmt.Fprintf(out, "warning: %d records degraded to uncertain after classification failures\n", batch.Failed)
		}

		tally, irrelevant := s.escalate(ctx, recorder, out, iteration, records, batch.Classifications)

		result := types.IterationResult{
			Index:           iteration,
			Query:           query,
			TotalRetrieved:  len(records),
			RelevantCount:   tally.relevant,
			IrrelevantCount: tally.irrelevant,
			SkippedCount:    tally.skipped,
			Precision:       precision(tally.relevant, tally.irrelevant),
		}
		fmt.Fprintf(out, "iteration %d: %s precision=%.2f (%d relevant, %d irrelevant, %d skipped)\n",
			iteration, StateSummarizing, result.Precision, tally.relevant, tally.irrelevant, tally.skipped)

		switch {
		case result.Precision >= threshold && tally.relevant+tally.irrelevant > 0:
			s.append(ctx, recorder, out, &run, result)
			run.Status = types.StatusStoppedByPolicy
			run.Reason = types.StopThresholdMet
			return run, nil
		case tally.irrelevant == 0:
			// Nothing for the optimizer to learn from.
			s.append(ctx, recorder, out, &run, result)
			run.Status = types.StatusStoppedByPolicy
			run.Reason = types.StopNoIrrelevant
			return run, nil
		case iteration == maxIterations:
			s.append(ctx, recorder, out, &run, result)
			run.Status = types.StatusStoppedByPolicy
			run.Reason = types.StopBudgetExhausted
			return run, nil
		}

		fmt.Fprintf(out, "iteration %d: %s %d false positives\n", iteration, StateOptimizing, len(irrelevant))
		suggestion, err := s.Optimizer.Suggest(ctx, query, irrelevant)
		if err != nil {
			// The iteration itself is valid; only continuation failed.
			fmt.Fprintf(out, "iteration %d: optimization failed: %v\n", iteration, err)
			s.append(ctx, recorder, out, &run, result)
			run.Status = types.StatusStoppedByFailure
			run.Reason = types.StopOptimizationFailed
			return run, nil
		}

		result.Suggestion = &suggestion
		s.append(ctx, recorder, out, &run, result)

		fmt.Fprintf(out, "iteration %d: next query %q\n", iteration, suggestion.NewQuery)
		query = suggestion.NewQuery
	}

	// Unreachable: the budget-exhausted case returns inside the loop.
	run.Status = types.StatusStoppedByPolicy
	run.Reason = types.StopBudgetExhausted
	return run, nil
}

func (s *Session) validate(seedQuery string) error {
	if seedQuery == "" {
		return fmt.Errorf("seed query is empty")
	}
	if s.Backend == nil {
		return fmt.Errorf("no database backend configured")
	}
	if s.Classifier == nil {
		return fmt.Errorf("no classifier configured")
	}
	if s.Gate == nil {
		return fmt.Errorf("no review gate configured")
	}
	if s.Optimizer == nil {
		return fmt.Errorf("no optimizer configured")
	}
	return nil
}

// tally accumulates the final per-iteration counts.
type tally struct {
	relevant   int
	irrelevant int
	skipped    int
}

// escalate walks the classifications in retrieval order, routes uncertain
// ones through the review gate, and produces the final tally plus the
// irrelevant-record list for the optimizer (R2.3, R2.4). Precision counts
// only finally-decided records: a skip enters neither tally.
func (s *Session) escalate(ctx context.Context, recorder Recorder, out io.Writer, iteration int, records []types.Record, classifications []types.Classification) (tally, []types.Record) {
	var t tally
	var irrelevant []types.Record

	for i, cls := range classifications {
		record := records[i]
		final := cls.Outcome
		decidedBy := "classifier"

		if cls.Outcome == types.OutcomeUncertain {
			fmt.Fprintf(out, "iteration %d: %s %q\n", iteration, StateEscalating, record.Title)

			decision, err := s.Gate.Review(ctx, record, cls)
			switch {
			case err != nil:
				// An abandoned review must not penalize or credit the
				// query; treat it like an explicit skip.
				fmt.Fprintf(out, "warning: review abandoned for %q: %v\n", record.Title, err)
				final = types.OutcomeSkip
			case !decision.Outcome.ValidDecision():
				fmt.Fprintf(out, "warning: invalid decision %q for %q, skipping\n", decision.Outcome, record.Title)
				final = types.OutcomeSkip
			default:
				final = decision.Outcome
			}
			decidedBy = "human"
		}

		switch final {
		case types.OutcomeRelevant:
			t.relevant++
		case types.OutcomeIrrelevant:
			t.irrelevant++
			irrelevant = append(irrelevant, record)
		default:
			t.skipped++
		}

		if err := recorder.AppendDecision(ctx, iteration, record, cls, final, decidedBy); err != nil {
			fmt.Fprintf(out, "warning: audit log decision append failed: %v\n", err)
		}
	}

	return t, irrelevant
}

// append finalizes one IterationResult into the run and the audit trail.
func (s *Session) append(ctx context.Context, recorder Recorder, out io.Writer, run *RunOutput, result types.IterationResult) {
	if !result.Consistent() {
		// Guard against counting bugs; an inconsistent result would
		// poison the audit trail silently.
		fmt.Fprintf(out, "warning: iteration %d tallies are inconsistent: %+v\n", result.Index, result)
	}
	run.Iterations = append(run.Iterations, result)
	if err := recorder.AppendIteration(ctx, result); err != nil {
		fmt.Fprintf(out, "warning: audit log append failed: %v\n", err)
	}
}

// precision is the fraction of finally-decided records judged relevant,
// defined as 0.0 when nothing was decided (all records skipped).
func precision(relevant, irrelevant int) float64 {
	decided := relevant + irrelevant
	if decided == 0 {
		return 0.0
	}
	return float64(relevant) / float64(decided)
}

// IsFatal reports whether the error ended the run rather than one record.
func IsFatal(err error) bool {
	return errors.Is(err, types.ErrSearchUnavailable)
}

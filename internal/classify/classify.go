// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify judges retrieved records against screening criteria.
// Implements: prd001-screening (R1, R2);
//
//	docs/ARCHITECTURE § Screening.
package classify

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Classifier judges a single record against the criteria. Implementations
// must be stateless across calls; any nondeterminism comes from the
// underlying model. Failures wrap types.ErrClassificationFailed (R1.4).
type Classifier interface {
	Classify(ctx context.Context, record types.Record, criteria types.Criteria) (types.Classification, error)
}

// BatchResult holds the per-record classifications for one page, aligned
// index-for-index with the input records, plus the degraded-call count.
type BatchResult struct {
	Classifications []types.Classification
	Failed          int
}

// ClassifyAll classifies every record in the page. Calls are dispatched
// concurrently, bounded by cfg.Concurrency and paced by
// cfg.RequestsPerSecond across all workers, but results are reassembled in
// retrieval order so the audit trail stays deterministic (R2.2, R2.3).
//
// A failed call never aborts the batch: the record degrades to uncertain
// with the failure recorded as its reasoning, which routes it to human
// review (R2.4).
func ClassifyAll(ctx context.Context, c Classifier, records []types.Record, criteria types.Criteria, cfg types.ClassifyConfig) BatchResult {
	out := make([]types.Classification, len(records))

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	// Workers record failures in place and always return nil: one record
	// must not take the batch down.
	var g errgroup.Group
	g.SetLimit(concurrency)

	var failed atomic.Int32

	for i, rec := range records {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					out[i] = degraded(err)
					failed.Add(1)
					return nil
				}
			}

			cls, err := c.Classify(ctx, rec, criteria)
			if err != nil {
				out[i] = degraded(err)
				failed.Add(1)
				return nil
			}
			if !cls.Outcome.ValidClassification() {
				out[i] = degraded(fmt.Errorf("invalid outcome %q", cls.Outcome))
				failed.Add(1)
				return nil
			}
			out[i] = cls
			return nil
		})
	}
	g.Wait()

	return BatchResult{Classifications: out, Failed: int(failed.Load())}
}

// degraded converts a per-record failure into an uncertain classification
// so the human gate sees why the record was escalated.
func degraded(err error) types.Classification {
	return types.Classification{
		Outcome:    types.OutcomeUncertain,
		Confidence: 0.0,
		Reasoning:  fmt.Sprintf("automatic classification failed: %v", err),
	}
}

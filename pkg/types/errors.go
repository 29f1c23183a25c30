// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy for the refinement loop. Adapters wrap these sentinels so
// the controller can tell fatal failures from recoverable ones with
// errors.Is (prd002-refinement R5.1).
var (
	// ErrSearchUnavailable means the database backend could not be reached
	// or rejected the query. Fatal to the run: no records, no signal.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrClassificationFailed means classification of a single record
	// failed. Recoverable: the record degrades to uncertain and is routed
	// to human review.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrOptimizationFailed means the optimizer could not propose a next
	// query. Fatal to continuation only; completed iterations stand.
	ErrOptimizationFailed = errors.New("optimization failed")

	// ErrReviewAbandoned means the reviewer abandoned an escalated record.
	// Recoverable: the record is treated as skipped.
	ErrReviewAbandoned = errors.New("review abandoned")
)

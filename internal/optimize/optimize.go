// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package optimize critiques a Boolean query using the false positives it
// admitted and proposes a replacement.
// Implements: prd002-refinement (R4);
//
//	docs/ARCHITECTURE § Query Optimization.
package optimize

import (
	"context"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Optimizer proposes the next query from the current one and the records
// finally judged irrelevant. Callers invoke it only when at least one
// irrelevant record exists and iterations remain (R4.1). Implementations
// guarantee a non-empty NewQuery and wrap failures in
// types.ErrOptimizationFailed (R4.2, R4.5).
//
// Only false positives are supplied: false negatives are unobservable
// without a gold set, so the critique is precision-directed by design.
type Optimizer interface {
	Suggest(ctx context.Context, currentQuery string, irrelevant []types.Record) (types.QuerySuggestion, error)
}

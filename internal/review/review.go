// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review escalates uncertain records to a human reviewer.
// Implements: prd003-review-gate (R1-R3);
//
//	docs/ARCHITECTURE § Review Gate.
package review

import (
	"context"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Gate obtains a human decision for a record the classifier could not
// settle. Review blocks until the reviewer decides or explicitly skips;
// the refinement loop suspends while a review is open (R1.1, R1.3).
//
// A skip decision excludes the record from both tallies, so it neither
// penalizes nor credits the query. Implementations wrap an abandoned
// review (closed terminal, cancelled context) in types.ErrReviewAbandoned;
// the caller treats it as a skip (R3.3, R3.4).
type Gate interface {
	Review(ctx context.Context, record types.Record, cls types.Classification) (types.HumanDecision, error)
}

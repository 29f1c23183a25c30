// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Outcome is a relevance judgment for a record.
// Per prd001-screening R1.1.
type Outcome string

const (
	OutcomeRelevant   Outcome = "relevant"
	OutcomeIrrelevant Outcome = "irrelevant"
	OutcomeUncertain  Outcome = "uncertain"

	// OutcomeSkip is valid only as a human decision: the reviewer declined
	// to judge the record, so it counts toward neither tally (R3.3).
	OutcomeSkip Outcome = "skip"
)

// IsFinal reports whether the outcome settles the record without human
// input. Only relevant and irrelevant enter the precision denominator.
func (o Outcome) IsFinal() bool {
	return o == OutcomeRelevant || o == OutcomeIrrelevant
}

// ValidClassification reports whether the outcome is one a classifier may
// produce (R1.2). Skip is reserved for human decisions.
func (o Outcome) ValidClassification() bool {
	return o == OutcomeRelevant || o == OutcomeIrrelevant || o == OutcomeUncertain
}

// ValidDecision reports whether the outcome is one a human reviewer may
// supply (R3.2).
func (o Outcome) ValidDecision() bool {
	return o == OutcomeRelevant || o == OutcomeIrrelevant || o == OutcomeSkip
}

// Classification is the automated relevance judgment for one record in one
// iteration. Produced once and never mutated; an escalated record's
// classification is superseded by a HumanDecision for counting purposes
// but remains in the audit trail (prd001-screening R1.3, prd004-audit-log R2.2).
type Classification struct {
	// Outcome is the relevance judgment.
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Confidence is the model's confidence in the judgment, in [0.0, 1.0].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Reasoning is a short justification of the judgment.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}

// HumanDecision is the reviewer's final call for a record the classifier
// marked uncertain. It always overrides the automated classification for
// downstream counting (prd003-review-gate R2.1).
type HumanDecision struct {
	// Outcome is relevant, irrelevant, or skip.
	Outcome Outcome `json:"outcome" yaml:"outcome"`

	// Note is an optional free-text comment from the reviewer.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

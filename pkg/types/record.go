// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the review-engine pipeline.
// Implements: prd005-search-backends (Record, R2.1);
//
//	prd001-screening (Classification, HumanDecision, R1.1-R1.4);
//	prd002-refinement (QuerySuggestion, IterationResult, R3.1-R3.4);
//	prd006-projects (Criteria, R1.2).
//
// See docs/ARCHITECTURE.md § Data Structures.
package types

import (
	"fmt"
	"strings"
)

// Record represents a single bibliographic item retrieved by a database
// backend. Per prd005-search-backends R2.1, each record carries the source
// identifier, title, optional abstract, author list, year, and DOI.
// Records are immutable after retrieval; downstream stages reference them
// but never modify them.
type Record struct {
	// ID is the canonical identifier from the source (OpenAlex ID, DOI,
	// Scopus EID, or WoS UID). Unique within a session.
	ID string `json:"id" yaml:"id"`

	// Title is the record title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Abstract is the abstract text, empty when the source does not
	// provide one.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the bare DOI (no https://doi.org/ prefix), empty when unknown.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
}

// PromptText formats the record for inclusion in a model prompt.
func (r Record) PromptText() string {
	abstract := r.Abstract
	if abstract == "" {
		abstract = "No abstract available"
	}
	year := "unknown"
	if r.Year > 0 {
		year = fmt.Sprintf("%d", r.Year)
	}
	return fmt.Sprintf("Title: %s\nAbstract: %s\nYear: %s", r.Title, abstract, year)
}

// Criteria holds the inclusion and exclusion statements a screening run
// judges records against. Supplied by the project file and read-only for
// the whole run (prd006-projects R1.2).
type Criteria struct {
	// Inclusion lists statements a relevant record must satisfy.
	Inclusion []string `json:"inclusion" yaml:"inclusion"`

	// Exclusion lists statements that disqualify a record.
	Exclusion []string `json:"exclusion" yaml:"exclusion"`
}

// IsEmpty reports whether the criteria contain no statements.
func (c Criteria) IsEmpty() bool {
	return len(c.Inclusion) == 0 && len(c.Exclusion) == 0
}

// PromptText formats the criteria as bulleted lists for a model prompt.
func (c Criteria) PromptText() string {
	var b strings.Builder
	b.WriteString("INCLUSION CRITERIA:\n")
	for _, s := range c.Inclusion {
		b.WriteString("- " + s + "\n")
	}
	b.WriteString("\nEXCLUSION CRITERIA:\n")
	for _, s := range c.Exclusion {
		b.WriteString("- " + s + "\n")
	}
	return b.String()
}

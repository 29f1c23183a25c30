// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project loads screening project definitions from YAML files.
// Implements: prd006-projects (R1-R3);
//
//	docs/ARCHITECTURE § Projects.
package project

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// Project is the on-disk definition of one screening effort: the research
// question, the seed query, and the screening criteria. The file is the
// researcher's input and is never modified by a run; refined queries live
// in the audit trail, not here (R1.2).
type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// SeedQuery is the Boolean query the first iteration searches.
	SeedQuery string `yaml:"seed_query"`

	// Database selects the bibliographic backend: openalex, wos, scopus.
	// Empty defaults to openalex.
	Database string `yaml:"database,omitempty"`

	Criteria types.Criteria `yaml:"criteria"`

	// Thresholds override the run defaults when set.
	Thresholds Thresholds `yaml:"thresholds,omitempty"`
}

// Thresholds carries per-project overrides of the stopping parameters.
// Zero values mean "use the configured default".
type Thresholds struct {
	MaxIterations      int     `yaml:"max_iterations,omitempty"`
	PrecisionThreshold float64 `yaml:"precision_threshold,omitempty"`
	PageSize           int     `yaml:"page_size,omitempty"`
}

// Load reads and validates a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks the fields a run cannot proceed without.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.SeedQuery == "" {
		return fmt.Errorf("seed_query is required")
	}
	if p.Criteria.IsEmpty() {
		return fmt.Errorf("at least one inclusion or exclusion criterion is required")
	}
	if p.Thresholds.PrecisionThreshold < 0 || p.Thresholds.PrecisionThreshold > 1 {
		return fmt.Errorf("precision_threshold must be between 0 and 1")
	}
	if p.Thresholds.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	return nil
}

// ApplyTo folds the project's overrides into a RefineConfig.
func (p *Project) ApplyTo(cfg types.RefineConfig) types.RefineConfig {
	if p.Thresholds.MaxIterations > 0 {
		cfg.MaxIterations = p.Thresholds.MaxIterations
	}
	if p.Thresholds.PrecisionThreshold > 0 {
		cfg.PrecisionThreshold = p.Thresholds.PrecisionThreshold
	}
	if p.Thresholds.PageSize > 0 {
		cfg.PageSize = p.Thresholds.PageSize
	}
	return cfg
}

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "review-engine/0.1"). Per prd005-search-backends R4.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the database backends.
// Per prd005-search-backends R1.2, R4.1-R4.5.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Database selects the backend: openalex, wos, or scopus (default openalex).
	Database string `json:"database" yaml:"database"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// WosAPIKey authenticates against the Web of Science Starter API.
	WosAPIKey string `json:"wos_api_key,omitempty" yaml:"wos_api_key,omitempty"`

	// ScopusAPIKey authenticates against the Elsevier Scopus Search API.
	ScopusAPIKey string `json:"scopus_api_key,omitempty" yaml:"scopus_api_key,omitempty"`

	// ScopusInstToken is the optional Elsevier institutional token.
	ScopusInstToken string `json:"scopus_inst_token,omitempty" yaml:"scopus_inst_token,omitempty"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ClassifyConfig holds settings for the screening stage.
// Per prd001-screening R2.1-R2.4.
type ClassifyConfig struct {
	AIConfig `yaml:",inline"`

	// Concurrency bounds the number of in-flight classification calls
	// (default 4). Results are reassembled in retrieval order regardless.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RequestsPerSecond paces classification calls across workers
	// (default 2). Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// OptimizeConfig holds settings for the query optimization stage.
// Per prd002-refinement R4.4.
type OptimizeConfig struct {
	AIConfig `yaml:",inline"`

	// MaxExamples limits how many false positives the critique prompt
	// includes (default 5).
	MaxExamples int `json:"max_examples" yaml:"max_examples"`
}

// RefineConfig holds the loop parameters for a refinement session.
// Per prd002-refinement R1.1-R1.4.
type RefineConfig struct {
	// MaxIterations is the iteration budget (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// PrecisionThreshold stops the loop once per-iteration precision
	// reaches it (default 0.8).
	PrecisionThreshold float64 `json:"precision_threshold" yaml:"precision_threshold"`

	// PageSize is the number of records requested per iteration (default 20).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// AuditConfig holds settings for the audit log store.
// Per prd004-audit-log R1.2.
type AuditConfig struct {
	// ReviewDir is the base directory for review state (contains index/).
	ReviewDir string `json:"review_dir" yaml:"review_dir"`
}

// PipelineConfig groups all stage configurations for a session.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Classify ClassifyConfig `json:"classify" yaml:"classify"`
	Optimize OptimizeConfig `json:"optimize" yaml:"optimize"`
	Refine   RefineConfig   `json:"refine" yaml:"refine"`
	Audit    AuditConfig    `json:"audit" yaml:"audit"`
}

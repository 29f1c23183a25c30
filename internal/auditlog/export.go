// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/pkg/types"
)

// SessionExport is the full audit trail of one run in export form: the
// session header, every iteration, and every per-record decision (R4.1).
type SessionExport struct {
	Session    SessionInfo             `json:"session" yaml:"session"`
	Iterations []types.IterationResult `json:"iterations" yaml:"iterations"`
	Decisions  []DecisionInfo          `json:"decisions" yaml:"decisions"`
}

// ExportYAML writes a session's trail to review/index/session-[id].yaml (R4.2).
func (s *Store) ExportYAML(ctx context.Context, sessionID int64) (string, error) {
	export, err := s.exportSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reviewDir, indexDir, fmt.Sprintf("session-%d.yaml", sessionID))
	data, err := yaml.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes a session's trail to review/index/session-[id].json (R4.3).
func (s *Store) ExportJSON(ctx context.Context, sessionID int64) (string, error) {
	export, err := s.exportSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.reviewDir, indexDir, fmt.Sprintf("session-%d.json", sessionID))
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportSession(ctx context.Context, sessionID int64) (SessionExport, error) {
	info, err := s.Session(ctx, sessionID)
	if err != nil {
		return SessionExport{}, err
	}
	iterations, err := s.Iterations(ctx, sessionID)
	if err != nil {
		return SessionExport{}, err
	}
	decisions, err := s.Decisions(ctx, sessionID)
	if err != nil {
		return SessionExport{}, err
	}
	return SessionExport{Session: info, Iterations: iterations, Decisions: decisions}, nil
}

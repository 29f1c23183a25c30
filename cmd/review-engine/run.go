// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/auditlog"
	"github.com/pdiddy/review-engine/internal/classify"
	"github.com/pdiddy/review-engine/internal/optimize"
	"github.com/pdiddy/review-engine/internal/project"
	"github.com/pdiddy/review-engine/internal/refine"
	"github.com/pdiddy/review-engine/internal/review"
	"github.com/pdiddy/review-engine/internal/search"
	"github.com/pdiddy/review-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the refinement loop for a project",
	Long: `Run loads a project file, opens a refinement session, and iterates:
search the database, classify every retrieved record against the project's
criteria, escalate uncertain records for review, then ask the optimizer
for a revised query. The loop stops when precision reaches the project's
threshold, the iteration budget is exhausted, or a stage fails.

Uncertain records open an interactive prompt; press r, i, or s to decide,
or q to leave the record out of the tallies.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	projectPath, _ := cmd.Flags().GetString("project")
	if projectPath == "" {
		return fmt.Errorf("--project is required")
	}

	proj, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	cfg := pipelineConfigFromFlags(cmd, proj)

	client := &http.Client{Timeout: cfg.Search.Timeout}

	backend, err := search.ForName(cfg.Search)
	if err != nil {
		return err
	}

	store, err := auditlog.NewStore(cfg.Audit)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := store.BeginSession(ctx, proj.Name, proj.SeedQuery, backend.Name())
	if err != nil {
		return err
	}

	var recorder refine.Recorder = log
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		recorder = refine.NopRecorder{}
	}

	session := &refine.Session{
		Backend:    backend,
		Classifier: classify.NewClaudeClassifier(cfg.Classify, client),
		Gate:       &review.TUIGate{},
		Optimizer:  optimize.NewClaudeOptimizer(cfg.Optimize, client),
		Recorder:   recorder,
		Refine:     cfg.Refine,
		Classify:   cfg.Classify,
		Out:        os.Stdout,
	}

	fmt.Fprintf(os.Stdout, "project %s: database=%s seed=%q\n", proj.Name, backend.Name(), proj.SeedQuery)

	run, runErr := session.Run(ctx, proj.SeedQuery, proj.Criteria)

	if err := log.Finish(context.Background(), run.Status, run.Reason, run.FinalQuery); err != nil {
		fmt.Fprintf(os.Stderr, "warning: finalizing session failed: %v\n", err)
	}

	printRunSummary(run, log.ID())

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

func printRunSummary(run refine.RunOutput, sessionID int64) {
	fmt.Fprintf(os.Stdout, "\n%-4s  %-9s  %-8s  %-10s  %-7s  %-9s  %s\n",
		"Iter", "Retrieved", "Relevant", "Irrelevant", "Skipped", "Precision", "Query")
	for _, it := range run.Iterations {
		query := it.Query
		if len(query) > 40 {
			query = query[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-9d  %-8d  %-10d  %-7d  %-9.2f  %s\n",
			it.Index, it.TotalRetrieved, it.RelevantCount, it.IrrelevantCount,
			it.SkippedCount, it.Precision, query)
	}

	fmt.Fprintf(os.Stdout, "\nsession %d: %s (%s)\n", sessionID, run.Status, run.Reason)
	if run.Status == types.StatusStoppedByPolicy {
		fmt.Fprintf(os.Stdout, "final query: %s\n", run.FinalQuery)
	}
}

// pipelineConfigFromFlags assembles the stage configs from flags, the
// project file's overrides, and loaded secrets.
func pipelineConfigFromFlags(cmd *cobra.Command, proj *project.Project) types.PipelineConfig {
	database, _ := cmd.Flags().GetString("database")
	if database == "" {
		database = proj.Database
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	model, _ := cmd.Flags().GetString("model")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	rps, _ := cmd.Flags().GetFloat64("requests-per-second")
	reviewDir, _ := cmd.Flags().GetString("review-dir")

	maxIterations, _ := cmd.Flags().GetInt("max-iterations")
	threshold, _ := cmd.Flags().GetFloat64("precision-threshold")
	pageSize, _ := cmd.Flags().GetInt("page-size")

	httpCfg := types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: "review-engine/" + version,
	}
	ai := types.AIConfig{
		Model:  model,
		APIKey: secretDefault("anthropic-api-key", ""),
	}

	refineCfg := proj.ApplyTo(types.RefineConfig{
		MaxIterations:      maxIterations,
		PrecisionThreshold: threshold,
		PageSize:           pageSize,
	})

	return types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig:      httpCfg,
			Database:        database,
			OpenAlexEmail:   secretDefault("openalex-email", ""),
			WosAPIKey:       secretDefault("wos-api-key", ""),
			ScopusAPIKey:    secretDefault("scopus-api-key", ""),
			ScopusInstToken: secretDefault("scopus-inst-token", ""),
		},
		Classify: types.ClassifyConfig{
			AIConfig:          ai,
			Concurrency:       concurrency,
			RequestsPerSecond: rps,
		},
		Optimize: types.OptimizeConfig{AIConfig: ai},
		Refine:   refineCfg,
		Audit:    types.AuditConfig{ReviewDir: reviewDir},
	}
}

func init() {
	runCmd.Flags().String("project", "", "path to the project YAML file")
	runCmd.Flags().String("database", "", "bibliographic database: openalex, wos, or scopus (overrides the project file)")
	runCmd.Flags().String("review-dir", "review", "base directory for review state (contains index/)")
	runCmd.Flags().Int("max-iterations", 5, "iteration budget")
	runCmd.Flags().Float64("precision-threshold", 0.8, "stop once per-iteration precision reaches this value")
	runCmd.Flags().Int("page-size", 20, "records retrieved per iteration")
	runCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "model for classification and query optimization")
	runCmd.Flags().Int("concurrency", 4, "maximum in-flight classification calls")
	runCmd.Flags().Float64("requests-per-second", 2, "classification call pacing (0 disables)")
	runCmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	runCmd.Flags().Bool("dry-run", false, "run without writing to the audit trail")

	rootCmd.AddCommand(runCmd)
}

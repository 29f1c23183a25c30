// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/auditlog"
	"github.com/pdiddy/review-engine/pkg/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and export past refinement sessions",
	Long: `Sessions reads the append-only audit trail under review/index/.
Without a subcommand it lists all recorded sessions, newest first.`,
	RunE: runSessionsList,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(context.Background())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-24s  %-9s  %-18s  %-16s  %s\n",
		"ID", "Project", "Database", "Status", "Reason", "Started")
	for _, s := range sessions {
		status := s.Status
		if status == "" {
			status = "running"
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-24s  %-9s  %-18s  %-16s  %s\n",
			s.ID, s.Project, s.Database, status, s.StopReason, s.StartedAt)
	}
	return nil
}

// --- show subcommand ---

var sessionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a session's iterations and per-record decisions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	info, err := store.Session(ctx, id)
	if err != nil {
		return err
	}
	iterations, err := store.Iterations(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "session %d: %s\n", info.ID, info.Project)
	fmt.Fprintf(os.Stdout, "seed query: %s\n", info.SeedQuery)
	if info.Status != "" {
		fmt.Fprintf(os.Stdout, "outcome: %s (%s)\n", info.Status, info.StopReason)
	}
	if info.Status == string(types.StatusStoppedByPolicy) && info.FinalQuery != "" {
		fmt.Fprintf(os.Stdout, "final query: %s\n", info.FinalQuery)
	}

	for _, it := range iterations {
		fmt.Fprintf(os.Stdout, "\niteration %d: %q\n", it.Index, it.Query)
		fmt.Fprintf(os.Stdout, "  retrieved %d, relevant %d, irrelevant %d, skipped %d, precision %.2f\n",
			it.TotalRetrieved, it.RelevantCount, it.IrrelevantCount, it.SkippedCount, it.Precision)
		if it.Suggestion != nil {
			fmt.Fprintf(os.Stdout, "  critique: %s\n", it.Suggestion.Critique)
			fmt.Fprintf(os.Stdout, "  next query: %s\n", it.Suggestion.NewQuery)
		}
	}

	if showDecisions, _ := cmd.Flags().GetBool("decisions"); showDecisions {
		decisions, err := store.Decisions(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\n%-4s  %-12s  %-40s  %-10s  %-10s  %s\n",
			"Iter", "Record", "Title", "Model", "Final", "By")
		for _, d := range decisions {
			title := d.Title
			if len(title) > 40 {
				title = title[:37] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-4d  %-12s  %-40s  %-10s  %-10s  %s\n",
				d.Iteration, d.RecordID, title, d.Outcome, d.FinalOutcome, d.DecidedBy)
		}
	}
	return nil
}

// --- export subcommand ---

var sessionsExportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a session's audit trail to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session id %q", args[0])
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background(), id)
	case "json":
		path, err = store.ExportJSON(context.Background(), id)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}

	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*auditlog.Store, error) {
	reviewDir, _ := cmd.Flags().GetString("review-dir")
	if reviewDir == "" {
		reviewDir = "review"
	}
	return auditlog.NewStore(types.AuditConfig{ReviewDir: reviewDir})
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	sessionsCmd.PersistentFlags().String("review-dir", "review", "base directory for review state (contains index/)")

	sessionsShowCmd.Flags().Bool("decisions", false, "include per-record decisions")
	sessionsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)

	rootCmd.AddCommand(sessionsCmd)
}

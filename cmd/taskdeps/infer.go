package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/renexus/taskdeps/internal/claude"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/snapshot"
	"github.com/renexus/taskdeps/internal/ui"
)

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps",
		Short: "Use Claude to propose task dependencies from titles",
		Long: `Sends task titles to Claude and proposes dependency edges. Every proposal is
screened like a manual add-dep: unknown tasks, self-dependencies, duplicates
and edges that would close a cycle are skipped. By default runs in dry-run
mode; use --apply to write accepted edges to the snapshot file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			if flagApply && a.cfg.Snapshot == "" {
				return errors.New("--apply writes to a snapshot file; use --snapshot")
			}

			var snap *snapshot.Snapshot
			if flagApply {
				snap, err = snapshot.LoadFile(a.cfg.Snapshot)
			} else {
				snap, err = a.load(ctx)
			}
			if err != nil {
				return err
			}
			if len(snap.Tasks) == 0 {
				return fmt.Errorf("no tasks found")
			}

			// Build task summaries for Claude
			summaries := make([]claude.TaskSummary, len(snap.Tasks))
			for i, t := range snap.Tasks {
				summaries[i] = claude.TaskSummary{
					ID:             t.ID,
					Title:          t.Title,
					Status:         t.Status,
					Priority:       string(t.Priority),
					EstimatedHours: t.EstimatedHours,
				}
			}

			var result *claude.InferResult
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				result = &claude.InferResult{}
				if err := json.Unmarshal(data, result); err != nil {
					return fmt.Errorf("parse from-file: %w", err)
				}
				fmt.Printf("📂 Loaded %s edges from %s\n", ui.Bold(len(result.Edges)), ui.Dim(flagFromFile))
			} else {
				modelName := flagModel
				if modelName == "" {
					modelName = a.cfg.Claude.Model
				}
				client, err := claude.NewClient(a.cfg.Claude.APIKey, modelName)
				if err != nil {
					return err
				}

				fmt.Printf("🔍 Sending %s tasks to Claude for dependency inference...\n", ui.Bold(len(summaries)))
				result, err = client.InferDeps(ctx, summaries)
				if err != nil {
					return fmt.Errorf("infer deps: %w", err)
				}
			}

			v, err := a.engine.NewValidator(ctx, snap.Tasks, snap.Dependencies)
			if err != nil {
				return err
			}
			accepted, rejected := claude.Screen(result.Edges, v)
			a.logger.Info("proposals screened",
				"proposed", len(result.Edges),
				"accepted", len(accepted),
				"rejected", len(rejected))

			if flagJSON {
				out := struct {
					Accepted []model.Dependency `json:"accepted"`
					Rejected []claude.Rejection `json:"rejected"`
					Summary  string             `json:"summary"`
				}{
					Accepted: accepted,
					Rejected: rejected,
					Summary:  result.Summary,
				}
				if err := outputJSON(out); err != nil {
					return err
				}
			} else {
				for _, r := range rejected {
					fmt.Printf("  %s %s → %s: %s\n", ui.Yellow("⏭️  SKIP:"), r.Edge.From, r.Edge.To, r.Message)
				}
				fmt.Printf("\n🔗 Accepted %s dependencies (%d proposed):\n\n", ui.Bold(len(accepted)), len(result.Edges))
				for _, d := range accepted {
					fmt.Printf("  %s %s → %s (%s)  %s\n", ui.Cyan("→"), ui.TaskID(d.FromTaskID), ui.TaskID(d.ToTaskID), d.Type.Short(), ui.Dim(reasonFor(result.Edges, d)))
				}
				if result.Summary != "" {
					fmt.Printf("\n💡 %s %s\n", ui.BoldWhite("Summary:"), result.Summary)
				}
			}

			if !flagApply {
				if !flagJSON {
					fmt.Printf("\n🎯 %s\n", ui.Yellow("Dry run: use --apply to write these dependencies to the snapshot."))
				}
				return nil
			}

			snap.Dependencies = append(snap.Dependencies, accepted...)
			if err := snapshot.SaveFile(a.cfg.Snapshot, snap); err != nil {
				return err
			}
			if !flagJSON {
				fmt.Printf("\n🏁 Applied %s dependencies to %s.\n", ui.BoldGreen(len(accepted)), a.cfg.Snapshot)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write accepted deps to the snapshot file (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default: config or Sonnet)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Load proposals from a JSON file instead of calling Claude")

	return cmd
}

func reasonFor(edges []claude.ProposedEdge, d model.Dependency) string {
	for _, e := range edges {
		if e.From == d.FromTaskID && e.To == d.ToTaskID {
			return e.Reason
		}
	}
	return ""
}

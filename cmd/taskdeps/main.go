package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/renexus/taskdeps/internal/claude"
	"github.com/renexus/taskdeps/internal/config"
	"github.com/renexus/taskdeps/internal/engine"
	"github.com/renexus/taskdeps/internal/export"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/logging"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/planner"
	"github.com/renexus/taskdeps/internal/snapshot"
	"github.com/renexus/taskdeps/internal/ui"
	"github.com/renexus/taskdeps/internal/viewer"
)

var (
	flagConfig    string
	flagSnapshot  string
	flagDB        string
	flagProject   string
	flagJSON      bool
	flagLogLevel  string
	flagFilter    string
	flagOutput    string
	flagFormat    string
	flagDepType   string
	flagSummarise bool
	flagAddr      string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskdeps",
		Short: "Analyze task dependencies, critical paths and execution order",
		Long: `taskdeps reads a project's tasks and dependencies from a snapshot file or
a Postgres database, validates proposed dependencies, computes the critical
path and slack of every task, and suggests an execution order.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./taskdeps.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "", "Snapshot file (.json, .yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Postgres connection string")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "Project id")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		planCmd(),
		criticalPathCmd(),
		sequenceCmd(),
		validateCmd(),
		addDepCmd(),
		graphCmd(),
		inferDepsCmd(),
		serveCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app is everything a command needs after flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
}

func setup() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagSnapshot != "" {
		cfg.Snapshot = flagSnapshot
	}
	if flagDB != "" {
		cfg.Database.URL = flagDB
	}
	if flagProject != "" {
		cfg.Database.Project = flagProject
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	eng := engine.New(engine.Config{
		MaxTasks:        cfg.Engine.MaxTasks,
		MaxDependencies: cfg.Engine.MaxDependencies,
	}, logger)

	return &app{cfg: cfg, logger: logger, engine: eng}, nil
}

// source picks the snapshot file when one is configured, otherwise Postgres.
func (a *app) source(ctx context.Context) (snapshot.Source, func(), error) {
	if a.cfg.Snapshot != "" {
		return snapshot.File{Path: a.cfg.Snapshot}, func() {}, nil
	}
	if a.cfg.Database.URL == "" {
		return nil, nil, errors.New("no snapshot source: use --snapshot or --db")
	}
	pool, err := snapshot.NewPool(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return &snapshot.Postgres{DB: pool}, pool.Close, nil
}

func (a *app) load(ctx context.Context) (*snapshot.Snapshot, error) {
	src, closeFn, err := a.source(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	snap, err := src.Load(ctx, a.cfg.Database.Project)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	a.logger.Debug("snapshot loaded",
		"project", snap.ProjectID,
		"tasks", len(snap.Tasks),
		"dependencies", len(snap.Dependencies))

	if flagFilter != "" {
		if snap, err = applyFilter(snap, flagFilter); err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
	}
	return snap, nil
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the critical path, waves and suggested sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			snap, err := a.load(ctx)
			if err != nil {
				return err
			}
			if len(snap.Tasks) == 0 {
				return fmt.Errorf("no tasks found")
			}

			analysis, err := a.engine.Analyze(ctx, snap.Tasks, snap.Dependencies)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			plan, err := planner.Generate(analysis.Graph, analysis.CPM, analysis.Sequence, planner.Config{
				ProjectID:          snap.ProjectID,
				HoursPerDay:        a.cfg.Planner.HoursPerDay,
				ReportTemplatePath: a.cfg.Planner.ReportTemplate,
			})
			if err != nil {
				return fmt.Errorf("generate plan: %w", err)
			}

			if flagJSON {
				return outputJSON(plan)
			}

			report, err := planner.RenderReport(plan, a.cfg.Planner.ReportTemplate)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}

			if flagSummarise {
				client, err := claude.NewClient(a.cfg.Claude.APIKey, a.cfg.Claude.Model)
				if err != nil {
					return err
				}
				summary, err := client.SummarisePlan(ctx, report)
				if err != nil {
					return fmt.Errorf("summarise plan: %w", err)
				}
				report += "\n## Review\n\n" + summary + "\n"
			}

			if flagOutput != "" {
				if err := os.WriteFile(flagOutput, []byte(report), 0644); err != nil {
					return err
				}
				fmt.Printf("📝 Wrote report to %s\n", ui.Bold(flagOutput))
				return nil
			}

			printPlan(plan)
			if flagSummarise {
				fmt.Println(report[strings.LastIndex(report, "## Review"):])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (e.g. status!=done, priority>=high)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write a Markdown report to file")
	cmd.Flags().BoolVar(&flagSummarise, "summarise", false, "Ask Claude to review the plan")

	return cmd
}

func criticalPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "critical-path",
		Short: "Show each task's earliest/latest times, slack and the critical path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			snap, err := a.load(ctx)
			if err != nil {
				return err
			}

			result, err := a.engine.CalculateCriticalPath(ctx, snap.Tasks, snap.Dependencies)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(result)
			}
			printCriticalPath(snap, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")

	return cmd
}

func sequenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequence",
		Short: "Suggest an execution order that respects every dependency",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			snap, err := a.load(ctx)
			if err != nil {
				return err
			}

			analysis, err := a.engine.Analyze(ctx, snap.Tasks, snap.Dependencies)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(analysis.Sequence)
			}
			printSequence(analysis)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")

	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <from-task> <to-task>",
		Short: "Check whether a dependency from one task to another may be added",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			snap, err := a.load(ctx)
			if err != nil {
				return err
			}

			res, err := a.engine.ValidateDependency(ctx, snap.Tasks, snap.Dependencies, args[0], args[1])
			if err != nil {
				return err
			}
			if flagJSON {
				if err := outputJSON(res); err != nil {
					return err
				}
			} else {
				fmt.Printf("%s → %s  %s\n", ui.TaskID(args[0]), ui.TaskID(args[1]), ui.Valid(res.Valid, res.Message))
			}
			if !res.Valid {
				return errors.New(res.Message)
			}
			return nil
		},
	}
}

func addDepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-dep <from-task> <to-task>",
		Short: "Validate a dependency and append it to the snapshot file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			if a.cfg.Snapshot == "" {
				return errors.New("add-dep writes to a snapshot file; use --snapshot")
			}
			typ, err := model.ParseDependencyType(flagDepType)
			if err != nil {
				return err
			}
			// The whole file is rewritten, so read it unfiltered.
			snap, err := snapshot.LoadFile(a.cfg.Snapshot)
			if err != nil {
				return err
			}

			res, err := a.engine.ValidateDependency(ctx, snap.Tasks, snap.Dependencies, args[0], args[1])
			if err != nil {
				return err
			}
			if !res.Valid {
				return errors.New(res.Message)
			}

			g := graph.New(snap.Tasks, nil)
			d := a.engine.CreateDependency(ctx, *g.Tasks[args[0]], *g.Tasks[args[1]], typ)
			snap.Dependencies = append(snap.Dependencies, d)
			if err := snapshot.SaveFile(a.cfg.Snapshot, snap); err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(d)
			}
			fmt.Printf("%s %s → %s (%s) as %s\n", ui.Green("✅ Added"), ui.TaskID(d.FromTaskID), ui.TaskID(d.ToTaskID), d.Type.Short(), ui.Dim(d.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&flagDepType, "type", "finish-to-start", "Dependency type (FS, SS, FF, SF)")

	return cmd
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the dependency graph (json, dot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}
			snap, err := a.load(ctx)
			if err != nil {
				return err
			}

			view, err := a.engine.GenerateDependencyGraph(ctx, snap.Tasks, snap.Dependencies)
			if err != nil {
				return err
			}

			switch flagFormat {
			case "json":
				return export.WriteJSON(os.Stdout, view)
			case "dot":
				// Highlighting is best effort; a cyclic snapshot still exports.
				var critical func(string) bool
				if result, err := a.engine.CalculateCriticalPath(ctx, snap.Tasks, snap.Dependencies); err == nil {
					critical = result.IsCriticalTask
				}
				return export.WriteDOT(os.Stdout, view, critical)
			default:
				return fmt.Errorf("unsupported format %q (use json or dot)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "json", "Output format (json, dot)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")

	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dependency graph over HTTP for the browser viewer",
		Long: `serve starts an HTTP server exposing GET /graph, GET /graph.dot and
POST /graph. When a snapshot source is configured it is loaded first;
otherwise the server waits for a snapshot to be posted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup()
			if err != nil {
				return err
			}

			if flagAddr != "" {
				a.cfg.Viewer.Addr = flagAddr
			}
			srv := viewer.NewServer(a.engine, a.cfg.Viewer.MaxBodyBytes, a.logger)
			if a.cfg.Snapshot != "" || a.cfg.Database.URL != "" {
				snap, err := a.load(ctx)
				if err != nil {
					return err
				}
				if _, err := srv.Load(ctx, snap); err != nil {
					return err
				}
			}

			if !flagJSON {
				ui.PrintBanner(os.Stdout)
				fmt.Printf("  Viewer: %s\n", ui.Bold("http://localhost"+a.cfg.Viewer.Addr))
			}
			return srv.Serve(ctx, a.cfg.Viewer.Addr)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :7171)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")

	return cmd
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

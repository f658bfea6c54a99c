// Package engine is the entry point for dependency computations on a project
// snapshot. Each call takes the full task and dependency lists, checks them
// against the configured limits, and returns a fresh result. An Engine holds
// no snapshot state and is safe for concurrent use.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/renexus/taskdeps/internal/cpm"
	"github.com/renexus/taskdeps/internal/export"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/sequence"
	"github.com/renexus/taskdeps/internal/validate"
)

// Config bounds the snapshots an Engine accepts. Zero means unlimited.
type Config struct {
	MaxTasks        int
	MaxDependencies int
}

// Engine runs validation, scheduling and export over snapshots.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	validate *validator.Validate
}

// New returns an Engine. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger.With("component", "engine"),
		validate: validator.New(),
	}
}

// Analysis bundles the results the CLI reports together.
type Analysis struct {
	Graph    *graph.TaskGraph
	CPM      *cpm.Result
	Sequence []model.Task
}

func (e *Engine) check(tasks []model.Task, deps []model.Dependency) error {
	if e.cfg.MaxTasks > 0 && len(tasks) > e.cfg.MaxTasks {
		return fmt.Errorf("%w: %d tasks (limit %d)", ErrSnapshotTooLarge, len(tasks), e.cfg.MaxTasks)
	}
	if e.cfg.MaxDependencies > 0 && len(deps) > e.cfg.MaxDependencies {
		return fmt.Errorf("%w: %d dependencies (limit %d)", ErrSnapshotTooLarge, len(deps), e.cfg.MaxDependencies)
	}

	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		if err := e.validate.Struct(tasks[i]); err != nil {
			return fmt.Errorf("%w: task %d (%q): %v", ErrInvalidSnapshot, i, tasks[i].ID, err)
		}
		if seen[tasks[i].ID] {
			return fmt.Errorf("%w: duplicate task id %q", ErrInvalidSnapshot, tasks[i].ID)
		}
		seen[tasks[i].ID] = true
	}
	if h := model.ScheduleHours(tasks); h > model.MaxScheduleHours {
		return fmt.Errorf("%w: schedule spans %.0f hours (limit %d)", ErrInvalidSnapshot, h, model.MaxScheduleHours)
	}
	return nil
}

// run wraps an operation with its span, metrics and error logging.
func (e *Engine) run(ctx context.Context, op string, tasks []model.Task, deps []model.Dependency, fn func(context.Context, trace.Span) error) error {
	ctx, span := startSpan(ctx, op, len(tasks), len(deps))
	defer span.End()
	start := time.Now()

	err := e.check(tasks, deps)
	if err == nil {
		err = fn(ctx, span)
	}
	recordOperation(ctx, op, time.Since(start), err == nil)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var cycleErr *graph.CycleDetectedError
		if errors.As(err, &cycleErr) {
			recordCycle(ctx, op)
			e.logger.Error("dependency cycle in snapshot",
				"operation", op,
				"cycle", cycleErr.Cycle,
				"sorted", cycleErr.Sorted,
				"total", cycleErr.Total)
		} else {
			e.logger.Warn("operation rejected", "operation", op, "error", err)
		}
		return err
	}

	e.logger.Debug("operation complete",
		"operation", op,
		"tasks", len(tasks),
		"dependencies", len(deps),
		"duration", time.Since(start))
	return nil
}

// CreateDependency builds a new dependency record with a fresh id. It does
// not validate; call ValidateDependency first.
func (e *Engine) CreateDependency(ctx context.Context, from, to model.Task, typ model.DependencyType) model.Dependency {
	_, span := tracer.Start(ctx, "Engine.CreateDependency")
	defer span.End()

	d := validate.CreateDependency(from, to, typ)
	span.SetAttributes(attribute.String("taskdeps.dependency_type", string(d.Type)))
	e.logger.Debug("dependency created", "id", d.ID, "from", d.FromTaskID, "to", d.ToTaskID, "type", d.Type)
	return d
}

// ValidateDependency screens the edge fromID -> toID against the snapshot.
// Rejections come back in the Result; the error is reserved for snapshots
// that fail the engine's limits or input checks.
func (e *Engine) ValidateDependency(ctx context.Context, tasks []model.Task, deps []model.Dependency, fromID, toID string) (validate.Result, error) {
	var res validate.Result
	err := e.run(ctx, "ValidateDependency", tasks, deps, func(ctx context.Context, span trace.Span) error {
		res = validate.Dependency(tasks, deps, fromID, toID)
		span.SetAttributes(attribute.Bool("taskdeps.valid", res.Valid))
		if !res.Valid {
			recordRejection(ctx, res.Message)
		}
		return nil
	})
	return res, err
}

// NewValidator checks the snapshot once and returns a Validator for screening
// many proposed edges against it.
func (e *Engine) NewValidator(ctx context.Context, tasks []model.Task, deps []model.Dependency) (*validate.Validator, error) {
	var v *validate.Validator
	err := e.run(ctx, "NewValidator", tasks, deps, func(context.Context, trace.Span) error {
		v = validate.New(tasks, deps)
		return nil
	})
	return v, err
}

// CalculateCriticalPath runs the critical path method over the snapshot.
func (e *Engine) CalculateCriticalPath(ctx context.Context, tasks []model.Task, deps []model.Dependency) (*cpm.Result, error) {
	var result *cpm.Result
	err := e.run(ctx, "CalculateCriticalPath", tasks, deps, func(_ context.Context, span trace.Span) error {
		r, err := cpm.CalculateCriticalPath(tasks, deps)
		if err != nil {
			return err
		}
		span.SetAttributes(
			attribute.Int("taskdeps.critical_tasks", len(r.CriticalPath)),
			attribute.Float64("taskdeps.total_hours", r.TotalDuration.Hours()),
		)
		result = r
		return nil
	})
	return result, err
}

// SuggestOptimizedSequence returns every task in a dependency-respecting
// order, critical tasks and higher priorities first among those ready.
func (e *Engine) SuggestOptimizedSequence(ctx context.Context, tasks []model.Task, deps []model.Dependency) ([]model.Task, error) {
	var order []model.Task
	err := e.run(ctx, "SuggestOptimizedSequence", tasks, deps, func(context.Context, trace.Span) error {
		o, err := sequence.SuggestOptimizedSequence(tasks, deps)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	return order, err
}

// GenerateDependencyGraph maps the snapshot to nodes and edges for display.
func (e *Engine) GenerateDependencyGraph(ctx context.Context, tasks []model.Task, deps []model.Dependency) (*export.GraphView, error) {
	var view *export.GraphView
	err := e.run(ctx, "GenerateDependencyGraph", tasks, deps, func(context.Context, trace.Span) error {
		view = export.GenerateDependencyGraph(tasks, deps)
		return nil
	})
	return view, err
}

// Analyze indexes the snapshot once and runs both the critical path and the
// sequence optimizer over it.
func (e *Engine) Analyze(ctx context.Context, tasks []model.Task, deps []model.Dependency) (*Analysis, error) {
	var a *Analysis
	err := e.run(ctx, "Analyze", tasks, deps, func(_ context.Context, span trace.Span) error {
		g := graph.New(tasks, deps)
		if len(g.Dangling) > 0 {
			e.logger.Warn("ignoring dependencies on unknown tasks", "count", len(g.Dangling))
		}
		result, err := cpm.Analyze(g)
		if err != nil {
			return err
		}
		order, err := sequence.Suggest(g, result)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("taskdeps.waves", len(result.Waves)))
		a = &Analysis{Graph: g, CPM: result, Sequence: order}
		return nil
	})
	return a, err
}

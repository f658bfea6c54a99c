package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/renexus/taskdeps/internal/model"
)

// NewPool creates a PostgreSQL connection pool and checks it with a ping.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// Querier is the subset of *pgxpool.Pool the Postgres source needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres reads snapshots from the tasks and task_dependencies tables.
type Postgres struct {
	DB Querier
}

const tasksQuery = `
SELECT id, project_id, title, status, priority, start_date, due_date, estimated_hours
FROM tasks
WHERE project_id = $1
ORDER BY id`

// Dependencies are selected by their target task, so an edge whose source
// lives in another project comes back dangling.
const dependenciesQuery = `
SELECT d.id, d.from_task_id, d.to_task_id, d.type
FROM task_dependencies d
JOIN tasks t ON t.id = d.to_task_id
WHERE t.project_id = $1
ORDER BY d.id`

type taskRow struct {
	ID             string
	ProjectID      *string
	Title          *string
	Status         *string
	Priority       *string
	StartDate      *time.Time
	DueDate        *time.Time
	EstimatedHours *float64
}

func (r taskRow) toModel() model.Task {
	t := model.Task{
		ID:        r.ID,
		Title:     deref(r.Title),
		Status:    deref(r.Status),
		Priority:  model.ParsePriority(deref(r.Priority)),
		ProjectID: deref(r.ProjectID),
		StartDate: r.StartDate,
		DueDate:   r.DueDate,
	}
	if r.EstimatedHours != nil {
		t.EstimatedHours = *r.EstimatedHours
	}
	return t
}

type dependencyRow struct {
	ID, From, To string
	Type         *string
}

func (r dependencyRow) toModel() (model.Dependency, error) {
	typ, err := model.ParseDependencyType(deref(r.Type))
	if err != nil {
		return model.Dependency{}, fmt.Errorf("dependency %s: %w", r.ID, err)
	}
	return model.Dependency{ID: r.ID, FromTaskID: r.From, ToTaskID: r.To, Type: typ}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Load reads one project's tasks and the dependencies pointing at them.
func (p *Postgres) Load(ctx context.Context, projectID string) (*Snapshot, error) {
	if projectID == "" {
		return nil, fmt.Errorf("postgres snapshot: project id is required")
	}
	snap := &Snapshot{ProjectID: projectID, Tasks: []model.Task{}, Dependencies: []model.Dependency{}}

	rows, err := p.DB.Query(ctx, tasksQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Title, &r.Status, &r.Priority, &r.StartDate, &r.DueDate, &r.EstimatedHours); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan task: %w", err)
		}
		snap.Tasks = append(snap.Tasks, r.toModel())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	rows, err = p.DB.Query(ctx, dependenciesQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r dependencyRow
		if err := rows.Scan(&r.ID, &r.From, &r.To, &r.Type); err != nil {
			return nil, fmt.Errorf("scan dependency: %w", err)
		}
		d, err := r.toModel()
		if err != nil {
			return nil, err
		}
		snap.Dependencies = append(snap.Dependencies, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read dependencies: %w", err)
	}
	return snap, nil
}

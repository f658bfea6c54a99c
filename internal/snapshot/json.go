package snapshot

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/renexus/taskdeps/internal/model"
)

// ParseJSON accepts three shapes:
//
//	{"tasks": [...], "dependencies": [...]}
//	{"project": {"id": "...", "tasks": [...], "dependencies": [...]}}
//	[ task, task, ... ]
//
// Field names may be camelCase or snake_case.
func ParseJSON(data []byte) (*Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	snap := &Snapshot{Tasks: []model.Task{}, Dependencies: []model.Dependency{}}

	var tasks, deps gjson.Result
	switch {
	case root.IsArray():
		tasks = root
	case root.IsObject():
		base := root
		if p := root.Get("project"); p.IsObject() {
			base = p
			snap.ProjectID = field(p, "id").String()
		}
		if id := field(base, "projectId", "project_id").String(); id != "" {
			snap.ProjectID = id
		}
		tasks = base.Get("tasks")
		deps = base.Get("dependencies")
	default:
		return nil, fmt.Errorf("%w: expected an object or an array", ErrMalformed)
	}

	if tasks.Type != gjson.Null && !tasks.IsArray() {
		return nil, fmt.Errorf("%w: tasks must be an array", ErrMalformed)
	}
	if deps.Type != gjson.Null && !deps.IsArray() {
		return nil, fmt.Errorf("%w: dependencies must be an array", ErrMalformed)
	}

	for i, item := range tasks.Array() {
		t, err := parseTask(item)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrMalformed, i, err)
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	for i, item := range deps.Array() {
		d, err := parseDependency(item)
		if err != nil {
			return nil, fmt.Errorf("%w: dependency %d: %v", ErrMalformed, i, err)
		}
		snap.Dependencies = append(snap.Dependencies, d)
	}
	return snap, nil
}

// field returns the first of names present on r.
func field(r gjson.Result, names ...string) gjson.Result {
	for _, n := range names {
		if v := r.Get(n); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func parseTask(r gjson.Result) (model.Task, error) {
	if !r.IsObject() {
		return model.Task{}, fmt.Errorf("expected an object")
	}
	t := model.Task{
		ID:             r.Get("id").String(),
		Title:          r.Get("title").String(),
		Status:         r.Get("status").String(),
		Priority:       model.ParsePriority(r.Get("priority").String()),
		ProjectID:      field(r, "projectId", "project_id").String(),
		EstimatedHours: field(r, "estimatedHours", "estimated_hours").Float(),
	}
	if t.ID == "" {
		return t, fmt.Errorf("missing id")
	}
	var err error
	if t.StartDate, err = parseDate(field(r, "startDate", "start_date")); err != nil {
		return t, fmt.Errorf("startDate: %w", err)
	}
	if t.DueDate, err = parseDate(field(r, "dueDate", "due_date")); err != nil {
		return t, fmt.Errorf("dueDate: %w", err)
	}
	return t, nil
}

func parseDependency(r gjson.Result) (model.Dependency, error) {
	if !r.IsObject() {
		return model.Dependency{}, fmt.Errorf("expected an object")
	}
	typ, err := model.ParseDependencyType(r.Get("type").String())
	if err != nil {
		return model.Dependency{}, err
	}
	d := model.Dependency{
		ID:         r.Get("id").String(),
		FromTaskID: field(r, "fromTaskId", "from_task_id").String(),
		ToTaskID:   field(r, "toTaskId", "to_task_id").String(),
		Type:       typ,
	}
	if d.FromTaskID == "" || d.ToTaskID == "" {
		return d, fmt.Errorf("fromTaskId and toTaskId are required")
	}
	return d, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(r gjson.Result) (*time.Time, error) {
	if !r.Exists() || r.String() == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, r.String()); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", r.String())
}

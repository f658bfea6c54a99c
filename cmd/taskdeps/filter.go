package main

import (
	"fmt"
	"strings"

	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/snapshot"
)

// applyFilter parses simple filter expressions and keeps the matching tasks
// and the dependencies between them.
func applyFilter(snap *snapshot.Snapshot, filter string) (*snapshot.Snapshot, error) {
	// Supported formats: "status=X", "status!=X", "priority>=P", "priority=P"
	pred, err := parseFilter(filter)
	if err != nil {
		return nil, err
	}
	tasks, deps := graph.New(snap.Tasks, snap.Dependencies).Filter(pred).Snapshot()
	return &snapshot.Snapshot{ProjectID: snap.ProjectID, Tasks: tasks, Dependencies: deps}, nil
}

func parseFilter(filter string) (func(*model.Task) bool, error) {
	switch {
	case strings.HasPrefix(filter, "status!="):
		status := strings.TrimPrefix(filter, "status!=")
		return func(t *model.Task) bool { return !strings.EqualFold(t.Status, status) }, nil
	case strings.HasPrefix(filter, "status="):
		status := strings.TrimPrefix(filter, "status=")
		return func(t *model.Task) bool { return strings.EqualFold(t.Status, status) }, nil
	case strings.HasPrefix(filter, "priority"):
		return filterByPriority(strings.TrimPrefix(filter, "priority"))
	}
	return nil, fmt.Errorf("unsupported filter: %s (use status=X, status!=X, priority>=P or priority=P)", filter)
}

func filterByPriority(expr string) (func(*model.Task) bool, error) {
	for _, op := range []string{">=", "<=", "="} {
		if !strings.HasPrefix(expr, op) {
			continue
		}
		p := model.ParsePriority(strings.TrimPrefix(expr, op))
		n := p.Rank()
		if n < 0 {
			return nil, fmt.Errorf("invalid priority value %q", p)
		}
		switch op {
		case ">=":
			return func(t *model.Task) bool { return t.Priority.Rank() >= n }, nil
		case "<=":
			return func(t *model.Task) bool { return t.Priority.Rank() <= n && t.Priority.Rank() >= 0 }, nil
		default:
			return func(t *model.Task) bool { return t.Priority == p }, nil
		}
	}
	return nil, fmt.Errorf("unsupported priority filter: priority%s", expr)
}

package graph

import "github.com/renexus/taskdeps/internal/model"

// Edge is a typed dependency inside the graph.
type Edge struct {
	ID   string
	From string
	To   string
	Type model.DependencyType
}

// TaskGraph is an indexed snapshot of one project's tasks and dependencies.
// It holds copies of the input tasks; callers' slices are never retained.
type TaskGraph struct {
	Tasks    map[string]*model.Task
	Order    []string            // task ids in input order
	Adj      map[string][]string // task -> tasks that depend on it
	RevAdj   map[string][]string // task -> tasks it depends on
	Edges    map[[2]string]Edge  // keyed by (from, to)
	Dangling []model.Dependency  // edges naming a task outside the snapshot
	Repeated []string            // ids seen again after their first task; later copies are dropped
	Roots    []string            // tasks with no predecessors
	Leaves   []string            // tasks with no successors
}

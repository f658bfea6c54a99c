// Package sequence orders a project's tasks for execution.
//
// The order is a priority-aware topological sort (list scheduling): a task
// becomes ready once every predecessor has been placed, and the ready set is
// drained by critical path membership, then priority, then due date, then id.
package sequence

import (
	"container/heap"

	"github.com/renexus/taskdeps/internal/cpm"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
)

// SuggestOptimizedSequence runs the critical path analysis and returns every
// task in a dependency-respecting execution order. Task ids must be unique: a
// repeated id keeps only its first task (see graph.TaskGraph.Repeated), and
// the result is then shorter than tasks.
func SuggestOptimizedSequence(tasks []model.Task, deps []model.Dependency) ([]model.Task, error) {
	g := graph.New(tasks, deps)
	result, err := cpm.Analyze(g)
	if err != nil {
		return nil, err
	}
	return Suggest(g, result)
}

// Suggest orders g using the critical flags from result. It fails with
// *graph.CycleDetectedError if tasks remain while nothing is ready.
func Suggest(g *graph.TaskGraph, result *cpm.Result) ([]model.Task, error) {
	remaining := make(map[string]int, len(g.Tasks))
	ready := &readySet{}
	for id := range g.Tasks {
		remaining[id] = len(g.RevAdj[id])
		if remaining[id] == 0 {
			ready.items = append(ready.items, entry(g, result, id))
		}
	}
	heap.Init(ready)

	out := make([]model.Task, 0, len(g.Tasks))
	for ready.Len() > 0 {
		next := heap.Pop(ready).(candidate)
		out = append(out, *g.Tasks[next.id])

		for _, succ := range g.Adj[next.id] {
			remaining[succ]--
			if remaining[succ] == 0 {
				heap.Push(ready, entry(g, result, succ))
			}
		}
	}

	if len(out) != len(g.Tasks) {
		return nil, &graph.CycleDetectedError{
			Cycle:  g.DetectCycle(),
			Sorted: len(out),
			Total:  len(g.Tasks),
		}
	}
	return out, nil
}

func entry(g *graph.TaskGraph, result *cpm.Result, id string) candidate {
	t := g.Tasks[id]
	c := candidate{
		id:       id,
		critical: result != nil && result.IsCriticalTask(id),
		priority: t.Priority.Rank(),
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		c.due = t.DueDate.UnixNano()
		c.hasDue = true
	}
	return c
}

package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/renexus/taskdeps/internal/model"
)

func tasks(ids ...string) []model.Task {
	out := make([]model.Task, len(ids))
	for i, id := range ids {
		out[i] = model.Task{ID: id, Title: "Task " + id, Status: "todo"}
	}
	return out
}

func dep(from, to string) model.Dependency {
	return model.Dependency{ID: from + "-" + to, FromTaskID: from, ToTaskID: to, Type: model.FinishToStart}
}

func TestNew_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g := New(tasks("d", "c", "b", "a"), []model.Dependency{
		dep("b", "d"), dep("a", "b"), dep("c", "d"), dep("a", "c"),
	})

	if g.TaskCount() != 4 {
		t.Errorf("expected 4 tasks, got %d", g.TaskCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}
	if adj := g.Adj["a"]; len(adj) != 2 || adj[0] != "b" || adj[1] != "c" {
		t.Errorf("expected a -> [b c], got %v", adj)
	}
	if rev := g.RevAdj["d"]; len(rev) != 2 {
		t.Errorf("expected d to have 2 predecessors, got %v", rev)
	}
	if g.Order[0] != "d" {
		t.Errorf("expected input order to be preserved, got %v", g.Order)
	}
}

func TestNew_SingleTask(t *testing.T) {
	g := New(tasks("x"), nil)

	if g.TaskCount() != 1 {
		t.Errorf("expected 1 task, got %d", g.TaskCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "x" {
		t.Errorf("expected roots=[x], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "x" {
		t.Errorf("expected leaves=[x], got %v", g.Leaves)
	}
}

func TestNew_DuplicateEdgesCollapsed(t *testing.T) {
	first := dep("a", "b")
	second := dep("a", "b")
	second.ID = "other"
	second.Type = model.StartToStart

	g := New(tasks("a", "b"), []model.Dependency{first, second})

	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	e, ok := g.Edge("a", "b")
	if !ok || e.ID != "a-b" || e.Type != model.FinishToStart {
		t.Errorf("expected first occurrence to win, got %+v", e)
	}
}

func TestNew_DanglingEdgesIgnored(t *testing.T) {
	g := New(tasks("a", "b"), []model.Dependency{dep("a", "z")})

	if len(g.Adj["a"]) != 0 {
		t.Errorf("expected no adj for a (z not in graph), got %v", g.Adj["a"])
	}
	if len(g.Dangling) != 1 {
		t.Errorf("expected 1 dangling edge, got %d", len(g.Dangling))
	}
}

func TestNew_RepeatedTaskIDs(t *testing.T) {
	in := append(tasks("a", "b"), model.Task{ID: "a", Title: "second a"}, model.Task{ID: "a"})
	g := New(in, nil)

	if g.TaskCount() != 2 {
		t.Errorf("expected 2 tasks, got %d", g.TaskCount())
	}
	if g.Tasks["a"].Title != "Task a" {
		t.Errorf("expected first task a to win, got %q", g.Tasks["a"].Title)
	}
	if len(g.Repeated) != 2 || g.Repeated[0] != "a" {
		t.Errorf("expected repeated [a a], got %v", g.Repeated)
	}
}

func TestNew_DoesNotRetainCallerTasks(t *testing.T) {
	in := tasks("a")
	g := New(in, nil)
	in[0].Title = "mutated"

	if g.Tasks["a"].Title != "Task a" {
		t.Errorf("graph task changed with caller slice: %q", g.Tasks["a"].Title)
	}
}

func TestNew_EmptyTypeDefaultsToFinishToStart(t *testing.T) {
	g := New(tasks("a", "b"), []model.Dependency{{FromTaskID: "a", ToTaskID: "b"}})
	e, _ := g.Edge("a", "b")
	if e.Type != model.FinishToStart {
		t.Errorf("expected finish-to-start, got %q", e.Type)
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g := New(tasks("a", "b"), []model.Dependency{dep("a", "b")})

	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	g := New(tasks("a", "b", "c"), []model.Dependency{dep("a", "b"), dep("b", "c"), dep("c", "a")})

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("expected cycle, got nil")
	}
	if len(cycle) < 3 {
		t.Errorf("expected cycle of length >= 3, got %v", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("expected closed cycle, got %v", cycle)
	}
}

func TestTopoSort_Deterministic(t *testing.T) {
	g := New(tasks("e", "d", "c", "b", "a"), []model.Dependency{
		dep("a", "c"), dep("b", "c"), dep("c", "d"), dep("c", "e"),
	})

	order, err := g.TopoSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestTopoSort_Cycle(t *testing.T) {
	g := New(tasks("a", "b", "c"), []model.Dependency{dep("a", "b"), dep("b", "a")})

	_, err := g.TopoSort()
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
	var cycleErr *CycleDetectedError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleDetectedError, got %T", err)
	}
	if cycleErr.Sorted != 1 || cycleErr.Total != 3 {
		t.Errorf("expected 1 of 3 sorted, got %d of %d", cycleErr.Sorted, cycleErr.Total)
	}
	t.Logf("cycle error (expected): %v", err)
}

func TestTopoSort_SelfLoop(t *testing.T) {
	g := New(tasks("a"), []model.Dependency{dep("a", "a")})

	if _, err := g.TopoSort(); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected self-loop to be a cycle, got %v", err)
	}
}

func TestReachable(t *testing.T) {
	g := New(tasks("a", "b", "c", "d"), []model.Dependency{dep("a", "b"), dep("b", "c")})

	if !g.Reachable("a", "c") {
		t.Error("expected c reachable from a")
	}
	if g.Reachable("c", "a") {
		t.Error("expected a not reachable from c")
	}
	if g.Reachable("a", "d") {
		t.Error("expected d not reachable from a")
	}
	if !g.Reachable("d", "d") {
		t.Error("expected a task to reach itself")
	}
}

func TestFilter(t *testing.T) {
	in := []model.Task{
		{ID: "a", Priority: model.PriorityUrgent},
		{ID: "b", Priority: model.PriorityHigh},
		{ID: "c", Priority: model.PriorityLow},
	}
	g := New(in, []model.Dependency{dep("a", "b"), dep("b", "c")})

	filtered := g.Filter(func(t *model.Task) bool {
		return t.Priority.Rank() >= model.PriorityHigh.Rank()
	})

	if filtered.TaskCount() != 2 {
		t.Errorf("expected 2 tasks after filter, got %d", filtered.TaskCount())
	}
	if _, ok := filtered.Tasks["c"]; ok {
		t.Error("task c (low) should have been filtered out")
	}
	if filtered.EdgeCount() != 1 {
		t.Errorf("expected only a -> b to survive, got %d edges", filtered.EdgeCount())
	}
}

func TestNew_Empty(t *testing.T) {
	g := New(nil, nil)
	if g.TaskCount() != 0 {
		t.Errorf("expected 0 tasks, got %d", g.TaskCount())
	}
	order, err := g.TopoSort()
	if err != nil || len(order) != 0 {
		t.Errorf("expected empty order, got %v, %v", order, err)
	}
}

func TestSnapshot(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	in := tasks("b", "a", "c")
	in[0].StartDate = &start
	g := New(in, []model.Dependency{dep("b", "c"), dep("a", "b"), dep("a", "ghost")})

	gotTasks, gotDeps := g.Snapshot()
	if len(gotTasks) != 3 || gotTasks[0].ID != "b" || gotTasks[2].ID != "c" {
		t.Errorf("expected tasks in input order, got %v", gotTasks)
	}
	if gotTasks[0].StartDate == g.Tasks["b"].StartDate {
		t.Error("snapshot should not share start dates with the graph")
	}
	if len(gotDeps) != 2 || gotDeps[0].FromTaskID != "a" || gotDeps[1].FromTaskID != "b" {
		t.Errorf("expected a->b, b->c without the dangling edge, got %v", gotDeps)
	}
}

func TestTaskIsRetainedAfterMutatingCallerDates(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	in := tasks("a")
	in[0].StartDate = &start
	g := New(in, nil)

	start = start.Add(48 * time.Hour)
	if g.Tasks["a"].StartDate.Day() != 1 {
		t.Errorf("graph start date followed the caller's pointer: %v", g.Tasks["a"].StartDate)
	}
}

package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func edge(from, to string) model.Dependency {
	return model.Dependency{FromTaskID: from, ToTaskID: to, Type: model.FinishToStart}
}

func assertRespectsEdges(t *testing.T, order []model.Task, deps []model.Dependency) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, task := range order {
		pos[task.ID] = i
	}
	for _, d := range deps {
		assert.Less(t, pos[d.FromTaskID], pos[d.ToTaskID], "%s must precede %s", d.FromTaskID, d.ToTaskID)
	}
}

func TestSuggest_CriticalBeforePriority(t *testing.T) {
	// a(1h) -> b(5h) is the critical chain; c is urgent but has slack
	tasks := []model.Task{
		{ID: "c", EstimatedHours: 1, Priority: model.PriorityUrgent},
		{ID: "b", EstimatedHours: 5, Priority: model.PriorityLow},
		{ID: "a", EstimatedHours: 1, Priority: model.PriorityLow},
	}
	deps := []model.Dependency{edge("a", "b")}

	order, err := SuggestOptimizedSequence(tasks, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(order))
}

func TestSuggest_TieBreaks(t *testing.T) {
	early := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	late := early.Add(72 * time.Hour)

	// Equal durations and no edges: every task is critical, so priority decides,
	// then due date (undated last), then id.
	tasks := []model.Task{
		{ID: "t5", EstimatedHours: 2, Priority: model.PriorityMedium},
		{ID: "t4", EstimatedHours: 2, Priority: model.PriorityMedium, DueDate: &late},
		{ID: "t3", EstimatedHours: 2, Priority: model.PriorityMedium, DueDate: &early},
		{ID: "t2", EstimatedHours: 2, Priority: model.PriorityHigh},
		{ID: "t1", EstimatedHours: 2, Priority: model.PriorityMedium},
		{ID: "t0", EstimatedHours: 2, Priority: model.PriorityUrgent},
	}

	order, err := SuggestOptimizedSequence(tasks, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t0", "t2", "t3", "t4", "t1", "t5"}, ids(order))
}

func TestSuggest_DiamondRespectsEdges(t *testing.T) {
	tasks := []model.Task{
		{ID: "d", EstimatedHours: 1},
		{ID: "c", EstimatedHours: 3, Priority: model.PriorityUrgent},
		{ID: "b", EstimatedHours: 5},
		{ID: "a", EstimatedHours: 2},
	}
	deps := []model.Dependency{edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d")}

	order, err := SuggestOptimizedSequence(tasks, deps)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(order))
	assertRespectsEdges(t, order, deps)
}

func TestSuggest_NonFinishToStartStillOrdersFromFirst(t *testing.T) {
	tasks := []model.Task{{ID: "a", EstimatedHours: 1}, {ID: "b", EstimatedHours: 8}}
	deps := []model.Dependency{{FromTaskID: "b", ToTaskID: "a", Type: model.StartToStart}}

	order, err := SuggestOptimizedSequence(tasks, deps)
	require.NoError(t, err)
	assertRespectsEdges(t, order, deps)
}

func TestSuggest_Cycle(t *testing.T) {
	tasks := []model.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	deps := []model.Dependency{edge("a", "b"), edge("b", "a")}

	_, err := SuggestOptimizedSequence(tasks, deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrCycleDetected))

	// bypassing the calculator still trips the ready-set check
	g := graph.New(tasks, deps)
	_, err = Suggest(g, nil)
	var cycleErr *graph.CycleDetectedError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, 1, cycleErr.Sorted)
}

func TestSuggest_Empty(t *testing.T) {
	order, err := SuggestOptimizedSequence(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestSuggest_RandomDAGsArePermutationsAndDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	priorities := []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent}

	for round := 0; round < 25; round++ {
		n := 2 + rng.Intn(20)
		tasks := make([]model.Task, n)
		for i := range tasks {
			tasks[i] = model.Task{
				ID:             fmt.Sprintf("t%02d", i),
				EstimatedHours: float64(rng.Intn(10)),
				Priority:       priorities[rng.Intn(len(priorities))],
			}
		}
		var deps []model.Dependency
		types := model.Types()
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rng.Intn(4) == 0 {
					deps = append(deps, model.Dependency{
						FromTaskID: tasks[i].ID,
						ToTaskID:   tasks[j].ID,
						Type:       types[rng.Intn(len(types))],
					})
				}
			}
		}
		rng.Shuffle(len(tasks), func(i, j int) { tasks[i], tasks[j] = tasks[j], tasks[i] })

		first, err := SuggestOptimizedSequence(tasks, deps)
		require.NoError(t, err)
		second, err := SuggestOptimizedSequence(tasks, deps)
		require.NoError(t, err)

		assert.Equal(t, ids(first), ids(second), "round %d not deterministic", round)
		assert.ElementsMatch(t, ids(tasks), ids(first), "round %d not a permutation", round)
		assertRespectsEdges(t, first, deps)
	}
}

func TestSuggestOptimizedSequence_RepeatedIDKeepsFirst(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "first", EstimatedHours: 1},
		{ID: "b", EstimatedHours: 1},
		{ID: "a", Title: "second", EstimatedHours: 5},
	}

	order, err := SuggestOptimizedSequence(tasks, []model.Dependency{edge("a", "b")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(order))
	assert.Equal(t, "first", order[0].Title)
}

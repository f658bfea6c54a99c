package planner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/renexus/taskdeps/internal/cpm"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/sequence"
)

func buildPlan(t *testing.T, tasks []model.Task, deps []model.Dependency, config Config) *Plan {
	t.Helper()

	g := graph.New(tasks, deps)
	result, err := cpm.Analyze(g)
	if err != nil {
		t.Fatalf("cpm analyze: %v", err)
	}
	order, err := sequence.Suggest(g, result)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	plan, err := Generate(g, result, order, config)
	if err != nil {
		t.Fatalf("generate plan: %v", err)
	}
	return plan
}

func fs(from, to string) model.Dependency {
	return model.Dependency{FromTaskID: from, ToTaskID: to, Type: model.FinishToStart}
}

func TestGenerate_BasicPlan(t *testing.T) {
	// A -> B -> C
	tasks := []model.Task{
		{ID: "a", Title: "Task A", EstimatedHours: 2},
		{ID: "b", Title: "Task B", EstimatedHours: 3},
		{ID: "c", Title: "Task C", EstimatedHours: 4},
	}
	plan := buildPlan(t, tasks, []model.Dependency{fs("a", "b"), fs("b", "c")}, Config{HoursPerDay: 3})

	if plan.TotalTasks != 3 {
		t.Errorf("expected 3 total tasks, got %d", plan.TotalTasks)
	}
	if plan.TotalWaves != 3 {
		t.Errorf("expected 3 waves, got %d", plan.TotalWaves)
	}
	if plan.TotalHours != 9 {
		t.Errorf("expected 9 total hours, got %v", plan.TotalHours)
	}
	if plan.WorkingDays != 3 {
		t.Errorf("expected 3 working days, got %v", plan.WorkingDays)
	}
	if len(plan.CriticalPath) != 3 {
		t.Errorf("expected 3 tasks on critical path, got %d", len(plan.CriticalPath))
	}

	// Check wave 0 has task A
	if len(plan.Waves[0].Tasks) != 1 || plan.Waves[0].Tasks[0].TaskID != "a" {
		t.Errorf("expected wave 0 to have task a, got %v", plan.Waves[0].Tasks)
	}
	if plan.Waves[2].StartHours != 5 {
		t.Errorf("expected wave 2 to start at 5h, got %v", plan.Waves[2].StartHours)
	}

	// Check wave dependencies
	if len(plan.Waves[0].DependsOn) != 0 {
		t.Errorf("wave 0 should have no dependencies")
	}
	if len(plan.Waves[1].DependsOn) != 1 || plan.Waves[1].DependsOn[0] != 0 {
		t.Errorf("wave 1 should depend on wave 0")
	}

	// Check flat task lookup
	if len(plan.Tasks) != 3 {
		t.Errorf("expected 3 tasks in map, got %d", len(plan.Tasks))
	}
	for i, id := range []string{"a", "b", "c"} {
		pt, ok := plan.Tasks[id]
		if !ok {
			t.Errorf("expected task %s in Tasks map", id)
			continue
		}
		if pt.Position != i+1 {
			t.Errorf("expected %s at position %d, got %d", id, i+1, pt.Position)
		}
	}

	// Check dependency graph
	if len(plan.Deps.Predecessors["a"]) != 0 {
		t.Errorf("expected a to have no predecessors, got %v", plan.Deps.Predecessors["a"])
	}
	if len(plan.Deps.Predecessors["b"]) != 1 || plan.Deps.Predecessors["b"][0] != "a" {
		t.Errorf("expected b predecessors=[a], got %v", plan.Deps.Predecessors["b"])
	}
	if len(plan.Deps.Successors["a"]) != 1 || plan.Deps.Successors["a"][0] != "b" {
		t.Errorf("expected a successors=[b], got %v", plan.Deps.Successors["a"])
	}
	if len(plan.Deps.Successors["c"]) != 0 {
		t.Errorf("expected c to have no successors, got %v", plan.Deps.Successors["c"])
	}

	if plan.ProjectStart != nil {
		t.Errorf("expected no calendar dates without a start, got %v", plan.ProjectStart)
	}
}

func TestGenerate_DepsMatchGraph(t *testing.T) {
	// Diamond: a -> b, a -> c, b -> d, c -> d
	tasks := []model.Task{
		{ID: "a", Title: "A", EstimatedHours: 2},
		{ID: "b", Title: "B", EstimatedHours: 5},
		{ID: "c", Title: "C", EstimatedHours: 3},
		{ID: "d", Title: "D", EstimatedHours: 1},
	}
	deps := []model.Dependency{fs("a", "b"), fs("a", "c"), fs("b", "d"), fs("c", "d")}
	plan := buildPlan(t, tasks, deps, Config{})

	// Verify flat task lookup has all 4 tasks
	if len(plan.Tasks) != 4 {
		t.Errorf("expected 4 tasks in map, got %d", len(plan.Tasks))
	}

	// Verify predecessors
	if len(plan.Deps.Predecessors["a"]) != 0 {
		t.Errorf("a should have no predecessors")
	}
	if len(plan.Deps.Predecessors["d"]) != 2 {
		t.Errorf("d should have 2 predecessors, got %d", len(plan.Deps.Predecessors["d"]))
	}

	// Verify successors
	if len(plan.Deps.Successors["a"]) != 2 {
		t.Errorf("a should have 2 successors, got %d", len(plan.Deps.Successors["a"]))
	}
	if len(plan.Deps.Successors["d"]) != 0 {
		t.Errorf("d should have no successors")
	}

	if c := plan.Tasks["c"]; c.IsCritical || c.SlackHours != 2 {
		t.Errorf("expected c off the critical path with 2h slack, got critical=%v slack=%v", c.IsCritical, c.SlackHours)
	}
	if got := strings.Join(plan.Sequence, ","); got != "a,b,c,d" {
		t.Errorf("expected sequence a,b,c,d, got %s", got)
	}
}

func TestGenerate_ConfigDefaults(t *testing.T) {
	plan := buildPlan(t, []model.Task{{ID: "a", Title: "A"}}, nil, Config{})

	if plan.Config.HoursPerDay != 8 {
		t.Errorf("expected default hours per day 8, got %d", plan.Config.HoursPerDay)
	}
	if !strings.HasPrefix(plan.ID, "plan-") {
		t.Errorf("expected plan id prefix, got %s", plan.ID)
	}
}

func TestGenerate_CalendarAndRisk(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	due := start.Add(4 * time.Hour)
	tasks := []model.Task{
		{ID: "a", EstimatedHours: 3, StartDate: &start},
		{ID: "b", EstimatedHours: 2, DueDate: &due},
	}
	plan := buildPlan(t, tasks, []model.Dependency{fs("a", "b")}, Config{})

	if plan.ProjectStart == nil || !plan.ProjectStart.Equal(start) {
		t.Fatalf("expected project start %v, got %v", start, plan.ProjectStart)
	}
	if want := start.Add(5 * time.Hour); !plan.ProjectFinish.Equal(want) {
		t.Errorf("expected project finish %v, got %v", want, plan.ProjectFinish)
	}

	b := plan.Tasks["b"]
	if b.PlannedStart == nil || !b.PlannedStart.Equal(start.Add(3*time.Hour)) {
		t.Errorf("unexpected planned start for b: %v", b.PlannedStart)
	}
	if !b.Late {
		t.Errorf("b finishes 1h after its due date and should be late")
	}
	if len(plan.AtRisk) != 1 || plan.AtRisk[0] != "b" {
		t.Errorf("expected at-risk [b], got %v", plan.AtRisk)
	}
}

func TestGenerate_StartAtOverridesAnchor(t *testing.T) {
	at := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	plan := buildPlan(t, []model.Task{{ID: "a", EstimatedHours: 1}}, nil, Config{StartAt: at})

	if plan.Tasks["a"].PlannedFinish == nil || !plan.Tasks["a"].PlannedFinish.Equal(at.Add(time.Hour)) {
		t.Errorf("unexpected planned finish: %v", plan.Tasks["a"].PlannedFinish)
	}
}

func TestGenerate_SequenceMismatch(t *testing.T) {
	g := graph.New([]model.Task{{ID: "a"}, {ID: "b"}}, nil)
	result, err := cpm.Analyze(g)
	if err != nil {
		t.Fatalf("cpm analyze: %v", err)
	}
	if _, err := Generate(g, result, []model.Task{{ID: "a"}}, Config{}); err == nil {
		t.Error("expected an error for a short sequence")
	}
}

func TestRenderReport_Default(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	due := start.Add(time.Hour)
	tasks := []model.Task{
		{ID: "task-1", Title: "Design schema", EstimatedHours: 2.5, StartDate: &start},
		{ID: "task-2", Title: "Write docs", EstimatedHours: 1, DueDate: &due},
		{ID: "task-3", Title: "Build API", EstimatedHours: 4},
	}
	plan := buildPlan(t, tasks, []model.Dependency{fs("task-1", "task-2"), fs("task-1", "task-3")},
		Config{ProjectID: "proj-7"})

	report, err := RenderReport(plan, "")
	if err != nil {
		t.Fatalf("render report: %v", err)
	}

	for _, want := range []string{
		"Project: proj-7",
		"Duration: 6.5h",
		"Critical path: task-1 -> task-3",
		"1. task-1 Design schema (critical)",
		"3. task-2 Write docs (slack 3h)",
		"### Wave 2 (starts at 2.5h)",
		"Window: 2026-03-02 09:00 to 2026-03-02 15:30",
		"## At risk",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report should contain %q\n%s", want, report)
		}
	}
}

func TestRenderReport_NoRiskSection(t *testing.T) {
	plan := buildPlan(t, []model.Task{{ID: "a", Title: "A", EstimatedHours: 1}}, nil, Config{})

	report, err := RenderReport(plan, "")
	if err != nil {
		t.Fatalf("render report: %v", err)
	}
	if strings.Contains(report, "At risk") {
		t.Error("report without late tasks should not have an at-risk section")
	}
	if strings.Contains(report, "Window:") {
		t.Error("report without a start date should not show a window")
	}
}

func TestRenderReport_CustomTemplate(t *testing.T) {
	plan := buildPlan(t, []model.Task{{ID: "a", EstimatedHours: 1}}, nil, Config{})

	path := filepath.Join(t.TempDir(), "report.tmpl")
	if err := os.WriteFile(path, []byte(`{{.TotalTasks}} task(s), {{hours .TotalHours}}`), 0644); err != nil {
		t.Fatal(err)
	}

	report, err := RenderReport(plan, path)
	if err != nil {
		t.Fatalf("render report: %v", err)
	}
	if report != "1 task(s), 1h" {
		t.Errorf("unexpected report %q", report)
	}

	if _, err := RenderReport(plan, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing template")
	}
}

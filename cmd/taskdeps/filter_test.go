package main

import (
	"testing"

	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/snapshot"
)

func filterFixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		ProjectID: "p",
		Tasks: []model.Task{
			{ID: "a", Status: "done", Priority: model.PriorityUrgent},
			{ID: "b", Status: "todo", Priority: model.PriorityHigh},
			{ID: "c", Status: "todo", Priority: model.PriorityLow},
		},
		Dependencies: []model.Dependency{
			{FromTaskID: "a", ToTaskID: "b"},
			{FromTaskID: "b", ToTaskID: "c"},
		},
	}
}

func TestApplyFilter(t *testing.T) {
	tests := []struct {
		filter    string
		wantTasks []string
		wantDeps  int
	}{
		{"status=todo", []string{"b", "c"}, 1},
		{"status!=DONE", []string{"b", "c"}, 1},
		{"priority>=high", []string{"a", "b"}, 1},
		{"priority<=high", []string{"b", "c"}, 1},
		{"priority=low", []string{"c"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := applyFilter(filterFixture(), tt.filter)
			if err != nil {
				t.Fatalf("apply filter: %v", err)
			}
			if len(got.Tasks) != len(tt.wantTasks) {
				t.Fatalf("expected %d tasks, got %d", len(tt.wantTasks), len(got.Tasks))
			}
			for i, id := range tt.wantTasks {
				if got.Tasks[i].ID != id {
					t.Errorf("task %d: expected %s, got %s", i, id, got.Tasks[i].ID)
				}
			}
			if len(got.Dependencies) != tt.wantDeps {
				t.Errorf("expected %d dependencies, got %d", tt.wantDeps, len(got.Dependencies))
			}
			if got.ProjectID != "p" {
				t.Errorf("expected project id to be kept, got %q", got.ProjectID)
			}
		})
	}
}

func TestApplyFilter_Invalid(t *testing.T) {
	for _, f := range []string{"label=x", "priority>=loud", "priority~high"} {
		if _, err := applyFilter(filterFixture(), f); err == nil {
			t.Errorf("expected error for %q", f)
		}
	}
}

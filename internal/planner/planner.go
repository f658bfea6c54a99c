package planner

import (
	"fmt"
	"time"

	"github.com/renexus/taskdeps/internal/cpm"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
)

// Generate creates a Plan from CPM analysis results and a suggested sequence.
// Calendar dates are filled in only when config.StartAt or the analysis anchor
// is set. Offsets are added as clock time, matching how start dates feed
// the analysis; HoursPerDay only converts the total into working days.
func Generate(g *graph.TaskGraph, cpmResult *cpm.Result, sequence []model.Task, config Config) (*Plan, error) {
	if config.HoursPerDay <= 0 {
		config.HoursPerDay = 8
	}
	if len(sequence) != len(cpmResult.Tasks) {
		return nil, fmt.Errorf("sequence has %d tasks, analysis has %d", len(sequence), len(cpmResult.Tasks))
	}

	start := config.StartAt
	if start.IsZero() {
		start = cpmResult.Anchor
	}

	now := time.Now()
	plan := &Plan{
		ID:           fmt.Sprintf("plan-%s", now.Format("2006-01-02-150405")),
		CreatedAt:    now,
		ProjectID:    config.ProjectID,
		TotalTasks:   g.TaskCount(),
		TotalWaves:   len(cpmResult.Waves),
		TotalHours:   cpmResult.TotalDuration.Hours(),
		CriticalPath: cpmResult.CriticalPath,
		Sequence:     make([]string, 0, len(sequence)),
		Waves:        make([]PlanWave, 0, len(cpmResult.Waves)),
		Tasks:        make(map[string]*PlannedTask, g.TaskCount()),
		Deps: TaskDeps{
			Predecessors: make(map[string][]string, g.TaskCount()),
			Successors:   make(map[string][]string, g.TaskCount()),
		},
		AtRisk: make([]string, 0),
		Config: config,
	}
	plan.WorkingDays = plan.TotalHours / float64(config.HoursPerDay)
	if !start.IsZero() {
		s := start
		f := start.Add(cpmResult.TotalDuration)
		plan.ProjectStart, plan.ProjectFinish = &s, &f
	}

	position := make(map[string]int, len(sequence))
	for i, t := range sequence {
		position[t.ID] = i + 1
		plan.Sequence = append(plan.Sequence, t.ID)
	}

	for _, wave := range cpmResult.Waves {
		pw := PlanWave{
			Index:      wave.Index,
			StartHours: wave.Start.Hours(),
		}

		// Each wave depends on all previous waves
		if wave.Index > 0 {
			pw.DependsOn = []int{wave.Index - 1}
		}

		for _, taskID := range wave.TaskIDs {
			task, ok := g.Tasks[taskID]
			if !ok {
				return nil, fmt.Errorf("analysis names unknown task %s", taskID)
			}
			pt := plannedTask(task, cpmResult.Tasks[taskID], position[taskID], start)
			pw.Tasks = append(pw.Tasks, pt)
			plan.Tasks[taskID] = &pt
			if pt.Late {
				plan.AtRisk = append(plan.AtRisk, taskID)
			}
		}

		plan.Waves = append(plan.Waves, pw)
	}

	for _, id := range g.Order {
		plan.Deps.Predecessors[id] = append([]string{}, g.RevAdj[id]...)
		plan.Deps.Successors[id] = append([]string{}, g.Adj[id]...)
	}

	return plan, nil
}

func plannedTask(task *model.Task, s *cpm.TaskSchedule, position int, start time.Time) PlannedTask {
	pt := PlannedTask{
		TaskID:        task.ID,
		Title:         task.Title,
		Status:        task.Status,
		Priority:      string(task.Priority),
		IsCritical:    s.IsCritical,
		Hours:         s.Duration.Hours(),
		EarliestStart: s.ES.Hours(),
		EarliestEnd:   s.EF.Hours(),
		LatestStart:   s.LS.Hours(),
		LatestEnd:     s.LF.Hours(),
		SlackHours:    s.Slack.Hours(),
		WaveIndex:     s.Wave,
		Position:      position,
		DueDate:       task.DueDate,
	}
	if !start.IsZero() {
		ps := start.Add(s.ES)
		pf := start.Add(s.EF)
		pt.PlannedStart, pt.PlannedFinish = &ps, &pf
		pt.Late = task.DueDate != nil && !task.DueDate.IsZero() && pf.After(*task.DueDate)
	}
	return pt
}

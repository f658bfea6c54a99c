package cpm

import (
	"sort"
	"time"

	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
)

// CalculateCriticalPath indexes the snapshot and runs Analyze on it. Task ids
// must be unique: a repeated id keeps only its first task (see
// graph.TaskGraph.Repeated), so Result.Tasks then has fewer entries than tasks.
func CalculateCriticalPath(tasks []model.Task, deps []model.Dependency) (*Result, error) {
	return Analyze(graph.New(tasks, deps))
}

// Analyze performs critical path method analysis on a task graph.
// A task's duration is its EstimatedHours; a root task with a start date is
// held back by that date's offset from the earliest start date in the graph.
// A cyclic graph fails with *graph.CycleDetectedError and no partial result.
// Estimates are clamped to model.MaxEstimatedHours; graphs whose
// model.ScheduleHours exceed model.MaxScheduleHours are not representable.
func Analyze(g *graph.TaskGraph) (*Result, error) {
	order, err := g.TopoSort()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Tasks:     make(map[string]*TaskSchedule, len(order)),
		TopoOrder: order,
		Anchor:    projectAnchor(g),
	}

	for _, id := range order {
		result.Tasks[id] = &TaskSchedule{TaskID: id, Duration: g.Tasks[id].Duration()}
	}

	// Forward pass: compute ES and EF
	for _, id := range order {
		ts := result.Tasks[id]
		var es time.Duration
		if preds := g.RevAdj[id]; len(preds) == 0 {
			es = startOffset(g.Tasks[id], result.Anchor)
		} else {
			for _, pred := range preds {
				e, _ := g.Edge(pred, id)
				if c := earliestStart(rule(e.Type), result.Tasks[pred], ts.Duration); c > es {
					es = c
				}
			}
		}
		ts.ES = es
		ts.EF = es + ts.Duration
	}

	var total time.Duration
	for _, ts := range result.Tasks {
		if ts.EF > total {
			total = ts.EF
		}
	}
	result.TotalDuration = total

	// Backward pass: compute LF and LS in reverse topological order
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		ts := result.Tasks[id]

		lf := total
		for _, succ := range g.Adj[id] {
			e, _ := g.Edge(id, succ)
			if c := latestFinish(rule(e.Type), result.Tasks[succ], ts.Duration); c < lf {
				lf = c
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Duration

		ts.Slack = ts.LS - ts.ES
		ts.IsCritical = ts.Slack == 0
	}

	result.CriticalPath = criticalPath(result)
	result.Waves = computeWaves(result)

	return result, nil
}

// rule resolves an edge type through the model's semantics table. Types
// missing from the table are scheduled as finish-to-start.
func rule(t model.DependencyType) model.Semantics {
	if s, ok := t.Semantics(); ok {
		return s
	}
	s, _ := model.FinishToStart.Semantics()
	return s
}

// earliestStart is the lower bound a predecessor places on the successor's ES:
// the successor's To anchor may not precede the predecessor's From anchor.
func earliestStart(r model.Semantics, pred *TaskSchedule, succDur time.Duration) time.Duration {
	bound := pred.EF
	if r.From == model.AnchorStart {
		bound = pred.ES
	}
	if r.To == model.AnchorFinish {
		bound -= succDur
	}
	return bound
}

// latestFinish is the upper bound a successor places on the predecessor's LF.
func latestFinish(r model.Semantics, succ *TaskSchedule, predDur time.Duration) time.Duration {
	bound := succ.LS
	if r.To == model.AnchorFinish {
		bound = succ.LF
	}
	if r.From == model.AnchorStart {
		bound += predDur
	}
	return bound
}

// projectAnchor is the earliest start date among the graph's tasks.
func projectAnchor(g *graph.TaskGraph) time.Time {
	var anchor time.Time
	for _, t := range g.Tasks {
		if t.StartDate == nil || t.StartDate.IsZero() {
			continue
		}
		if anchor.IsZero() || t.StartDate.Before(anchor) {
			anchor = *t.StartDate
		}
	}
	return anchor
}

func startOffset(t *model.Task, anchor time.Time) time.Duration {
	if t.StartDate == nil || t.StartDate.IsZero() {
		return 0
	}
	if off := t.StartDate.Sub(anchor); off > 0 {
		return off
	}
	return 0
}

// criticalPath lists zero-slack tasks by earliest start, then topological position.
func criticalPath(result *Result) []string {
	pos := make(map[string]int, len(result.TopoOrder))
	path := make([]string, 0)
	for i, id := range result.TopoOrder {
		pos[id] = i
		if result.Tasks[id].IsCritical {
			path = append(path, id)
		}
	}
	sort.SliceStable(path, func(a, b int) bool {
		ea, eb := result.Tasks[path[a]].ES, result.Tasks[path[b]].ES
		if ea != eb {
			return ea < eb
		}
		return pos[path[a]] < pos[path[b]]
	})
	return path
}

// computeWaves groups tasks by their earliest start time.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[time.Duration][]string)
	for _, id := range result.TopoOrder {
		es := result.Tasks[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]time.Duration, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Slice(esValues, func(i, j int) bool { return esValues[i] < esValues[j] })

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		taskIDs := esGroups[es]
		sort.Strings(taskIDs)

		hasCritical := false
		for _, id := range taskIDs {
			result.Tasks[id].Wave = i
			if result.Tasks[id].IsCritical {
				hasCritical = true
			}
		}

		// Sort critical tasks first within wave
		sort.SliceStable(taskIDs, func(a, b int) bool {
			return result.Tasks[taskIDs[a]].IsCritical && !result.Tasks[taskIDs[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Start:      es,
			TaskIDs:    taskIDs,
			IsCritical: hasCritical,
		}
	}

	return waves
}

package cpm

import "time"

// Result holds the complete critical path analysis. All timings are offsets
// from Anchor, the earliest start date in the snapshot (zero if none).
type Result struct {
	Tasks         map[string]*TaskSchedule `json:"tasks"`
	CriticalPath  []string                 `json:"critical_path"` // critical task ids in path order
	TotalDuration time.Duration            `json:"total_duration"`
	Waves         []Wave                   `json:"waves"` // parallelizable groups
	TopoOrder     []string                 `json:"topo_order"`
	Anchor        time.Time                `json:"anchor"`
}

// TaskSchedule holds the scheduling info for a single task.
type TaskSchedule struct {
	TaskID     string        `json:"task_id"`
	Duration   time.Duration `json:"duration"`
	ES         time.Duration `json:"earliest_start"`
	EF         time.Duration `json:"earliest_finish"`
	LS         time.Duration `json:"latest_start"`
	LF         time.Duration `json:"latest_finish"`
	Slack      time.Duration `json:"slack"`
	IsCritical bool          `json:"is_critical"`
	Wave       int           `json:"wave"` // which parallel wave this belongs to
}

// Wave represents a group of tasks sharing an earliest start.
type Wave struct {
	Index      int           `json:"index"`
	Start      time.Duration `json:"start"`
	TaskIDs    []string      `json:"task_ids"`
	IsCritical bool          `json:"is_critical"` // true if wave contains critical path tasks
}

// IsCriticalTask reports whether id has zero slack.
func (r *Result) IsCriticalTask(id string) bool {
	ts, ok := r.Tasks[id]
	return ok && ts.IsCritical
}

package planner

import "time"

// TaskDeps holds per-task predecessor and successor lists for dependency tracking.
type TaskDeps struct {
	Predecessors map[string][]string `json:"predecessors"`
	Successors   map[string][]string `json:"successors"`
}

// Plan is the scheduling report for one project snapshot.
type Plan struct {
	ID            string                  `json:"id"`
	CreatedAt     time.Time               `json:"created_at"`
	ProjectID     string                  `json:"project_id,omitempty"`
	TotalTasks    int                     `json:"total_tasks"`
	TotalWaves    int                     `json:"total_waves"`
	TotalHours    float64                 `json:"total_hours"`
	WorkingDays   float64                 `json:"working_days"`
	ProjectStart  *time.Time              `json:"project_start,omitempty"`
	ProjectFinish *time.Time              `json:"project_finish,omitempty"`
	CriticalPath  []string                `json:"critical_path"`
	Sequence      []string                `json:"sequence"`
	Waves         []PlanWave              `json:"waves"`
	Tasks         map[string]*PlannedTask `json:"tasks"`
	Deps          TaskDeps                `json:"deps"`
	AtRisk        []string                `json:"at_risk"` // tasks finishing after their due date
	Config        Config                  `json:"config"`
}

// PlanWave is a group of tasks that can start at the same time.
type PlanWave struct {
	Index      int           `json:"index"`
	StartHours float64       `json:"start_hours"`
	Tasks      []PlannedTask `json:"tasks"`
	DependsOn  []int         `json:"depends_on"`
}

// PlannedTask is a single task with its schedule. Hour fields are offsets
// from the project start.
type PlannedTask struct {
	TaskID        string     `json:"task_id"`
	Title         string     `json:"title"`
	Status        string     `json:"status,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	IsCritical    bool       `json:"is_critical"`
	Hours         float64    `json:"hours"`
	EarliestStart float64    `json:"earliest_start"`
	EarliestEnd   float64    `json:"earliest_finish"`
	LatestStart   float64    `json:"latest_start"`
	LatestEnd     float64    `json:"latest_finish"`
	SlackHours    float64    `json:"slack"`
	WaveIndex     int        `json:"wave_index"`
	Position      int        `json:"position"` // 1-based place in the suggested sequence
	PlannedStart  *time.Time `json:"planned_start,omitempty"`
	PlannedFinish *time.Time `json:"planned_finish,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Late          bool       `json:"late"`
}

// Config holds plan generation settings.
type Config struct {
	ProjectID          string    `json:"project_id,omitempty"`
	HoursPerDay        int       `json:"hours_per_day"`
	StartAt            time.Time `json:"start_at,omitempty"`
	ReportTemplatePath string    `json:"report_template_path,omitempty"`
}

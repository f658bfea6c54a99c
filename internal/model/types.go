package model

import (
	"math"
	"strings"
	"time"
)

// Priority is the ordinal urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    0,
	PriorityMedium: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// Rank returns 0 (low) through 3 (urgent). Unknown priorities rank -1.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return -1
}

// ParsePriority normalises case and surrounding whitespace. Unknown values
// are returned as-is so that they rank below low instead of failing.
func ParsePriority(s string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(s)))
}

// Limits that keep schedule arithmetic inside time.Duration, which holds
// about 2.56 million hours.
const (
	// MaxEstimatedHours is the largest estimate a single task may carry.
	MaxEstimatedHours = 100_000
	// MaxScheduleHours bounds a whole snapshot: the sum of its estimates plus
	// the spread of its start dates. See ScheduleHours.
	MaxScheduleHours = 2_000_000
)

// Task is a unit of work as stored by the surrounding application.
type Task struct {
	ID             string     `json:"id" yaml:"id" validate:"required"`
	Title          string     `json:"title" yaml:"title"`
	Status         string     `json:"status" yaml:"status"`
	Priority       Priority   `json:"priority" yaml:"priority"`
	ProjectID      string     `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	StartDate      *time.Time `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	EstimatedHours float64    `json:"estimatedHours" yaml:"estimatedHours" validate:"gte=0,lte=100000"`
}

// Duration converts EstimatedHours to a time.Duration rounded to the minute.
// Negative estimates are treated as zero and estimates above
// MaxEstimatedHours as MaxEstimatedHours.
func (t Task) Duration() time.Duration {
	return time.Duration(math.Round(t.hours()*60)) * time.Minute
}

func (t Task) hours() float64 {
	h := t.EstimatedHours
	switch {
	case h <= 0 || math.IsNaN(h):
		return 0
	case h > MaxEstimatedHours:
		return MaxEstimatedHours
	}
	return h
}

// ScheduleHours is an upper bound on the length of any schedule over tasks:
// every estimate (clamped as in Duration) plus the gap between the earliest
// and latest start date.
func ScheduleHours(tasks []Task) float64 {
	var total float64
	var first, last time.Time
	for _, t := range tasks {
		total += t.hours()
		if t.StartDate == nil || t.StartDate.IsZero() {
			continue
		}
		if first.IsZero() || t.StartDate.Before(first) {
			first = *t.StartDate
		}
		if last.IsZero() || t.StartDate.After(last) {
			last = *t.StartDate
		}
	}
	if !first.IsZero() {
		total += last.Sub(first).Hours()
	}
	return total
}

// Dependency is a directed edge FromTaskID -> ToTaskID.
type Dependency struct {
	ID         string         `json:"id" yaml:"id"`
	FromTaskID string         `json:"fromTaskId" yaml:"fromTaskId"`
	ToTaskID   string         `json:"toTaskId" yaml:"toTaskId"`
	Type       DependencyType `json:"type" yaml:"type"`
}

// Pair returns the ordered (from, to) key of the edge.
func (d Dependency) Pair() [2]string {
	return [2]string{d.FromTaskID, d.ToTaskID}
}

// Package validate screens proposed dependencies before a caller persists them.
//
// Rejections are returned as a Result with a user-facing message, never as an
// error. Checks run in a fixed order and stop at the first failure:
// dangling reference, self-dependency, duplicate pair, cycle.
//
// Each cycle check is a breadth-first search from the proposed target, so a
// single check costs O(V+E). A Validator built once per snapshot can screen
// many candidates without re-indexing the graph.
package validate

import (
	"github.com/google/uuid"

	"github.com/renexus/taskdeps/internal/model"
)

// Messages returned in Result.Message.
const (
	MsgUnknownTask = "Dependency references a task that does not exist"
	MsgSelf        = "A task cannot depend on itself"
	MsgDuplicate   = "Dependency already exists"
	MsgCircular    = "This would create a circular dependency"
)

// Result is the outcome of screening one proposed edge.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func reject(msg string) Result { return Result{Valid: false, Message: msg} }

// Validator answers repeated checks against one snapshot. It owns a private
// index of the snapshot; the caller's slices are never modified.
//
// Reachability follows every existing edge, including edges whose endpoints
// are outside the task list, so a path a -> x -> b through an unlisted task
// still blocks b -> a. Only the candidate's own endpoints must be listed tasks.
type Validator struct {
	tasks map[string]bool
	adj   map[string][]string
	pairs map[[2]string]bool
}

// New indexes tasks and existing dependencies for screening.
func New(tasks []model.Task, existing []model.Dependency) *Validator {
	v := &Validator{
		tasks: make(map[string]bool, len(tasks)),
		adj:   make(map[string][]string),
		pairs: make(map[[2]string]bool, len(existing)),
	}
	for _, t := range tasks {
		v.tasks[t.ID] = true
	}
	for _, d := range existing {
		v.add(d)
	}
	return v
}

func (v *Validator) add(d model.Dependency) {
	key := d.Pair()
	if v.pairs[key] {
		return
	}
	v.pairs[key] = true
	v.adj[d.FromTaskID] = append(v.adj[d.FromTaskID], d.ToTaskID)
}

// reachable reports whether to can be reached from from by following edges
// forward.
func (v *Validator) reachable(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range v.adj[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Check screens the edge fromID -> toID.
func (v *Validator) Check(fromID, toID string) Result {
	if !v.tasks[fromID] || !v.tasks[toID] {
		return reject(MsgUnknownTask)
	}
	if fromID == toID {
		return reject(MsgSelf)
	}
	if v.pairs[[2]string{fromID, toID}] {
		return reject(MsgDuplicate)
	}
	// The new edge closes a cycle iff its source is already reachable from its target.
	if v.reachable(toID, fromID) {
		return reject(MsgCircular)
	}
	return Result{Valid: true}
}

// Accept screens d and, when valid, adds it to the validator's index so later
// checks see it. The returned Result is the screening outcome.
func (v *Validator) Accept(d model.Dependency) Result {
	res := v.Check(d.FromTaskID, d.ToTaskID)
	if res.Valid {
		v.add(d)
	}
	return res
}

// Dependency screens a single proposed edge against a snapshot.
func Dependency(tasks []model.Task, existing []model.Dependency, fromID, toID string) Result {
	return New(tasks, existing).Check(fromID, toID)
}

// CreateDependency builds a new edge between two tasks with a fresh id. It does
// not validate; call Dependency or Validator.Check first. An empty type means
// finish-to-start.
func CreateDependency(from, to model.Task, typ model.DependencyType) model.Dependency {
	if typ == "" {
		typ = model.FinishToStart
	}
	return model.Dependency{
		ID:         uuid.New().String(),
		FromTaskID: from.ID,
		ToTaskID:   to.ID,
		Type:       typ,
	}
}

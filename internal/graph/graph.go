package graph

import (
	"sort"

	"github.com/renexus/taskdeps/internal/model"
)

// New indexes a task/dependency snapshot. Array order carries no graph
// meaning; adjacency lists are sorted for deterministic traversal.
// A repeated task id keeps its first task and is listed in Repeated, so
// results built from g cover one task per id. A repeated (from, to) pair
// keeps its first occurrence. Edges naming a task
// outside the snapshot are recorded in Dangling and left out of adjacency.
// New does not reject cycles; use DetectCycle or TopoSort.
func New(tasks []model.Task, deps []model.Dependency) *TaskGraph {
	g := &TaskGraph{
		Tasks:  make(map[string]*model.Task, len(tasks)),
		Order:  make([]string, 0, len(tasks)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
		Edges:  make(map[[2]string]Edge, len(deps)),
	}

	for i := range tasks {
		if _, dup := g.Tasks[tasks[i].ID]; dup {
			g.Repeated = append(g.Repeated, tasks[i].ID)
			continue
		}
		t := cloneTask(tasks[i])
		g.Tasks[t.ID] = &t
		g.Order = append(g.Order, t.ID)
	}

	for _, d := range deps {
		_, fromOK := g.Tasks[d.FromTaskID]
		_, toOK := g.Tasks[d.ToTaskID]
		if !fromOK || !toOK {
			g.Dangling = append(g.Dangling, d)
			continue
		}
		g.addEdge(Edge{ID: d.ID, From: d.FromTaskID, To: d.ToTaskID, Type: d.Type})
	}

	g.index()
	return g
}

func cloneTask(t model.Task) model.Task {
	if t.StartDate != nil {
		d := *t.StartDate
		t.StartDate = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}

func (g *TaskGraph) addEdge(e Edge) {
	key := [2]string{e.From, e.To}
	if _, ok := g.Edges[key]; ok {
		return
	}
	if e.Type == "" {
		e.Type = model.FinishToStart
	}
	g.Edges[key] = e
	g.Adj[e.From] = append(g.Adj[e.From], e.To)
	g.RevAdj[e.To] = append(g.RevAdj[e.To], e.From)
}

// index sorts adjacency lists and recomputes roots and leaves.
func (g *TaskGraph) index() {
	for k := range g.Adj {
		sort.Strings(g.Adj[k])
	}
	for k := range g.RevAdj {
		sort.Strings(g.RevAdj[k])
	}

	g.Roots = g.Roots[:0]
	g.Leaves = g.Leaves[:0]
	for _, id := range g.sortedIDs() {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}
}

func (g *TaskGraph) sortedIDs() []string {
	ids := make([]string, 0, len(g.Tasks))
	for id := range g.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edge returns the edge from -> to, if present.
func (g *TaskGraph) Edge(from, to string) (Edge, bool) {
	e, ok := g.Edges[[2]string{from, to}]
	return e, ok
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// EdgeCount returns the number of distinct in-snapshot edges.
func (g *TaskGraph) EdgeCount() int {
	return len(g.Edges)
}

// Reachable reports whether to can be reached from from by following edges
// forward. A node reaches itself.
func (g *TaskGraph) Reachable(from, to string) bool {
	return reachable(g.Adj, from, to)
}

func reachable(adj map[string][]string, from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range adj[node] {
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

// TopoSort performs Kahn's algorithm. Ready tasks are released in id order.
func (g *TaskGraph) TopoSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.Tasks))
	for id := range g.Tasks {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for _, id := range g.sortedIDs() {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Tasks))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Strings(newReady)
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Tasks) {
		return nil, &CycleDetectedError{
			Cycle:  g.DetectCycle(),
			Sorted: len(order),
			Total:  len(g.Tasks),
		}
	}
	return order, nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.sortedIDs() {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Filter returns a new TaskGraph containing only tasks matching the predicate
// and the edges between them.
func (g *TaskGraph) Filter(pred func(*model.Task) bool) *TaskGraph {
	var tasks []model.Task
	keep := make(map[string]bool)
	for _, id := range g.Order {
		t := g.Tasks[id]
		if pred(t) {
			tasks = append(tasks, *t)
			keep[id] = true
		}
	}

	_, all := g.Snapshot()
	var deps []model.Dependency
	for _, d := range all {
		if keep[d.FromTaskID] && keep[d.ToTaskID] {
			deps = append(deps, d)
		}
	}
	return New(tasks, deps)
}

// SortedEdges returns the in-snapshot edges ordered by (from, to).
func (g *TaskGraph) SortedEdges() []Edge {
	out := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// Snapshot returns copies of the graph's tasks in input order and its
// in-snapshot edges ordered by (from, to). Dangling edges are not included.
func (g *TaskGraph) Snapshot() ([]model.Task, []model.Dependency) {
	tasks := make([]model.Task, 0, len(g.Order))
	for _, id := range g.Order {
		tasks = append(tasks, cloneTask(*g.Tasks[id]))
	}
	edges := g.SortedEdges()
	deps := make([]model.Dependency, 0, len(edges))
	for _, e := range edges {
		deps = append(deps, model.Dependency{ID: e.ID, FromTaskID: e.From, ToTaskID: e.To, Type: e.Type})
	}
	return tasks, deps
}

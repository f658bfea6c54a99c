package sequence

type candidate struct {
	id       string
	critical bool
	priority int
	due      int64
	hasDue   bool
}

// before reports whether a should be scheduled ahead of b: critical first,
// higher priority, earlier due date (undated last), then lower id.
func before(a, b candidate) bool {
	if a.critical != b.critical {
		return a.critical
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	if a.hasDue != b.hasDue {
		return a.hasDue
	}
	if a.hasDue && a.due != b.due {
		return a.due < b.due
	}
	return a.id < b.id
}

// readySet is a min-heap under before.
type readySet struct {
	items []candidate
}

func (r *readySet) Len() int           { return len(r.items) }
func (r *readySet) Less(i, j int) bool { return before(r.items[i], r.items[j]) }
func (r *readySet) Swap(i, j int)      { r.items[i], r.items[j] = r.items[j], r.items[i] }
func (r *readySet) Push(x any)         { r.items = append(r.items, x.(candidate)) }
func (r *readySet) Pop() any {
	old := r.items
	n := len(old)
	x := old[n-1]
	r.items = old[:n-1]
	return x
}

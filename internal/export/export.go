// Package export turns a project snapshot into a renderable dependency graph.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/renexus/taskdeps/internal/model"
)

// Node is one task in a GraphView.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Status   string         `json:"status,omitempty"`
	Priority model.Priority `json:"priority,omitempty"`
}

// Edge is one dependency in a GraphView.
type Edge struct {
	ID   string               `json:"id"`
	From string               `json:"from"`
	To   string               `json:"to"`
	Type model.DependencyType `json:"type"`
}

// GraphView is a presentation-ready graph with no timing information.
type GraphView struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// GenerateDependencyGraph maps every task to a node and every dependency to an
// edge, keeping input order. Dependencies are passed through as given.
func GenerateDependencyGraph(tasks []model.Task, deps []model.Dependency) *GraphView {
	view := &GraphView{
		Nodes: make([]Node, 0, len(tasks)),
		Edges: make([]Edge, 0, len(deps)),
	}
	for _, t := range tasks {
		label := t.Title
		if label == "" {
			label = t.ID
		}
		view.Nodes = append(view.Nodes, Node{
			ID:       t.ID,
			Label:    label,
			Status:   t.Status,
			Priority: t.Priority,
		})
	}
	for _, d := range deps {
		typ := d.Type
		if typ == "" {
			typ = model.FinishToStart
		}
		view.Edges = append(view.Edges, Edge{
			ID:   d.ID,
			From: d.FromTaskID,
			To:   d.ToTaskID,
			Type: typ,
		})
	}
	return view
}

// WriteJSON writes view as indented JSON.
func WriteJSON(w io.Writer, view *GraphView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

// WriteDOT renders view as a Graphviz digraph. Tasks for which critical
// returns true are drawn bold red, as are edges joining two of them. Edges
// other than finish-to-start carry their short type as a label.
func WriteDOT(w io.Writer, view *GraphView, critical func(id string) bool) error {
	if critical == nil {
		critical = func(string) bool { return false }
	}
	p := &dotPrinter{w: w}

	p.line("digraph taskdeps {")
	p.line("  rankdir=LR;")
	p.line("  node [shape=box, style=rounded];")
	p.line("")

	for _, n := range view.Nodes {
		attrs := fmt.Sprintf(`label="%s\n%s"`, escape(n.ID), escape(n.Label))
		if critical(n.ID) {
			attrs += `, style="rounded,bold", color=red`
		}
		p.line(fmt.Sprintf("  %q [%s];", n.ID, attrs))
	}

	p.line("")

	for _, e := range view.Edges {
		var attrs []string
		if short := e.Type.Short(); e.Type != model.FinishToStart && short != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", short))
		}
		if critical(e.From) && critical(e.To) {
			attrs = append(attrs, "color=red", "penwidth=2")
		}
		style := ""
		if len(attrs) > 0 {
			style = " [" + strings.Join(attrs, ", ") + "]"
		}
		p.line(fmt.Sprintf("  %q -> %q%s;", e.From, e.To, style))
	}

	p.line("}")
	return p.err
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

type dotPrinter struct {
	w   io.Writer
	err error
}

func (p *dotPrinter) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

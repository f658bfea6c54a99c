package model

import (
	"fmt"
	"strings"
)

// DependencyType names a precedence relationship between two tasks.
type DependencyType string

const (
	FinishToStart  DependencyType = "finish-to-start"
	StartToStart   DependencyType = "start-to-start"
	FinishToFinish DependencyType = "finish-to-finish"
	StartToFinish  DependencyType = "start-to-finish"
)

// Anchor is the point of a task an edge attaches to.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorFinish
)

func (a Anchor) String() string {
	if a == AnchorFinish {
		return "finish"
	}
	return "start"
}

// Semantics describes one relationship type: the successor's To anchor may
// not occur before the predecessor's From anchor.
type Semantics struct {
	Type  DependencyType
	Short string
	From  Anchor
	To    Anchor
}

// semantics is the dependency-type table. A new relationship type is a new row.
var semantics = []Semantics{
	{Type: FinishToStart, Short: "FS", From: AnchorFinish, To: AnchorStart},
	{Type: StartToStart, Short: "SS", From: AnchorStart, To: AnchorStart},
	{Type: FinishToFinish, Short: "FF", From: AnchorFinish, To: AnchorFinish},
	{Type: StartToFinish, Short: "SF", From: AnchorStart, To: AnchorFinish},
}

var byType = func() map[DependencyType]Semantics {
	m := make(map[DependencyType]Semantics, len(semantics))
	for _, s := range semantics {
		m[s.Type] = s
	}
	return m
}()

// Types lists every known dependency type in table order.
func Types() []DependencyType {
	out := make([]DependencyType, len(semantics))
	for i, s := range semantics {
		out[i] = s.Type
	}
	return out
}

// IsValid reports whether t has a row in the semantics table.
func (t DependencyType) IsValid() bool {
	_, ok := byType[t]
	return ok
}

// Semantics returns the table row for t. The empty type resolves to
// finish-to-start; unknown types report ok=false.
func (t DependencyType) Semantics() (Semantics, bool) {
	if t == "" {
		t = FinishToStart
	}
	s, ok := byType[t]
	return s, ok
}

// Short returns the two-letter code (FS, SS, FF, SF).
func (t DependencyType) Short() string {
	if s, ok := t.Semantics(); ok {
		return s.Short
	}
	return string(t)
}

// ParseDependencyType accepts the canonical names, the two-letter codes and
// UPPER_SNAKE spellings (FINISH_TO_START). Empty input means finish-to-start.
func ParseDependencyType(s string) (DependencyType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return FinishToStart, nil
	}
	norm = strings.ReplaceAll(norm, "_", "-")
	for _, row := range semantics {
		if norm == string(row.Type) || norm == strings.ToLower(row.Short) {
			return row.Type, nil
		}
	}
	return "", fmt.Errorf("unknown dependency type %q", s)
}

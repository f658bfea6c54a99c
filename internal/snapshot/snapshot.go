// Package snapshot loads and stores the task and dependency lists that the
// engine operates on. Sources are read-only except for SaveFile.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/renexus/taskdeps/internal/model"
)

// ErrMalformed is returned when a snapshot document cannot be interpreted.
var ErrMalformed = errors.New("malformed snapshot")

// Snapshot is one project's tasks and dependencies at a point in time.
type Snapshot struct {
	ProjectID    string             `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	Tasks        []model.Task       `json:"tasks" yaml:"tasks"`
	Dependencies []model.Dependency `json:"dependencies" yaml:"dependencies"`
}

// Source produces a snapshot for a project.
type Source interface {
	Load(ctx context.Context, projectID string) (*Snapshot, error)
}

// File is a Source backed by a JSON or YAML document on disk.
type File struct {
	Path string
}

// Load reads the file. A non-empty projectID keeps only that project's tasks
// when the tasks carry a project id.
func (f File) Load(_ context.Context, projectID string) (*Snapshot, error) {
	snap, err := LoadFile(f.Path)
	if err != nil {
		return nil, err
	}
	if projectID == "" || snap.ProjectID == projectID {
		return snap, nil
	}
	return snap.ForProject(projectID), nil
}

// ForProject returns the tasks whose ProjectID matches (or is unset) together
// with every dependency touching one of them.
func (s *Snapshot) ForProject(projectID string) *Snapshot {
	out := &Snapshot{ProjectID: projectID, Tasks: []model.Task{}, Dependencies: []model.Dependency{}}
	keep := make(map[string]bool)
	for _, t := range s.Tasks {
		if t.ProjectID == "" || t.ProjectID == projectID {
			out.Tasks = append(out.Tasks, t)
			keep[t.ID] = true
		}
	}
	for _, d := range s.Dependencies {
		if keep[d.FromTaskID] || keep[d.ToTaskID] {
			out.Dependencies = append(out.Dependencies, d)
		}
	}
	return out
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile reads a snapshot document. Files ending in .yaml or .yml are YAML;
// everything else is parsed as JSON.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if isYAML(path) {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseYAML decodes a YAML snapshot and normalises dependency types.
func ParseYAML(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := normalise(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func normalise(snap *Snapshot) error {
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	if snap.Dependencies == nil {
		snap.Dependencies = []model.Dependency{}
	}
	for i := range snap.Tasks {
		snap.Tasks[i].Priority = model.ParsePriority(string(snap.Tasks[i].Priority))
	}
	for i := range snap.Dependencies {
		d := &snap.Dependencies[i]
		typ, err := model.ParseDependencyType(string(d.Type))
		if err != nil {
			return fmt.Errorf("%w: dependency %d: %v", ErrMalformed, i, err)
		}
		d.Type = typ
	}
	return nil
}

// SaveFile writes snap as YAML or indented JSON, chosen by extension.
func SaveFile(path string, snap *Snapshot) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(snap)
	} else {
		data, err = json.MarshalIndent(snap, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

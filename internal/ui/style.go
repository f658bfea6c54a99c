package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/renexus/taskdeps/internal/model"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the colored taskdeps banner to w.
func PrintBanner(w io.Writer) {
	frame := color.New(color.FgCyan)
	nodes := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	nodes.Fprintln(w, "   |  o--o--o     o--o--o     |")
	nodes.Fprintln(w, "   |         \\   /           |")
	brand.Fprintln(w, "   |   T A S K D E P S        |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Dependency analysis and scheduling\n", Dim("🔗"))
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskID returns the task id in its palette color.
// Each task ID gets a distinct color from the palette.
func TaskID(taskID string) string {
	return taskColors[taskColorIndex(taskID)](taskID)
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status string) string {
	switch strings.ToLower(strings.ReplaceAll(status, "_", "-")) {
	case "done", "completed", "closed":
		return Green("✓")
	case "in-progress", "running":
		return Cyan("●")
	case "blocked":
		return Red("✗")
	case "cancelled", "canceled":
		return Dim("⊘")
	default:
		return Dim("◌")
	}
}

// PriorityLabel returns a colored priority name.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return BoldRed("urgent")
	case model.PriorityHigh:
		return Yellow("high")
	case model.PriorityMedium:
		return string(p)
	case model.PriorityLow:
		return Dim("low")
	case "":
		return Dim("-")
	default:
		return Dim(string(p))
	}
}

// Hours formats a duration as hours, dropping trailing zeros.
func Hours(d time.Duration) string {
	s := fmt.Sprintf("%.2f", d.Hours())
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s + "h"
}

// Valid returns a green check or the red rejection message.
func Valid(ok bool, message string) string {
	if ok {
		return BoldGreen("✅ valid")
	}
	return BoldRed("❌ " + message)
}

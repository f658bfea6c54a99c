package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/renexus/taskdeps/internal/cpm"
	"github.com/renexus/taskdeps/internal/engine"
	"github.com/renexus/taskdeps/internal/planner"
	"github.com/renexus/taskdeps/internal/snapshot"
	"github.com/renexus/taskdeps/internal/ui"
)

func printPlan(plan *planner.Plan) {
	blocked := 0
	for _, preds := range plan.Deps.Predecessors {
		if len(preds) > 0 {
			blocked++
		}
	}

	maxWaveWidth := 0
	for _, w := range plan.Waves {
		if len(w.Tasks) > maxWaveWidth {
			maxWaveWidth = len(w.Tasks)
		}
	}

	fmt.Printf("🎯 %s\n", ui.BoldCyan("Project Plan"))
	fmt.Println(ui.Cyan("════════════"))
	fmt.Println()
	fmt.Printf("Tasks:     %s total, %s with predecessors\n", ui.Bold(plan.TotalTasks), ui.Bold(blocked))
	fmt.Printf("⚡ Critical path: %s (%d tasks, %s)\n",
		ui.BoldYellow(strings.Join(plan.CriticalPath, " → ")), len(plan.CriticalPath),
		ui.Hours(time.Duration(plan.TotalHours*float64(time.Hour))))
	fmt.Printf("Waves:     %s (%d tasks in widest wave)\n", ui.Bold(plan.TotalWaves), maxWaveWidth)
	if plan.ProjectStart != nil {
		fmt.Printf("Window:    %s → %s\n", plan.ProjectStart.Format("2006-01-02 15:04"), plan.ProjectFinish.Format("2006-01-02 15:04"))
	}
	fmt.Println()

	for _, wave := range plan.Waves {
		depStr := ui.Dim("independent")
		if wave.Index > 0 {
			depStr = ui.Dim(fmt.Sprintf("after wave %d", wave.Index))
		}
		fmt.Printf("🌊 %s %d (%d tasks, %s):\n", ui.BoldWhite("Wave"), wave.Index+1, len(wave.Tasks), depStr)
		for _, t := range wave.Tasks {
			crit := ""
			if t.IsCritical {
				crit = "  " + ui.BoldYellow("⚡ critical")
			}
			late := ""
			if t.Late {
				late = "  " + ui.BoldRed("⏰ late")
			}
			fmt.Printf("  %s %s  %s%s%s\n", ui.StatusIcon(t.Status), ui.TaskID(t.TaskID), t.Title, crit, late)
		}
		fmt.Println()
	}
}

func printCriticalPath(snap *snapshot.Snapshot, result *cpm.Result) {
	fmt.Printf("⚡ %s %s (%s)\n", ui.BoldCyan("Critical path:"),
		ui.BoldYellow(strings.Join(result.CriticalPath, " → ")), ui.Bold(ui.Hours(result.TotalDuration)))
	fmt.Println()
	fmt.Printf("  %-14s %8s %8s %8s %8s %8s %8s\n", "TASK", "DUR", "ES", "EF", "LS", "LF", "SLACK")
	for _, t := range snap.Tasks {
		s, ok := result.Tasks[t.ID]
		if !ok {
			continue
		}
		row := fmt.Sprintf("%8s %8s %8s %8s %8s %8s",
			ui.Hours(s.Duration), ui.Hours(s.ES), ui.Hours(s.EF), ui.Hours(s.LS), ui.Hours(s.LF), ui.Hours(s.Slack))
		id := fmt.Sprintf("%-14s", t.ID)
		if s.IsCritical {
			fmt.Printf("  %s %s\n", ui.BoldYellow(id), row)
		} else {
			fmt.Printf("  %s %s\n", id, ui.Dim(row))
		}
	}
}

func printSequence(a *engine.Analysis) {
	fmt.Printf("📋 %s\n", ui.BoldCyan("Suggested sequence"))
	fmt.Println()
	for i, t := range a.Sequence {
		crit := ""
		if a.CPM.IsCriticalTask(t.ID) {
			crit = "  " + ui.BoldYellow("⚡")
		}
		fmt.Printf("%3d. %s  %s  %s%s\n", i+1, ui.TaskID(t.ID), t.Title, ui.PriorityLabel(t.Priority), crit)
	}
}

package planner

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"
)

const defaultReportTemplate = `# Project plan {{.ID}}
{{- if .ProjectID}}

Project: {{.ProjectID}}
{{- end}}

- Tasks: {{.TotalTasks}} in {{.TotalWaves}} waves
- Duration: {{hours .TotalHours}} ({{printf "%.1f" .WorkingDays}} working days at {{.Config.HoursPerDay}}h/day)
{{- if .ProjectStart}}
- Window: {{date .ProjectStart}} to {{date .ProjectFinish}}
{{- end}}
- Critical path: {{if .CriticalPath}}{{join .CriticalPath " -> "}}{{else}}none{{end}}

## Suggested sequence
{{range $i, $id := .Sequence}}{{with index $.Tasks $id}}
{{.Position}}. {{.TaskID}} {{.Title}}{{if .IsCritical}} (critical){{else}} (slack {{hours .SlackHours}}){{end}}
{{- end}}{{end}}

## Waves
{{range .Waves}}
### Wave {{inc .Index}} (starts at {{hours .StartHours}})
{{range .Tasks}}
- {{.TaskID}}: {{hours .EarliestStart}} to {{hours .EarliestEnd}}{{if .IsCritical}}, critical{{end}}
{{- end}}
{{end}}
{{- if .AtRisk}}
## At risk

These tasks finish after their due date:
{{range .AtRisk}}
- {{.}}
{{- end}}
{{end}}`

var reportFuncs = template.FuncMap{
	"join": strings.Join,
	"inc":  func(i int) int { return i + 1 },
	"hours": func(h float64) string {
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".") + "h"
	},
	"date": func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
}

// RenderReport renders a Markdown report for plan using either a custom
// template file or the default.
func RenderReport(plan *Plan, templatePath string) (string, error) {
	tmplStr := defaultReportTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", err
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, plan); err != nil {
		return "", err
	}
	return buf.String(), nil
}

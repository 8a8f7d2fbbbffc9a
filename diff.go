package dirorg

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	previewHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mkdirStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	moveStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	mergeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	skipStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	rationaleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// RenderPlan produces the preview shown before confirmation. Pure and
// deterministic: the same plan always renders to the same string, with
// actions grouped by kind in plan order.
func RenderPlan(plan *Plan, dryRun bool) string {
	var b strings.Builder

	header := "Proposed changes"
	if dryRun {
		header = "Proposed changes (dry-run, nothing will be applied)"
	}
	b.WriteString(previewHeaderStyle.Render(header) + "\n")

	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}

	renderGroup := func(title string, style lipgloss.Style, kind ActionKind, format func(MoveAction) string) {
		var lines []string
		for _, a := range plan.Actions {
			if a.Kind != kind {
				continue
			}
			line := "  " + prefix + format(a)
			if a.Rationale != "" {
				line += rationaleStyle.Render("  # " + a.Rationale)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			return
		}
		b.WriteString("\n" + style.Render(title) + "\n")
		b.WriteString(strings.Join(lines, "\n") + "\n")
	}

	renderGroup("New directories:", mkdirStyle, ActionMkdir, func(a MoveAction) string {
		return a.Dest + "/"
	})
	renderGroup("Moves:", moveStyle, ActionMove, func(a MoveAction) string {
		return fmt.Sprintf("%s -> %s", a.Source, a.Dest)
	})
	renderGroup("Merges:", mergeStyle, ActionMerge, func(a MoveAction) string {
		return fmt.Sprintf("%s => %s", a.Source, a.Dest)
	})
	renderGroup("Skipped by provider:", skipStyle, ActionSkip, func(a MoveAction) string {
		return a.Source
	})

	return b.String()
}

package dirorg

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	failStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("197"))
	skipStatusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type spinner struct {
	frames []string
	index  int
}

func newSpinner() spinner {
	return spinner{frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}}
}

func (s *spinner) tick()       { s.index = (s.index + 1) % len(s.frames) }
func (s spinner) View() string { return s.frames[s.index] }

// withSpinner runs fn while animating a one-line status, used for the
// provider call which is the only long-running step.
func withSpinner(label string, disabled bool, fn func() error) error {
	if disabled {
		return fn()
	}

	sp := newSpinner()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(100 * time.Millisecond):
				sp.tick()
				fmt.Printf("\r%s %s\x1b[K", sp.View(), label)
			}
		}
	}()

	err := fn()
	close(done)
	fmt.Print("\r\x1b[K")
	return err
}

// FormatSummary renders the final run report with per-status sections
// and a succeeded/failed/skipped count line.
func FormatSummary(s *RunSummary) string {
	var b strings.Builder

	if s.Message != "" {
		b.WriteString(summaryHeaderStyle.Render(s.Message) + "\n\n")
	}

	renderList := func(title string, style lipgloss.Style, list []string) {
		if len(list) == 0 {
			return
		}
		b.WriteString(style.Render(title) + "\n")
		for _, line := range list {
			if s.DryRun {
				line = "[dry-run] " + line
			}
			b.WriteString(fmt.Sprintf("  %s\n", line))
		}
	}

	renderList("Applied:", okStyle, s.Succeeded)
	renderList("Failed:", failStyle, s.Failed)
	renderList("Skipped:", skipStatusStyle, s.Skipped)

	ok, fail, skip := s.Counts()
	counts := fmt.Sprintf("%d succeeded, %d failed, %d skipped", ok, fail, skip)
	if s.DryRun {
		counts = "dry-run: " + counts
	}
	b.WriteString(summaryHeaderStyle.Render(counts) + "\n")

	return b.String()
}

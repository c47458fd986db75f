package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covercare/covercare-cli/verification"
)

// Step is the interface that all wizard steps must implement.
type Step interface {
	// Title returns the step's display title.
	Title() string
	// Icon returns the step's icon/emoji.
	Icon() string
	// Init returns the initial command for this step.
	Init() tea.Cmd
	// Update handles messages and returns the updated step and command.
	Update(msg tea.Msg) (Step, tea.Cmd)
	// View renders the step content.
	View(width int) string
	// Summary returns a one-line summary for the collapsed view.
	Summary() string
	// Load refreshes the step from the current answers and field errors.
	Load(form verification.Form, errs verification.FieldErrors)
}

// SubmitAware is implemented by steps that render submission state.
type SubmitAware interface {
	SetSubmitState(submitting bool, err error) tea.Cmd
}

// RenderHeader renders "Step N of M" above a progress bar.
func RenderHeader(bar progress.Model, current, total int, styles *StyleSet, width int) string {
	label := styles.SecondaryTxt.Render(fmt.Sprintf("Step %d of %d", current, total))

	barWidth := width - 8
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 56 {
		barWidth = 56
	}
	bar.Width = barWidth

	return fmt.Sprintf("  %s\n  %s\n", label, bar.ViewAs(float64(current)/float64(total)))
}

// RenderProgress renders the completed steps followed by the active one.
func RenderProgress(steps []Step, current int, styles *StyleSet, width int) string {
	var out string

	for i := 0; i < current; i++ {
		badge := styles.StepBadgeComplete.Render(" ✓ ")
		title := styles.PrimaryTxt.Bold(true).Render(steps[i].Title())
		out += fmt.Sprintf("  %s  %s\n", badge, title)
		if summary := steps[i].Summary(); summary != "" {
			out += fmt.Sprintf("       %s\n", styles.SecondaryTxt.Render(summary))
		}
		out += "\n"
	}

	if current < len(steps) {
		numStr := fmt.Sprintf(" %d ", current+1)
		badge := styles.StepBadgeActive.Render(numStr)
		heading := steps[current].Icon() + "  " + steps[current].Title()
		title := styles.PrimaryTxt.Bold(true).Render(heading)
		dividerLen := width - 10 - lipgloss.Width(numStr) - lipgloss.Width(heading)
		if dividerLen < 2 {
			dividerLen = 2
		}
		divider := styles.DimTxt.Render(" " + strings.Repeat("─", dividerLen))
		out += fmt.Sprintf("  %s  %s%s\n", badge, title, divider)
	}

	return out
}

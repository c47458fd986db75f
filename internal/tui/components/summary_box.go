package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// SummaryRow represents a key-value pair in the summary.
type SummaryRow struct {
	Key   string
	Value string
}

// SummaryBox renders a 2-column key/value grid in a bordered box. Empty
// values are shown as a dimmed placeholder.
type SummaryBox struct {
	Title string
	Rows  []SummaryRow

	// Styles
	TitleStyle  lipgloss.Style
	KeyStyle    lipgloss.Style
	ValueStyle  lipgloss.Style
	EmptyStyle  lipgloss.Style
	BorderStyle lipgloss.Style
}

// View renders the summary box.
func (s SummaryBox) View(width int) string {
	boxWidth := width - 8
	if boxWidth < 30 {
		boxWidth = 30
	}

	var content string
	if s.Title != "" {
		content += s.TitleStyle.Render(s.Title) + "\n\n"
	}
	for _, row := range s.Rows {
		key := s.KeyStyle.Width(16).Render(row.Key)
		value := s.ValueStyle.Render(row.Value)
		if row.Value == "" {
			value = s.EmptyStyle.Render("not provided")
		}
		content += fmt.Sprintf("%s  %s\n", key, value)
	}

	return "  " + s.BorderStyle.Width(boxWidth).Render(content)
}

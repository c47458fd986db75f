package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/components"
	"github.com/covercare/covercare-cli/verification"
)

func fieldStyles(styles *tui.StyleSet) components.FieldStyles {
	return components.FieldStyles{
		Accent:      styles.Theme.Accent,
		Label:       styles.PrimaryTxt.Bold(true),
		Border:      styles.InactiveBorder.Padding(0, 1),
		FocusBorder: styles.ActiveBorder.Padding(0, 1),
		ErrorBorder: styles.ErrorBorder.Padding(0, 1),
		Error:       styles.ErrorTxt,
		Hint:        styles.DimTxt,
	}
}

func selectColors(styles *tui.StyleSet) components.SelectColors {
	return components.SelectColors{
		Accent:       styles.Theme.Accent,
		Primary:      styles.Theme.Primary,
		Secondary:    styles.Theme.Secondary,
		Dim:          styles.Theme.Dim,
		Border:       styles.Theme.Border,
		ActiveBorder: styles.Theme.ActiveBorder,
		Error:        styles.Theme.Error,
	}
}

func kbd(styles *tui.StyleSet, bindings []components.KeyBinding) components.KbdHint {
	return components.NewKbdHint(styles.KbdKey, styles.KbdDesc, bindings...)
}

func heading(styles *tui.StyleSet, step verification.Step, subtitle string) string {
	out := "  " + styles.Title.Render(step.Title()) + "\n"
	if subtitle != "" {
		out += "  " + styles.Subtitle.Render(subtitle) + "\n"
	}
	return out + "\n"
}

func notice(styles *tui.StyleSet, msg string, width int) string {
	w := width - 8
	if w < 30 {
		w = 30
	}
	return "  " + styles.NoticeBox.Width(w).Render(msg) + "\n"
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

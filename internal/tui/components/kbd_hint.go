package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a keyboard shortcut hint.
type KeyBinding struct {
	Key  string
	Desc string
}

// KbdHint renders a horizontal keyboard shortcut hint bar.
type KbdHint struct {
	Bindings  []KeyBinding
	KeyStyle  lipgloss.Style
	DescStyle lipgloss.Style
}

// NewKbdHint creates a KbdHint with the given styles and bindings.
func NewKbdHint(keyStyle, descStyle lipgloss.Style, bindings ...KeyBinding) KbdHint {
	return KbdHint{
		Bindings:  bindings,
		KeyStyle:  keyStyle,
		DescStyle: descStyle,
	}
}

// View renders the keyboard hints.
func (k KbdHint) View() string {
	var parts []string
	for _, b := range k.Bindings {
		parts = append(parts, k.KeyStyle.Render(b.Key)+" "+k.DescStyle.Render(b.Desc))
	}
	return "  " + strings.Join(parts, "    ")
}

// FormHints returns hints for steps made of text fields.
func FormHints(canGoBack bool) []KeyBinding {
	hints := []KeyBinding{
		{Key: "tab", Desc: "next field"},
		{Key: "⏎", Desc: "continue"},
	}
	if canGoBack {
		hints = append(hints, KeyBinding{Key: "esc", Desc: "back"})
	}
	return append(hints, KeyBinding{Key: "ctrl+c", Desc: "quit"})
}

// SelectHints returns hints for list choices.
func SelectHints() []KeyBinding {
	return []KeyBinding{
		{Key: "↑↓", Desc: "navigate"},
		{Key: "⏎", Desc: "select"},
		{Key: "esc", Desc: "back"},
		{Key: "ctrl+c", Desc: "quit"},
	}
}

// PickerHints returns hints for the file browser.
func PickerHints() []KeyBinding {
	return []KeyBinding{
		{Key: "↑↓", Desc: "navigate"},
		{Key: "→/⏎", Desc: "open"},
		{Key: "←", Desc: "parent"},
		{Key: "q", Desc: "cancel"},
	}
}

// ReviewHints returns hints for the review step.
func ReviewHints() []KeyBinding {
	return []KeyBinding{
		{Key: "⏎", Desc: "submit"},
		{Key: "esc", Desc: "back"},
		{Key: "ctrl+c", Desc: "quit"},
	}
}

package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FieldStyles groups the styles a form field renders with.
type FieldStyles struct {
	Accent      lipgloss.Color
	Label       lipgloss.Style
	Border      lipgloss.Style
	FocusBorder lipgloss.Style
	ErrorBorder lipgloss.Style
	Error       lipgloss.Style
	Hint        lipgloss.Style
}

// TextInput is a labelled text field wrapping bubbles/textinput. It does not
// validate; errors are set from outside with SetError.
type TextInput struct {
	Label  string
	Hint   string
	input  textinput.Model
	err    string
	styles FieldStyles
}

// NewTextInput creates a blurred text field.
func NewTextInput(label, placeholder string, charLimit int, styles FieldStyles) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Accent)
	ti.Prompt = ""

	return TextInput{
		Label:  label,
		input:  ti,
		styles: styles,
	}
}

// Init starts the cursor blinking.
func (t TextInput) Init() tea.Cmd {
	if t.input.Focused() {
		return textinput.Blink
	}
	return nil
}

// Update forwards messages to the underlying input when it is focused.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if !t.input.Focused() {
		return t, nil
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return t, cmd
}

// View renders the label, the bordered input and any error below it.
func (t TextInput) View(width int) string {
	var out string

	out += "  " + t.styles.Label.Render(t.Label) + "\n"

	inputWidth := width - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	t.input.Width = inputWidth - 2

	border := t.styles.Border
	switch {
	case t.err != "":
		border = t.styles.ErrorBorder
	case t.input.Focused():
		border = t.styles.FocusBorder
	}
	out += "  " + border.Width(inputWidth).Render(t.input.View()) + "\n"

	switch {
	case t.err != "":
		out += "  " + t.styles.Error.Render("✗ "+t.err) + "\n"
	case t.Hint != "" && t.input.Focused():
		out += "  " + t.styles.Hint.Render(t.Hint) + "\n"
	}
	return out
}

// Focus gives the field keyboard focus.
func (t *TextInput) Focus() tea.Cmd {
	return t.input.Focus()
}

// Blur removes keyboard focus.
func (t *TextInput) Blur() {
	t.input.Blur()
}

// Focused reports whether the field has keyboard focus.
func (t TextInput) Focused() bool {
	return t.input.Focused()
}

// Value returns the raw input value.
func (t TextInput) Value() string {
	return t.input.Value()
}

// SetValue replaces the input value when it differs, keeping the cursor
// where it is otherwise.
func (t *TextInput) SetValue(v string) {
	if t.input.Value() != v {
		t.input.SetValue(v)
	}
}

// SetError sets or, with "", clears the inline error.
func (t *TextInput) SetError(msg string) {
	t.err = msg
}

// Err returns the inline error.
func (t TextInput) Err() string {
	return t.err
}

package steps

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/components"
	"github.com/covercare/covercare-cli/verification"
)

// PersonalStep collects full name, email and phone number.
type PersonalStep struct {
	styles *tui.StyleSet
	fields []verification.Field
	inputs []components.TextInput
	focus  int
	form   verification.Form
	kbd    components.KbdHint
}

// NewPersonalStep creates the first wizard step.
func NewPersonalStep(styles *tui.StyleSet) *PersonalStep {
	fs := fieldStyles(styles)

	name := components.NewTextInput(verification.FieldName.Label(), "Jane Doe", 100, fs)
	email := components.NewTextInput(verification.FieldEmail.Label(), "jane@example.com", 254, fs)
	phone := components.NewTextInput(verification.FieldPhoneNumber.Label(), "5551234567", 20, fs)
	phone.Hint = "10 to 12 digits; spaces, dashes and brackets are ignored"

	return &PersonalStep{
		styles: styles,
		fields: []verification.Field{verification.FieldName, verification.FieldEmail, verification.FieldPhoneNumber},
		inputs: []components.TextInput{name, email, phone},
		kbd:    kbd(styles, components.FormHints(false)),
	}
}

func (s *PersonalStep) Title() string { return verification.StepPersonal.Title() }
func (s *PersonalStep) Icon() string  { return "👤" }

func (s *PersonalStep) Init() tea.Cmd {
	return s.setFocus(s.focus)
}

func (s *PersonalStep) setFocus(i int) tea.Cmd {
	s.focus = i
	var cmd tea.Cmd
	for j := range s.inputs {
		if j == i {
			cmd = s.inputs[j].Focus()
		} else {
			s.inputs[j].Blur()
		}
	}
	return cmd
}

func (s *PersonalStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % len(s.inputs))
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + len(s.inputs) - 1) % len(s.inputs))
		case "enter":
			return s, emit(tui.StepCompleteMsg{Values: s.values()})
		}
	}

	before := s.inputs[s.focus].Value()
	updated, cmd := s.inputs[s.focus].Update(msg)
	s.inputs[s.focus] = updated

	if after := updated.Value(); after != before {
		changed := emit(tui.FieldChangedMsg{Field: s.fields[s.focus], Value: after})
		return s, tea.Batch(cmd, changed)
	}
	return s, cmd
}

// values returns the cleaned answers of every field.
func (s *PersonalStep) values() map[verification.Field]string {
	out := make(map[verification.Field]string, len(s.fields))
	for i, f := range s.fields {
		out[f] = verification.CleanText(s.inputs[i].Value())
	}
	return out
}

func (s *PersonalStep) View(width int) string {
	out := heading(s.styles, verification.StepPersonal, "Tell us who you are.")
	for _, in := range s.inputs {
		out += in.View(width) + "\n"
	}
	out += s.kbd.View()
	return out
}

func (s *PersonalStep) Summary() string {
	var parts []string
	for _, v := range []string{s.form.Name, s.form.Email, s.form.PhoneNumber} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}

func (s *PersonalStep) Load(form verification.Form, errs verification.FieldErrors) {
	s.form = form
	for i, f := range s.fields {
		s.inputs[i].SetValue(form.Value(f))
		s.inputs[i].SetError(errs[f])
	}
}

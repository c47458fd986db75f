package steps

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/components"
	"github.com/covercare/covercare-cli/verification"
)

type identityFocus int

const (
	focusIDType identityFocus = iota
	focusIDNumber
)

// IdentityStep collects the ID type and number.
type IdentityStep struct {
	styles   *tui.StyleSet
	selector components.SingleSelect
	number   components.TextInput
	focus    identityFocus
	form     verification.Form
	kbd      components.KbdHint
}

// NewIdentityStep creates the identity step.
func NewIdentityStep(styles *tui.StyleSet) *IdentityStep {
	var items []components.SingleSelectItem
	for _, t := range verification.IDTypes() {
		items = append(items, components.SingleSelectItem{Label: string(t), Value: string(t)})
	}
	selector := components.NewSingleSelect(items, selectColors(styles))
	selector.Compact = true

	number := components.NewTextInput(verification.FieldIDNumber.Label(), "As printed on the document", 50, fieldStyles(styles))

	return &IdentityStep{
		styles:   styles,
		selector: selector,
		number:   number,
		kbd:      kbd(styles, components.FormHints(true)),
	}
}

func (s *IdentityStep) Title() string { return verification.StepIdentity.Title() }
func (s *IdentityStep) Icon() string  { return "🪪" }

func (s *IdentityStep) Init() tea.Cmd {
	return s.setFocus(s.focus)
}

func (s *IdentityStep) setFocus(f identityFocus) tea.Cmd {
	s.focus = f
	if f == focusIDType {
		s.selector.Focus()
		s.number.Blur()
		return nil
	}
	s.selector.Blur()
	return s.number.Focus()
}

func (s *IdentityStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "tab", "shift+tab":
			return s, s.setFocus(1 - s.focus)
		case "esc":
			return s, emit(tui.StepBackMsg{})
		case "enter":
			if s.focus == focusIDNumber {
				return s, emit(tui.StepCompleteMsg{Values: map[verification.Field]string{
					verification.FieldIDNumber: verification.CleanText(s.number.Value()),
				}})
			}
		}
	}

	if s.focus == focusIDType {
		s.selector, _ = s.selector.Update(msg)
		if s.selector.Done() {
			_, value := s.selector.Selected()
			focusCmd := s.setFocus(focusIDNumber)
			changed := emit(tui.FieldChangedMsg{Field: verification.FieldIDType, Value: value})
			return s, tea.Batch(focusCmd, changed)
		}
		return s, nil
	}

	before := s.number.Value()
	var cmd tea.Cmd
	s.number, cmd = s.number.Update(msg)
	if after := s.number.Value(); after != before {
		return s, tea.Batch(cmd, emit(tui.FieldChangedMsg{Field: verification.FieldIDNumber, Value: after}))
	}
	return s, cmd
}

func (s *IdentityStep) View(width int) string {
	out := heading(s.styles, verification.StepIdentity, "Which government ID will you upload?")
	out += "  " + s.styles.PrimaryTxt.Bold(true).Render("ID Type") + "\n"
	out += s.selector.View(width) + "\n"
	out += s.number.View(width) + "\n"
	out += s.kbd.View()
	return out
}

func (s *IdentityStep) Summary() string {
	if s.form.IDType == "" {
		return ""
	}
	if s.form.IDNumber == "" {
		return string(s.form.IDType)
	}
	return string(s.form.IDType) + " · " + s.form.IDNumber
}

func (s *IdentityStep) Load(form verification.Form, errs verification.FieldErrors) {
	s.form = form
	s.selector.Select(string(form.IDType))
	s.selector.SetError(errs[verification.FieldIDType])
	s.number.SetValue(form.IDNumber)
	s.number.SetError(errs[verification.FieldIDNumber])
}

package steps

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/components"
	"github.com/covercare/covercare-cli/verification"
)

// ReviewStep shows every answer and submits on confirmation.
type ReviewStep struct {
	styles     *tui.StyleSet
	form       verification.Form
	errs       verification.FieldErrors
	spinner    spinner.Model
	submitting bool
	submitErr  error
	kbd        components.KbdHint
}

// NewReviewStep creates the review step.
func NewReviewStep(styles *tui.StyleSet) *ReviewStep {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentTxt

	return &ReviewStep{
		styles:  styles,
		spinner: sp,
		kbd:     kbd(styles, components.ReviewHints()),
	}
}

func (s *ReviewStep) Title() string { return verification.StepReview.Title() }
func (s *ReviewStep) Icon() string  { return "✅" }

func (s *ReviewStep) Init() tea.Cmd {
	return nil
}

func (s *ReviewStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !s.submitting {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			return s, emit(tui.SubmitRequestedMsg{})
		case "esc", "backspace":
			return s, emit(tui.StepBackMsg{})
		}
	}
	return s, nil
}

// SetSubmitState switches between the confirm view and the in-flight view.
func (s *ReviewStep) SetSubmitState(submitting bool, err error) tea.Cmd {
	s.submitting = submitting
	s.submitErr = err
	if submitting {
		return s.spinner.Tick
	}
	return nil
}

func (s *ReviewStep) View(width int) string {
	out := heading(s.styles, verification.StepReview, "Check your details before submitting.")

	docName := ""
	if s.form.Document != nil {
		docName = s.form.Document.Name
	}
	box := components.SummaryBox{
		Rows: []components.SummaryRow{
			{Key: verification.FieldName.Label(), Value: s.form.Name},
			{Key: verification.FieldEmail.Label(), Value: s.form.Email},
			{Key: verification.FieldPhoneNumber.Label(), Value: s.form.PhoneNumber},
			{Key: verification.FieldIDType.Label(), Value: string(s.form.IDType)},
			{Key: verification.FieldIDNumber.Label(), Value: s.form.IDNumber},
			{Key: verification.FieldDocument.Label(), Value: docName},
		},
		KeyStyle:    s.styles.SummaryKey,
		ValueStyle:  s.styles.SummaryValue,
		EmptyStyle:  s.styles.DimTxt,
		BorderStyle: s.styles.BorderedBox,
	}
	out += box.View(width) + "\n\n"

	for _, f := range s.errs.Fields() {
		out += "  " + s.styles.ErrorTxt.Render("✗ "+s.errs[f]) + "\n"
	}

	switch {
	case s.submitting:
		out += "  " + s.spinner.View() + " " + s.styles.AccentTxt.Render("Submitting your verification...") + "\n"
		return out
	case s.submitErr != nil:
		out += notice(s.styles, s.submitErr.Error()+"\n"+retryHint(s.submitErr), width) + "\n"
	default:
		out += "  " + s.styles.AccentTxt.Render("Press Enter to submit, Esc to go back") + "\n\n"
	}
	out += s.kbd.View()
	return out
}

func (s *ReviewStep) Summary() string {
	return "submitted"
}

func (s *ReviewStep) Load(form verification.Form, errs verification.FieldErrors) {
	s.form = form
	s.errs = errs
}

func retryHint(err error) string {
	var subErr *verification.SubmitError
	if errors.As(err, &subErr) && !subErr.Retryable() {
		return "Press Esc to go back and correct your answers."
	}
	return "Press Enter to try again."
}

// Submitting reports whether a submission is in flight.
func (s *ReviewStep) Submitting() bool {
	return s.submitting
}

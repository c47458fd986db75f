package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/internal/logging"
	"github.com/covercare/covercare-cli/verification"
)

// ErrCancelled is returned by Err when the user quits before submitting.
var ErrCancelled = errors.New("verification cancelled")

// WizardOptions configures a WizardModel.
type WizardOptions struct {
	Version string
	// SubmitTimeout bounds a single submission attempt. Zero means no limit.
	SubmitTimeout time.Duration
	Logger        logging.Logger
}

// WizardModel is the top-level bubbletea model. Navigation and submission
// state live in the controller; the model only renders it and forwards
// user intent.
type WizardModel struct {
	styles   *StyleSet
	steps    []Step
	ctrl     *verification.Controller
	bar      progress.Model
	timeout  time.Duration
	logger   logging.Logger
	width    int
	finished bool
	err      error
	version  string
}

// NewWizardModel creates a wizard over the given steps, one per
// verification step in order.
func NewWizardModel(theme TermTheme, steps []Step, ctrl *verification.Controller, opts WizardOptions) WizardModel {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	w := WizardModel{
		styles:  NewStyleSet(theme),
		steps:   steps,
		ctrl:    ctrl,
		bar:     progress.New(progress.WithSolidFill(string(theme.Accent)), progress.WithoutPercentage()),
		timeout: opts.SubmitTimeout,
		logger:  logger,
		width:   80,
		version: opts.Version,
	}
	w.load()
	return w
}

// Init initializes the active step.
func (w WizardModel) Init() tea.Cmd {
	if s := w.active(); s != nil {
		return s.Init()
	}
	return nil
}

func (w WizardModel) index() int {
	return int(w.ctrl.Step()) - 1
}

func (w WizardModel) active() Step {
	i := w.index()
	if i < 0 || i >= len(w.steps) {
		return nil
	}
	return w.steps[i]
}

// load pushes the controller's answers and errors into the active step.
func (w WizardModel) load() {
	if s := w.active(); s != nil {
		s.Load(w.ctrl.Form(), w.ctrl.Errors())
	}
}

// Update handles messages for the wizard.
func (w WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if !w.ctrl.Submitted() {
				w.err = ErrCancelled
			}
			return w, tea.Quit
		}
		if w.ctrl.Submitted() {
			return w.updateSuccess(msg)
		}

	case StepBackMsg:
		if err := w.ctrl.PrevStep(); err != nil {
			return w, nil
		}
		w.load()
		return w, w.active().Init()

	case StepCompleteMsg:
		for _, f := range verification.Fields() {
			if v, ok := msg.Values[f]; ok {
				if err := w.ctrl.UpdateField(f, v); err != nil {
					w.logger.Warn("field update rejected", map[string]any{"field": string(f), "error": err.Error()})
				}
			}
		}
		from := w.ctrl.Step()
		if err := w.ctrl.NextStep(); err != nil {
			w.load()
			return w, nil
		}
		w.load()
		if w.ctrl.Step() == from {
			return w, nil
		}
		return w, w.active().Init()

	case FieldChangedMsg:
		if err := w.ctrl.UpdateField(msg.Field, msg.Value); err != nil {
			w.logger.Warn("field update rejected", map[string]any{"field": string(msg.Field), "error": err.Error()})
		}
		w.load()
		return w, nil

	case DocumentAttachedMsg:
		if err := w.ctrl.AttachDocument(msg.Doc); err != nil {
			w.logger.Warn("document rejected", map[string]any{"error": err.Error()})
		}
		w.load()
		return w, nil

	case SubmitRequestedMsg:
		return w.beginSubmit()

	case SubmitResultMsg:
		return w.finishSubmit(msg)
	}

	if w.ctrl.Submitted() {
		return w, nil
	}

	// Delegate to the active step
	if s := w.active(); s != nil {
		updated, cmd := s.Update(msg)
		w.steps[w.index()] = updated
		return w, cmd
	}
	return w, nil
}

func (w WizardModel) beginSubmit() (tea.Model, tea.Cmd) {
	form, err := w.ctrl.BeginSubmit()
	if err != nil {
		// A second confirm while the first is pending is dropped.
		if !errors.Is(err, verification.ErrSubmitInFlight) {
			w.load()
		}
		return w, nil
	}

	var cmds []tea.Cmd
	if aware, ok := w.active().(SubmitAware); ok {
		cmds = append(cmds, aware.SetSubmitState(true, nil))
	}
	cmds = append(cmds, w.submitCmd(form))
	return w, tea.Batch(cmds...)
}

func (w WizardModel) submitCmd(form verification.Form) tea.Cmd {
	sub := w.ctrl.Submitter()
	timeout := w.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		receipt, err := sub.Submit(ctx, form)
		return SubmitResultMsg{Receipt: receipt, Err: err}
	}
}

func (w WizardModel) finishSubmit(msg SubmitResultMsg) (tea.Model, tea.Cmd) {
	err := w.ctrl.FinishSubmit(msg.Receipt, msg.Err)
	if errors.Is(err, verification.ErrNoSubmitPending) {
		return w, nil
	}
	if aware, ok := w.active().(SubmitAware); ok {
		return w, aware.SetSubmitState(false, err)
	}
	return w, nil
}

func (w WizardModel) updateSuccess(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "q":
		w.finished = true
		return w, tea.Quit
	case "n":
		if err := w.ctrl.Reset(); err != nil {
			return w, nil
		}
		for _, s := range w.steps {
			s.Load(w.ctrl.Form(), w.ctrl.Errors())
			if aware, ok := s.(SubmitAware); ok {
				aware.SetSubmitState(false, nil)
			}
		}
		return w, w.active().Init()
	}
	return w, nil
}

// View renders the entire wizard UI.
func (w WizardModel) View() string {
	var out string

	out += "\n" + RenderBanner(w.styles, w.version, w.width)

	if w.ctrl.Submitted() {
		return out + w.successView()
	}

	out += RenderHeader(w.bar, int(w.ctrl.Step()), len(w.steps), w.styles, w.width)
	out += "\n"
	out += RenderProgress(w.steps, w.index(), w.styles, w.width)
	out += "\n"

	if s := w.active(); s != nil {
		out += s.View(w.width)
	}
	out += "\n"
	return out
}

func (w WizardModel) successView() string {
	receipt := w.ctrl.Receipt()

	var out string
	out += "  " + w.styles.SuccessTxt.Bold(true).Render("✓ Verification Submitted!") + "\n\n"
	out += "  " + w.styles.PrimaryTxt.Render("We will review your documents and let you know once your cover is active.") + "\n\n"
	if receipt.Reference != "" {
		out += fmt.Sprintf("  %s %s\n", w.styles.SecondaryTxt.Render("Reference:"), w.styles.AccentTxt.Render(receipt.Reference))
	}
	if receipt.Location != "" {
		out += fmt.Sprintf("  %s %s\n", w.styles.SecondaryTxt.Render("Saved to: "), w.styles.DimTxt.Render(receipt.Location))
	}
	out += "\n  " + w.styles.KbdKey.Render("⏎") + " " + w.styles.KbdDesc.Render("done") +
		"    " + w.styles.KbdKey.Render("n") + " " + w.styles.KbdDesc.Render("start another verification") + "\n"
	return out
}

// Controller returns the controller driving the wizard.
func (w WizardModel) Controller() *verification.Controller {
	return w.ctrl
}

// Err returns ErrCancelled when the user quit before submitting.
func (w WizardModel) Err() error {
	return w.err
}

// Submitted reports whether the verification was accepted.
func (w WizardModel) Submitted() bool {
	return w.ctrl.Submitted()
}

// Done returns true once the verification was submitted and acknowledged.
func (w WizardModel) Done() bool {
	return w.finished && w.ctrl.Submitted()
}

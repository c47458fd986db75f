package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/covercare/covercare-cli/internal/logging"
)

var (
	// ErrLocked is returned by edits and back navigation while a submission
	// is pending or after it has completed.
	ErrLocked = errors.New("verification is locked while submitting or after submission")
	// ErrSubmitInFlight is returned when a submit is requested while another
	// one has not finished.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrAlreadySubmitted is returned when a submit is requested after the
	// verification was accepted.
	ErrAlreadySubmitted = errors.New("verification already submitted")
	// ErrNotAtReview is returned when a submit is requested before the
	// review step.
	ErrNotAtReview = errors.New("submission is only possible from the review step")
	// ErrNoSubmitPending is returned by FinishSubmit without a matching
	// BeginSubmit.
	ErrNoSubmitPending = errors.New("no submission pending")
	// ErrUnknownField is returned for field names outside the form.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidIDType is returned when the ID type is not one of IDTypes.
	ErrInvalidIDType = errors.New("invalid ID type")
)

// State is the position of the wizard state machine.
type State int

const (
	StatePersonal State = iota + 1
	StateIdentity
	StateDocument
	StateReview
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StatePersonal:
		return "personal"
	case StateIdentity:
		return "identity"
	case StateDocument:
		return "document"
	case StateReview:
		return "review"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type phase int

const (
	phaseEditing phase = iota
	phaseSubmitting
	phaseSubmitted
)

// SubmitError reports a failed submission. The form is kept and the wizard
// is back on the review step, so the user can retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return "submission failed: " + e.Err.Error() }
func (e *SubmitError) Unwrap() error { return e.Err }

// Retryable reports whether submitting the same answers again may succeed.
// A payload rejected by the schema will be rejected again until an answer
// changes. The form is kept either way.
func (e *SubmitError) Retryable() bool {
	var schemaErr *SchemaError
	return !errors.As(e.Err, &schemaErr)
}

// Controller owns the wizard state: the form, the current step, the field
// errors of the last validation pass and the submission status. It is safe
// for concurrent use.
type Controller struct {
	mu        sync.Mutex
	form      Form
	step      Step
	phase     phase
	errors    FieldErrors
	submitErr *SubmitError
	receipt   Receipt

	submitter Submitter
	logger    logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the submitter used by Submit.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithLogger sets the logger for state transitions.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller on the first step with an empty form.
// Without WithSubmitter it uses a SimulatedSubmitter with the default delay.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		step:   FirstStep,
		errors: FieldErrors{},
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.submitter == nil {
		c.submitter = &SimulatedSubmitter{Delay: DefaultSubmitDelay}
	}
	return c
}

// Step returns the current step. It stays on StepReview while submitting
// and after submission.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// State returns the state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case phaseSubmitting:
		return StateSubmitting
	case phaseSubmitted:
		return StateSubmitted
	}
	return State(c.step)
}

// Form returns a copy of the answers collected so far.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Clone()
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Submitted reports whether the verification was accepted.
func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == phaseSubmitted
}

// Submitting reports whether a submission is pending.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == phaseSubmitting
}

// SubmitErr returns the error of the last failed submission, or nil.
func (c *Controller) SubmitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr == nil {
		return nil
	}
	return c.submitErr
}

// Receipt returns the receipt of the accepted submission.
func (c *Controller) Receipt() Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipt
}

// Submitter returns the configured submitter.
func (c *Controller) Submitter() Submitter {
	return c.submitter
}

// UpdateField sets a text field and clears its error entry. The new value is
// not validated until the next NextStep, except that a non-empty ID type
// must be one of IDTypes.
func (c *Controller) UpdateField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseEditing {
		return ErrLocked
	}
	if field == FieldIDType && value != "" && !IDType(value).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidIDType, value)
	}
	if err := c.form.set(field, value); err != nil {
		return err
	}
	delete(c.errors, field)
	return nil
}

// AttachDocument sets or, with nil, clears the document and clears its
// error entry.
func (c *Controller) AttachDocument(doc *Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseEditing {
		return ErrLocked
	}
	if doc != nil {
		d := *doc
		doc = &d
	}
	c.form.Document = doc
	delete(c.errors, FieldDocument)
	return nil
}

// NextStep validates the current step. When the step has errors they replace
// the current error set and are returned as FieldErrors; the step does not
// change. Otherwise the errors are cleared and the wizard moves forward one
// step, stopping at the review step.
func (c *Controller) NextStep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseEditing {
		return ErrLocked
	}

	errs := ValidateStep(c.step, c.form)
	if len(errs) > 0 {
		c.errors = errs
		c.logger.Info("step validation failed", map[string]any{
			"step":   int(c.step),
			"fields": fieldNames(errs.Fields()),
		})
		return errs.Clone()
	}

	c.errors = FieldErrors{}
	from := c.step
	if c.step < LastStep {
		c.step++
	}
	c.logger.Debug("step advanced", map[string]any{"from": int(from), "to": int(c.step)})
	return nil
}

// PrevStep moves back one step, stopping at the first step. Errors and
// answers are left as they are.
func (c *Controller) PrevStep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseEditing {
		return ErrLocked
	}
	from := c.step
	if c.step > FirstStep {
		c.step--
	}
	c.logger.Debug("step retreated", map[string]any{"from": int(from), "to": int(c.step)})
	return nil
}

// BeginSubmit moves the wizard to the submitting state and returns the form
// to send. Only one submission can be pending; a second call before
// FinishSubmit returns ErrSubmitInFlight.
func (c *Controller) BeginSubmit() (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case phaseSubmitting:
		return Form{}, ErrSubmitInFlight
	case phaseSubmitted:
		return Form{}, ErrAlreadySubmitted
	}
	if c.step != StepReview {
		return Form{}, ErrNotAtReview
	}
	if errs := ValidateStep(c.step, c.form); len(errs) > 0 {
		c.errors = errs
		return Form{}, errs.Clone()
	}

	c.errors = FieldErrors{}
	c.submitErr = nil
	c.phase = phaseSubmitting
	c.logger.Info("submission started", nil)
	return c.form.Clone(), nil
}

// FinishSubmit records the outcome of the pending submission. On success
// the wizard becomes submitted; on failure it returns to the review step
// with a SubmitError and the form intact.
func (c *Controller) FinishSubmit(receipt Receipt, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != phaseSubmitting {
		return ErrNoSubmitPending
	}

	if err != nil {
		c.phase = phaseEditing
		c.step = StepReview
		c.submitErr = &SubmitError{Err: err}
		c.logger.Warn("submission failed", map[string]any{"error": err.Error()})
		return c.submitErr
	}

	c.phase = phaseSubmitted
	c.receipt = receipt
	c.logger.Info("submission accepted", map[string]any{"reference": receipt.Reference})
	return nil
}

// Submit runs the whole submission through the configured submitter and
// blocks until it completes.
func (c *Controller) Submit(ctx context.Context) (Receipt, error) {
	form, err := c.BeginSubmit()
	if err != nil {
		return Receipt{}, err
	}
	receipt, subErr := c.submitter.Submit(ctx, form)
	if err := c.FinishSubmit(receipt, subErr); err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// Reset discards all answers and returns to the first step. It is refused
// while a submission is pending.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == phaseSubmitting {
		return ErrSubmitInFlight
	}
	c.form = Form{}
	c.step = FirstStep
	c.phase = phaseEditing
	c.errors = FieldErrors{}
	c.submitErr = nil
	c.receipt = Receipt{}
	c.logger.Debug("verification reset", nil)
	return nil
}

func fieldNames(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

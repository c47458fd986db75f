package verification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func instantSubmitter() Submitter {
	return &SimulatedSubmitter{}
}

func fillPersonal(t *testing.T, c *Controller) {
	t.Helper()
	mustUpdate(t, c, FieldName, "Jane Doe")
	mustUpdate(t, c, FieldEmail, "jane@x.com")
	mustUpdate(t, c, FieldPhoneNumber, "0788123456")
}

func fillIdentity(t *testing.T, c *Controller) {
	t.Helper()
	mustUpdate(t, c, FieldIDType, string(IDTypePassport))
	mustUpdate(t, c, FieldIDNumber, "AB1234")
}

func mustUpdate(t *testing.T, c *Controller, f Field, v string) {
	t.Helper()
	if err := c.UpdateField(f, v); err != nil {
		t.Fatalf("UpdateField(%s): %v", f, err)
	}
}

func mustNext(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.NextStep(); err != nil {
		t.Fatalf("NextStep from step %d: %v", c.Step(), err)
	}
}

// controllerAtReview walks a controller through the three input steps.
func controllerAtReview(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c := NewController(opts...)
	fillPersonal(t, c)
	mustNext(t, c)
	fillIdentity(t, c)
	mustNext(t, c)
	if err := c.AttachDocument(&Document{URI: "file:///tmp/id.png", Name: "id.png", Source: SourceLibrary}); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	mustNext(t, c)
	if c.Step() != StepReview {
		t.Fatalf("expected review step, got %d", c.Step())
	}
	return c
}

func TestNewControllerStartsAtFirstStep(t *testing.T) {
	c := NewController()
	if c.Step() != StepPersonal {
		t.Errorf("expected step 1, got %d", c.Step())
	}
	if c.State() != StatePersonal {
		t.Errorf("expected state personal, got %s", c.State())
	}
	if c.Submitted() {
		t.Error("new controller must not be submitted")
	}
	if len(c.Errors()) != 0 {
		t.Errorf("expected no errors, got %v", c.Errors())
	}
}

func TestNextStepBlockedByValidation(t *testing.T) {
	// For each input step, an invalid form keeps the step where it is.
	for _, step := range []Step{StepPersonal, StepIdentity, StepDocument} {
		c := NewController(WithSubmitter(instantSubmitter()))
		if step > StepPersonal {
			fillPersonal(t, c)
			mustNext(t, c)
		}
		if step > StepIdentity {
			fillIdentity(t, c)
			mustNext(t, c)
		}

		err := c.NextStep()
		var fe FieldErrors
		if !errors.As(err, &fe) {
			t.Fatalf("step %d: expected FieldErrors, got %v", step, err)
		}
		if c.Step() != step {
			t.Errorf("step %d: expected step unchanged, got %d", step, c.Step())
		}
		if diff := cmp.Diff(ValidateStep(step, c.Form()), c.Errors()); diff != "" {
			t.Errorf("step %d: errors mismatch (-want +got):\n%s", step, diff)
		}
	}
}

func TestNextStepAdvancesAndClearsErrors(t *testing.T) {
	c := NewController()
	if err := c.NextStep(); err == nil {
		t.Fatal("expected validation failure on empty form")
	}
	if len(c.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", c.Errors())
	}

	fillPersonal(t, c)
	mustNext(t, c)
	if c.Step() != StepIdentity {
		t.Errorf("expected step 2, got %d", c.Step())
	}
	if len(c.Errors()) != 0 {
		t.Errorf("expected errors cleared, got %v", c.Errors())
	}
}

func TestNextStepCapsAtReview(t *testing.T) {
	c := controllerAtReview(t)
	mustNext(t, c)
	if c.Step() != StepReview {
		t.Errorf("expected step to stay at review, got %d", c.Step())
	}
}

func TestPrevStepIsUnconditional(t *testing.T) {
	c := NewController()
	fillPersonal(t, c)
	mustNext(t, c)

	// Step 2 is invalid and carries errors; going back must not touch them.
	if err := c.NextStep(); err == nil {
		t.Fatal("expected step 2 validation failure")
	}
	formBefore := c.Form()
	errsBefore := c.Errors()

	if err := c.PrevStep(); err != nil {
		t.Fatalf("PrevStep: %v", err)
	}
	if c.Step() != StepPersonal {
		t.Errorf("expected step 1, got %d", c.Step())
	}
	if diff := cmp.Diff(formBefore, c.Form()); diff != "" {
		t.Errorf("form changed (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(errsBefore, c.Errors()); diff != "" {
		t.Errorf("errors changed (-before +after):\n%s", diff)
	}
}

func TestPrevStepFloorsAtFirstStep(t *testing.T) {
	c := NewController()
	if err := c.PrevStep(); err != nil {
		t.Fatalf("PrevStep: %v", err)
	}
	if c.Step() != StepPersonal {
		t.Errorf("expected step 1, got %d", c.Step())
	}
}

func TestPrevStepFromReview(t *testing.T) {
	c := controllerAtReview(t)
	for _, want := range []Step{StepDocument, StepIdentity, StepPersonal, StepPersonal} {
		if err := c.PrevStep(); err != nil {
			t.Fatalf("PrevStep: %v", err)
		}
		if c.Step() != want {
			t.Errorf("expected step %d, got %d", want, c.Step())
		}
	}
	if c.Form().Document == nil {
		t.Error("going back must keep the document")
	}
}

func TestUpdateFieldClearsOnlyItsError(t *testing.T) {
	c := NewController()
	mustUpdate(t, c, FieldEmail, "jane@x.com")
	if err := c.NextStep(); err == nil {
		t.Fatal("expected validation failure")
	}
	if _, ok := c.Errors()[FieldName]; !ok {
		t.Fatal("expected name error")
	}

	mustUpdate(t, c, FieldName, "")
	errs := c.Errors()
	if _, ok := errs[FieldName]; ok {
		t.Error("editing name must clear its error, even with an empty value")
	}
	if _, ok := errs[FieldPhoneNumber]; !ok {
		t.Error("editing name must not clear the phone error")
	}

	mustUpdate(t, c, FieldName, "Jane Doe")
	if _, ok := c.Errors()[FieldName]; ok {
		t.Error("name error reappeared without a NextStep")
	}
	if c.Form().Name != "Jane Doe" {
		t.Errorf("expected name Jane Doe, got %q", c.Form().Name)
	}
}

func TestUpdateFieldUnknown(t *testing.T) {
	c := NewController()
	err := c.UpdateField(Field("favouriteColour"), "blue")
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
	if err := c.UpdateField(FieldDocument, "file:///tmp/x.png"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("document must be set through AttachDocument, got %v", err)
	}
}

func TestUpdateFieldRejectsUnknownIDType(t *testing.T) {
	c := NewController()
	mustUpdate(t, c, FieldIDType, string(IDTypePassport))

	err := c.UpdateField(FieldIDType, "Library Card")
	if !errors.Is(err, ErrInvalidIDType) {
		t.Fatalf("expected ErrInvalidIDType, got %v", err)
	}
	if got := c.Form().IDType; got != IDTypePassport {
		t.Errorf("expected ID type to stay Passport, got %q", got)
	}

	mustUpdate(t, c, FieldIDType, "")
	if got := c.Form().IDType; got != "" {
		t.Errorf("expected cleared ID type, got %q", got)
	}
}

func TestAttachDocumentClearsError(t *testing.T) {
	c := NewController()
	fillPersonal(t, c)
	mustNext(t, c)
	fillIdentity(t, c)
	mustNext(t, c)

	if err := c.NextStep(); err == nil {
		t.Fatal("expected document error")
	}
	doc := &Document{URI: "file:///tmp/id.png", Source: SourceCamera}
	if err := c.AttachDocument(doc); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	if len(c.Errors()) != 0 {
		t.Errorf("expected document error cleared, got %v", c.Errors())
	}

	// The controller keeps its own copy.
	doc.URI = "mutated"
	if got := c.Form().Document.URI; got != "file:///tmp/id.png" {
		t.Errorf("document aliased caller memory: %q", got)
	}

	if err := c.AttachDocument(nil); err != nil {
		t.Fatalf("AttachDocument(nil): %v", err)
	}
	if c.Form().Document != nil {
		t.Error("expected document cleared")
	}
}

func TestHappyPathScenario(t *testing.T) {
	c := NewController(WithSubmitter(&SimulatedSubmitter{Delay: 10 * time.Millisecond}))

	mustUpdate(t, c, FieldName, "Jane Doe")
	mustUpdate(t, c, FieldEmail, "jane@x.com")
	mustUpdate(t, c, FieldPhoneNumber, "0788123456")
	mustNext(t, c)
	if c.Step() != StepIdentity {
		t.Fatalf("expected step 2, got %d", c.Step())
	}

	mustUpdate(t, c, FieldIDType, "Passport")
	mustUpdate(t, c, FieldIDNumber, "AB1234")
	mustNext(t, c)
	if c.Step() != StepDocument {
		t.Fatalf("expected step 3, got %d", c.Step())
	}

	if err := c.AttachDocument(&Document{URI: "file:///home/jane/id.jpg", Source: SourceLibrary}); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	mustNext(t, c)
	if c.Step() != StepReview {
		t.Fatalf("expected step 4, got %d", c.Step())
	}

	receipt, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !c.Submitted() {
		t.Error("expected submitted")
	}
	if c.State() != StateSubmitted {
		t.Errorf("expected state submitted, got %s", c.State())
	}
	if receipt.Reference == "" || c.Receipt().Reference != receipt.Reference {
		t.Errorf("unexpected receipt %+v / %+v", receipt, c.Receipt())
	}
}

func TestInvalidEmailScenario(t *testing.T) {
	c := NewController()
	mustUpdate(t, c, FieldName, "Jane Doe")
	mustUpdate(t, c, FieldEmail, "not-an-email")
	mustUpdate(t, c, FieldPhoneNumber, "0788123456")

	if err := c.NextStep(); err == nil {
		t.Fatal("expected validation failure")
	}
	if c.Step() != StepPersonal {
		t.Errorf("expected step 1, got %d", c.Step())
	}
	if got := c.Errors()[FieldEmail]; got != "Email is invalid" {
		t.Errorf("expected 'Email is invalid', got %q", got)
	}
}

func TestPhoneNormalizationScenario(t *testing.T) {
	c := NewController()
	mustUpdate(t, c, FieldName, "Jane Doe")
	mustUpdate(t, c, FieldEmail, "jane@x.com")

	mustUpdate(t, c, FieldPhoneNumber, "123")
	if err := c.NextStep(); err == nil {
		t.Fatal("expected '123' to be rejected")
	}
	if got := c.Errors()[FieldPhoneNumber]; got != "Phone number is invalid" {
		t.Errorf("expected 'Phone number is invalid', got %q", got)
	}

	mustUpdate(t, c, FieldPhoneNumber, "078-812-3456")
	mustNext(t, c)
	if c.Step() != StepIdentity {
		t.Errorf("expected step 2, got %d", c.Step())
	}
}

// blockingSubmitter holds every submission until release is closed.
type blockingSubmitter struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingSubmitter() *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
}

func (b *blockingSubmitter) Submit(ctx context.Context, form Form) (Receipt, error) {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
	if b.err != nil {
		return Receipt{}, b.err
	}
	return Receipt{Reference: "ref-1", SubmittedAt: time.Now()}, nil
}

func TestDoubleSubmitGuard(t *testing.T) {
	sub := newBlockingSubmitter()
	c := controllerAtReview(t, WithSubmitter(sub))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = c.Submit(context.Background())
	}()
	<-sub.started

	if c.State() != StateSubmitting {
		t.Errorf("expected state submitting, got %s", c.State())
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected ErrSubmitInFlight for second submit, got %v", err)
	}
	if err := c.PrevStep(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked for PrevStep while submitting, got %v", err)
	}
	if err := c.UpdateField(FieldName, "Mallory"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked for edits while submitting, got %v", err)
	}
	if err := c.Reset(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected Reset to be refused while submitting, got %v", err)
	}

	close(sub.release)
	wg.Wait()

	if firstErr != nil {
		t.Fatalf("first submit: %v", firstErr)
	}
	if got := sub.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 submission, got %d", got)
	}
	if !c.Submitted() {
		t.Error("expected submitted")
	}
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestConcurrentSubmitsYieldOneTransition(t *testing.T) {
	var calls atomic.Int32
	sub := SubmitterFunc(func(ctx context.Context, form Form) (Receipt, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return Receipt{Reference: "ref"}, nil
	})
	c := controllerAtReview(t, WithSubmitter(sub))

	const n = 8
	var wg sync.WaitGroup
	var ok, inFlight atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Submit(context.Background())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrSubmitInFlight), errors.Is(err, ErrAlreadySubmitted):
				inFlight.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 {
		t.Errorf("expected exactly one successful submit, got %d", ok.Load())
	}
	if calls.Load() != 1 {
		t.Errorf("expected submitter called once, got %d", calls.Load())
	}
	if inFlight.Load() != n-1 {
		t.Errorf("expected %d rejected submits, got %d", n-1, inFlight.Load())
	}
}

func TestSubmitFailureReturnsToReview(t *testing.T) {
	sub := newBlockingSubmitter()
	sub.err = errors.New("network unreachable")
	close(sub.release)
	c := controllerAtReview(t, WithSubmitter(sub))
	formBefore := c.Form()

	_, err := c.Submit(context.Background())
	var se *SubmitError
	if !errors.As(err, &se) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if !se.Retryable() {
		t.Error("expected retryable submit error")
	}
	if c.State() != StateReview {
		t.Errorf("expected state review, got %s", c.State())
	}
	if c.Submitted() {
		t.Error("failed submit must not mark submitted")
	}
	if diff := cmp.Diff(formBefore, c.Form()); diff != "" {
		t.Errorf("form changed after failed submit (-before +after):\n%s", diff)
	}
	if c.SubmitErr() == nil {
		t.Error("expected SubmitErr to be recorded")
	}

	// Retry succeeds once the submitter recovers.
	sub.err = nil
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !c.Submitted() {
		t.Error("expected submitted after retry")
	}
	if c.SubmitErr() != nil {
		t.Errorf("expected SubmitErr cleared, got %v", c.SubmitErr())
	}
}

func TestSubmitCancelledContext(t *testing.T) {
	c := controllerAtReview(t, WithSubmitter(&SimulatedSubmitter{Delay: time.Minute}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Submit(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.State() != StateReview {
		t.Errorf("expected state review, got %s", c.State())
	}
}

func TestSubmitBeforeReview(t *testing.T) {
	c := NewController(WithSubmitter(instantSubmitter()))
	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotAtReview) {
		t.Errorf("expected ErrNotAtReview, got %v", err)
	}
}

func TestBeginFinishSubmit(t *testing.T) {
	c := controllerAtReview(t)

	form, err := c.BeginSubmit()
	if err != nil {
		t.Fatalf("BeginSubmit: %v", err)
	}
	if form.Name != "Jane Doe" {
		t.Errorf("expected form snapshot, got %+v", form)
	}
	if _, err := c.BeginSubmit(); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("expected ErrSubmitInFlight, got %v", err)
	}
	if err := c.FinishSubmit(Receipt{Reference: "abc"}, nil); err != nil {
		t.Fatalf("FinishSubmit: %v", err)
	}
	if err := c.FinishSubmit(Receipt{}, nil); !errors.Is(err, ErrNoSubmitPending) {
		t.Errorf("expected ErrNoSubmitPending, got %v", err)
	}
	if c.Receipt().Reference != "abc" {
		t.Errorf("expected receipt abc, got %q", c.Receipt().Reference)
	}
}

func TestSubmittedIsTerminalUntilReset(t *testing.T) {
	c := controllerAtReview(t, WithSubmitter(instantSubmitter()))
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := c.PrevStep(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if err := c.NextStep(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	if err := c.AttachDocument(nil); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.Submitted() {
		t.Error("expected not submitted after reset")
	}
	if c.Step() != StepPersonal {
		t.Errorf("expected step 1 after reset, got %d", c.Step())
	}
	if diff := cmp.Diff(Form{}, c.Form()); diff != "" {
		t.Errorf("expected empty form after reset (-want +got):\n%s", diff)
	}
	if c.Receipt().Reference != "" {
		t.Error("expected receipt cleared")
	}
}

func TestFormReturnsCopy(t *testing.T) {
	c := controllerAtReview(t)
	f := c.Form()
	f.Document.URI = "changed"
	f.Name = "changed"
	if got := c.Form(); got.Name != "Jane Doe" || got.Document.URI != "file:///tmp/id.png" {
		t.Errorf("Form leaked internal state: %+v", got)
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"

	"github.com/covercare/covercare-cli/device"
	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/steps"
	"github.com/covercare/covercare-cli/verification"
)

// promptDriver asks one question at a time. It lets the plain flow run
// against scripted answers in tests.
type promptDriver interface {
	Input(label, defaultVal string) (string, error)
	Select(label string, items []string, cursor int) (int, error)
}

type promptuiDriver struct{}

// Input prompts the user for a text value with an optional default.
func (promptuiDriver) Input(label, defaultVal string) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: defaultVal,
	}
	result, err := p.Run()
	if err != nil {
		return "", promptErr(label, err)
	}
	return result, nil
}

// Select presents a list of items and returns the selected index.
func (promptuiDriver) Select(label string, items []string, cursor int) (int, error) {
	s := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
	}
	idx, _, err := s.Run()
	if err != nil {
		return -1, promptErr(label, err)
	}
	return idx, nil
}

func promptErr(label string, err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return tui.ErrCancelled
	}
	return fmt.Errorf("prompt %q failed: %w", label, err)
}

// Document step choices.
const (
	choiceSelectFile = "Select File"
	choiceTakePhoto  = "Take Photo"
	choiceContinue   = "Continue"
	choiceBack       = "Go Back"
	choiceSubmit     = "Submit"
)

// runPlain drives the controller with line prompts until the verification
// is submitted or the user cancels.
func runPlain(ctx context.Context, s *session, d promptDriver, out io.Writer) (verification.Receipt, error) {
	for {
		step := s.ctrl.Step()
		fmt.Fprintf(out, "\nStep %d of %d · %s\n", int(step), int(verification.LastStep), step.Title())

		var err error
		switch step {
		case verification.StepPersonal:
			err = askPersonal(s, d)
		case verification.StepIdentity:
			err = askIdentity(s, d)
		case verification.StepDocument:
			var back bool
			back, err = askDocument(ctx, s, d, out)
			if err == nil && back {
				_ = s.ctrl.PrevStep()
				continue
			}
		case verification.StepReview:
			receipt, done, err := askReview(ctx, s, d, out)
			if err != nil || done {
				return receipt, err
			}
			continue
		}
		if err != nil {
			return verification.Receipt{}, err
		}

		if err := s.ctrl.NextStep(); err != nil {
			lines := fieldErrorLines(err)
			if len(lines) == 0 {
				return verification.Receipt{}, err
			}
			for _, l := range lines {
				fmt.Fprintf(out, "  ✗ %s\n", l)
			}
		}
	}
}

func askText(s *session, d promptDriver, field verification.Field) error {
	form := s.ctrl.Form()
	v, err := d.Input(field.Label(), form.Value(field))
	if err != nil {
		return err
	}
	return s.ctrl.UpdateField(field, verification.CleanText(v))
}

func askPersonal(s *session, d promptDriver) error {
	for _, f := range verification.StepPersonal.Fields() {
		if err := askText(s, d, f); err != nil {
			return err
		}
	}
	return nil
}

func askIdentity(s *session, d promptDriver) error {
	types := verification.IDTypes()
	items := make([]string, len(types))
	cursor := 0
	current := s.ctrl.Form().IDType
	for i, t := range types {
		items[i] = string(t)
		if t == current {
			cursor = i
		}
	}
	idx, err := d.Select(verification.FieldIDType.Label(), items, cursor)
	if err != nil {
		return err
	}
	if err := s.ctrl.UpdateField(verification.FieldIDType, items[idx]); err != nil {
		return err
	}
	return askText(s, d, verification.FieldIDNumber)
}

// askDocument loops until the user continues or goes back. It reports
// whether the user asked to go back.
func askDocument(ctx context.Context, s *session, d promptDriver, out io.Writer) (bool, error) {
	for {
		label := "Document"
		if doc := s.ctrl.Form().Document; doc != nil {
			label = fmt.Sprintf("Document (attached: %s)", doc.Name)
		}
		items := []string{choiceSelectFile, choiceTakePhoto, choiceContinue, choiceBack}
		idx, err := d.Select(label, items, 0)
		if err != nil {
			return false, err
		}

		var doc *verification.Document
		switch items[idx] {
		case choiceContinue:
			return false, nil
		case choiceBack:
			return true, nil
		case choiceSelectFile:
			path, err := d.Input("Path to image", s.library.Dir())
			if err != nil {
				return false, err
			}
			doc, err = s.library.Open(path)
			if err != nil && !errors.Is(err, device.ErrCancelled) {
				fmt.Fprintf(out, "  ✗ %v\n", err)
				continue
			}
		case choiceTakePhoto:
			doc, err = s.camera.Pick(ctx)
			switch {
			case errors.Is(err, device.ErrPermissionDenied):
				fmt.Fprintf(out, "  ! %s\n", steps.CameraPermissionNotice)
				continue
			case errors.Is(err, device.ErrCancelled):
			case err != nil:
				fmt.Fprintf(out, "  ✗ %v\n", err)
				continue
			}
		}

		if doc != nil {
			if err := s.ctrl.AttachDocument(doc); err != nil {
				return false, err
			}
			fmt.Fprintf(out, "  ✓ attached %s\n", doc.Name)
		}
	}
}

// askReview prints the answers and submits on request. done is true once
// the verification was accepted.
func askReview(ctx context.Context, s *session, d promptDriver, out io.Writer) (verification.Receipt, bool, error) {
	form := s.ctrl.Form()
	for _, f := range verification.Fields() {
		v := form.Value(f)
		if f == verification.FieldDocument && form.Document != nil {
			v = form.Document.Name
		}
		fmt.Fprintf(out, "  %-14s %s\n", f.Label()+":", v)
	}

	idx, err := d.Select("Submit your verification?", []string{choiceSubmit, choiceBack}, 0)
	if err != nil {
		return verification.Receipt{}, false, err
	}
	if idx == 1 {
		return verification.Receipt{}, false, s.ctrl.PrevStep()
	}

	fmt.Fprintln(out, "Submitting...")
	receipt, err := s.submit(ctx)
	if err != nil {
		var subErr *verification.SubmitError
		if errors.As(err, &subErr) {
			if subErr.Retryable() {
				fmt.Fprintf(out, "  ✗ %v\n  You can try again.\n", err)
			} else {
				fmt.Fprintf(out, "  ✗ %v\n  Go back and correct your answers.\n", err)
			}
			return verification.Receipt{}, false, nil
		}
		if lines := fieldErrorLines(err); len(lines) > 0 {
			for _, l := range lines {
				fmt.Fprintf(out, "  ✗ %s\n", l)
			}
			return verification.Receipt{}, false, nil
		}
		return verification.Receipt{}, false, err
	}
	return receipt, true, nil
}

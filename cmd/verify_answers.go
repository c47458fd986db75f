package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/covercare/covercare-cli/verification"
)

// answers are the wizard inputs for a run without prompts.
type answers struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	IDType   string `yaml:"id_type"`
	IDNumber string `yaml:"id_number"`
	Document string `yaml:"document"`
}

// loadAnswers reads an answers file. Unknown keys are rejected so typos do
// not silently drop an answer.
func loadAnswers(path string) (answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return answers{}, fmt.Errorf("reading answers file: %w", err)
	}

	var a answers
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return answers{}, fmt.Errorf("parsing answers file %s: %w", path, err)
	}
	return a, nil
}

// merge returns a with every non-empty value of override applied on top.
func (a answers) merge(override answers) answers {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Name, override.Name)
	set(&a.Email, override.Email)
	set(&a.Phone, override.Phone)
	set(&a.IDType, override.IDType)
	set(&a.IDNumber, override.IDNumber)
	set(&a.Document, override.Document)
	return a
}

// runNonInteractive fills the form from ans, walks every step and submits.
// The first step that fails validation stops the run with its field errors.
func runNonInteractive(ctx context.Context, s *session, ans answers) (verification.Receipt, error) {
	values := map[verification.Field]string{
		verification.FieldName:        verification.CleanText(ans.Name),
		verification.FieldEmail:       verification.CleanText(ans.Email),
		verification.FieldPhoneNumber: verification.CleanText(ans.Phone),
		verification.FieldIDNumber:    verification.CleanText(ans.IDNumber),
	}
	if strings.TrimSpace(ans.IDType) != "" {
		t, err := verification.ParseIDType(ans.IDType)
		if err != nil {
			return verification.Receipt{}, fmt.Errorf("--id-type: %w", err)
		}
		values[verification.FieldIDType] = string(t)
	}
	for _, f := range verification.Fields() {
		v, ok := values[f]
		if !ok {
			continue
		}
		if err := s.ctrl.UpdateField(f, v); err != nil {
			return verification.Receipt{}, err
		}
	}

	if strings.TrimSpace(ans.Document) != "" {
		doc, err := s.library.Open(strings.TrimSpace(ans.Document))
		if err != nil {
			return verification.Receipt{}, fmt.Errorf("--document: %w", err)
		}
		if err := s.ctrl.AttachDocument(doc); err != nil {
			return verification.Receipt{}, err
		}
	}

	for s.ctrl.Step() != verification.StepReview {
		step := s.ctrl.Step()
		if err := s.ctrl.NextStep(); err != nil {
			return verification.Receipt{}, fmt.Errorf("%s is incomplete: %w", step.Title(), err)
		}
	}

	return s.submit(ctx)
}

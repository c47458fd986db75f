package verification

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Step is a position in the wizard. Steps are numbered from 1.
type Step int

const (
	StepPersonal Step = iota + 1
	StepIdentity
	StepDocument
	StepReview
)

// FirstStep and LastStep bound the step index.
const (
	FirstStep = StepPersonal
	LastStep  = StepReview
)

// Title returns the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepPersonal:
		return "Personal Information"
	case StepIdentity:
		return "Identity Information"
	case StepDocument:
		return "Document Upload"
	case StepReview:
		return "Review Your Information"
	}
	return "Unknown Step"
}

// Fields returns the fields the step collects.
func (s Step) Fields() []Field {
	switch s {
	case StepPersonal:
		return []Field{FieldName, FieldEmail, FieldPhoneNumber}
	case StepIdentity:
		return []Field{FieldIDType, FieldIDNumber}
	case StepDocument:
		return []Field{FieldDocument}
	}
	return nil
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\d{10,12}$`)
	nonDigits    = regexp.MustCompile(`[^0-9]`)
)

// ValidateStep checks the fields collected by step and returns one message
// per failing field. Steps without rules (review, out of range) always
// return an empty map.
func ValidateStep(step Step, form Form) FieldErrors {
	errs := FieldErrors{}

	switch step {
	case StepPersonal:
		if strings.TrimSpace(form.Name) == "" {
			errs[FieldName] = "Full name is required"
		}

		email := strings.TrimSpace(form.Email)
		switch {
		case email == "":
			errs[FieldEmail] = "Email is required"
		case !emailPattern.MatchString(email):
			errs[FieldEmail] = "Email is invalid"
		}

		phone := strings.TrimSpace(form.PhoneNumber)
		switch {
		case phone == "":
			errs[FieldPhoneNumber] = "Phone number is required"
		case !phonePattern.MatchString(NormalizePhone(phone)):
			errs[FieldPhoneNumber] = "Phone number is invalid"
		}

	case StepIdentity:
		if strings.TrimSpace(string(form.IDType)) == "" {
			errs[FieldIDType] = "ID type is required"
		}
		if strings.TrimSpace(form.IDNumber) == "" {
			errs[FieldIDNumber] = "ID number is required"
		}

	case StepDocument:
		if form.Document == nil {
			errs[FieldDocument] = "Document upload is required"
		}
	}

	return errs
}

// NormalizePhone strips every non-digit character.
func NormalizePhone(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// CleanText strips markup and surrounding whitespace from user-typed text.
// It is applied where input enters the program (terminal widgets, prompts,
// flags, answer files), not inside the controller.
func CleanText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	// StrictPolicy escapes entities; the form holds plain text.
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(trimmed)))
}

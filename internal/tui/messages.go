package tui

import "github.com/covercare/covercare-cli/verification"

// StepBackMsg is emitted by a step when the user asks to go back.
type StepBackMsg struct{}

// StepCompleteMsg is emitted by a step when the user asks to continue.
// Values holds cleaned final answers that are stored before the wizard
// validates the step.
type StepCompleteMsg struct {
	Values map[verification.Field]string
}

// FieldChangedMsg is emitted by a step whenever a text answer changes.
type FieldChangedMsg struct {
	Field verification.Field
	Value string
}

// DocumentPickedMsg carries the result of a picker or camera capture.
type DocumentPickedMsg struct {
	Doc *verification.Document
	Err error
}

// DocumentAttachedMsg is emitted by the document step once a document was
// chosen. A nil Doc removes the current document.
type DocumentAttachedMsg struct {
	Doc *verification.Document
}

// SubmitRequestedMsg is emitted by the review step when the user confirms.
type SubmitRequestedMsg struct{}

// SubmitResultMsg carries the outcome of the asynchronous submission.
type SubmitResultMsg struct {
	Receipt verification.Receipt
	Err     error
}

// Package steps holds the screens of the verification wizard.
package steps

import (
	"github.com/covercare/covercare-cli/device"
	"github.com/covercare/covercare-cli/internal/tui"
)

// New returns the wizard steps in order.
func New(styles *tui.StyleSet, library DocumentOpener, camera device.Picker) []tui.Step {
	return []tui.Step{
		NewPersonalStep(styles),
		NewIdentityStep(styles),
		NewDocumentStep(styles, library, camera),
		NewReviewStep(styles),
	}
}

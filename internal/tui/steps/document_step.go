package steps

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/covercare/covercare-cli/device"
	"github.com/covercare/covercare-cli/internal/tui"
	"github.com/covercare/covercare-cli/internal/tui/components"
	"github.com/covercare/covercare-cli/verification"
)

// CameraPermissionNotice is shown when the camera cannot be used because
// permission was refused.
const CameraPermissionNotice = "Camera permission is needed to take a photo"

// Menu values.
const (
	actionLibrary  = "library"
	actionCamera   = "camera"
	actionContinue = "continue"
)

type documentPhase int

const (
	documentMenuPhase documentPhase = iota
	documentBrowsePhase
	documentCapturePhase
)

// DocumentOpener turns a chosen path into a document.
type DocumentOpener interface {
	Open(path string) (*verification.Document, error)
	Dir() string
}

// DocumentStep lets the user pick an image of their ID from disk or take a
// photo with the camera.
type DocumentStep struct {
	styles  *tui.StyleSet
	phase   documentPhase
	menu    components.SingleSelect
	browser components.FileBrowser
	spinner spinner.Model
	library DocumentOpener
	camera  device.Picker
	doc     *verification.Document
	err     string
	notice  string
	height  int
	kbd     components.KbdHint
}

// NewDocumentStep creates the document step. camera may be nil when no
// capture device is configured.
func NewDocumentStep(styles *tui.StyleSet, library DocumentOpener, camera device.Picker) *DocumentStep {
	menu := components.NewSingleSelect([]components.SingleSelectItem{
		{Label: "Select File", Value: actionLibrary, Description: "Choose a photo or scan of your ID", Icon: "🖼"},
		{Label: "Take Photo", Value: actionCamera, Description: "Use the camera to photograph your ID", Icon: "📷"},
		{Label: "Continue", Value: actionContinue, Description: "Go to the review step", Icon: "➡"},
	}, selectColors(styles))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentTxt

	return &DocumentStep{
		styles:  styles,
		menu:    menu,
		spinner: sp,
		library: library,
		camera:  camera,
		height:  24,
		kbd:     kbd(styles, components.SelectHints()),
	}
}

func (s *DocumentStep) Title() string { return verification.StepDocument.Title() }
func (s *DocumentStep) Icon() string  { return "📄" }

func (s *DocumentStep) Init() tea.Cmd {
	s.phase = documentMenuPhase
	return s.menu.Init()
}

func (s *DocumentStep) Update(msg tea.Msg) (tui.Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.DocumentPickedMsg:
		return s.handlePicked(msg)
	case tea.WindowSizeMsg:
		s.height = msg.Height
	}

	switch s.phase {
	case documentBrowsePhase:
		return s.updateBrowse(msg)
	case documentCapturePhase:
		if _, ok := msg.(spinner.TickMsg); ok {
			var cmd tea.Cmd
			s.spinner, cmd = s.spinner.Update(msg)
			return s, cmd
		}
		return s, nil
	}
	return s.updateMenu(msg)
}

func (s *DocumentStep) updateMenu(msg tea.Msg) (tui.Step, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		return s, emit(tui.StepBackMsg{})
	}

	s.menu, _ = s.menu.Update(msg)
	if !s.menu.Done() {
		return s, nil
	}
	_, action := s.menu.Selected()
	s.menu.Reset()
	s.notice = ""

	switch action {
	case actionLibrary:
		dir := ""
		if s.library != nil {
			dir = s.library.Dir()
		}
		s.browser = components.NewFileBrowser(dir, device.ImageExtensions, s.styles.Theme.Accent, s.styles.WarningTxt,
			kbd(s.styles, nil))
		// The listing shares the screen with the banner and progress.
		s.browser, _ = s.browser.Update(tea.WindowSizeMsg{Height: max(s.height-14, 8)})
		s.phase = documentBrowsePhase
		return s, s.browser.Init()

	case actionCamera:
		if s.camera == nil {
			s.notice = "No camera is configured on this device"
			return s, nil
		}
		s.phase = documentCapturePhase
		return s, tea.Batch(s.spinner.Tick, capture(s.camera))

	case actionContinue:
		return s, emit(tui.StepCompleteMsg{})
	}
	return s, nil
}

func capture(camera device.Picker) tea.Cmd {
	return func() tea.Msg {
		doc, err := camera.Pick(context.Background())
		return tui.DocumentPickedMsg{Doc: doc, Err: err}
	}
}

func (s *DocumentStep) updateBrowse(msg tea.Msg) (tui.Step, tea.Cmd) {
	var cmd tea.Cmd
	s.browser, cmd = s.browser.Update(msg)

	switch {
	case s.browser.Cancelled():
		s.phase = documentMenuPhase
		return s, nil
	case s.browser.Done():
		s.phase = documentMenuPhase
		path := s.browser.Path()
		return s, func() tea.Msg {
			doc, err := s.open(path)
			return tui.DocumentPickedMsg{Doc: doc, Err: err}
		}
	}
	return s, cmd
}

func (s *DocumentStep) open(path string) (*verification.Document, error) {
	if s.library == nil {
		return nil, device.ErrUnsupportedDocument
	}
	return s.library.Open(path)
}

func (s *DocumentStep) handlePicked(msg tui.DocumentPickedMsg) (tui.Step, tea.Cmd) {
	s.phase = documentMenuPhase
	switch {
	case msg.Err == nil && msg.Doc != nil:
		s.notice = ""
		return s, emit(tui.DocumentAttachedMsg{Doc: msg.Doc})
	case errors.Is(msg.Err, device.ErrPermissionDenied):
		s.notice = CameraPermissionNotice
	case errors.Is(msg.Err, device.ErrCameraUnavailable):
		s.notice = "No camera is available on this device"
	case errors.Is(msg.Err, device.ErrCaptureTimeout):
		s.notice = "The camera did not respond in time. Try again or select a file."
	case errors.Is(msg.Err, device.ErrCancelled), msg.Err == nil:
		// Nothing chosen; the current document stays.
	default:
		s.notice = fmt.Sprintf("Could not use that document: %v", msg.Err)
	}
	return s, nil
}

func (s *DocumentStep) View(width int) string {
	out := heading(s.styles, verification.StepDocument, "Upload a clear image of your ID.")

	switch s.phase {
	case documentBrowsePhase:
		return out + s.browser.View()
	case documentCapturePhase:
		return out + "  " + s.spinner.View() + " " + s.styles.AccentTxt.Render("Waiting for the camera...") + "\n"
	}

	if s.doc != nil {
		box := components.SummaryBox{
			Title:      "Attached",
			TitleStyle: s.styles.SuccessTxt.Bold(true),
			Rows: []components.SummaryRow{
				{Key: "Document", Value: s.doc.Name},
				{Key: "Source", Value: sourceLabel(s.doc.Source)},
			},
			KeyStyle:    s.styles.SummaryKey,
			ValueStyle:  s.styles.SummaryValue,
			EmptyStyle:  s.styles.DimTxt,
			BorderStyle: s.styles.ActiveBorder.Padding(0, 1),
		}
		out += box.View(width) + "\n\n"
	}
	if s.err != "" {
		out += "  " + s.styles.ErrorTxt.Render("✗ "+s.err) + "\n\n"
	}
	if s.notice != "" {
		out += notice(s.styles, s.notice, width) + "\n"
	}
	out += s.menu.View(width) + "\n"
	out += s.kbd.View()
	return out
}

func (s *DocumentStep) Summary() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.Name + " · " + sourceLabel(s.doc.Source)
}

func (s *DocumentStep) Load(form verification.Form, errs verification.FieldErrors) {
	s.doc = form.Document
	s.err = errs[verification.FieldDocument]
}

// Notice returns the message currently shown above the menu.
func (s *DocumentStep) Notice() string {
	return s.notice
}

func sourceLabel(src verification.DocumentSource) string {
	switch src {
	case verification.SourceCamera:
		return "camera"
	case verification.SourceLibrary:
		return "photo library"
	}
	return string(src)
}

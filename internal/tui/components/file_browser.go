package components

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FileBrowser lets the user pick a file from disk. Only files with one of
// the allowed extensions can be chosen.
type FileBrowser struct {
	picker    filepicker.Model
	done      bool
	cancelled bool
	path      string
	notice    string

	DirStyle    lipgloss.Style
	NoticeStyle lipgloss.Style
	kbd         KbdHint
}

// NewFileBrowser creates a browser rooted at startDir. Extensions are
// matched case-insensitively.
func NewFileBrowser(startDir string, extensions []string, accent lipgloss.Color, noticeStyle lipgloss.Style, kbd KbdHint) FileBrowser {
	fp := filepicker.New()
	fp.CurrentDirectory = startDir
	fp.AllowedTypes = withUpper(extensions)
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)

	kbd.Bindings = PickerHints()

	return FileBrowser{
		picker:      fp,
		DirStyle:    lipgloss.NewStyle().Foreground(accent).Bold(true),
		NoticeStyle: noticeStyle,
		kbd:         kbd,
	}
}

func withUpper(exts []string) []string {
	out := make([]string, 0, len(exts)*2)
	for _, e := range exts {
		out = append(out, strings.ToLower(e), strings.ToUpper(e))
	}
	return out
}

// Init reads the starting directory.
func (b FileBrowser) Init() tea.Cmd {
	return b.picker.Init()
}

// Update handles navigation and selection.
func (b FileBrowser) Update(msg tea.Msg) (FileBrowser, tea.Cmd) {
	if b.done || b.cancelled {
		return b, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "q" {
		b.cancelled = true
		return b, nil
	}

	var cmd tea.Cmd
	b.picker, cmd = b.picker.Update(msg)

	if ok, path := b.picker.DidSelectFile(msg); ok {
		b.done = true
		b.path = path
		return b, cmd
	}
	if ok, path := b.picker.DidSelectDisabledFile(msg); ok {
		b.notice = filepath.Base(path) + " is not a supported image"
	}
	return b, cmd
}

// View renders the current directory listing.
func (b FileBrowser) View() string {
	var out string
	out += "  " + b.DirStyle.Render(b.picker.CurrentDirectory) + "\n\n"
	out += b.picker.View() + "\n"
	if b.notice != "" {
		out += "  " + b.NoticeStyle.Render(b.notice) + "\n"
	}
	out += "\n" + b.kbd.View()
	return out
}

// Done returns true when a file was chosen.
func (b FileBrowser) Done() bool {
	return b.done
}

// Cancelled returns true when the user left without choosing.
func (b FileBrowser) Cancelled() bool {
	return b.cancelled
}

// Path returns the chosen file.
func (b FileBrowser) Path() string {
	return b.path
}

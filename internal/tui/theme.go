package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TermTheme is the color palette the wizard renders with.
type TermTheme struct {
	Name string

	Accent    lipgloss.Color
	AccentDim lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Dim       lipgloss.Color

	Border       lipgloss.Color
	ActiveBorder lipgloss.Color
	// OnAccent is the text color placed on filled badges.
	OnAccent lipgloss.Color
}

// DarkTheme is used unless the terminal reports a light background.
var DarkTheme = TermTheme{
	Name:         "dark",
	Accent:       "#2dd4bf",
	AccentDim:    "#0f766e",
	Success:      "#4ade80",
	Warning:      "#facc15",
	Error:        "#f87171",
	Primary:      "#e5e7eb",
	Secondary:    "#9ca3af",
	Dim:          "#4b5563",
	Border:       "#374151",
	ActiveBorder: "#2dd4bf",
	OnAccent:     "#042f2e",
}

// LightTheme suits terminals with a light background.
var LightTheme = TermTheme{
	Name:         "light",
	Accent:       "#0f766e",
	AccentDim:    "#134e4a",
	Success:      "#15803d",
	Warning:      "#a16207",
	Error:        "#b91c1c",
	Primary:      "#111827",
	Secondary:    "#374151",
	Dim:          "#6b7280",
	Border:       "#d1d5db",
	ActiveBorder: "#0f766e",
	OnAccent:     "#f0fdfa",
}

var themes = map[string]TermTheme{
	DarkTheme.Name:  DarkTheme,
	LightTheme.Name: LightTheme,
}

// DetectTheme picks a theme from the flag or config value, then the
// COVERCARE_THEME env var, then the terminal's COLORFGBG hint. "auto" and
// unknown names fall through to the next source.
func DetectTheme(preferred string) TermTheme {
	for _, name := range []string{preferred, os.Getenv("COVERCARE_THEME")} {
		if t, ok := themes[strings.ToLower(strings.TrimSpace(name))]; ok {
			return t
		}
	}
	if lightBackground(os.Getenv("COLORFGBG")) {
		return LightTheme
	}
	return DarkTheme
}

// lightBackground reads COLORFGBG ("fg;bg" or "fg;default;bg"). Background
// colors 7 and 15 are white.
func lightBackground(colorfgbg string) bool {
	parts := strings.Split(colorfgbg, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return bg == 7 || bg == 15
}

// StyleSet contains pre-computed lipgloss styles derived from a theme.
type StyleSet struct {
	Theme TermTheme

	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	AccentTxt    lipgloss.Style
	DimTxt       lipgloss.Style
	SuccessTxt   lipgloss.Style
	WarningTxt   lipgloss.Style
	ErrorTxt     lipgloss.Style
	PrimaryTxt   lipgloss.Style
	SecondaryTxt lipgloss.Style

	// Field borders by state.
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
	ErrorBorder    lipgloss.Style

	KbdKey  lipgloss.Style
	KbdDesc lipgloss.Style

	Banner      lipgloss.Style
	VersionPill lipgloss.Style
	Divider     lipgloss.Style

	SummaryKey   lipgloss.Style
	SummaryValue lipgloss.Style
	BorderedBox  lipgloss.Style
	NoticeBox    lipgloss.Style

	StepBadgeComplete lipgloss.Style
	StepBadgeActive   lipgloss.Style
}

// NewStyleSet creates a StyleSet from a theme.
func NewStyleSet(theme TermTheme) *StyleSet {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	box := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
	}
	badge := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Background(c).Foreground(theme.OnAccent).Bold(true).Padding(0, 1)
	}

	return &StyleSet{
		Theme: theme,

		Title:        fg(theme.Accent).Bold(true),
		Subtitle:     fg(theme.Secondary),
		AccentTxt:    fg(theme.Accent),
		DimTxt:       fg(theme.Dim),
		SuccessTxt:   fg(theme.Success),
		WarningTxt:   fg(theme.Warning),
		ErrorTxt:     fg(theme.Error),
		PrimaryTxt:   fg(theme.Primary),
		SecondaryTxt: fg(theme.Secondary),

		ActiveBorder:   box(theme.ActiveBorder),
		InactiveBorder: box(theme.Border),
		ErrorBorder:    box(theme.Error),

		KbdKey:  fg(theme.Primary).Background(theme.Dim).Padding(0, 1),
		KbdDesc: fg(theme.Dim),

		Banner:      fg(theme.Accent).Bold(true),
		VersionPill: badge(theme.AccentDim).Foreground(theme.Primary),
		Divider:     fg(theme.Border),

		SummaryKey:   fg(theme.Secondary).Width(16),
		SummaryValue: fg(theme.Primary).Bold(true),
		BorderedBox:  box(theme.Border).Padding(0, 1),
		NoticeBox:    box(theme.Warning).Foreground(theme.Warning).Padding(0, 1),

		StepBadgeComplete: badge(theme.Success),
		StepBadgeActive:   badge(theme.Accent),
	}
}

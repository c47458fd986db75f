package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	brandMark    = "✚  C O V E R C A R E"
	brandTagline = "Verify your identity to activate your health cover."
)

// RenderBanner returns the brand line, tagline and a divider sized to width.
func RenderBanner(styles *StyleSet, version string, width int) string {
	if version == "" {
		version = "dev"
	}

	rule := min(max(width-4, 20), 60)
	block := lipgloss.JoinVertical(lipgloss.Left,
		styles.Banner.Render(brandMark)+"  "+styles.VersionPill.Render("v"+version),
		styles.Subtitle.Render(brandTagline),
		styles.Divider.Render(strings.Repeat("─", rule)),
	)
	return lipgloss.NewStyle().PaddingLeft(2).Render(block) + "\n\n"
}

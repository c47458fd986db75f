package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SingleSelectItem represents an option in a single-select list.
type SingleSelectItem struct {
	Label       string
	Value       string
	Description string
	Icon        string
}

// SelectColors holds the colors a SingleSelect renders with.
type SelectColors struct {
	Accent       lipgloss.Color
	Primary      lipgloss.Color
	Secondary    lipgloss.Color
	Dim          lipgloss.Color
	Border       lipgloss.Color
	ActiveBorder lipgloss.Color
	Error        lipgloss.Color
}

// SingleSelect is a navigable radio-button list. In compact mode items are
// rendered one per line instead of in bordered cards.
type SingleSelect struct {
	Items    []SingleSelectItem
	Compact  bool
	cursor   int
	selected int
	done     bool
	blurred  bool
	err      string

	colors         SelectColors
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
}

// NewSingleSelect creates a new single-select component.
func NewSingleSelect(items []SingleSelectItem, colors SelectColors) SingleSelect {
	return SingleSelect{
		Items:    items,
		selected: -1,
		colors:   colors,
		ActiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.ActiveBorder).
			Padding(0, 1),
		InactiveBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Border).
			Padding(0, 1),
	}
}

// Init resets done state so the component can be re-used after back-navigation.
func (s *SingleSelect) Init() tea.Cmd {
	s.done = false
	return nil
}

// Update handles keyboard input.
func (s SingleSelect) Update(msg tea.Msg) (SingleSelect, tea.Cmd) {
	if s.done || s.blurred {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.Items)-1 {
				s.cursor++
			}
		case "enter", " ":
			s.selected = s.cursor
			s.done = true
		}
	}

	return s, nil
}

// View renders the select list.
func (s SingleSelect) View(width int) string {
	if s.Compact {
		return s.compactView()
	}

	var out string

	itemWidth := width - 6
	if itemWidth < 30 {
		itemWidth = 30
	}

	for i, item := range s.Items {
		isCursor := i == s.cursor && !s.blurred
		var radio, icon, label, desc string

		if item.Icon != "" {
			icon = item.Icon + "  "
		}
		if isCursor {
			radio = lipgloss.NewStyle().Foreground(s.colors.Accent).Render("◉")
			label = lipgloss.NewStyle().Foreground(s.colors.Primary).Bold(true).Render(item.Label)
			if item.Description != "" {
				desc = "\n      " + lipgloss.NewStyle().Foreground(s.colors.Secondary).Render(item.Description)
			}
		} else {
			radio = lipgloss.NewStyle().Foreground(s.colors.Dim).Render("○")
			label = lipgloss.NewStyle().Foreground(s.colors.Secondary).Render(item.Label)
		}

		firstLine := fmt.Sprintf("  %s%s", icon, label)
		padding := itemWidth - lipgloss.Width(firstLine) - 4
		if padding < 1 {
			padding = 1
		}
		content := firstLine + strings.Repeat(" ", padding) + radio + desc

		border := s.InactiveBorder.Width(itemWidth)
		if isCursor {
			border = s.ActiveBorder.Width(itemWidth)
		}
		out += "  " + border.Render(content) + "\n"
	}

	return out + s.errView()
}

func (s SingleSelect) compactView() string {
	var out string
	for i, item := range s.Items {
		var pointer, radio, label string
		switch {
		case i == s.cursor && !s.blurred:
			pointer = lipgloss.NewStyle().Foreground(s.colors.Accent).Render("›")
			label = lipgloss.NewStyle().Foreground(s.colors.Primary).Bold(true).Render(item.Label)
		default:
			pointer = " "
			label = lipgloss.NewStyle().Foreground(s.colors.Secondary).Render(item.Label)
		}
		if i == s.selected {
			radio = lipgloss.NewStyle().Foreground(s.colors.Accent).Render("◉")
		} else {
			radio = lipgloss.NewStyle().Foreground(s.colors.Dim).Render("○")
		}
		out += fmt.Sprintf("  %s %s %s\n", pointer, radio, label)
	}
	return out + s.errView()
}

func (s SingleSelect) errView() string {
	if s.err == "" {
		return ""
	}
	return "  " + lipgloss.NewStyle().Foreground(s.colors.Error).Render("✗ "+s.err) + "\n"
}

// Done returns true when a selection has been made.
func (s SingleSelect) Done() bool {
	return s.done
}

// Reset clears the done state so the user can pick again. The last
// selection stays marked.
func (s *SingleSelect) Reset() {
	s.done = false
}

// Focus lets the list react to keys again.
func (s *SingleSelect) Focus() {
	s.blurred = false
	s.done = false
}

// Blur stops the list from reacting to keys.
func (s *SingleSelect) Blur() {
	s.blurred = true
}

// Focused reports whether the list reacts to keys.
func (s SingleSelect) Focused() bool {
	return !s.blurred
}

// Select marks the item with the given value and moves the cursor to it.
// An unknown value clears the selection.
func (s *SingleSelect) Select(value string) {
	s.selected = -1
	for i, item := range s.Items {
		if item.Value == value {
			s.selected = i
			s.cursor = i
			return
		}
	}
}

// SetError sets or, with "", clears the inline error.
func (s *SingleSelect) SetError(msg string) {
	s.err = msg
}

// Selected returns the index and value of the selected item.
func (s SingleSelect) Selected() (int, string) {
	if s.selected >= 0 && s.selected < len(s.Items) {
		return s.selected, s.Items[s.selected].Value
	}
	return -1, ""
}

// SelectedItem returns the selected item, or nil if none selected.
func (s SingleSelect) SelectedItem() *SingleSelectItem {
	if s.selected >= 0 && s.selected < len(s.Items) {
		return &s.Items[s.selected]
	}
	return nil
}

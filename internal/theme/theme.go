package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme captures the lipgloss styles used across the player UI.
type Theme struct {
	Message lipgloss.Style
	Header  lipgloss.Style
	Title   lipgloss.Style
	Normal  lipgloss.Style
	Dim     lipgloss.Style
	Date    lipgloss.Style
	Spinner lipgloss.Style
	Key     lipgloss.Style
	Error   lipgloss.Style
}

// Default is the canonical name of the built-in default theme.
const Default = "default"

var themes = map[string]Theme{
	Default: {
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Normal:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Date:    lipgloss.NewStyle().Foreground(lipgloss.Color("246")),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	},
	"high_contrast": {
		Message: lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Normal:  lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		Date:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Spinner: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	},
}

// Names returns the sorted list of available theme names.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForName returns the theme with the provided name, defaulting if unknown.
func ForName(name string) Theme {
	key := strings.ToLower(strings.TrimSpace(name))
	if theme, ok := themes[key]; ok {
		return theme
	}
	return themes[Default]
}

package tui

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Name      string
	Base      lipgloss.Style
	Border    lipgloss.Color
	Header    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Row       lipgloss.Style
	Selected  lipgloss.Style
	Pending   lipgloss.Style
	Approved  lipgloss.Style
	Rejected  lipgloss.Style
	Redo      lipgloss.Style
	Input     lipgloss.Style
	Error     lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

var Themes = map[string]Theme{
	"default": {
		Name:      "Default",
		Base:      lipgloss.NewStyle().Margin(1, 2),
		Border:    lipgloss.Color("63"),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Tab:       lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Underline(true).Padding(0, 1),
		Row:       lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Approved:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		Rejected:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Redo:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		Input:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1).Width(60),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	},
	"dracula": {
		Name:      "Dracula",
		Base:      lipgloss.NewStyle().Margin(1, 2),
		Border:    lipgloss.Color("62"),
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("50")).Bold(true),
		Tab:       lipgloss.NewStyle().Foreground(lipgloss.Color("60")).Padding(0, 1),
		ActiveTab: lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Underline(true).Padding(0, 1),
		Row:       lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		Pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true),
		Approved:  lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true),
		Rejected:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Redo:      lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Bold(true),
		Input:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("50")).Padding(0, 1).Width(60),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("210")).Bold(true),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("60")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("62")),
	},
}

// CurrentTheme holds the currently active theme.
var CurrentTheme = Themes["default"]

func SetTheme(name string) {
	if t, ok := Themes[name]; ok {
		CurrentTheme = t
	}
}

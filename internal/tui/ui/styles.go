package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary    = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary  = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning    = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError      = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted      = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
	ColorText       = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"} // Text
	ColorBackground = lipgloss.AdaptiveColor{Light: "#eff1f5", Dark: "#1e1e2e"} // Base
)

// Styles contains reusable lipgloss styles for the TUI.
type Styles struct {
	App      lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Field status messages
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Field rows
	Field       lipgloss.Style
	FieldActive lipgloss.Style
	FileName    lipgloss.Style

	Panel lipgloss.Style

	Help    lipgloss.Style
	HelpKey lipgloss.Style

	ProgressBar lipgloss.Style
	Spinner     lipgloss.Style

	Banner lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Subtitle: lipgloss.NewStyle().
			Foreground(ColorSecondary),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Error: lipgloss.NewStyle().
			Foreground(ColorError),

		Info: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		Field: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(ColorText),

		FieldActive: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(ColorPrimary).
			Bold(true),

		FileName: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(ColorMuted),

		HelpKey: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),

		ProgressBar: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Spinner: lipgloss.NewStyle().
			Foreground(ColorPrimary),

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBackground).
			Background(ColorSuccess).
			Padding(0, 2),
	}
}

// WithWidth returns styles adapted for a specific terminal width.
func (s Styles) WithWidth(width int) Styles {
	s.Panel = s.Panel.Width(width - 4)
	s.App = s.App.Width(width)
	return s
}

// Status returns the style for a field status message. Errors and failed
// validations share the error colour; plain successes use the success colour.
func (s Styles) Status(kind fieldstore.StatusKind) lipgloss.Style {
	switch kind {
	case fieldstore.StatusSuccess:
		return s.Success
	case fieldstore.StatusError:
		return s.Error
	case fieldstore.StatusValidationFailure:
		return s.Warning
	default:
		return s.Help
	}
}

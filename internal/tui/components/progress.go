// Package components provides small reusable bubbletea views.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/stepcheck/internal/tui/ui"
)

// Progress displays a progress bar with an optional label.
type Progress struct {
	percent float64
	label   string
	width   int
	styles  ui.Styles
}

// NewProgress creates a new progress component.
func NewProgress() Progress {
	return Progress{
		width:  ui.DefaultProgressBarWidth,
		styles: ui.DefaultStyles(),
	}
}

// Percent returns the current percentage (0.0 to 1.0).
func (p Progress) Percent() float64 {
	return p.percent
}

// Label returns the current label.
func (p Progress) Label() string {
	return p.label
}

// Width returns the progress bar width.
func (p Progress) Width() int {
	return p.width
}

// SetPercent sets the progress percentage, clamped to [0, 1].
func (p Progress) SetPercent(percent float64) Progress {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	p.percent = percent
	return p
}

// SetLabel sets the text shown after the percentage.
func (p Progress) SetLabel(label string) Progress {
	p.label = label
	return p
}

// WithWidth sets the progress bar width.
func (p Progress) WithWidth(width int) Progress {
	if width < 3 {
		width = 3
	}
	p.width = width
	return p
}

// WithStyles sets the styles.
func (p Progress) WithStyles(styles ui.Styles) Progress {
	p.styles = styles
	return p
}

// View renders the progress bar.
func (p Progress) View() string {
	var b strings.Builder

	barWidth := p.width - 2 // brackets
	filled := int(p.percent * float64(barWidth))
	empty := barWidth - filled

	bar := fmt.Sprintf("[%s%s]",
		strings.Repeat("█", filled),
		strings.Repeat("░", empty),
	)
	b.WriteString(p.styles.ProgressBar.Render(bar))
	b.WriteString(fmt.Sprintf(" %3.0f%%", p.percent*100))

	if p.label != "" {
		b.WriteString(" ")
		b.WriteString(p.styles.Help.Render(p.label))
	}

	return b.String()
}

// Spinner displays an animated spinner with optional message.
type Spinner struct {
	spinner spinner.Model
	message string
}

// NewSpinner creates a new spinner component.
func NewSpinner() Spinner {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ui.DefaultStyles().Spinner

	return Spinner{spinner: s}
}

// Message returns the current message.
func (s Spinner) Message() string {
	return s.message
}

// SetMessage sets the spinner message.
func (s Spinner) SetMessage(message string) Spinner {
	s.message = message
	return s
}

// Tick returns the command that starts the animation.
func (s Spinner) Tick() tea.Msg {
	return s.spinner.Tick()
}

// Update handles spinner animation.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner.
func (s Spinner) View() string {
	if s.message != "" {
		return fmt.Sprintf("%s %s", s.spinner.View(), s.message)
	}
	return s.spinner.View()
}

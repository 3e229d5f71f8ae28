package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/domain/process"
	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
	"github.com/felixgeelhaar/stepcheck/internal/tui/components"
	"github.com/felixgeelhaar/stepcheck/internal/tui/ui"
)

// Controller is the part of the step controller the wizard drives.
type Controller interface {
	State() process.State
	SelectFile(ctx context.Context, field string, file *upload.File) error
	Validate(ctx context.Context) process.Result
	Proceed() int
	CanProceed() bool
}

// validationDoneMsg carries the result of a validation round.
type validationDoneMsg struct {
	result process.Result
}

// storeChangedMsg is sent whenever the field store publishes a snapshot.
type storeChangedMsg struct{}

const msgGated = "Validate every field of this step before proceeding."

// wizardModel walks the operator through the steps of the catalog.
type wizardModel struct {
	ctx    context.Context
	ctrl   Controller
	fs     ports.FileSystem
	styles ui.Styles
	keys   ui.KeyMap
	width  int
	height int

	state  process.State
	cursor int

	// Path entry
	editing bool
	input   textinput.Model

	// Validation rounds in flight
	validating int
	spinner    components.Spinner
	progress   components.Progress

	lastResult *process.Result
	notice     string
	showHelp   bool
	cancelled  bool
}

func newWizardModel(ctx context.Context, ctrl Controller, fs ports.FileSystem) wizardModel {
	input := textinput.New()
	input.Placeholder = "path/to/photo.jpg"
	input.CharLimit = ui.DefaultPathCharLimit
	input.Prompt = "File: "

	m := wizardModel{
		ctx:      ctx,
		ctrl:     ctrl,
		fs:       fs,
		styles:   ui.DefaultStyles(),
		keys:     ui.DefaultKeyMap(),
		width:    ui.DefaultWidth,
		height:   ui.DefaultHeight,
		input:    input,
		spinner:  components.NewSpinner(),
		progress: components.NewProgress(),
	}
	m.refresh()
	return m
}

func (m wizardModel) Init() tea.Cmd {
	return nil
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		m.progress = m.progress.WithStyles(m.styles).WithWidth(min(msg.Width-20, ui.DefaultProgressBarWidth))
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditingKey(msg)
		}
		return m.handleKeyMsg(msg)

	case validationDoneMsg:
		m.validating--
		m.refresh()
		// A round started before Proceed only updates its own step's fields.
		if msg.result.StepIndex != m.state.StepIndex {
			return m, nil
		}
		res := msg.result
		m.lastResult = &res
		m.notice = summarize(res)
		return m, nil

	case storeChangedMsg:
		m.refresh()
		return m, nil
	}

	if m.validating > 0 {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m wizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelled = !m.state.Completed
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case m.keys.IsUp(msg):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case m.keys.IsDown(msg):
		if m.cursor < len(m.state.Fields)-1 {
			m.cursor++
		}
		return m, nil
	}

	if m.state.Completed {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Attach):
		if len(m.state.Fields) == 0 {
			return m, nil
		}
		m.editing = true
		m.notice = ""
		m.input.Reset()
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Validate):
		m.validating++
		m.notice = ""
		m.spinner = m.spinner.SetMessage(fmt.Sprintf("Validating %d fields…", len(m.state.Fields)))
		return m, tea.Batch(m.spinner.Tick, validateCmd(m.ctx, m.ctrl))

	case key.Matches(msg, m.keys.Proceed):
		if !m.ctrl.CanProceed() {
			m.notice = msgGated
			return m, nil
		}
		m.ctrl.Proceed()
		m.cursor = 0
		m.lastResult = nil
		m.notice = ""
		m.refresh()
		return m, nil
	}

	return m, nil
}

func (m wizardModel) handleEditingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.editing = false
		m.input.Blur()
		m.attach(strings.TrimSpace(m.input.Value()))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// attach binds the file at path to the field under the cursor. An empty
// path is an empty selection.
func (m *wizardModel) attach(path string) {
	if m.cursor >= len(m.state.Fields) {
		return
	}
	field := m.state.Fields[m.cursor].Field.String()

	var file *upload.File
	if path != "" {
		f, err := upload.FromPath(m.fs, path)
		if err != nil {
			m.notice = err.Error()
			return
		}
		file = f
	}

	err := m.ctrl.SelectFile(m.ctx, field, file)
	var rej *upload.Rejection
	if err != nil && !errors.As(err, &rej) {
		m.notice = err.Error()
	}
}

// refresh re-reads controller state after anything that may have changed it.
func (m *wizardModel) refresh() {
	m.state = m.ctrl.State()
	if m.cursor >= len(m.state.Fields) {
		m.cursor = max(len(m.state.Fields)-1, 0)
	}
	label := fmt.Sprintf("Step %d of %d", min(m.state.StepNumber(), m.state.StepCount), m.state.StepCount)
	m.progress = m.progress.SetPercent(m.state.Progress).SetLabel(label)
}

func validateCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		return validationDoneMsg{result: ctrl.Validate(ctx)}
	}
}

func summarize(res process.Result) string {
	if res.Completed {
		return ""
	}
	failed := 0
	for _, f := range res.Fields {
		if !f.Passed {
			failed++
		}
	}
	if failed == 0 {
		return fmt.Sprintf("All %d fields validated.", len(res.Fields))
	}
	return fmt.Sprintf("%d of %d fields failed validation.", failed, len(res.Fields))
}

func (m wizardModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("stepcheck"))
	b.WriteString("\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n\n")

	if m.state.Completed {
		b.WriteString(m.styles.Banner.Render(process.MsgCompleted))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Help.Render("q quit"))
		return m.styles.App.Render(b.String())
	}

	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("Step %d: %s", m.state.StepNumber(), m.state.Step.Title)))
	b.WriteString("\n\n")

	for i, f := range m.state.Fields {
		b.WriteString(m.viewField(i, f))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.validating > 0 {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		style := m.styles.Info
		if (m.lastResult != nil && !m.lastResult.Passed) || m.notice == msgGated {
			style = m.styles.Warning
		}
		b.WriteString(style.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.viewHelp())
	return m.styles.App.Render(b.String())
}

func (m wizardModel) viewField(i int, f process.FieldState) string {
	marker := "  "
	style := m.styles.Field
	if i == m.cursor {
		marker = "> "
		style = m.styles.FieldActive
	}

	line := style.Render(marker + f.Field.String())
	if f.HasFile {
		line += "  " + m.styles.FileName.Render(f.FileName)
	}
	if f.Status.Kind != fieldstore.StatusNone {
		line += "\n      " + m.styles.Status(f.Status.Kind).Render(f.Status.Message)
	}
	return line
}

func (m wizardModel) viewHelp() string {
	if !m.showHelp {
		return m.styles.Help.Render("↑/↓ field • enter attach • v validate • p proceed • ? help • q quit")
	}
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, kb := range m.keys.ShortHelp() {
		h := kb.Help()
		parts = append(parts, m.styles.HelpKey.Render(h.Key)+" "+m.styles.Help.Render(h.Desc))
	}
	return strings.Join(parts, "\n")
}

// Cancelled returns true if the operator quit before completing every step.
func (m wizardModel) Cancelled() bool {
	return m.cancelled
}

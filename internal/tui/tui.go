// Package tui provides the interactive terminal wizard for stepcheck.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/domain/process"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// WizardOptions configures the wizard.
type WizardOptions struct {
	// FileSystem resolves the paths the operator types.
	FileSystem ports.FileSystem
	// Store, when set, triggers a redraw on every field store change.
	Store *fieldstore.Store
}

// WizardResult holds the outcome of a wizard session.
type WizardResult struct {
	State     process.State
	Cancelled bool
}

// RunWizard runs the step wizard until the operator quits.
func RunWizard(ctx context.Context, ctrl Controller, opts WizardOptions) (*WizardResult, error) {
	model := newWizardModel(ctx, ctrl, opts.FileSystem)

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	if opts.Store != nil {
		// Send blocks until the event loop reads it, and the store calls
		// observers under its lock.
		opts.Store.OnPublish(func(*fieldstore.Snapshot) {
			go p.Send(storeChangedMsg{})
		})
		defer opts.Store.OnPublish(nil)
	}

	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	m, ok := finalModel.(wizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}

	return &WizardResult{
		State:     ctrl.State(),
		Cancelled: m.Cancelled(),
	}, nil
}

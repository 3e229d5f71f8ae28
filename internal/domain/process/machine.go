package process

import (
	"github.com/felixgeelhaar/statekit"
)

// Phase is the controller's coarse state.
type Phase string

const (
	// PhaseActive means a step is open for uploads and no validation is running.
	PhaseActive Phase = "active"
	// PhaseValidating means at least one validation round is in flight.
	PhaseValidating Phase = "validating"
	// PhaseCompleted means the operator advanced past the last step.
	PhaseCompleted Phase = "completed"
)

// Event types for the phase machine.
const (
	EventValidate  = "VALIDATE"
	EventValidated = "VALIDATED"
	EventProceed   = "PROCEED"
	EventFinish    = "FINISH"
)

// machineContext is the statekit context. Step bookkeeping lives on the
// controller; the machine only tracks the phase.
type machineContext struct{}

// buildMachine constructs the phase machine. onEnter is called from entry
// actions with the phase being entered.
func buildMachine(onEnter func(Phase)) (*statekit.Interpreter[machineContext], error) {
	machine, err := statekit.NewMachine[machineContext]("stepcheck-process").
		WithInitial(statekit.StateID(PhaseActive)).
		WithContext(machineContext{}).
		WithAction("enterActive", func(_ *machineContext, _ statekit.Event) {
			onEnter(PhaseActive)
		}).
		WithAction("enterValidating", func(_ *machineContext, _ statekit.Event) {
			onEnter(PhaseValidating)
		}).
		WithAction("enterCompleted", func(_ *machineContext, _ statekit.Event) {
			onEnter(PhaseCompleted)
		}).
		// Active: waiting for uploads or a validation request
		State(statekit.StateID(PhaseActive)).
		OnEntry("enterActive").
		On(EventValidate).Target(statekit.StateID(PhaseValidating)).
		On(EventProceed).Target(statekit.StateID(PhaseActive)).
		On(EventFinish).Target(statekit.StateID(PhaseCompleted)).Done().
		// Validating: one or more rounds in flight
		State(statekit.StateID(PhaseValidating)).
		OnEntry("enterValidating").
		On(EventValidated).Target(statekit.StateID(PhaseActive)).
		On(EventProceed).Target(statekit.StateID(PhaseValidating)).
		On(EventFinish).Target(statekit.StateID(PhaseCompleted)).Done().
		// Completed: every step has been passed
		State(statekit.StateID(PhaseCompleted)).
		OnEntry("enterCompleted").
		On(EventProceed).Target(statekit.StateID(PhaseCompleted)).
		On(EventValidate).Target(statekit.StateID(PhaseCompleted)).
		On(EventValidated).Target(statekit.StateID(PhaseCompleted)).Done().
		Build()

	if err != nil {
		return nil, err
	}

	return statekit.NewInterpreter(machine), nil
}

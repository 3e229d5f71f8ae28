package process

import (
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
)

// FieldState is the view of one required field of the current step.
type FieldState struct {
	Field    catalog.FieldName `json:"field"`
	FileName string            `json:"file,omitempty"`
	HasFile  bool              `json:"has_file"`
	Status   fieldstore.Status `json:"status"`
}

// State is a consistent view of the controller for rendering.
type State struct {
	StepIndex int   `json:"step_index"`
	StepCount int   `json:"step_count"`
	Phase     Phase `json:"phase"`
	Completed bool  `json:"completed"`
	// Step is the zero value once Completed is true.
	Step     catalog.Step `json:"step"`
	Fields   []FieldState `json:"fields,omitempty"`
	Progress float64      `json:"progress"`
	// Version is the field store snapshot the field states were read from.
	Version uint64 `json:"version"`
}

// StepNumber returns the 1-based step number.
func (s State) StepNumber() int {
	return s.StepIndex + 1
}

// State returns the current step, phase and field states. Field states come
// from a single store snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	index := c.index
	phase := c.phase()
	c.mu.Unlock()

	n := c.catalog.Len()
	st := State{
		StepIndex: index,
		StepCount: n,
		Phase:     phase,
		Completed: index >= n,
		Progress:  progress(index, n),
	}

	snap := c.store.Snapshot()
	st.Version = snap.Version

	step, ok := c.catalog.Step(index)
	if !ok {
		return st
	}
	st.Step = step
	st.Fields = make([]FieldState, len(step.Fields))
	for i, f := range step.Fields {
		entry := snap.Get(fieldstore.Key{Step: index, Field: f})
		fs := FieldState{Field: f, Status: entry.Status}
		if entry.File != nil {
			fs.HasFile = true
			fs.FileName = entry.File.Name
		}
		st.Fields[i] = fs
	}
	return st
}

// progress is (index+1)/n, capped at 1.
func progress(index, n int) float64 {
	if n <= 0 {
		return 1
	}
	p := float64(index+1) / float64(n)
	if p > 1 {
		return 1
	}
	return p
}

// GatingPolicy decides whether the operator may leave the current step.
type GatingPolicy func(State) bool

// Ungated always allows proceeding.
func Ungated(State) bool {
	return true
}

// AllFieldsValidated allows proceeding once every field of the current step
// has passed remote validation. A completed process never proceeds.
func AllFieldsValidated(s State) bool {
	if s.Completed || len(s.Fields) == 0 {
		return false
	}
	for _, f := range s.Fields {
		if f.Status.Kind != fieldstore.StatusSuccess || !f.Status.Remote {
			return false
		}
	}
	return true
}

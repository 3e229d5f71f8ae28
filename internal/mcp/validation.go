package mcp

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/stepcheck/internal/app"
	"github.com/felixgeelhaar/stepcheck/internal/validation"
)

// ValidateCheckStepInput validates CheckStepInput fields. With a non-empty
// root every path must resolve inside it.
func ValidateCheckStepInput(in *CheckStepInput, steps int, root string) error {
	if in.Step < 1 || in.Step > steps {
		return fmt.Errorf("invalid step: %d (catalog has %d steps)", in.Step, steps)
	}
	for field, path := range in.Files {
		if err := validation.ValidateFieldName(field); err != nil {
			return fmt.Errorf("invalid field %q: %w", field, err)
		}
		var err error
		if root != "" {
			err = validation.ValidatePathWithBase(path, root)
		} else {
			err = validation.ValidatePath(path)
		}
		if err != nil {
			return fmt.Errorf("invalid path for %q: %w", field, err)
		}
	}
	return nil
}

// sortBindings orders bindings by field so map input gives stable logs.
func sortBindings(b []app.Binding) {
	sort.Slice(b, func(i, j int) bool { return b[i].Field < b[j].Field })
}

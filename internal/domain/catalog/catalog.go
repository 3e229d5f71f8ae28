// Package catalog defines the ordered, read-only list of process steps and the
// upload fields each step requires.
package catalog

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stepcheck/internal/config"
	"golang.org/x/text/cases"
)

// FieldName identifies an upload slot within a step. Names are unique within
// a step but may repeat across steps; each occurrence is its own binding.
type FieldName string

// String returns the field name.
func (f FieldName) String() string {
	return string(f)
}

// Step is one stage of the process.
type Step struct {
	Title  string      `json:"title" yaml:"title" toml:"title"`
	Fields []FieldName `json:"fields" yaml:"fields" toml:"fields"`
}

// HasField reports whether name is a required field of the step.
func (s Step) HasField(name FieldName) bool {
	for _, f := range s.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Catalog is an immutable ordered list of steps.
type Catalog struct {
	steps []Step
}

// NewCatalog validates steps and returns a catalog holding a private copy.
func NewCatalog(steps ...Step) (*Catalog, error) {
	if len(steps) == 0 {
		return nil, config.NewUserError(config.ErrCodeCatalogInvalid, "catalog has no steps").
			WithSuggestion("define at least one step with one field")
	}

	copied := make([]Step, len(steps))
	for i, s := range steps {
		where := fmt.Sprintf("step %d", i+1)
		title := strings.TrimSpace(s.Title)
		if title == "" {
			return nil, config.NewUserError(config.ErrCodeCatalogInvalid, "step has no title").WithContext(where)
		}
		if len(s.Fields) == 0 {
			return nil, config.NewUserError(config.ErrCodeCatalogInvalid, "step has no fields").
				WithContext(fmt.Sprintf("%s %q", where, title))
		}

		seen := make(map[FieldName]bool, len(s.Fields))
		fields := make([]FieldName, 0, len(s.Fields))
		for _, f := range s.Fields {
			name := FieldName(strings.TrimSpace(string(f)))
			if name == "" {
				return nil, config.NewUserError(config.ErrCodeCatalogInvalid, "field name is empty").
					WithContext(fmt.Sprintf("%s %q", where, title))
			}
			if seen[name] {
				return nil, config.NewUserError(config.ErrCodeCatalogInvalid,
					fmt.Sprintf("field %q is declared twice", name)).
					WithContext(fmt.Sprintf("%s %q", where, title)).
					WithSuggestion("field names must be unique within a step")
			}
			seen[name] = true
			fields = append(fields, name)
		}
		copied[i] = Step{Title: title, Fields: fields}
	}

	return &Catalog{steps: copied}, nil
}

// MustNewCatalog is NewCatalog for static data; it panics on invalid input.
func MustNewCatalog(steps ...Step) *Catalog {
	c, err := NewCatalog(steps...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of steps.
func (c *Catalog) Len() int {
	return len(c.steps)
}

// Step returns the step at a zero-based index.
func (c *Catalog) Step(index int) (Step, bool) {
	if index < 0 || index >= len(c.steps) {
		return Step{}, false
	}
	s := c.steps[index]
	s.Fields = append([]FieldName(nil), s.Fields...)
	return s, true
}

// Steps returns a copy of all steps in order.
func (c *Catalog) Steps() []Step {
	out := make([]Step, len(c.steps))
	for i := range c.steps {
		out[i], _ = c.Step(i)
	}
	return out
}

// Titles returns the step titles in order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.steps))
	for i, s := range c.steps {
		titles[i] = s.Title
	}
	return titles
}

// FieldCount returns the total number of field bindings across all steps.
func (c *Catalog) FieldCount() int {
	n := 0
	for _, s := range c.steps {
		n += len(s.Fields)
	}
	return n
}

// FindField resolves name against the fields of a step, ignoring case and
// surrounding whitespace. It returns the canonical field name.
func (c *Catalog) FindField(index int, name string) (FieldName, bool) {
	if index < 0 || index >= len(c.steps) {
		return "", false
	}
	// Casers carry state, so each lookup gets its own.
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(name))
	for _, f := range c.steps[index].Fields {
		if fold.String(string(f)) == want {
			return f, true
		}
	}
	return "", false
}

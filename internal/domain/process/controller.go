// Package process drives an operator through the catalog one step at a time:
// binding files to fields, validating them remotely and advancing.
package process

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
	"github.com/felixgeelhaar/stepcheck/internal/domain/verify"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
	"golang.org/x/sync/errgroup"
)

// Controller errors.
var (
	ErrUnknownField  = errors.New("field is not required by the current step")
	ErrNoActiveStep  = errors.New("all steps are completed")
	ErrMissingConfig = errors.New("controller configuration is incomplete")
)

// Operator-facing messages.
const (
	MsgFileMissing = "No file uploaded. Validation cannot be performed."
	MsgCompleted   = "All steps completed successfully!"
)

// Config wires a controller.
type Config struct {
	Catalog   *catalog.Catalog
	Policy    upload.Policy
	Validator verify.Validator
	// Store defaults to a fresh store.
	Store  *fieldstore.Store
	Logger ports.Logger
	// Gate decides CanProceed. Nil means Ungated.
	Gate GatingPolicy
}

// Controller is safe for concurrent use. Validation rounds may overlap each
// other and step changes; results always land on the step they were started for.
type Controller struct {
	catalog   *catalog.Catalog
	policy    upload.Policy
	validator verify.Validator
	store     *fieldstore.Store
	logger    ports.Logger
	gate      GatingPolicy

	mu       sync.Mutex
	index    int
	inFlight int
	interp   *statekit.Interpreter[machineContext]
}

// New creates a controller positioned at the first step.
func New(cfg Config) (*Controller, error) {
	if cfg.Catalog == nil || cfg.Validator == nil || cfg.Logger == nil {
		return nil, ErrMissingConfig
	}
	if cfg.Store == nil {
		cfg.Store = fieldstore.New()
	}
	if cfg.Gate == nil {
		cfg.Gate = Ungated
	}

	c := &Controller{
		catalog:   cfg.Catalog,
		policy:    cfg.Policy,
		validator: cfg.Validator,
		store:     cfg.Store,
		logger:    cfg.Logger,
		gate:      cfg.Gate,
	}

	interp, err := buildMachine(c.enteredPhase)
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}
	c.interp = interp
	c.interp.Start()

	return c, nil
}

// Close stops the phase machine.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interp.Stop()
}

// Catalog returns the step catalog.
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Store returns the field store backing the controller.
func (c *Controller) Store() *fieldstore.Store {
	return c.store
}

// Policy returns the local acceptance policy.
func (c *Controller) Policy() upload.Policy {
	return c.policy
}

func (c *Controller) enteredPhase(p Phase) {
	c.logger.Debug(context.Background(), "phase entered", ports.F("phase", string(p)))
}

// send must be called with c.mu held.
func (c *Controller) send(event string) {
	c.interp.Send(statekit.Event{Type: statekit.EventType(event)})
}

// phase must be called with c.mu held.
func (c *Controller) phase() Phase {
	return Phase(c.interp.State().Value)
}

// SelectFile binds file to a field of the current step after the local policy
// accepts it. A refusal is recorded on the field and returned as *upload.Rejection.
func (c *Controller) SelectFile(ctx context.Context, field string, file *upload.File) error {
	c.mu.Lock()
	index := c.index
	c.mu.Unlock()

	if index >= c.catalog.Len() {
		return ErrNoActiveStep
	}
	name, ok := c.catalog.FindField(index, field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	key := fieldstore.Key{Step: index, Field: name}

	if err := c.policy.Accept(file); err != nil {
		var rej *upload.Rejection
		if errors.As(err, &rej) {
			c.store.Reject(key, rej.Kind, rej.Message)
			c.logger.Warn(ctx, "file rejected",
				ports.F("step", index+1),
				ports.F("field", name.String()),
				ports.F("reason", rej.Kind.String()))
		}
		return err
	}

	c.store.Accept(key, file, upload.AcceptedMessage(name.String()))
	c.logger.Info(ctx, "file accepted",
		ports.F("step", index+1),
		ports.F("field", name.String()),
		ports.F("file", file.Name),
		ports.F("size", file.Size))
	return nil
}

// FieldResult is the outcome of one field in a validation round.
type FieldResult struct {
	Field       catalog.FieldName `json:"field"`
	Passed      bool              `json:"passed"`
	Kind        upload.Kind       `json:"kind"`
	Message     string            `json:"message"`
	Measurement string            `json:"measurement,omitempty"`
	Units       string            `json:"units,omitempty"`
}

// Result is the outcome of a validation round.
type Result struct {
	StepIndex int           `json:"step_index"`
	Passed    bool          `json:"passed"`
	Completed bool          `json:"completed"`
	Fields    []FieldResult `json:"fields"`
	Duration  time.Duration `json:"duration"`
}

// Validate checks every required field of the current step. Fields without a
// file fail locally; the rest are sent to the validator concurrently and the
// round returns once all of them have answered. Passed is true only if every
// field passed.
func (c *Controller) Validate(ctx context.Context) Result {
	start := time.Now()

	c.mu.Lock()
	index := c.index
	step, ok := c.catalog.Step(index)
	if !ok {
		c.mu.Unlock()
		return Result{StepIndex: index, Completed: true}
	}
	c.inFlight++
	if c.inFlight == 1 {
		c.send(EventValidate)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.inFlight--
		if c.inFlight == 0 {
			c.send(EventValidated)
		}
	}()

	c.logger.Info(ctx, "validation started",
		ports.F("step", index+1),
		ports.F("title", step.Title),
		ports.F("fields", len(step.Fields)))

	for _, f := range step.Fields {
		c.store.Clear(fieldstore.Key{Step: index, Field: f})
	}

	results := make([]FieldResult, len(step.Fields))
	var g errgroup.Group
	for i, f := range step.Fields {
		key := fieldstore.Key{Step: index, Field: f}
		file := c.store.File(key)
		if file == nil {
			c.store.Reject(key, upload.KindFileMissingAtValidationTime, MsgFileMissing)
			results[i] = FieldResult{Field: f, Kind: upload.KindFileMissingAtValidationTime, Message: MsgFileMissing}
			c.logger.Warn(ctx, "no file to validate", ports.F("step", index+1), ports.F("field", f.String()))
			continue
		}

		g.Go(func() error {
			out := c.validator.Validate(ctx, index+1, f.String(), file)
			c.record(ctx, key, out)
			results[i] = FieldResult{
				Field:       f,
				Passed:      out.Passed,
				Kind:        out.Kind,
				Message:     out.Message,
				Measurement: out.Measurement,
				Units:       out.Units,
			}
			return nil
		})
	}
	_ = g.Wait()

	passed := true
	for _, r := range results {
		passed = passed && r.Passed
	}

	res := Result{StepIndex: index, Passed: passed, Fields: results, Duration: time.Since(start)}
	c.logger.Info(ctx, "validation finished",
		ports.F("step", index+1),
		ports.F("passed", passed),
		ports.F("duration", res.Duration.String()))
	return res
}

func (c *Controller) record(ctx context.Context, key fieldstore.Key, out verify.Outcome) {
	fields := []ports.Field{
		ports.F("step", key.Step+1),
		ports.F("field", key.Field.String()),
		ports.F("request_id", out.RequestID),
	}

	if out.Passed {
		c.store.SetStatus(key, fieldstore.Status{Kind: fieldstore.StatusSuccess, Message: out.Message, Remote: true})
		c.logger.Info(ctx, "field validated", append(fields, ports.F("measurement", out.Measurement), ports.F("units", out.Units))...)
		return
	}

	c.store.SetStatus(key, fieldstore.Status{Kind: fieldstore.StatusValidationFailure, Message: out.Message, Reason: out.Kind})
	fields = append(fields, ports.F("kind", out.Kind.String()))
	if out.StatusCode != 0 {
		fields = append(fields, ports.F("status", out.StatusCode))
	}
	if out.Err != nil {
		fields = append(fields, ports.F("error", out.Err))
	}
	c.logger.Warn(ctx, "field failed validation", fields...)
}

// Proceed advances to the next step and returns the new index. It neither
// checks validation results nor stops at the end; any index at or past the
// last step means the process is complete.
func (c *Controller) Proceed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.index++
	if c.index >= c.catalog.Len() {
		if c.phase() == PhaseCompleted {
			c.send(EventProceed)
			return c.index
		}
		c.send(EventFinish)
		c.logger.Info(context.Background(), "process completed", ports.F("index", c.index))
		return c.index
	}

	c.send(EventProceed)
	step, _ := c.catalog.Step(c.index)
	c.logger.Info(context.Background(), "step advanced",
		ports.F("step", c.index+1),
		ports.F("title", step.Title))
	return c.index
}

// CanProceed applies the configured gating policy to the current state.
func (c *Controller) CanProceed() bool {
	return c.gate(c.State())
}

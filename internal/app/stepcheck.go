// Package app wires configuration into the stepcheck domain and provides the
// use cases shared by the command line, the wizard and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog/embedded"
	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/domain/process"
	"github.com/felixgeelhaar/stepcheck/internal/domain/upload"
	"github.com/felixgeelhaar/stepcheck/internal/domain/verify"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// Stepcheck is the main application orchestrator.
type Stepcheck struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	policy    upload.Policy
	validator verify.Validator
	fs        ports.FileSystem
	logger    ports.Logger
}

// Option customizes a Stepcheck.
type Option func(*Stepcheck)

// WithValidator replaces the HTTP verification client.
func WithValidator(v verify.Validator) Option {
	return func(s *Stepcheck) {
		s.validator = v
	}
}

// WithCatalog replaces the configured catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Stepcheck) {
		s.catalog = c
	}
}

// New builds the application from cfg. The catalog is read from
// cfg.Catalog.Path through fs, or the built-in catalog is used.
func New(cfg *config.Config, fs ports.FileSystem, logger ports.Logger, opts ...Option) (*Stepcheck, error) {
	s := &Stepcheck{
		cfg: cfg,
		policy: upload.Policy{
			MaxFileSizeMB:    cfg.Upload.MaxFileSizeMB,
			AllowedMimeTypes: append([]string(nil), cfg.Upload.AllowedMimeTypes...),
		},
		fs:     fs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		cat, err := LoadCatalog(fs, cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		s.catalog = cat
	}

	if s.validator == nil {
		s.validator = verify.NewClient(verify.Config{
			Endpoint:  cfg.Validation.Endpoint,
			Timeout:   cfg.Validation.Timeout,
			UserAgent: cfg.Validation.UserAgent,
		})
	}

	return s, nil
}

// LoadCatalog reads the catalog at path, or returns the built-in catalog when
// path is empty.
func LoadCatalog(fs ports.FileSystem, path string) (*catalog.Catalog, error) {
	if path == "" {
		return embedded.LoadCatalog()
	}
	return catalog.LoadFile(fs, ports.ExpandPath(path))
}

// Config returns the effective configuration.
func (s *Stepcheck) Config() *config.Config {
	return s.cfg
}

// Catalog returns the step catalog in use.
func (s *Stepcheck) Catalog() *catalog.Catalog {
	return s.catalog
}

// Policy returns the local acceptance policy.
func (s *Stepcheck) Policy() upload.Policy {
	return s.policy
}

// FileSystem returns the filesystem used to resolve uploads.
func (s *Stepcheck) FileSystem() ports.FileSystem {
	return s.fs
}

// Gate returns the gating policy selected by navigation.strict_gating.
func (s *Stepcheck) Gate() process.GatingPolicy {
	if s.cfg.Navigation.StrictGating {
		return process.AllFieldsValidated
	}
	return process.Ungated
}

// NewController starts a session at the first step. A nil store gets a fresh one.
func (s *Stepcheck) NewController(store *fieldstore.Store) (*process.Controller, error) {
	return process.New(process.Config{
		Catalog:   s.catalog,
		Policy:    s.policy,
		Validator: s.validator,
		Store:     store,
		Logger:    s.logger,
		Gate:      s.Gate(),
	})
}

// Binding attaches a file path to a field.
type Binding struct {
	Field string `json:"field"`
	Path  string `json:"path"`
}

// CheckRequest describes a one-shot check of a single step.
type CheckRequest struct {
	// Step is 1-based.
	Step     int
	Bindings []Binding
	// Validate sends the bound files to the verification service.
	Validate bool
}

// FieldReport is the final state of one field.
type FieldReport struct {
	Field       string `json:"field"`
	File        string `json:"file,omitempty"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	Measurement string `json:"measurement,omitempty"`
	Units       string `json:"units,omitempty"`
}

// CheckReport is the outcome of CheckStep.
type CheckReport struct {
	Step       int           `json:"step"`
	Title      string        `json:"title"`
	Validated  bool          `json:"validated"`
	Passed     bool          `json:"passed"`
	CanProceed bool          `json:"can_proceed"`
	Fields     []FieldReport `json:"fields"`
}

// ErrStepOutOfRange is returned for a step number outside the catalog.
var ErrStepOutOfRange = errors.New("step out of range")

// CheckStep runs one session step non-interactively: it binds every file,
// then optionally validates the step.
func (s *Stepcheck) CheckStep(ctx context.Context, req CheckRequest) (*CheckReport, error) {
	if req.Step < 1 || req.Step > s.catalog.Len() {
		return nil, fmt.Errorf("%w: %d (catalog has %d steps)", ErrStepOutOfRange, req.Step, s.catalog.Len())
	}

	ctrl, err := s.NewController(nil)
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	for ctrl.State().StepNumber() < req.Step {
		ctrl.Proceed()
	}

	for _, b := range req.Bindings {
		file, err := upload.FromPath(s.fs, b.Path)
		if err != nil {
			return nil, err
		}
		if err := ctrl.SelectFile(ctx, b.Field, file); err != nil {
			var rej *upload.Rejection
			if !errors.As(err, &rej) {
				return nil, err
			}
		}
	}

	report := &CheckReport{Step: req.Step}
	measurements := map[catalog.FieldName]process.FieldResult{}
	if req.Validate {
		res := ctrl.Validate(ctx)
		report.Validated = true
		report.Passed = res.Passed
		for _, f := range res.Fields {
			measurements[f.Field] = f
		}
	}

	st := ctrl.State()
	report.Title = st.Step.Title
	report.CanProceed = ctrl.CanProceed()
	for _, f := range st.Fields {
		fr := FieldReport{
			Field:   f.Field.String(),
			File:    f.FileName,
			Status:  f.Status.Kind.String(),
			Message: f.Status.Message,
		}
		if f.Status.Reason != upload.KindNone {
			fr.Reason = f.Status.Reason.String()
		}
		if m, ok := measurements[f.Field]; ok {
			fr.Measurement = m.Measurement
			fr.Units = m.Units
		}
		report.Fields = append(report.Fields, fr)
	}
	return report, nil
}

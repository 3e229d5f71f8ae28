// Package mcp exposes stepcheck to MCP (Model Context Protocol) clients.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/stepcheck/internal/app"
)

// VersionInfo contains version metadata for the MCP server.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// StepsInput is the input for the stepcheck_steps tool.
type StepsInput struct{}

// StepsOutput is the output for the stepcheck_steps tool.
type StepsOutput struct {
	Steps       []StepInfo `json:"steps"`
	TotalFields int        `json:"total_fields"`
}

// StepInfo describes one catalog step.
type StepInfo struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// PolicyInput is the input for the stepcheck_policy tool.
type PolicyInput struct{}

// PolicyOutput is the output for the stepcheck_policy tool.
type PolicyOutput struct {
	MaxFileSizeMB    float64  `json:"max_file_size_mb"`
	AllowedMimeTypes []string `json:"allowed_mime_types"`
	Endpoint         string   `json:"endpoint"`
	StrictGating     bool     `json:"strict_gating"`
	Version          string   `json:"version"`
}

// CheckStepInput is the input for the stepcheck_check_step tool.
type CheckStepInput struct {
	Step     int               `json:"step" jsonschema:"required,description=1-based step number"`
	Files    map[string]string `json:"files,omitempty" jsonschema:"description=Map of field name to image path"`
	Validate bool              `json:"validate,omitempty" jsonschema:"description=Send the files to the verification service"`
}

// Options configures the registered tools.
type Options struct {
	// Root, when set, confines file paths to this directory.
	Root    string
	Version VersionInfo
}

// RegisterAll registers all MCP tools with the server.
func RegisterAll(srv *mcp.Server, sc *app.Stepcheck, opts Options) {
	registerStepsTool(srv, sc)
	registerPolicyTool(srv, sc, opts.Version)
	registerCheckStepTool(srv, sc, opts.Root)
}

func registerStepsTool(srv *mcp.Server, sc *app.Stepcheck) {
	srv.Tool("stepcheck_steps").
		Description("List the process steps and the image fields each step requires.").
		ReadOnly().
		Handler(func(_ context.Context, _ StepsInput) (*StepsOutput, error) {
			cat := sc.Catalog()
			output := &StepsOutput{
				Steps:       make([]StepInfo, 0, cat.Len()),
				TotalFields: cat.FieldCount(),
			}
			for i, step := range cat.Steps() {
				fields := make([]string, len(step.Fields))
				for j, f := range step.Fields {
					fields[j] = f.String()
				}
				output.Steps = append(output.Steps, StepInfo{
					Number: i + 1,
					Title:  step.Title,
					Fields: fields,
				})
			}
			return output, nil
		})
}

func registerPolicyTool(srv *mcp.Server, sc *app.Stepcheck, version VersionInfo) {
	srv.Tool("stepcheck_policy").
		Description("Show the upload acceptance policy and the verification endpoint in use.").
		ReadOnly().
		Handler(func(_ context.Context, _ PolicyInput) (*PolicyOutput, error) {
			cfg := sc.Config()
			policy := sc.Policy()
			return &PolicyOutput{
				MaxFileSizeMB:    policy.MaxFileSizeMB,
				AllowedMimeTypes: policy.AllowedMimeTypes,
				Endpoint:         cfg.Validation.Endpoint,
				StrictGating:     cfg.Navigation.StrictGating,
				Version:          version.Version,
			}, nil
		})
}

func registerCheckStepTool(srv *mcp.Server, sc *app.Stepcheck, root string) {
	srv.Tool("stepcheck_check_step").
		Description("Attach image files to the fields of one step and optionally validate them with the verification service.").
		Handler(func(ctx context.Context, in CheckStepInput) (*app.CheckReport, error) {
			if err := ValidateCheckStepInput(&in, sc.Catalog().Len(), root); err != nil {
				return nil, err
			}

			req := app.CheckRequest{Step: in.Step, Validate: in.Validate}
			for field, path := range in.Files {
				if root != "" && !filepath.IsAbs(path) {
					path = filepath.Join(root, path)
				}
				req.Bindings = append(req.Bindings, app.Binding{Field: field, Path: path})
			}
			sortBindings(req.Bindings)

			report, err := sc.CheckStep(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("check step %d: %w", in.Step, err)
			}
			return report, nil
		})
}

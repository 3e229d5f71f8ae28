package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/felixgeelhaar/stepcheck/internal/app"
	"github.com/felixgeelhaar/stepcheck/internal/validation"
	"github.com/spf13/cobra"
)

var (
	checkStep     int
	checkFiles    []string
	checkValidate bool
	checkJSON     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the images for one step without the interactive wizard",
	Long: `Attach image files to the fields of a step and report each field's status.

Files are bound with --file FIELD=PATH, one flag per field. Every file goes
through the local acceptance policy (size and type). With --validate the
accepted files are sent to the verification service, and fields without a
file are reported as missing.

Exit codes:
  0  all fields accepted (and validated, with --validate)
  1  the command could not run
  2  validation ran and at least one field failed

Examples:
  stepcheck check --step 1 --file "Weight=scale.jpg" --file "Temperature=thermo.png"
  stepcheck check --step 1 --file "Weight=scale.jpg" --validate --json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVarP(&checkStep, "step", "s", 1, "1-based step number")
	checkCmd.Flags().StringArrayVar(&checkFiles, "file", nil, "field binding as FIELD=PATH (repeatable)")
	checkCmd.Flags().BoolVar(&checkValidate, "validate", false, "send accepted files to the verification service")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the report as JSON")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	req := app.CheckRequest{Step: checkStep, Validate: checkValidate}
	for _, arg := range checkFiles {
		field, path, err := validation.ParseBinding(arg)
		if err != nil {
			return err
		}
		req.Bindings = append(req.Bindings, app.Binding{Field: field, Path: path})
	}

	sc, err := loadApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	report, err := sc.CheckStep(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if checkJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(out, report)
	}

	if report.Validated && !report.Passed {
		return fmt.Errorf("%w for step %d", errValidationFailed, report.Step)
	}
	return nil
}

func printReport(w io.Writer, report *app.CheckReport) {
	_, _ = fmt.Fprintf(w, "Step %d: %s\n\n", report.Step, report.Title)
	for _, f := range report.Fields {
		_, _ = fmt.Fprintf(w, "  %s %s", statusMark(f.Status), f.Field)
		if f.File != "" {
			_, _ = fmt.Fprintf(w, " [%s]", f.File)
		}
		_, _ = fmt.Fprintln(w)
		if f.Message != "" {
			_, _ = fmt.Fprintf(w, "      %s\n", f.Message)
		}
	}

	_, _ = fmt.Fprintln(w)
	switch {
	case !report.Validated:
		_, _ = fmt.Fprintln(w, "Not validated. Re-run with --validate to check measurements.")
	case report.Passed:
		_, _ = fmt.Fprintln(w, "All fields passed validation.")
	default:
		_, _ = fmt.Fprintln(w, "Validation failed.")
	}
	if !report.CanProceed {
		_, _ = fmt.Fprintln(w, "Strict gating is on: this step cannot be left yet.")
	}
}

func statusMark(status string) string {
	switch status {
	case "success":
		return "✓"
	case "error":
		return "✗"
	case "validation_failure":
		return "!"
	default:
		return "·"
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

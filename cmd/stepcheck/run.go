package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/felixgeelhaar/stepcheck/internal/domain/fieldstore"
	"github.com/felixgeelhaar/stepcheck/internal/tui"
	"github.com/spf13/cobra"
)

var runLogFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk through every step in the interactive wizard",
	Long: `Start the interactive wizard.

For each step, attach an image to every field, validate the step, then
proceed. Proceeding is always allowed unless --strict is set, in which case
every field of the step must pass validation first.

The wizard takes over the terminal, so logs are discarded unless --log-file
is given.

Examples:
  stepcheck run
  stepcheck run --strict --endpoint https://verify.example.com/validate
  stepcheck run --log-file stepcheck.log -v`,
	RunE: runWizard,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "append logs to this file")
}

func runWizard(cmd *cobra.Command, _ []string) error {
	var logOut io.Writer = io.Discard
	if runLogFile != "" {
		f, err := os.OpenFile(runLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		logOut = f
	}

	sc, err := loadApp(cmd, logOut)
	if err != nil {
		return err
	}

	store := fieldstore.New()
	ctrl, err := sc.NewController(store)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	result, err := tui.RunWizard(ctx, ctrl, tui.WizardOptions{
		FileSystem: sc.FileSystem(),
		Store:      store,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case result.State.Completed:
		_, _ = fmt.Fprintln(out, "All steps completed.")
	case result.Cancelled:
		_, _ = fmt.Fprintf(out, "Stopped at step %d of %d.\n", result.State.StepNumber(), result.State.StepCount)
	}
	return nil
}

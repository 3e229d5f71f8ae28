package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/felixgeelhaar/stepcheck/internal/adapters/filesystem"
	"github.com/felixgeelhaar/stepcheck/internal/adapters/logging"
	"github.com/felixgeelhaar/stepcheck/internal/app"
	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile     string
	catalogPath string
	endpoint    string
	verbose     bool
	logJSON     bool
	strict      bool
)

// errValidationFailed signals a completed run whose validation did not pass.
var errValidationFailed = errors.New("validation failed")

var rootCmd = &cobra.Command{
	Use:   "stepcheck",
	Short: "Step-by-step evidence upload and verification",
	Long: `Stepcheck walks an operator through an ordered list of process steps.

Each step requires one photo per field (a scale, a thermometer, a timer...).
Photos are checked locally for size and type, then sent to a verification
service that reads the measurement and decides whether it is in range:
  Select → Accept → Validate → Proceed`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./stepcheck.yaml or $XDG_CONFIG_HOME/stepcheck)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "step catalog file (.yaml, .toml or .ini)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "verification service URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "only proceed once every field has been validated")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges defaults, the config file, STEPCHECK_* variables and
// the global flags that were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.NewViper()
	if err := config.ReadFile(v, cfgFile); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog") {
		v.Set("catalog.path", catalogPath)
	}
	if flags.Changed("endpoint") {
		v.Set("validation.endpoint", endpoint)
	}
	if flags.Changed("log-json") {
		v.Set("logging.json", logJSON)
	}
	if flags.Changed("strict") {
		v.Set("navigation.strict_gating", strict)
	}
	if verbose {
		v.Set("logging.level", "debug")
	}

	return config.Load(v)
}

// newLogger builds the console logger described by cfg.
func newLogger(cfg *config.Config, w io.Writer) (ports.Logger, error) {
	level, err := ports.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(cfg.Logging.JSON),
		logging.WithColor(!cfg.Logging.JSON && w == os.Stderr),
	), nil
}

// loadApp builds the application with logs written to logOut.
func loadApp(cmd *cobra.Command, logOut io.Writer) (*app.Stepcheck, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, filesystem.NewRealFileSystem(), logger)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// exitCode maps an error to the process exit status: 2 when validation ran
// and failed, 1 for everything else.
func exitCode(err error) int {
	if errors.Is(err, errValidationFailed) {
		return 2
	}
	return 1
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml", "json"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("catalog", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "toml", "ini"}, cobra.ShellCompDirectiveFilterFileExt
	})
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/stepcheck/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetCommandState restores the package flag variables and clears the
// Changed markers cobra keeps between executions.
func resetCommandState() {
	cfgFile, catalogPath, endpoint = "", "", ""
	verbose, logJSON, strict = false, false, false
	stepsFormat = "text"
	checkStep, checkFiles, checkValidate, checkJSON = 1, nil, false, false
	runLogFile = ""
	mcpHTTP, mcpRoot = "", ""

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		reset := func(f *pflag.Flag) { f.Changed = false }
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// executeCommand runs the CLI with args and returns what it wrote.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState()

	// Keep stray stepcheck.yaml files out of the run.
	testutil.ChangeDir(t, t.TempDir())
	testutil.SetEnv(t, "XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetCommandState()
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeConfig writes a config file pointing at endpoint and returns its path.
func writeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepcheck.yaml")
	content := "validation:\n  endpoint: " + endpoint + "\nlogging:\n  level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

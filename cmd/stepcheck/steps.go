package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/stepcheck/internal/adapters/filesystem"
	"github.com/felixgeelhaar/stepcheck/internal/app"
	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/domain/catalog"
	"github.com/spf13/cobra"
)

var stepsFormat string

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the process steps and their required fields",
	Long: `List every step of the catalog in order, with the image fields it requires.

Examples:
  stepcheck steps
  stepcheck steps --format yaml > my-catalog.yaml
  stepcheck steps --catalog plant.toml --format json`,
	RunE: runSteps,
}

func init() {
	rootCmd.AddCommand(stepsCmd)

	stepsCmd.Flags().StringVarP(&stepsFormat, "format", "f", "text", "output format: text, json, yaml or toml")
}

func runSteps(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cat, err := app.LoadCatalog(filesystem.NewRealFileSystem(), cfg.Catalog.Path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(stepsFormat) {
	case "text", "":
		for i, step := range cat.Steps() {
			_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, step.Title)
			for _, f := range step.Fields {
				_, _ = fmt.Fprintf(out, "   - %s\n", f)
			}
		}
		_, _ = fmt.Fprintf(out, "\n%d steps, %d fields\n", cat.Len(), cat.FieldCount())
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.Steps())
	case "yaml", "yml":
		return writeEncoded(cmd, cat, catalog.FormatYAML)
	case "toml":
		return writeEncoded(cmd, cat, catalog.FormatTOML)
	default:
		return config.NewUserError(config.ErrCodeInvalidInput, "unknown output format").
			WithContext(stepsFormat).
			WithSuggestion("use text, json, yaml or toml")
	}
}

func writeEncoded(cmd *cobra.Command, cat *catalog.Catalog, format catalog.Format) error {
	data, err := catalog.Encode(cat, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

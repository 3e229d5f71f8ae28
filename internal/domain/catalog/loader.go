package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding.
type Format string

// Supported catalog formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatINI  Format = "ini"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".ini":
		return FormatINI, nil
	default:
		return "", config.NewUserError(config.ErrCodeCatalogFormat, "unsupported catalog format").
			WithContext(path).
			WithSuggestion("use a .yaml, .yml, .toml or .ini file")
	}
}

// document is the on-disk shape shared by the YAML and TOML encodings.
type document struct {
	Steps []Step `yaml:"steps" toml:"steps"`
}

// Parse decodes a catalog document in the given format.
func Parse(data []byte, format Format) (*Catalog, error) {
	var steps []Step

	switch format {
	case FormatYAML:
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, parseError(err)
		}
		steps = doc.Steps
	case FormatTOML:
		var doc document
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, parseError(err)
		}
		steps = doc.Steps
	case FormatINI:
		parsed, err := parseINI(data)
		if err != nil {
			return nil, parseError(err)
		}
		steps = parsed
	default:
		return nil, config.NewUserError(config.ErrCodeCatalogFormat,
			fmt.Sprintf("unsupported catalog format %q", format))
	}

	return NewCatalog(steps...)
}

// parseINI reads one section per step. The section name is the step title
// and the comma-separated "fields" key lists its fields.
func parseINI(data []byte) ([]Step, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	var steps []Step
	for _, sec := range file.Sections() {
		if sec.Name() == ini.DefaultSection {
			if len(sec.Keys()) > 0 {
				return nil, errors.New("keys outside a [step] section")
			}
			continue
		}
		if !sec.HasKey("fields") {
			return nil, fmt.Errorf("section [%s] has no fields key", sec.Name())
		}
		raw := sec.Key("fields").Strings(",")
		fields := make([]FieldName, 0, len(raw))
		for _, f := range raw {
			fields = append(fields, FieldName(f))
		}
		steps = append(steps, Step{Title: sec.Name(), Fields: fields})
	}
	return steps, nil
}

func parseError(err error) error {
	return config.NewUserError(config.ErrCodeCatalogParse, "failed to parse catalog").WithUnderlying(err)
}

// LoadFile reads and parses a catalog file.
func LoadFile(fs ports.FileSystem, path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, config.NewUserError(config.ErrCodeCatalogNotFound, "catalog file not found").
				WithContext(path).
				WithSuggestion("check --catalog or catalog.path").
				WithUnderlying(err)
		}
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	cat, err := Parse(data, format)
	if err != nil {
		var userErr *config.UserError
		if errors.As(err, &userErr) && userErr.Context == "" {
			return nil, userErr.WithContext(path)
		}
		return nil, err
	}
	return cat, nil
}

// Encode renders the catalog as YAML or TOML, the formats LoadFile reads back.
func Encode(c *Catalog, format Format) ([]byte, error) {
	doc := document{Steps: c.Steps()}
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatTOML:
		return toml.Marshal(doc)
	default:
		return nil, config.NewUserError(config.ErrCodeCatalogFormat,
			fmt.Sprintf("cannot encode catalog as %q", format))
	}
}

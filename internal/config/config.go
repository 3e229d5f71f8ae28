// Package config loads stepcheck settings from defaults, an optional config
// file, STEPCHECK_* environment variables and command-line flags.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. STEPCHECK_UPLOAD_MAX_FILE_SIZE_MB.
const EnvPrefix = "STEPCHECK"

// DefaultEndpoint is the verification service URL used when none is configured.
const DefaultEndpoint = "http://localhost:5000/validate"

// Config is the complete process-wide configuration.
type Config struct {
	Validation ValidationConfig `mapstructure:"validation"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ValidationConfig configures the remote verification client.
type ValidationConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	// Timeout bounds a single validation call. Zero means no timeout.
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// UploadConfig holds the local acceptance policy.
type UploadConfig struct {
	MaxFileSizeMB    float64  `mapstructure:"max_file_size_mb"`
	AllowedMimeTypes []string `mapstructure:"allowed_mime_types"`
}

// CatalogConfig points at an optional step catalog file.
type CatalogConfig struct {
	// Path is a .yaml, .toml or .ini catalog. Empty uses the built-in catalog.
	Path string `mapstructure:"path"`
}

// NavigationConfig controls how the wizard advances between steps.
type NavigationConfig struct {
	// StrictGating only lets the operator proceed once every field of the
	// current step has been validated remotely.
	StrictGating bool `mapstructure:"strict_gating"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Validation: ValidationConfig{
			Endpoint:  DefaultEndpoint,
			UserAgent: "stepcheck",
		},
		Upload: UploadConfig{
			MaxFileSizeMB:    5,
			AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/jpg"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers every default with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("validation.endpoint", defaults.Validation.Endpoint)
	v.SetDefault("validation.timeout", defaults.Validation.Timeout)
	v.SetDefault("validation.user_agent", defaults.Validation.UserAgent)

	v.SetDefault("upload.max_file_size_mb", defaults.Upload.MaxFileSizeMB)
	v.SetDefault("upload.allowed_mime_types", defaults.Upload.AllowedMimeTypes)

	v.SetDefault("catalog.path", defaults.Catalog.Path)

	v.SetDefault("navigation.strict_gating", defaults.Navigation.StrictGating)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.json", defaults.Logging.JSON)
}

// NewViper returns a viper instance with defaults and environment overrides registered.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a config file into v. With an explicit path the file must
// exist. Otherwise stepcheck.{yaml,toml,json} is looked up in the working
// directory and ConfigDir, and its absence is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("stepcheck")
		v.AddConfigPath(".")
		v.AddConfigPath(ConfigDir())
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		if path == "" {
			return nil
		}
		return NewUserError(ErrCodeConfigNotFound, "config file not found").
			WithContext(path).
			WithUnderlying(err)
	}
	if path != "" {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return NewUserError(ErrCodeConfigNotFound, "config file not found").
				WithContext(path).
				WithSuggestion("check the --config path").
				WithUnderlying(err)
		}
	}
	return NewUserError(ErrCodeConfigParse, "failed to parse config file").
		WithContext(v.ConfigFileUsed()).
		WithUnderlying(err)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, NewUserError(ErrCodeConfigParse, "failed to decode configuration").WithUnderlying(err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, NewUserError(ErrCodeConfigInvalid, "configuration is invalid").
			WithSuggestion("fix the listed settings in your config file or STEPCHECK_* environment").
			WithUnderlying(ValidationErrors(errs))
	}

	return &cfg, nil
}

// ConfigDir returns the user's stepcheck config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stepcheck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stepcheck"
	}
	return filepath.Join(home, ".config", "stepcheck")
}

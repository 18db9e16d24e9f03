// Package config manages gitbuildnumber configuration using koanf/v2.
//
// Supports YAML files, environment variables, and CLI flag overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/dantte-lp/gitbuildnumber/internal/buildnumber"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete gitbuildnumber configuration.
type Config struct {
	Repository  RepositoryConfig  `koanf:"repository"`
	Properties  PropertiesConfig  `koanf:"properties"`
	Buildnumber BuildnumberConfig `koanf:"buildnumber"`
	Log         LogConfig         `koanf:"log"`
	Metrics     MetricsConfig     `koanf:"metrics"`
}

// RepositoryConfig locates the repository.
type RepositoryConfig struct {
	// Directory is where repository discovery starts. Parent directories are
	// searched for a .git entry.
	Directory string `koanf:"directory"`
}

// PropertiesConfig holds the output property names.
type PropertiesConfig struct {
	Revision     string `koanf:"revision"`
	Branch       string `koanf:"branch"`
	Tag          string `koanf:"tag"`
	CommitsCount string `koanf:"commits_count"`
	Buildnumber  string `koanf:"buildnumber"`
}

// Names converts the configured names to buildnumber.PropertyNames.
func (pc PropertiesConfig) Names() buildnumber.PropertyNames {
	return buildnumber.PropertyNames{
		Revision:     pc.Revision,
		Branch:       pc.Branch,
		Tag:          pc.Tag,
		CommitsCount: pc.CommitsCount,
		Buildnumber:  pc.Buildnumber,
	}
}

// BuildnumberConfig controls the composite buildnumber.
type BuildnumberConfig struct {
	// Expression is an optional JavaScript expression over tag, branch,
	// revision, shortRevision and commitsCount. Empty selects the default
	// "<tag or branch>.<commitsCount>.<shortRevision>" format.
	Expression string `koanf:"expression"`

	// ExpressionTimeout bounds one evaluation. Zero disables the limit.
	ExpressionTimeout time.Duration `koanf:"expression_timeout"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// MetricsConfig holds the Prometheus textfile output configuration.
type MetricsConfig struct {
	// Textfile is the path the metrics are written to after a run, in the
	// node_exporter textfile format. Empty disables the output.
	Textfile string `koanf:"textfile"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with the default property names,
// the working directory as repository start, and text logging at info.
func DefaultConfig() *Config {
	names := buildnumber.DefaultPropertyNames()

	return &Config{
		Repository: RepositoryConfig{
			Directory: ".",
		},
		Properties: PropertiesConfig{
			Revision:     names.Revision,
			Branch:       names.Branch,
			Tag:          names.Tag,
			CommitsCount: names.CommitsCount,
			Buildnumber:  names.Buildnumber,
		},
		Buildnumber: BuildnumberConfig{
			ExpressionTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for gitbuildnumber.
// Variables are named GITBN_<section>_<key>, e.g., GITBN_LOG_LEVEL.
const envPrefix = "GITBN_"

// Load merges, in increasing priority, DefaultConfig(), the YAML file at path
// (skipped when path is empty) and GITBN_ environment variables.
//
// Environment variable mapping:
//
//	GITBN_REPOSITORY_DIRECTORY         -> repository.directory
//	GITBN_PROPERTIES_COMMITS_COUNT     -> properties.commits_count
//	GITBN_BUILDNUMBER_EXPRESSION       -> buildnumber.expression
//	GITBN_BUILDNUMBER_EXPRESSION_TIMEOUT -> buildnumber.expression_timeout
//	GITBN_LOG_LEVEL                    -> log.level
//	GITBN_METRICS_TEXTFILE             -> metrics.textfile
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms GITBN_PROPERTIES_COMMITS_COUNT -> properties.commits_count.
// Only the first underscore separates section and key, so keys may contain
// underscores themselves.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.Replace(s, "_", ".", 1)
}

// loadDefaults sets the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"repository.directory":           defaults.Repository.Directory,
		"properties.revision":            defaults.Properties.Revision,
		"properties.branch":              defaults.Properties.Branch,
		"properties.tag":                 defaults.Properties.Tag,
		"properties.commits_count":       defaults.Properties.CommitsCount,
		"properties.buildnumber":         defaults.Properties.Buildnumber,
		"buildnumber.expression":         defaults.Buildnumber.Expression,
		"buildnumber.expression_timeout": defaults.Buildnumber.ExpressionTimeout.String(),
		"log.level":                      defaults.Log.Level,
		"log.format":                     defaults.Log.Format,
		"metrics.textfile":               defaults.Metrics.Textfile,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyPropertyName indicates an output property name is empty.
	ErrEmptyPropertyName = errors.New("property name must not be empty")

	// ErrDuplicatePropertyName indicates two outputs share a property name.
	ErrDuplicatePropertyName = errors.New("duplicate property name")

	// ErrInvalidLogFormat indicates log.format is neither text nor json.
	ErrInvalidLogFormat = errors.New("log.format must be text or json")

	// ErrInvalidExpressionTimeout indicates a negative expression timeout.
	ErrInvalidExpressionTimeout = errors.New("buildnumber.expression_timeout must be >= 0")
)

// ValidLogFormats lists the recognized log format strings.
var ValidLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if err := validateProperties(cfg.Properties); err != nil {
		return err
	}

	if !ValidLogFormats[cfg.Log.Format] {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Log.Format)
	}

	if cfg.Buildnumber.ExpressionTimeout < 0 {
		return ErrInvalidExpressionTimeout
	}

	return nil
}

// validateProperties requires five non-empty, distinct property names.
func validateProperties(pc PropertiesConfig) error {
	fields := []struct {
		key  string
		name string
	}{
		{"properties.revision", pc.Revision},
		{"properties.branch", pc.Branch},
		{"properties.tag", pc.Tag},
		{"properties.commits_count", pc.CommitsCount},
		{"properties.buildnumber", pc.Buildnumber},
	}

	seen := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.name == "" {
			return fmt.Errorf("%s: %w", f.key, ErrEmptyPropertyName)
		}
		if prev, dup := seen[f.name]; dup {
			return fmt.Errorf("%s and %s both use %q: %w", prev, f.key, f.name, ErrDuplicatePropertyName)
		}
		seen[f.name] = f.key
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dantte-lp/gitbuildnumber/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Repository.Directory != "." {
		t.Errorf("Repository.Directory = %q, want %q", cfg.Repository.Directory, ".")
	}

	names := cfg.Properties.Names()
	if names.Revision != "git.revision" {
		t.Errorf("Properties.Revision = %q, want %q", names.Revision, "git.revision")
	}

	if names.Branch != "git.branch" {
		t.Errorf("Properties.Branch = %q, want %q", names.Branch, "git.branch")
	}

	if names.Tag != "git.tag" {
		t.Errorf("Properties.Tag = %q, want %q", names.Tag, "git.tag")
	}

	if names.CommitsCount != "git.commitsCount" {
		t.Errorf("Properties.CommitsCount = %q, want %q", names.CommitsCount, "git.commitsCount")
	}

	if names.Buildnumber != "git.buildnumber" {
		t.Errorf("Properties.Buildnumber = %q, want %q", names.Buildnumber, "git.buildnumber")
	}

	if cfg.Buildnumber.Expression != "" {
		t.Errorf("Buildnumber.Expression = %q, want empty", cfg.Buildnumber.Expression)
	}

	if cfg.Buildnumber.ExpressionTimeout != 5*time.Second {
		t.Errorf("Buildnumber.ExpressionTimeout = %v, want %v", cfg.Buildnumber.ExpressionTimeout, 5*time.Second)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}

	if cfg.Metrics.Textfile != "" {
		t.Errorf("Metrics.Textfile = %q, want empty", cfg.Metrics.Textfile)
	}

	// Defaults must pass validation.
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
repository:
  directory: "/src/project"
properties:
  revision: "scm.revision"
  commits_count: "scm.count"
buildnumber:
  expression: "commitsCount > 0 ? shortRevision : 'none'"
  expression_timeout: "250ms"
log:
  level: "debug"
  format: "json"
metrics:
  textfile: "/var/lib/node_exporter/gitbuildnumber.prom"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Repository.Directory != "/src/project" {
		t.Errorf("Repository.Directory = %q, want %q", cfg.Repository.Directory, "/src/project")
	}

	if cfg.Properties.Revision != "scm.revision" {
		t.Errorf("Properties.Revision = %q, want %q", cfg.Properties.Revision, "scm.revision")
	}

	if cfg.Properties.CommitsCount != "scm.count" {
		t.Errorf("Properties.CommitsCount = %q, want %q", cfg.Properties.CommitsCount, "scm.count")
	}

	// Names not in the file keep their defaults.
	if cfg.Properties.Branch != "git.branch" {
		t.Errorf("Properties.Branch = %q, want default %q", cfg.Properties.Branch, "git.branch")
	}

	if cfg.Buildnumber.Expression != "commitsCount > 0 ? shortRevision : 'none'" {
		t.Errorf("Buildnumber.Expression = %q", cfg.Buildnumber.Expression)
	}

	if cfg.Buildnumber.ExpressionTimeout != 250*time.Millisecond {
		t.Errorf("Buildnumber.ExpressionTimeout = %v, want %v", cfg.Buildnumber.ExpressionTimeout, 250*time.Millisecond)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	if cfg.Metrics.Textfile != "/var/lib/node_exporter/gitbuildnumber.prom" {
		t.Errorf("Metrics.Textfile = %q", cfg.Metrics.Textfile)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Properties.Buildnumber != "git.buildnumber" {
		t.Errorf("Properties.Buildnumber = %q, want default %q", cfg.Properties.Buildnumber, "git.buildnumber")
	}
}

// TestLoadEnvOverrides cannot run in parallel because it sets environment
// variables.
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GITBN_LOG_LEVEL", "error")
	t.Setenv("GITBN_PROPERTIES_COMMITS_COUNT", "env.count")
	t.Setenv("GITBN_BUILDNUMBER_EXPRESSION_TIMEOUT", "2s")
	t.Setenv("GITBN_REPOSITORY_DIRECTORY", "/env/repo")

	path := writeTemp(t, `
log:
  level: "debug"
properties:
  commits_count: "file.count"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want env override %q", cfg.Log.Level, "error")
	}

	if cfg.Properties.CommitsCount != "env.count" {
		t.Errorf("Properties.CommitsCount = %q, want env override %q", cfg.Properties.CommitsCount, "env.count")
	}

	if cfg.Buildnumber.ExpressionTimeout != 2*time.Second {
		t.Errorf("Buildnumber.ExpressionTimeout = %v, want %v", cfg.Buildnumber.ExpressionTimeout, 2*time.Second)
	}

	if cfg.Repository.Directory != "/env/repo" {
		t.Errorf("Repository.Directory = %q, want %q", cfg.Repository.Directory, "/env/repo")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `
properties:
  tag: "git.branch"
`)

	_, err := config.Load(path)
	if !errors.Is(err, config.ErrDuplicatePropertyName) {
		t.Errorf("Load() error = %v, want ErrDuplicatePropertyName", err)
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty revision property",
			modify: func(cfg *config.Config) {
				cfg.Properties.Revision = ""
			},
			wantErr: config.ErrEmptyPropertyName,
		},
		{
			name: "empty buildnumber property",
			modify: func(cfg *config.Config) {
				cfg.Properties.Buildnumber = ""
			},
			wantErr: config.ErrEmptyPropertyName,
		},
		{
			name: "duplicate property names",
			modify: func(cfg *config.Config) {
				cfg.Properties.Buildnumber = cfg.Properties.Revision
			},
			wantErr: config.ErrDuplicatePropertyName,
		},
		{
			name: "unknown log format",
			modify: func(cfg *config.Config) {
				cfg.Log.Format = "xml"
			},
			wantErr: config.ErrInvalidLogFormat,
		},
		{
			name: "negative expression timeout",
			modify: func(cfg *config.Config) {
				cfg.Buildnumber.ExpressionTimeout = -1 * time.Second
			},
			wantErr: config.ErrInvalidExpressionTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/gitbuildnumber.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "gitbuildnumber.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}

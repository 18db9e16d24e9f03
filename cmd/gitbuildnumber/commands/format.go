package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	formatProperties = "properties"
	formatJSON       = "json"
	formatYAML       = "yaml"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// moduleResult is the resolved output of one module directory.
type moduleResult struct {
	Directory  string            `json:"directory"  yaml:"directory"`
	Outcome    string            `json:"outcome"    yaml:"outcome"`
	Properties map[string]string `json:"properties" yaml:"properties"`
}

// formatResults renders module results in the requested format.
func formatResults(results []moduleResult, format string) (string, error) {
	switch format {
	case formatProperties:
		return formatResultsProperties(results), nil
	case formatJSON:
		return formatResultsJSON(results)
	case formatYAML:
		return formatResultsYAML(results)
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// --- Properties formatter ---

// formatResultsProperties writes one "# <dir> (<outcome>)" header per module
// followed by its key=value lines in key order.
func formatResultsProperties(results []moduleResult) string {
	var b strings.Builder

	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "# %s (%s)\n", r.Directory, r.Outcome)

		keys := make([]string, 0, len(r.Properties))
		for k := range r.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(&b, "%s=%s\n", escapeProperty(k), escapeProperty(r.Properties[k]))
		}
	}

	return b.String()
}

var propertyEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// escapeProperty escapes characters that would break a key=value line.
func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}

// --- JSON / YAML formatters ---

func formatResultsJSON(results []moduleResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatResultsYAML(results []moduleResult) (string, error) {
	data, err := yaml.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshal YAML: %w", err)
	}
	return string(data), nil
}

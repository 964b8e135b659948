// Package output renders command results as YAML, JSON or plain text.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format is a structured output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Texter is implemented by results with a human-readable rendering. Results
// without one are written as YAML in text mode.
type Texter interface {
	Text() string
}

// Default is the format used when none is given.
const Default = FormatYAML

// ParseFormat parses a --output flag value. The empty string selects
// Default.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return Default, nil
	case FormatYAML, FormatJSON, FormatText:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want yaml, json or text)", s)
	}
}

// Write encodes data to w in the given format.
func Write(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		t, ok := data.(Texter)
		if !ok {
			return Write(w, FormatYAML, data)
		}
		_, err := io.WriteString(w, t.Text())
		return err
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// Package document reads and writes card documents as JSON or YAML.
//
// YAML documents are normalized through JSON so both formats decode into the same
// typed configuration, unknown keys included.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/ultracard/pkg/domain"
)

// Format selects a serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Detect guesses the format of data: a document whose first non-blank character opens
// a JSON object is JSON, anything else is YAML.
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// FormatOf maps a file extension to a format, defaulting to YAML.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses a JSON or YAML card document.
func Decode(data []byte) (domain.CardConfig, error) {
	if Detect(data) == FormatJSON {
		return DecodeJSON(data)
	}
	return DecodeYAML(data)
}

// DecodeJSON parses a JSON card document.
func DecodeJSON(data []byte) (domain.CardConfig, error) {
	var cfg domain.CardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to parse card json: %w", err)
	}
	return cfg, nil
}

// DecodeYAML parses a YAML card document.
func DecodeYAML(data []byte) (domain.CardConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to parse card yaml: %w", err)
	}
	if raw == nil {
		return domain.CardConfig{}, fmt.Errorf("failed to parse card yaml: empty document")
	}
	if _, ok := raw.(map[string]any); !ok {
		return domain.CardConfig{}, fmt.Errorf("failed to parse card yaml: expected a mapping, got %T", raw)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to normalize card yaml: %w", err)
	}
	return DecodeJSON(data)
}

// Encode serializes cfg in the given format.
func Encode(cfg domain.CardConfig, f Format) ([]byte, error) {
	if f == FormatYAML {
		return EncodeYAML(cfg)
	}
	return EncodeJSON(cfg)
}

// EncodeJSON writes indented JSON with sorted keys.
func EncodeJSON(cfg domain.CardConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// EncodeYAML writes YAML with two-space indentation.
func EncodeYAML(cfg domain.CardConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile loads a card document from disk.
func ReadFile(path string) (domain.CardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.CardConfig{}, fmt.Errorf("failed to read card: %w", err)
	}
	return Decode(data)
}

// WriteFile stores cfg in the format implied by the file extension.
func WriteFile(path string, cfg domain.CardConfig) error {
	data, err := Encode(cfg, FormatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

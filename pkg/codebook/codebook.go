// pkg/codebook/codebook.go
package codebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const Version = "1.0.0"

func LoadCodebook(path string) (*Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cb Codebook
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("failed to parse codebook %s: %w", path, err)
	}
	return &cb, nil
}

// Save writes the codebook as indented JSON, creating parent directories.
func Save(cb *Codebook, path string) error {
	data, err := json.MarshalIndent(cb, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal codebook: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write codebook file: %w", err)
	}
	return nil
}

// Names returns the column names in export order.
func (cb *Codebook) Names() []string {
	names := make([]string, len(cb.Columns))
	for i, c := range cb.Columns {
		names[i] = c.Name
	}
	return names
}

func (cb *Codebook) Column(name string) (Column, bool) {
	for _, c := range cb.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the codebook is usable: non-empty, unique names, known
// types, enums only on string columns, and consistent ranges.
func (cb *Codebook) Validate() error {
	if len(cb.Columns) == 0 {
		return fmt.Errorf("codebook contains no columns")
	}

	seen := make(map[string]bool, len(cb.Columns))
	for i, c := range cb.Columns {
		if c.Name == "" {
			return fmt.Errorf("column %d missing required field: name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column: %s", c.Name)
		}
		seen[c.Name] = true

		switch c.Type {
		case TypeInteger, TypeNumber, TypeBoolean, TypeString:
		default:
			return fmt.Errorf("column %s has unknown type %q", c.Name, c.Type)
		}
		if len(c.Enum) > 0 && c.Type != TypeString {
			return fmt.Errorf("column %s: enum is only allowed on string columns", c.Name)
		}
		if c.Minimum != nil && c.Maximum != nil && *c.Minimum > *c.Maximum {
			return fmt.Errorf("column %s: minimum %g exceeds maximum %g", c.Name, *c.Minimum, *c.Maximum)
		}
	}
	return nil
}

// CheckHeader reports the first position where header departs from the
// codebook column order.
func (cb *Codebook) CheckHeader(header []string) error {
	names := cb.Names()
	if len(header) != len(names) {
		return fmt.Errorf("header has %d columns, codebook has %d", len(header), len(names))
	}
	for i := range names {
		if strings.TrimSpace(header[i]) != names[i] {
			return fmt.Errorf("column %d: got %q, want %q", i+1, header[i], names[i])
		}
	}
	return nil
}

// JSONSchema renders a draft-07 schema for a single record.
func (cb *Codebook) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(cb.Columns))
	for _, c := range cb.Columns {
		prop := map[string]interface{}{
			"type":        c.Type,
			"description": c.Description,
		}
		if len(c.Enum) > 0 {
			prop["enum"] = c.Enum
		}
		if c.Minimum != nil {
			prop["minimum"] = *c.Minimum
		}
		if c.Maximum != nil {
			prop["maximum"] = *c.Maximum
		}
		properties[c.Name] = prop
	}

	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "RSD decision record",
		"type":                 "object",
		"properties":           properties,
		"required":             cb.Names(),
		"additionalProperties": false,
	}
}

// Touch stamps LastUpdated with the current time.
func (cb *Codebook) Touch() {
	cb.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

// Package actionlog reads and writes action logs as JSON files so a
// recording can be exported, checked and turned into scripts offline.
package actionlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"sessionrecorder/backend/internal/models"
)

const schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["type", "timestamp"],
    "properties": {
      "type": {"enum": ["navigate", "click", "input", "change"]},
      "timestamp": {"type": "integer", "minimum": 0},
      "url": {"type": "string"},
      "selector": {"type": "string"},
      "tagName": {"type": "string"},
      "text": {"type": "string"},
      "href": {"type": "string"},
      "value": {"type": "string"},
      "inputType": {"type": "string"}
    },
    "if": {"properties": {"type": {"const": "navigate"}}},
    "then": {"required": ["url"]}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// ErrEmptyInput is returned when there is nothing to validate.
var ErrEmptyInput = errors.New("empty action log")

// Validate checks raw JSON against the action log schema.
func Validate(data []byte) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return ErrEmptyInput
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates data and decodes it into an action log.
func Parse(data []byte) ([]models.Action, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var actions []models.Action
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode action log: %w", err)
	}
	return actions, nil
}

func Load(path string) ([]models.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read action log: %w", err)
	}
	actions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return actions, nil
}

// Marshal encodes actions in the file format Load reads back.
func Marshal(actions []models.Action) ([]byte, error) {
	if actions == nil {
		actions = []models.Action{}
	}
	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode action log: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes actions to path atomically: the log goes to a temporary
// file in the same directory which is then renamed over path.
func Save(path string, actions []models.Action) error {
	data, err := Marshal(actions)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".actionlog-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write action log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write action log: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace action log: %w", err)
	}
	return nil
}

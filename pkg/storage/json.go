package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// JSONBackend stores entries at the top level of a JSON object. Unmanaged
// keys already in the file are preserved.
type JSONBackend struct {
	Path string
}

// Load implements Backend.
func (j *JSONBackend) Load() (map[string]string, error) {
	raw, err := j.read()
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = stringify(v)
	}
	return values, nil
}

// Store implements Backend.
func (j *JSONBackend) Store(entries []Entry) error {
	existing, err := j.read()
	if err != nil {
		return err
	}
	for _, e := range entries {
		existing[e.Name] = e.Value
	}

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", j.Path, err)
	}
	if err := ensureParent(j.Path); err != nil {
		return err
	}
	return os.WriteFile(j.Path, append(data, '\n'), 0o644)
}

func (j *JSONBackend) read() (map[string]any, error) {
	data, err := os.ReadFile(j.Path)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", j.Path, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", j.Path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// stringify converts a decoded scalar to its text form, matching how values
// round-trip through the text-only backends.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

package storage

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLBackend stores entries at the top level of a YAML mapping. Unmanaged
// keys already in the file are preserved.
type YAMLBackend struct {
	Path string
}

// Load implements Backend.
func (y *YAMLBackend) Load() (map[string]string, error) {
	raw, err := y.read()
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
func (y *YAMLBackend) Store(entries []Entry) error {
	existing, err := y.read()
	if err != nil {
		return err
	}
	for _, e := range entries {
		existing[e.Name] = e.Value
	}

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", y.Path, err)
	}
	if err := ensureParent(y.Path); err != nil {
		return err
	}
	return os.WriteFile(y.Path, data, 0o644)
}

func (y *YAMLBackend) read() (map[string]any, error) {
	data, err := os.ReadFile(y.Path)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", y.Path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.Path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

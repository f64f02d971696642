package storage

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TOMLBackend stores entries as top-level string keys in a TOML file.
// Unmanaged keys already in the file are preserved.
type TOMLBackend struct {
	Path string
}

// Load implements Backend.
func (t *TOMLBackend) Load() (map[string]string, error) {
	raw, err := t.read()
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
func (t *TOMLBackend) Store(entries []Entry) error {
	existing, err := t.read()
	if err != nil {
		return err
	}
	for _, e := range entries {
		existing[e.Name] = e.Value
	}

	data, err := toml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", t.Path, err)
	}
	if err := ensureParent(t.Path); err != nil {
		return err
	}
	return os.WriteFile(t.Path, data, 0o644)
}

func (t *TOMLBackend) read() (map[string]any, error) {
	data, err := os.ReadFile(t.Path)
	if os.IsNotExist(err) || (err == nil && len(data) == 0) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.Path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", t.Path, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

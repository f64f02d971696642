package storage

import (
	"os"
	"path/filepath"
	"testing"
)

// The JSON, YAML, and TOML backends share the same merge semantics; exercise
// them through the common interface.
func documentBackends(dir string) map[string]Backend {
	return map[string]Backend{
		"json": &JSONBackend{Path: filepath.Join(dir, "out.json")},
		"yaml": &YAMLBackend{Path: filepath.Join(dir, "out.yaml")},
		"toml": &TOMLBackend{Path: filepath.Join(dir, "out.toml")},
	}
}

func TestDocumentBackends_LoadMissingFile(t *testing.T) {
	for name, backend := range documentBackends(t.TempDir()) {
		t.Run(name, func(t *testing.T) {
			values, err := backend.Load()
			if err != nil {
				t.Fatalf("Expected no error for a missing file, got: %v", err)
			}
			if len(values) != 0 {
				t.Errorf("Expected an empty set, got %v", values)
			}
		})
	}
}

func TestDocumentBackends_RoundTrip(t *testing.T) {
	for name, backend := range documentBackends(t.TempDir()) {
		t.Run(name, func(t *testing.T) {
			err := backend.Store([]Entry{
				{Name: "HOST", Value: "localhost"},
				{Name: "EMPTY", Value: ""},
			})
			if err != nil {
				t.Fatalf("Expected store to succeed, got: %v", err)
			}

			values, err := backend.Load()
			if err != nil {
				t.Fatalf("Expected load to succeed, got: %v", err)
			}
			if values["HOST"] != "localhost" {
				t.Errorf("Expected HOST back, got %v", values)
			}
			if v, ok := values["EMPTY"]; !ok || v != "" {
				t.Errorf("Expected the empty string to survive, got %v", values)
			}
		})
	}
}

func TestDocumentBackends_MergePreservesUnmanagedKeys(t *testing.T) {
	dir := t.TempDir()
	seeds := map[string]string{
		"json": `{"UNMANAGED": "keep", "HOST": "old"}`,
		"yaml": "UNMANAGED: keep\nHOST: old\n",
		"toml": "UNMANAGED = \"keep\"\nHOST = \"old\"\n",
	}
	paths := map[string]string{
		"json": filepath.Join(dir, "out.json"),
		"yaml": filepath.Join(dir, "out.yaml"),
		"toml": filepath.Join(dir, "out.toml"),
	}

	for name, backend := range documentBackends(dir) {
		t.Run(name, func(t *testing.T) {
			if err := os.WriteFile(paths[name], []byte(seeds[name]), 0o644); err != nil {
				t.Fatal(err)
			}

			if err := backend.Store([]Entry{{Name: "HOST", Value: "new"}}); err != nil {
				t.Fatalf("Expected store to succeed, got: %v", err)
			}

			values, err := backend.Load()
			if err != nil {
				t.Fatalf("Expected load to succeed, got: %v", err)
			}
			if values["UNMANAGED"] != "keep" {
				t.Errorf("Expected the unmanaged key to survive, got %v", values)
			}
			if values["HOST"] != "new" {
				t.Errorf("Expected HOST to be updated, got %v", values)
			}
		})
	}
}

func TestDocumentBackends_NonStringScalarsLoadAsText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	seed := `{"PORT": 5432, "DEBUG": true, "RATIO": 0.25}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	backend := &JSONBackend{Path: path}
	values, err := backend.Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}
	if values["PORT"] != "5432" {
		t.Errorf("Expected integer rendered without exponent, got %q", values["PORT"])
	}
	if values["DEBUG"] != "true" {
		t.Errorf("Expected bool as text, got %q", values["DEBUG"])
	}
	if values["RATIO"] != "0.25" {
		t.Errorf("Expected float as text, got %q", values["RATIO"])
	}
}

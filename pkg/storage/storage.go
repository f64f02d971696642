// Package storage persists generated variables and loads previously stored
// ones. Backends are selected once at the boundary, by locator extension or
// explicit type; the engine never branches on backend identity. Values
// round-trip as text; type coercion is the engine's concern.
//
// File backends update non-destructively: comments, formatting, and keys not
// managed by the schema are preserved where the format allows it.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one name/value pair in schema declaration order. Store receives a
// slice rather than a map so backends with ordered output (stdout, dotenv)
// stay deterministic.
type Entry struct {
	Name  string
	Value string
}

// Backend loads existing values and stores the final set.
type Backend interface {
	// Load returns the existing key-value pairs, or an empty map when the
	// target does not exist yet.
	Load() (map[string]string, error)

	// Store writes the entries. Invoked at most once per run, only after
	// validation succeeds.
	Store(entries []Entry) error
}

// backendsByType maps explicit backend type names to constructors.
var backendsByType = map[string]func(path string) Backend{
	"dotenv": func(p string) Backend { return &DotEnvBackend{Path: p} },
	"json":   func(p string) Backend { return &JSONBackend{Path: p} },
	"toml":   func(p string) Backend { return &TOMLBackend{Path: p} },
	"yaml":   func(p string) Backend { return &YAMLBackend{Path: p} },
	"komodo": func(p string) Backend { return &KomodoBackend{Path: p} },
	"sqlite": func(p string) Backend { return &SQLiteBackend{Path: p} },
}

// backendsByExt maps file extensions to explicit type names.
var backendsByExt = map[string]string{
	".env":     "dotenv",
	".json":    "json",
	".toml":    "toml",
	".yaml":    "yaml",
	".yml":     "yaml",
	".db":      "sqlite",
	".sqlite":  "sqlite",
	".sqlite3": "sqlite",
}

// Open resolves a backend for the locator. "stdout" selects the stdout
// backend; any other locator is a file path whose extension selects the
// format. explicitType overrides extension matching, which is how
// extension-ambiguous locators (e.g. a Komodo TOML file) are handled.
func Open(locator, explicitType string) (Backend, error) {
	if locator == "stdout" {
		return NewStdout(os.Stdout), nil
	}

	if explicitType != "" {
		ctor, ok := backendsByType[explicitType]
		if !ok {
			return nil, fmt.Errorf("unknown backend type %q (choose from dotenv, json, toml, yaml, komodo, sqlite)", explicitType)
		}
		return ctor(locator), nil
	}

	// Dotenv files often have no extension in the usual sense: match the
	// full filename (".env", ".env.local") before falling back to suffix.
	name := filepath.Base(locator)
	if name == ".env" || strings.HasPrefix(name, ".env.") {
		return &DotEnvBackend{Path: locator}, nil
	}

	ext := strings.ToLower(filepath.Ext(locator))
	if typeName, ok := backendsByExt[ext]; ok {
		return backendsByType[typeName](locator), nil
	}

	return nil, fmt.Errorf("cannot determine storage format for %q: pass 'stdout', a recognized extension, or --backend", locator)
}

// entryMap returns the entries as a name-keyed map.
func entryMap(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Name] = e.Value
	}
	return m
}

// ensureParent creates the target's parent directory when missing.
func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestKomodo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.toml")
	backend := &KomodoBackend{Path: path}

	err := backend.Store([]Entry{
		{Name: "DB_HOST", Value: "localhost"},
		{Name: "SECRET", Value: `va"lue` + "\nsecond"},
	})
	if err != nil {
		t.Fatalf("Expected store to succeed, got: %v", err)
	}

	values, err := backend.Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got: %v", err)
	}
	if values["DB_HOST"] != "localhost" {
		t.Errorf("Expected DB_HOST back, got %v", values)
	}
	if values["SECRET"] != `va"lue`+"\nsecond" {
		t.Errorf("Expected quotes and newlines to round-trip, got %q", values["SECRET"])
	}
}

func TestKomodo_PreservesStackDefinition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.toml")
	initial := strings.Join([]string{
		`name = "my-stack"`,
		``,
		`[config]`,
		`server = "prod-1"`,
		``,
		`[[variable]]`,
		`name = "OLD"`,
		`value = "stale"`,
		``,
		`[[variable]]`,
		`name = "DB_HOST"`,
		`value = "old-host"`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatal(err)
	}

	backend := &KomodoBackend{Path: path}
	if err := backend.Store([]Entry{{Name: "DB_HOST", Value: "new-host"}}); err != nil {
		t.Fatalf("Expected store to succeed, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	if !strings.Contains(got, `name = "my-stack"`) {
		t.Error("Expected the stack name to survive")
	}
	if !strings.Contains(got, `server = "prod-1"`) {
		t.Error("Expected the config table to survive")
	}
	if strings.Contains(got, "stale") || strings.Contains(got, "old-host") {
		t.Errorf("Expected previous variable sections to be replaced, got:\n%s", got)
	}
	if strings.Count(got, "[[variable]]") != 1 {
		t.Errorf("Expected exactly one variable section, got:\n%s", got)
	}

	values, err := backend.Load()
	if err != nil {
		t.Fatalf("Expected the result to parse, got: %v", err)
	}
	if values["DB_HOST"] != "new-host" {
		t.Errorf("Expected the updated value, got %v", values)
	}
}

func TestStripVariableSections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "array of tables removed up to next table",
			in:   "a = 1\n[[variable]]\nname = \"X\"\nvalue = \"1\"\n[other]\nb = 2\n",
			want: "a = 1\n[other]\nb = 2\n",
		},
		{
			name: "inline array form removed",
			in:   "a = 1\nvariable = [\n  {name = \"X\", value = \"1\"},\n]\nb = 2\n",
			want: "a = 1\nb = 2\n",
		},
		{
			name: "single line inline form removed",
			in:   "variable = [{name = \"X\", value = \"1\"}]\nkeep = true\n",
			want: "keep = true\n",
		},
		{
			name: "nothing to strip",
			in:   "a = 1\n[table]\nb = 2\n",
			want: "a = 1\n[table]\nb = 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripVariableSections(tt.in)
			if got != tt.want {
				t.Errorf("Expected:\n%q\ngot:\n%q", tt.want, got)
			}
		})
	}
}

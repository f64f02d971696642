package storage

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// dotenvLineRE matches KEY= or export KEY= at the start of a line.
var dotenvLineRE = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*=`)

// DotEnvBackend reads and writes .env files. Stores are non-destructive:
// comments, blank lines, and unmanaged variables are left exactly as-is;
// managed variables already in the file are updated in place (keeping an
// `export ` prefix when present) and new ones are appended.
type DotEnvBackend struct {
	Path string
}

// Load implements Backend.
func (d *DotEnvBackend) Load() (map[string]string, error) {
	data, err := os.ReadFile(d.Path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", d.Path, err)
	}

	values, err := godotenv.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", d.Path, err)
	}
	return values, nil
}

// Store implements Backend.
func (d *DotEnvBackend) Store(entries []Entry) error {
	values := entryMap(entries)

	var lines []string
	if data, err := os.ReadFile(d.Path); err == nil {
		lines = splitLinesKeepEnds(string(data))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", d.Path, err)
	}

	handled := make(map[string]bool, len(values))
	var out strings.Builder

	for _, line := range lines {
		if m := dotenvLineRE.FindStringSubmatch(line); m != nil {
			key := m[1]
			if v, managed := values[key]; managed {
				prefix := ""
				if strings.HasPrefix(strings.TrimLeft(line, " \t"), "export ") {
					prefix = "export "
				}
				fmt.Fprintf(&out, "%s%s=%s\n", prefix, key, v)
				handled[key] = true
				continue
			}
		}
		out.WriteString(line)
	}

	for _, e := range entries {
		if !handled[e.Name] {
			fmt.Fprintf(&out, "%s=%s\n", e.Name, e.Value)
		}
	}

	if err := ensureParent(d.Path); err != nil {
		return err
	}
	return os.WriteFile(d.Path, []byte(out.String()), 0o644)
}

// splitLinesKeepEnds splits text into lines, each keeping its trailing
// newline if it had one.
func splitLinesKeepEnds(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

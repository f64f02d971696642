package storage

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// KomodoBackend stores entries in the Komodo TOML dialect: each variable is
// a [[variable]] array-of-tables entry with name and value fields. Stores
// keep the rest of the file verbatim and replace only the variable sections.
type KomodoBackend struct {
	Path string
}

// komodoVariables models just the variable entries; other keys in the file
// are ignored on load.
type komodoVariables struct {
	Variable []struct {
		Name  string `toml:"name"`
		Value any    `toml:"value"`
	} `toml:"variable"`
}

// Load implements Backend.
func (k *KomodoBackend) Load() (map[string]string, error) {
	data, err := os.ReadFile(k.Path)
	if os.IsNotExist(err) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", k.Path, err)
	}

	var doc komodoVariables
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", k.Path, err)
	}

	values := make(map[string]string, len(doc.Variable))
	for _, v := range doc.Variable {
		values[v.Name] = stringify(v.Value)
	}
	return values, nil
}

// Store implements Backend.
func (k *KomodoBackend) Store(entries []Entry) error {
	existing := ""
	if data, err := os.ReadFile(k.Path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", k.Path, err)
	}

	base := strings.TrimRight(stripVariableSections(existing), " \t\r\n")

	parts := make([]string, 0, len(entries)+1)
	if base != "" {
		parts = append(parts, base)
	}
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("[[variable]]\nname = %s\nvalue = %s",
			tomlString(e.Name), tomlString(e.Value)))
	}

	if err := ensureParent(k.Path); err != nil {
		return err
	}
	return os.WriteFile(k.Path, []byte(strings.Join(parts, "\n\n")+"\n"), 0o644)
}

var (
	variableTableRE  = regexp.MustCompile(`^\[\[\s*variable\s*\]\]`)
	variableInlineRE = regexp.MustCompile(`^variable\s*=`)
)

// stripVariableSections removes every variable definition from raw TOML
// text, handling both the [[variable]] array-of-tables form and the legacy
// inline `variable = [...]` form. Everything else is kept verbatim.
func stripVariableSections(text string) string {
	const (
		modeNone = iota
		modeArrayOfTables
		modeInlineArray
	)

	var out strings.Builder
	mode := modeNone
	bracketDepth := 0

	for _, line := range splitLinesKeepEnds(text) {
		stripped := strings.TrimSpace(line)

		switch mode {
		case modeNone:
			switch {
			case variableTableRE.MatchString(stripped):
				mode = modeArrayOfTables
			case variableInlineRE.MatchString(stripped):
				bracketDepth = strings.Count(stripped, "[") - strings.Count(stripped, "]")
				if bracketDepth > 0 {
					mode = modeInlineArray
				}
			default:
				out.WriteString(line)
			}

		case modeArrayOfTables:
			// Skip until a header that starts a different table.
			if strings.HasPrefix(stripped, "[[") {
				if !variableTableRE.MatchString(stripped) {
					mode = modeNone
					out.WriteString(line)
				}
			} else if strings.HasPrefix(stripped, "[") {
				mode = modeNone
				out.WriteString(line)
			}

		case modeInlineArray:
			bracketDepth += strings.Count(stripped, "[") - strings.Count(stripped, "]")
			if bracketDepth <= 0 {
				mode = modeNone
			}
		}
	}

	return out.String()
}

var tomlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// tomlString renders s as a quoted TOML basic string.
func tomlString(s string) string {
	return `"` + tomlEscaper.Replace(s) + `"`
}

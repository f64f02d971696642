// Package template renders {{ NAME }} placeholder templates and extracts the
// variable names they reference. Extraction is a pure text scan with no
// dependency on rendering, so the engine's ordering logic works against any
// template regardless of how (or whether) it is later rendered.
package template

import (
	"fmt"
	"regexp"
)

// placeholderRE matches a double-curly-brace reference to a variable name,
// tolerating whitespace inside the braces.
var placeholderRE = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// UndefinedReferenceError reports a placeholder naming a key absent from the
// value mapping. Correct resolution ordering prevents this; it survives as a
// consistency check.
type UndefinedReferenceError struct {
	// Name is the referenced variable name.
	Name string
}

func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("template references undefined variable %q", e.Name)
}

// Render substitutes every placeholder in tmpl with the corresponding value
// from values. Identical inputs always produce identical output.
func Render(tmpl string, values map[string]string) (string, error) {
	var missing *UndefinedReferenceError

	rendered := placeholderRE.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderRE.FindStringSubmatch(match)[1]
		v, ok := values[name]
		if !ok {
			if missing == nil {
				missing = &UndefinedReferenceError{Name: name}
			}
			return match
		}
		return v
	})

	if missing != nil {
		return "", missing
	}
	return rendered, nil
}

// Refs returns the distinct variable names referenced by tmpl, in first
// appearance order.
func Refs(tmpl string) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, m := range placeholderRE.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

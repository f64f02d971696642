package engine

import (
	"github.com/envgen/envgen/pkg/schema"
)

// Source records where a resolved value came from. Precedence during a run
// is override > existing > generated, with existing values skipped under
// force.
type Source string

const (
	// SourceOverride is a CLI-supplied KEY=VALUE override.
	SourceOverride Source = "override"

	// SourceExisting is a value loaded from the storage backend.
	SourceExisting Source = "existing"

	// SourceDefault is a rendered default-rule literal.
	SourceDefault Source = "default"

	// SourceGenerated is the output of a command or openssl rule.
	SourceGenerated Source = "generated"
)

// ResolvedValue is a single variable's value within a run. Raw is the text
// form used for template substitution and storage; Typed is the coerced form
// handed to the validator.
type ResolvedValue struct {
	Raw    string
	Typed  any
	Source Source
}

// Pair is an ordered name/value pair in text form.
type Pair struct {
	Name  string
	Value string
}

// Result is the outcome of a successful engine run: every declared variable
// resolved (except those listed in Missing), in the mapping the validator and
// storage layers consume.
type Result struct {
	// Schema is the schema the run resolved against.
	Schema *schema.Schema

	// Values maps variable name to its resolved value. Internal variables
	// are present here so templates and validation can see them.
	Values map[string]ResolvedValue

	// Missing lists variables with no generation rule and no value from
	// override or storage, in declaration order. The validator reports them
	// as required-value failures.
	Missing []string
}

// Strings returns the text form of every resolved value, internal variables
// included.
func (r *Result) Strings() map[string]string {
	out := make(map[string]string, len(r.Values))
	for name, v := range r.Values {
		out[name] = v.Raw
	}
	return out
}

// Public returns the non-internal resolved values in declaration order. This
// is the set handed to storage; internal variables never leave the run.
func (r *Result) Public() []Pair {
	var out []Pair
	for _, spec := range r.Schema.Variables {
		if spec.Internal {
			continue
		}
		v, ok := r.Values[spec.Name]
		if !ok {
			continue
		}
		out = append(out, Pair{Name: spec.Name, Value: v.Raw})
	}
	return out
}

package schema

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// VarType is the declared type of a variable. Values round-trip through
// storage as text; the engine coerces them to this type after generation.
type VarType string

const (
	TypeString VarType = "str"
	TypeInt    VarType = "int"
	TypeFloat  VarType = "float"
	TypeBool   VarType = "bool"
)

// RuleKind discriminates the generation rule union.
type RuleKind string

const (
	// RuleDefault returns a templated literal from the schema.
	RuleDefault RuleKind = "default"

	// RuleCommand executes a templated shell command and captures stdout.
	RuleCommand RuleKind = "command"

	// RuleOpenSSL generates cryptographic material (keys, random bytes).
	RuleOpenSSL RuleKind = "openssl"
)

// GenerationRule describes how a variable's value is produced. It is a
// closed tagged union: Kind selects the variant and determines which of the
// remaining fields are meaningful. Every string-bearing field is a template
// rendered against already-resolved variables before execution.
type GenerationRule struct {
	// Kind is the rule discriminator (default, command, openssl).
	Kind RuleKind `yaml:"rule" validate:"required,oneof=default command openssl"`

	// Value is the templated literal for the default rule.
	Value string `yaml:"value,omitempty"`

	// Command is the templated shell command line for the command rule,
	// or the operation name for the openssl rule.
	Command string `yaml:"command,omitempty"`

	// Args holds openssl operation arguments (key_size, curve, encoding,
	// length). String values are templated.
	Args map[string]any `yaml:"args,omitempty"`
}

// Templates returns every templated string field of the rule, in a
// deterministic order. The dependency scanner feeds these to the reference
// extractor; the engine renders them before dispatch.
func (r *GenerationRule) Templates() []string {
	var out []string
	switch r.Kind {
	case RuleDefault:
		out = append(out, r.Value)
	case RuleCommand:
		out = append(out, r.Command)
	case RuleOpenSSL:
		out = append(out, r.Command)
		for _, k := range sortedKeys(r.Args) {
			if s, ok := r.Args[k].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// MapTemplates returns a copy of the rule with every templated field passed
// through f. The receiver is not modified.
func (r *GenerationRule) MapTemplates(f func(string) (string, error)) (GenerationRule, error) {
	out := GenerationRule{Kind: r.Kind}
	var err error
	switch r.Kind {
	case RuleDefault:
		if out.Value, err = f(r.Value); err != nil {
			return out, err
		}
	case RuleCommand:
		if out.Command, err = f(r.Command); err != nil {
			return out, err
		}
	case RuleOpenSSL:
		if out.Command, err = f(r.Command); err != nil {
			return out, err
		}
		out.Args = make(map[string]any, len(r.Args))
		for k, v := range r.Args {
			if s, ok := v.(string); ok {
				rendered, rerr := f(s)
				if rerr != nil {
					return out, rerr
				}
				out.Args[k] = rendered
				continue
			}
			out.Args[k] = v
		}
	}
	return out, nil
}

// LengthRule constrains the character count of a string value. Bounds are
// inclusive; a nil bound is unconstrained.
type LengthRule struct {
	Min *int `yaml:"min"`
	Max *int `yaml:"max"`
}

// RangeRule constrains a numeric value. Inclusivity is toggleable per bound
// and defaults to inclusive when unspecified.
type RangeRule struct {
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	MinInclusive *bool    `yaml:"min_inclusive"`
	MaxInclusive *bool    `yaml:"max_inclusive"`
}

// MinIncl reports whether the lower bound is inclusive (the default).
func (r *RangeRule) MinIncl() bool { return r.MinInclusive == nil || *r.MinInclusive }

// MaxIncl reports whether the upper bound is inclusive (the default).
func (r *RangeRule) MaxIncl() bool { return r.MaxInclusive == nil || *r.MaxInclusive }

// OneOfRule constrains a value to an enumerated set, compared by string form.
type OneOfRule struct {
	Choices []string `yaml:"choices" validate:"required,min=1"`
}

// RegexpRule constrains a string value to partially match a pattern.
type RegexpRule struct {
	Pattern string `yaml:"pattern" validate:"required"`
}

// ValidationRules collects all constraints on a single variable. Every field
// is optional; a variable with several rules must pass all of them.
type ValidationRules struct {
	Length *LengthRule `yaml:"length"`
	Range  *RangeRule  `yaml:"range"`
	OneOf  *OneOfRule  `yaml:"one_of"`
	Regexp *RegexpRule `yaml:"regexp"`
}

// VariableSpec is the full declaration of a single variable. Immutable once
// loaded.
type VariableSpec struct {
	// Name is the unique variable key. Populated from the mapping key in
	// the schema file, not from a field.
	Name string `yaml:"-" validate:"required"`

	// Type is the declared value type. Defaults to str.
	Type VarType `yaml:"type" validate:"omitempty,oneof=str int float bool"`

	// Generation describes how to produce the value. When absent the value
	// must come from existing storage or a CLI override.
	Generation *GenerationRule `yaml:"generation"`

	// Validation holds the constraints checked after generation.
	Validation ValidationRules `yaml:"validation"`

	// Internal variables are available to templates and validated, but
	// excluded from persisted output.
	Internal bool `yaml:"internal"`

	// Description is informational only.
	Description string `yaml:"description"`
}

// Schema is the root model: declared variables in file order plus a name
// index. Declaration order is significant (it breaks ties in the engine's
// resolution order), so variables are a slice, not a map.
type Schema struct {
	Variables []VariableSpec

	index map[string]int
}

// UnmarshalYAML decodes the root document. Variables are declared under a
// `variables` mapping; mapping order is preserved by walking the node
// content directly rather than decoding into a Go map.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema root must be a mapping, got %s", nodeKind(node))
	}

	var vars *yaml.Node
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value == "variables" {
			vars = node.Content[i+1]
		}
	}
	if vars == nil {
		return fmt.Errorf("schema is missing the 'variables' mapping")
	}
	if vars.Kind != yaml.MappingNode {
		return fmt.Errorf("'variables' must be a mapping, got %s", nodeKind(vars))
	}

	s.Variables = make([]VariableSpec, 0, len(vars.Content)/2)
	s.index = make(map[string]int, len(vars.Content)/2)

	for i := 0; i < len(vars.Content)-1; i += 2 {
		name := vars.Content[i].Value
		if _, dup := s.index[name]; dup {
			return fmt.Errorf("variable %q declared twice", name)
		}

		var spec VariableSpec
		if err := vars.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		spec.Name = name
		if spec.Type == "" {
			spec.Type = TypeString
		}

		s.index[name] = len(s.Variables)
		s.Variables = append(s.Variables, spec)
	}

	return nil
}

// Lookup returns the declaration for name, if any.
func (s *Schema) Lookup(name string) (*VariableSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.Variables[i], true
}

// Names returns all declared variable names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		names[i] = v.Name
	}
	return names
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "document"
	}
}

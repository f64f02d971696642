package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// structValidator checks the `validate:` tags on decoded specs. Shared and
// concurrency-safe per the validator documentation.
var structValidator = validator.New()

// Load reads and validates a YAML schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML schema content.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	if err := validate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// validate performs structural checks the YAML decoder cannot express:
// struct tags plus cross-field compatibility between the declared type and
// the validation rules attached to it.
func validate(s *Schema) error {
	for i := range s.Variables {
		v := &s.Variables[i]

		if err := structValidator.Struct(v); err != nil {
			return fmt.Errorf("variable %q: %w", v.Name, err)
		}
		if v.Generation != nil {
			if err := structValidator.Struct(v.Generation); err != nil {
				return fmt.Errorf("variable %q: generation: %w", v.Name, err)
			}
			if err := validateRule(v.Generation); err != nil {
				return fmt.Errorf("variable %q: generation: %w", v.Name, err)
			}
		}

		if v.Validation.Range != nil && v.Type != TypeInt && v.Type != TypeFloat {
			return fmt.Errorf("variable %q: 'range' validation is only valid for int/float types, got %q", v.Name, v.Type)
		}
		if v.Validation.Length != nil && v.Type != TypeString {
			return fmt.Errorf("variable %q: 'length' validation is only valid for str type, got %q", v.Name, v.Type)
		}
		if v.Validation.OneOf != nil {
			if err := structValidator.Struct(v.Validation.OneOf); err != nil {
				return fmt.Errorf("variable %q: one_of: %w", v.Name, err)
			}
		}
		if v.Validation.Regexp != nil {
			if err := structValidator.Struct(v.Validation.Regexp); err != nil {
				return fmt.Errorf("variable %q: regexp: %w", v.Name, err)
			}
		}
	}
	return nil
}

// validateRule checks that the fields required by each rule kind are present.
func validateRule(r *GenerationRule) error {
	switch r.Kind {
	case RuleDefault:
		// An empty default value is legal.
		return nil
	case RuleCommand:
		if r.Command == "" {
			return fmt.Errorf("command rule requires a 'command' field")
		}
	case RuleOpenSSL:
		if r.Command == "" {
			return fmt.Errorf("openssl rule requires a 'command' field")
		}
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	return nil
}

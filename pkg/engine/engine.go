// Package engine resolves a schema's variables into concrete values. It
// merges stored values and CLI overrides with rule-based generation, orders
// rule execution so that template references always point at already-resolved
// variables, and coerces every value to its declared type. Resolution is
// strictly sequential: rule execution has observable side effects (subprocess
// invocation, random generation) whose interleaving must stay deterministic
// relative to declaration and dependency order.
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/envgen/envgen/pkg/schema"
	"github.com/envgen/envgen/pkg/template"
)

// RuleExecutor produces a value from a generation rule whose templated
// fields have already been rendered. Implementations dispatch exhaustively
// on the rule kind.
type RuleExecutor interface {
	Execute(ctx context.Context, rule schema.GenerationRule) (string, error)
}

// Generator is the generation engine. It owns the resolved-value mapping for
// the duration of a run; no other component writes to it.
type Generator struct {
	exec   RuleExecutor
	logger zerolog.Logger
}

// NewGenerator creates a generation engine using exec for rule execution.
func NewGenerator(exec RuleExecutor, logger zerolog.Logger) *Generator {
	return &Generator{
		exec:   exec,
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Run resolves every declared variable. Precedence per variable, highest
// first: CLI override, existing stored value (skipped when force is set),
// rule-based generation. Variables with neither a value nor a rule are
// reported in Result.Missing for the validator to flag.
//
// Run either returns a complete result or a classified error; on error no
// partial output should be persisted by the caller.
func (g *Generator) Run(ctx context.Context, sc *schema.Schema, existing, overrides map[string]string, force bool) (*Result, error) {
	log := g.logger.With().Str("run_id", uuid.NewString()).Logger()

	result := &Result{
		Schema: sc,
		Values: make(map[string]ResolvedValue, len(sc.Variables)),
	}

	// Fix precedence-winning values up front. They seed the template
	// mapping and their own rules (if any) are skipped entirely.
	fixed := make(map[string]bool, len(sc.Variables))
	for i := range sc.Variables {
		v := &sc.Variables[i]

		raw, source, ok := pickFixed(v.Name, existing, overrides, force)
		if !ok {
			continue
		}
		typed, err := v.Type.Coerce(raw)
		if err != nil {
			return nil, NewError(ErrCodeTypeCoercion, err.Error()).
				WithVariable(v.Name).WithOperation(string(source))
		}
		fixed[v.Name] = true
		result.Values[v.Name] = ResolvedValue{Raw: raw, Typed: typed, Source: source}
	}

	res, err := newResolver(sc, fixed)
	if err != nil {
		return nil, err
	}
	order, err := res.order()
	if err != nil {
		return nil, err
	}

	values := result.Strings()

	for _, name := range order {
		if fixed[name] {
			log.Debug().Str("variable", name).
				Str("source", string(result.Values[name].Source)).
				Msg("variable resolved")
			continue
		}

		spec, _ := sc.Lookup(name)
		if spec.Generation == nil {
			result.Missing = append(result.Missing, name)
			continue
		}

		rendered, err := spec.Generation.MapTemplates(func(tmpl string) (string, error) {
			return template.Render(tmpl, values)
		})
		if err != nil {
			var undef *template.UndefinedReferenceError
			if errors.As(err, &undef) {
				return nil, NewError(ErrCodeUndefinedReference, err.Error()).
					WithVariable(name).WithOperation(string(spec.Generation.Kind))
			}
			return nil, NewError(ErrCodeInternal, "template rendering failed").
				WithVariable(name).WithErr(err)
		}

		raw, err := g.exec.Execute(ctx, rendered)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				if e.Variable == "" {
					e.Variable = name
				}
				return nil, e
			}
			return nil, NewError(ErrCodeInternal, "rule execution failed").
				WithVariable(name).WithOperation(string(spec.Generation.Kind)).WithErr(err)
		}

		typed, err := spec.Type.Coerce(raw)
		if err != nil {
			return nil, NewError(ErrCodeTypeCoercion, err.Error()).
				WithVariable(name).WithOperation(string(spec.Generation.Kind))
		}

		source := SourceGenerated
		if spec.Generation.Kind == schema.RuleDefault {
			source = SourceDefault
		}
		result.Values[name] = ResolvedValue{Raw: raw, Typed: typed, Source: source}
		values[name] = raw

		log.Debug().Str("variable", name).
			Str("source", string(source)).
			Str("rule", string(spec.Generation.Kind)).
			Msg("variable resolved")
	}

	return result, nil
}

// pickFixed applies the override/existing precedence for a single variable.
func pickFixed(name string, existing, overrides map[string]string, force bool) (string, Source, bool) {
	if v, ok := overrides[name]; ok {
		return v, SourceOverride, true
	}
	if !force {
		if v, ok := existing[name]; ok {
			return v, SourceExisting, true
		}
	}
	return "", "", false
}

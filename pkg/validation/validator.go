// Package validation checks resolved values against the constraints declared
// in the schema. Unlike the engine's fail-fast errors, validation accumulates
// every failure across all variables and rules before reporting, so one run
// gives the caller the complete picture.
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"github.com/envgen/envgen/pkg/engine"
	"github.com/envgen/envgen/pkg/schema"
)

// ValidationError is a single constraint failure.
type ValidationError struct {
	// Variable is the failing variable name.
	Variable string

	// Rule is the constraint kind (length, range, one_of, regexp, required).
	Rule string

	// Message describes the failure.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Variable, e.Rule, e.Message)
}

// Report is the complete set of failures from one validation pass.
type Report struct {
	Errors []*ValidationError
}

// OK reports whether validation passed.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err folds the report into a single aggregated error, or nil when
// validation passed.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	var agg *multierror.Error
	for _, e := range r.Errors {
		agg = multierror.Append(agg, e)
	}
	return agg.ErrorOrNil()
}

// Validate checks every resolved value (internal variables included) against
// its declared constraints, and reports variables the engine could not
// resolve as required-value failures.
func Validate(result *engine.Result) *Report {
	report := &Report{}

	for _, name := range result.Missing {
		report.add(name, "required", "no value provided and no generation rule declared")
	}

	for i := range result.Schema.Variables {
		spec := &result.Schema.Variables[i]
		value, ok := result.Values[spec.Name]
		if !ok {
			continue
		}
		checkVariable(report, spec, value)
	}

	return report
}

func checkVariable(report *Report, spec *schema.VariableSpec, value engine.ResolvedValue) {
	rules := spec.Validation

	if rules.Length != nil {
		checkLength(report, spec.Name, rules.Length, value.Raw)
	}
	if rules.Range != nil {
		checkRange(report, spec.Name, rules.Range, value.Typed)
	}
	if rules.OneOf != nil {
		checkOneOf(report, spec.Name, rules.OneOf, value.Raw)
	}
	if rules.Regexp != nil {
		checkRegexp(report, spec.Name, rules.Regexp, value.Raw)
	}
}

func checkLength(report *Report, name string, rule *schema.LengthRule, raw string) {
	n := utf8.RuneCountInString(raw)
	if rule.Min != nil && n < *rule.Min {
		report.add(name, "length", fmt.Sprintf("length %d is shorter than minimum %d", n, *rule.Min))
	}
	if rule.Max != nil && n > *rule.Max {
		report.add(name, "length", fmt.Sprintf("length %d is longer than maximum %d", n, *rule.Max))
	}
}

func checkRange(report *Report, name string, rule *schema.RangeRule, typed any) {
	var n float64
	switch v := typed.(type) {
	case int64:
		n = float64(v)
	case float64:
		n = v
	default:
		// The loader rejects range rules on non-numeric types.
		report.add(name, "range", fmt.Sprintf("range validation applied to non-numeric value %v", typed))
		return
	}

	if rule.Min != nil {
		if rule.MinIncl() && n < *rule.Min {
			report.add(name, "range", fmt.Sprintf("%v is less than minimum %v", n, *rule.Min))
		} else if !rule.MinIncl() && n <= *rule.Min {
			report.add(name, "range", fmt.Sprintf("%v is not greater than exclusive minimum %v", n, *rule.Min))
		}
	}
	if rule.Max != nil {
		if rule.MaxIncl() && n > *rule.Max {
			report.add(name, "range", fmt.Sprintf("%v is greater than maximum %v", n, *rule.Max))
		} else if !rule.MaxIncl() && n >= *rule.Max {
			report.add(name, "range", fmt.Sprintf("%v is not less than exclusive maximum %v", n, *rule.Max))
		}
	}
}

func checkOneOf(report *Report, name string, rule *schema.OneOfRule, raw string) {
	for _, choice := range rule.Choices {
		if raw == choice {
			return
		}
	}
	report.add(name, "one_of", fmt.Sprintf("%q is not one of the allowed choices %v", raw, rule.Choices))
}

func checkRegexp(report *Report, name string, rule *schema.RegexpRule, raw string) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		report.add(name, "regexp", fmt.Sprintf("invalid pattern %q: %v", rule.Pattern, err))
		return
	}
	// Partial match: the pattern may match anywhere unless anchored.
	if !re.MatchString(raw) {
		report.add(name, "regexp", fmt.Sprintf("%q does not match pattern %q", raw, rule.Pattern))
	}
}

func (r *Report) add(variable, rule, message string) {
	r.Errors = append(r.Errors, &ValidationError{Variable: variable, Rule: rule, Message: message})
}

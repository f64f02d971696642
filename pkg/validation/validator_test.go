package validation

import (
	"strings"
	"testing"

	"github.com/envgen/envgen/pkg/engine"
	"github.com/envgen/envgen/pkg/schema"
)

func mustParse(t *testing.T, src string) *schema.Schema {
	t.Helper()
	sc, err := schema.Parse([]byte(src))
	if err != nil {
		t.Fatalf("Failed to parse schema: %v", err)
	}
	return sc
}

func result(sc *schema.Schema, values map[string]engine.ResolvedValue, missing ...string) *engine.Result {
	return &engine.Result{Schema: sc, Values: values, Missing: missing}
}

func failures(report *Report, variable string) []*ValidationError {
	var out []*ValidationError
	for _, e := range report.Errors {
		if e.Variable == variable {
			out = append(out, e)
		}
	}
	return out
}

func TestValidate_Length(t *testing.T) {
	sc := mustParse(t, `
variables:
  NAME:
    type: str
    validation:
      length: {min: 1, max: 3}
`)

	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{name: "at minimum", raw: "a", ok: true},
		{name: "at maximum", raw: "abc", ok: true},
		{name: "too short", raw: "", ok: false},
		{name: "too long", raw: "abcd", ok: false},
		{name: "runes not bytes", raw: "héé", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(result(sc, map[string]engine.ResolvedValue{
				"NAME": {Raw: tt.raw, Typed: tt.raw, Source: engine.SourceGenerated},
			}))
			if report.OK() != tt.ok {
				t.Errorf("Expected ok=%v for %q, got errors: %v", tt.ok, tt.raw, report.Errors)
			}
		})
	}
}

func TestValidate_RangeInclusiveByDefault(t *testing.T) {
	sc := mustParse(t, `
variables:
  PORT:
    type: int
    validation:
      range: {min: 1024, max: 65535}
`)

	tests := []struct {
		name  string
		typed int64
		ok    bool
	}{
		{name: "at minimum", typed: 1024, ok: true},
		{name: "at maximum", typed: 65535, ok: true},
		{name: "below", typed: 1023, ok: false},
		{name: "above", typed: 65536, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Validate(result(sc, map[string]engine.ResolvedValue{
				"PORT": {Raw: "x", Typed: tt.typed, Source: engine.SourceGenerated},
			}))
			if report.OK() != tt.ok {
				t.Errorf("Expected ok=%v for %d, got errors: %v", tt.ok, tt.typed, report.Errors)
			}
		})
	}
}

func TestValidate_RangeExclusiveBound(t *testing.T) {
	sc := mustParse(t, `
variables:
  RATIO:
    type: float
    validation:
      range: {min: 0, min_inclusive: false}
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"RATIO": {Raw: "0", Typed: float64(0), Source: engine.SourceGenerated},
	}))
	if report.OK() {
		t.Error("Expected the boundary value to fail an exclusive minimum")
	}

	report = Validate(result(sc, map[string]engine.ResolvedValue{
		"RATIO": {Raw: "0.5", Typed: float64(0.5), Source: engine.SourceGenerated},
	}))
	if !report.OK() {
		t.Errorf("Expected 0.5 to pass, got errors: %v", report.Errors)
	}
}

func TestValidate_OneOf(t *testing.T) {
	sc := mustParse(t, `
variables:
  ENV:
    type: str
    validation:
      one_of: {choices: [dev, staging, prod]}
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"ENV": {Raw: "staging", Typed: "staging", Source: engine.SourceExisting},
	}))
	if !report.OK() {
		t.Errorf("Expected staging to pass, got errors: %v", report.Errors)
	}

	report = Validate(result(sc, map[string]engine.ResolvedValue{
		"ENV": {Raw: "production", Typed: "production", Source: engine.SourceExisting},
	}))
	errs := failures(report, "ENV")
	if len(errs) != 1 || errs[0].Rule != "one_of" {
		t.Fatalf("Expected a single one_of failure, got: %v", report.Errors)
	}
	if !strings.Contains(errs[0].Message, "production") {
		t.Errorf("Expected the rejected value in the message, got: %s", errs[0].Message)
	}
}

func TestValidate_RegexpPartialMatch(t *testing.T) {
	sc := mustParse(t, `
variables:
  URL:
    type: str
    validation:
      regexp: {pattern: "^https://"}
  TAG:
    type: str
    validation:
      regexp: {pattern: "[0-9]+"}
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"URL": {Raw: "https://example.com", Typed: "https://example.com", Source: engine.SourceGenerated},
		"TAG": {Raw: "release-42", Typed: "release-42", Source: engine.SourceGenerated},
	}))
	if !report.OK() {
		t.Errorf("Expected both to pass, got errors: %v", report.Errors)
	}

	report = Validate(result(sc, map[string]engine.ResolvedValue{
		"URL": {Raw: "http://example.com", Typed: "http://example.com", Source: engine.SourceGenerated},
		"TAG": {Raw: "release", Typed: "release", Source: engine.SourceGenerated},
	}))
	if len(report.Errors) != 2 {
		t.Fatalf("Expected failures from both variables, got: %v", report.Errors)
	}
}

func TestValidate_InvalidPatternReported(t *testing.T) {
	sc := mustParse(t, `
variables:
  X:
    type: str
    validation:
      regexp: {pattern: "("}
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"X": {Raw: "anything", Typed: "anything", Source: engine.SourceGenerated},
	}))
	errs := failures(report, "X")
	if len(errs) != 1 || errs[0].Rule != "regexp" {
		t.Fatalf("Expected a regexp failure for an invalid pattern, got: %v", report.Errors)
	}
	if !strings.Contains(errs[0].Message, "invalid pattern") {
		t.Errorf("Expected the message to flag the pattern itself, got: %s", errs[0].Message)
	}
}

func TestValidate_MissingReportedAsRequired(t *testing.T) {
	sc := mustParse(t, `
variables:
  API_KEY:
    type: str
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{}, "API_KEY"))
	errs := failures(report, "API_KEY")
	if len(errs) != 1 || errs[0].Rule != "required" {
		t.Fatalf("Expected a required failure, got: %v", report.Errors)
	}
}

func TestValidate_CollectsAcrossVariablesAndRules(t *testing.T) {
	sc := mustParse(t, `
variables:
  A:
    type: str
    validation:
      length: {min: 5}
      one_of: {choices: [alpha, omega]}
  B:
    type: int
    validation:
      range: {max: 10}
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"A": {Raw: "x", Typed: "x", Source: engine.SourceGenerated},
		"B": {Raw: "99", Typed: int64(99), Source: engine.SourceGenerated},
	}, "C"))

	// A fails length and one_of, B fails range, C is missing.
	if len(report.Errors) != 4 {
		t.Fatalf("Expected 4 accumulated failures, got %d: %v", len(report.Errors), report.Errors)
	}
	if len(failures(report, "A")) != 2 {
		t.Errorf("Expected both of A's rules to be reported, got: %v", failures(report, "A"))
	}

	err := report.Err()
	if err == nil {
		t.Fatal("Expected a non-nil aggregated error")
	}
	for _, fragment := range []string{"A: length", "A: one_of", "B: range", "C: required"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("Expected aggregated error to mention %q, got: %v", fragment, err)
		}
	}
}

func TestValidate_CleanReport(t *testing.T) {
	sc := mustParse(t, `
variables:
  A:
    type: str
`)

	report := Validate(result(sc, map[string]engine.ResolvedValue{
		"A": {Raw: "ok", Typed: "ok", Source: engine.SourceDefault},
	}))
	if !report.OK() {
		t.Errorf("Expected a clean report, got: %v", report.Errors)
	}
	if report.Err() != nil {
		t.Errorf("Expected nil from Err on a clean report, got: %v", report.Err())
	}
}

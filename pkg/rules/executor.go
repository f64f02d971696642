// Package rules executes generation rules. The executor receives rules whose
// templated fields are already rendered and dispatches exhaustively on the
// rule kind: default returns a literal, command runs a subprocess, openssl
// produces cryptographic material.
package rules

import (
	"context"
	"fmt"

	"github.com/envgen/envgen/pkg/engine"
	"github.com/envgen/envgen/pkg/schema"
)

// Executor implements engine.RuleExecutor.
type Executor struct{}

// NewExecutor creates a rule executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute produces the value for a fully-rendered rule. The returned string
// is coerced to the variable's declared type by the engine.
func (e *Executor) Execute(ctx context.Context, rule schema.GenerationRule) (string, error) {
	switch rule.Kind {
	case schema.RuleDefault:
		return rule.Value, nil
	case schema.RuleCommand:
		return runCommand(ctx, rule.Command)
	case schema.RuleOpenSSL:
		return generateCrypto(rule.Command, rule.Args)
	}
	return "", engine.NewError(engine.ErrCodeUnsupportedOperation,
		fmt.Sprintf("unknown generation rule kind %q", rule.Kind))
}

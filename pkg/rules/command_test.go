package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/envgen/envgen/pkg/engine"
	"github.com/envgen/envgen/pkg/schema"
)

func TestExecute_CommandCapturesStdout(t *testing.T) {
	exec := NewExecutor()
	out, err := exec.Execute(context.Background(), schema.GenerationRule{
		Kind:    schema.RuleCommand,
		Command: "echo hello",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out != "hello" {
		t.Errorf("Expected trailing newline stripped, got %q", out)
	}
}

func TestExecute_CommandStripsOnlyTrailingWhitespace(t *testing.T) {
	exec := NewExecutor()
	out, err := exec.Execute(context.Background(), schema.GenerationRule{
		Kind:    schema.RuleCommand,
		Command: `printf '  a b  \n\n'`,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out != "  a b" {
		t.Errorf("Expected leading whitespace preserved, got %q", out)
	}
}

func TestExecute_CommandShellFeatures(t *testing.T) {
	exec := NewExecutor()
	out, err := exec.Execute(context.Background(), schema.GenerationRule{
		Kind:    schema.RuleCommand,
		Command: "echo a | tr a b",
	})
	if err != nil {
		t.Fatalf("Expected pipes to work through the shell, got: %v", err)
	}
	if out != "b" {
		t.Errorf("Expected %q, got %q", "b", out)
	}
}

func TestExecute_CommandNonZeroExit(t *testing.T) {
	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), schema.GenerationRule{
		Kind:    schema.RuleCommand,
		Command: "echo oops >&2; exit 3",
	})
	if err == nil {
		t.Fatal("Expected an error for non-zero exit")
	}

	var e *engine.Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected a classified error, got %T", err)
	}
	if e.Code != engine.ErrCodeCommandFailed {
		t.Errorf("Expected %s, got %s", engine.ErrCodeCommandFailed, e.Code)
	}
	if !strings.Contains(e.Message, "status 3") {
		t.Errorf("Expected the exit code in the message, got: %s", e.Message)
	}
	if !strings.Contains(e.Message, "oops") {
		t.Errorf("Expected captured stderr in the message, got: %s", e.Message)
	}
}

func TestExecute_Default(t *testing.T) {
	exec := NewExecutor()
	out, err := exec.Execute(context.Background(), schema.GenerationRule{
		Kind:  schema.RuleDefault,
		Value: "literal value",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out != "literal value" {
		t.Errorf("Expected the literal back, got %q", out)
	}
}

func TestExecute_UnknownKind(t *testing.T) {
	exec := NewExecutor()
	_, err := exec.Execute(context.Background(), schema.GenerationRule{Kind: "jinja"})
	if err == nil {
		t.Fatal("Expected an error for an unknown rule kind")
	}
	if engine.CodeOf(err) != engine.ErrCodeUnsupportedOperation {
		t.Errorf("Expected %s, got: %v", engine.ErrCodeUnsupportedOperation, err)
	}
}

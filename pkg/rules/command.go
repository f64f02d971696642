package rules

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/envgen/envgen/pkg/engine"
)

// runCommand executes a rendered command line through the shell and returns
// its stdout with trailing whitespace stripped. The command blocks the run
// until it exits; ctx lets the CLI impose a timeout.
func runCommand(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("command exited with status %d", exitErr.ExitCode())
			if errText := strings.TrimSpace(stderr.String()); errText != "" {
				msg += ": " + errText
			}
			return "", engine.NewError(engine.ErrCodeCommandFailed, msg).
				WithOperation("command").WithErr(err)
		}
		return "", engine.NewError(engine.ErrCodeCommandFailed,
			fmt.Sprintf("failed to execute command: %v", err)).
			WithOperation("command").WithErr(err)
	}

	return strings.TrimRight(stdout.String(), " \t\r\n"), nil
}

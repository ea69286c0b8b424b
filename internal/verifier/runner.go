package verifier

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes a build command and returns its captured output streams.
type Runner interface {
	Run(ctx context.Context, command string) (stdout, stderr []byte, err error)
}

// ShellRunner runs commands through `sh -c`, keeping the configured command
// string opaque (pipes, && chains, env references all work).
type ShellRunner struct {
	// Dir is the working directory for the command; empty means inherit.
	Dir string
}

// Run executes command until completion or context cancellation.
func (r *ShellRunner) Run(ctx context.Context, command string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

package connect

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/rileyhilliard/sshmenu/internal/errors"
)

// Runner runs the ssh client. A non-zero exit code is not an error; err is
// reserved for failing to run the process at all.
type Runner interface {
	Run(ctx context.Context, args []string) (exitCode int, err error)
}

// ExecRunner runs the ssh binary with the terminal passed straight through.
type ExecRunner struct {
	Binary string // defaults to "ssh"
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner attached to the process's stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Binary: "ssh",
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run starts the binary and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, args []string) (int, error) {
	bin := r.Binary
	if bin == "" {
		bin = "ssh"
	}

	command := exec.CommandContext(ctx, bin, args...)
	command.Stdin = r.Stdin
	command.Stdout = r.Stdout
	command.Stderr = r.Stderr

	runErr := command.Run()
	if runErr != nil {
		// Ran but returned non-zero
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, errors.WrapWithCode(runErr, errors.ErrExec,
			"Couldn't run "+bin,
			"Make sure the OpenSSH client is installed and on your PATH.")
	}
	return 0, nil
}

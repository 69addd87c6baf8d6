package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/matzehuels/autoinstall/pkg/errors"
)

// Runner executes a command in a working directory.
type Runner interface {
	Run(ctx context.Context, cmd Command, dir string) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run spawns cmd in dir and waits for it. A spawn failure or non-zero exit
// yields COMMAND_ERROR carrying the tail of the process output.
func (ExecRunner) Run(ctx context.Context, cmd Command, dir string) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = dir
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out
	if err := c.Run(); err != nil {
		if msg := tail(out.String(), 512); msg != "" {
			return errors.Wrap(errors.ErrCodeCommand, err, "%s: %s", cmd, msg)
		}
		return errors.Wrap(errors.ErrCodeCommand, err, "%s", cmd)
	}
	return nil
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, cmd Command, dir string) error

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cmd Command, dir string) error {
	return f(ctx, cmd, dir)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

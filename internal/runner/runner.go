// Package runner executes the external commands collaborators shell out to.
package runner

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner runs name with args in dir. An empty dir means the current directory.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// LookPath reports where name resolves on PATH.
type LookPath func(name string) (string, error)

// Exec runs real processes.
type Exec struct{}

func (Exec) Run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, msg)
	}
	return nil
}

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Recorder captures invocations instead of running them. Err, when set, is
// returned from every Run.
type Recorder struct {
	Calls []Call
	Err   error
}

func (r *Recorder) Run(_ context.Context, dir, name string, args ...string) error {
	r.Calls = append(r.Calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})
	return r.Err
}

// LookPath resolves name with exec.LookPath.
func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

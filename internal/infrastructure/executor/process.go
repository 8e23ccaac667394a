// Package executor runs scope work as a child process.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/reglet-dev/credbind/internal/application/ports"
)

var _ ports.ScopeExecutor = (*Process)(nil)

// Process runs a command with the bound variables added to its environment.
// Its stdout and stderr are copied only into the writers it is given.
type Process struct {
	Dir  string
	Name string
	Args []string
	// InheritEnv passes the parent environment through; bound variables win.
	InheritEnv bool
}

// NewProcess creates an executor for argv.
func NewProcess(argv []string, dir string) (*Process, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, fmt.Errorf("no command given")
	}
	return &Process{Name: argv[0], Args: argv[1:], Dir: dir, InheritEnv: true}, nil
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d", e.Code)
}

// Run implements ports.ScopeExecutor.
func (p *Process) Run(ctx context.Context, env map[string]string, stdout, stderr io.Writer) error {
	//nolint:gosec // G204: running the user's command is the purpose of this executor
	cmd := exec.CommandContext(ctx, p.Name, p.Args...)
	cmd.Dir = p.Dir
	cmd.Env = p.environ(env)
	cmd.Stdin = os.Stdin

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Name, err)
	}

	// Both pipes must be drained before Wait closes them. A failed sink stops
	// the child but its pipe is still read to EOF.
	var g errgroup.Group
	g.Go(func() error { return pump(cmd, stdout, outPipe) })
	g.Go(func() error { return pump(cmd, stderr, errPipe) })
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil && waitErr != nil {
		return ctxErr
	}
	if copyErr != nil {
		return fmt.Errorf("copy output: %w", copyErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("wait %s: %w", p.Name, waitErr)
	}
	return nil
}

func pump(cmd *exec.Cmd, dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if err == nil {
		return nil
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	_, _ = io.Copy(io.Discard, src)
	return err
}

func (p *Process) environ(bound map[string]string) []string {
	var base []string
	if p.InheritEnv {
		for _, kv := range os.Environ() {
			name, _, _ := strings.Cut(kv, "=")
			if _, overridden := bound[name]; !overridden {
				base = append(base, kv)
			}
		}
	}

	names := make([]string, 0, len(bound))
	for name := range bound {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		base = append(base, name+"="+bound[name])
	}
	return base
}

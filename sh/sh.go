// package sh provides a convenience interface to issue shell commands.
package sh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

type Runner struct {
	logger         *slog.Logger
	env            map[string]string
	stdout, stderr io.Writer
	workDir        string
}

func New(opts ...RunnerOption) *Runner {
	r := &Runner{}
	r.apply(opts...)
	return r
}

func (r *Runner) New(opts ...RunnerOption) *Runner {
	nr := &Runner{
		logger:  r.logger,
		env:     r.env,
		stdout:  r.stdout,
		stderr:  r.stderr,
		workDir: r.workDir,
	}
	nr.apply(opts...)
	return nr
}

func (r *Runner) apply(opts ...RunnerOption) {
	for _, opt := range opts {
		opt.ApplyToRunner(r)
	}
}

func (r *Runner) Run(ctx context.Context, cmd string, args ...string) error {
	return r.run(ctx, outOrStdoutIfNil(r.stdout), outOrStderrIfNil(r.stderr), nil, cmd, args...)
}

func (r *Runner) Output(ctx context.Context, cmd string, args ...string) (string, error) {
	var out bytes.Buffer
	err := r.run(ctx, &out, outOrStderrIfNil(r.stderr), nil, cmd, args...)
	return strings.TrimRight(out.String(), "\n"), err
}

// Start launches a command without waiting for it to finish. The returned
// Proc must be waited on or terminated by the caller.
func (r *Runner) Start(ctx context.Context, cmd string, args ...string) (*Proc, error) {
	c := r.command(ctx, cmd, args...)
	c.Stdout = outOrStdoutIfNil(r.stdout)
	c.Stderr = outOrStderrIfNil(r.stderr)

	if r.logger != nil {
		r.logger.Info("exec", slog.String("cmd", cmd), slog.String("args", strings.Join(args, ", ")))
	}

	if err := c.Start(); err != nil {
		return nil, fmt.Errorf(`failed to start "%s %s": %w`, cmd, strings.Join(args, " "), err)
	}

	p := &Proc{cmd: c, done: make(chan struct{})}
	go func() {
		p.waitErr = c.Wait()
		close(p.done)
	}()
	return p, nil
}

func (r *Runner) command(ctx context.Context, cmd string, args ...string) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd, args...)
	c.Env = os.Environ()
	for k, v := range r.env {
		c.Env = append(c.Env, k+"="+v)
	}
	c.Dir = r.workDir
	return c
}

func (r *Runner) run(ctx context.Context, stdout, stderr io.Writer, stdin io.Reader, cmd string, args ...string) error {
	c := r.command(ctx, cmd, args...)

	var stderrBuf bytes.Buffer
	if stderr == nil {
		stderr = &stderrBuf
	}

	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr

	if r.logger != nil {
		r.logger.Info("exec", slog.String("cmd", cmd), slog.String("args", strings.Join(args, ", ")))
	}

	err := c.Run()
	if err == nil {
		return nil
	}
	if cmdRan(err) {
		code := exitStatus(err)
		if stderrBuf.Len() > 0 {
			return fmt.Errorf(`running "%s %s" failed with exit code %d: %s`, cmd, strings.Join(args, " "), code, strings.TrimRight(stderrBuf.String(), "\n"))
		}
		return fmt.Errorf(`running "%s %s" failed with exit code %d`, cmd, strings.Join(args, " "), code)
	}
	return fmt.Errorf(`failed to run "%s %s": %w`, cmd, strings.Join(args, " "), err)
}

// Proc is a command started via Runner.Start.
type Proc struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
}

// Wait blocks until the process exits and returns its wait error.
func (p *Proc) Wait() error {
	<-p.done
	return p.waitErr
}

// Terminate sends SIGTERM and waits up to timeout for the process to exit.
// An exit caused by the signal is not an error. If the process does not stop
// in time it is killed.
func (p *Proc) Terminate(timeout time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("signalling process: %w", err)
	}

	select {
	case <-p.done:
		return nil
	case <-time.After(timeout):
		_ = p.cmd.Process.Kill()
		<-p.done
		return fmt.Errorf("process did not stop within %s", timeout)
	}
}

// cmdRan examines the error to determine if it was generated as a result of a
// command running via os/exec.Command.  If the error is nil, or the command ran
// (even if it exited with a non-zero exit code), CmdRan reports true.  If the
// error is an unrecognized type, or it is an error from exec.Command that says
// the command failed to run (usually due to the command not existing or not
// being executable), it reports false.
func cmdRan(err error) bool {
	if err == nil {
		return true
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.Exited()
	}
	return false
}

type exitStatusAccessor interface {
	ExitStatus() int
}

// exitStatus returns the exit status of the error if it is an exec.ExitError
// or if it implements ExitStatus() int.
// 0 if it is nil or 1 if it is a different error.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	//nolint:errorlint
	if e, ok := err.(exitStatusAccessor); ok {
		return e.ExitStatus()
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		if ex, ok := exitError.Sys().(exitStatusAccessor); ok {
			return ex.ExitStatus()
		}
	}
	return 1
}

func outOrStdoutIfNil(out io.Writer) io.Writer {
	if out != nil {
		return out
	}
	return os.Stdout
}

func outOrStderrIfNil(out io.Writer) io.Writer {
	if out != nil {
		return out
	}
	return os.Stderr
}

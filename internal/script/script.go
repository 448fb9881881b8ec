package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/amonks/rerun/internal/mutex"
	"github.com/amonks/rerun/internal/styles"
	"github.com/charmbracelet/lipgloss"
)

// Script is a wrapper around exec.Cmd, offering a focused API and robust
// cancelation.
type Script struct {
	Dir  string
	Env  map[string]string
	Text string
}

// ExitError is returned by Start when the script's process exits with a
// non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit %d", e.Code) }

// New creates a new Script with the given working directory, environment, and
// text. Scripts do nothing until they are started, and can be started many
// times concurrently. If dir is the empty string, the script is run in the
// current working directory. Env is appended to the current environment.
// Script is evaluated in a new bash process. Effectively, it is equivalent to
//
//	$ cd $DIR && $ENV bash -c "$TEXT"
func New(dir string, env map[string]string, text string) Script {
	return Script{
		Dir:  dir,
		Env:  env,
		Text: text,
	}
}

// Start executes the script, and does not return until the script is done
// executing. It is safe to call start multiple times, including concurrently.
// The returned error will be nil only if the process exits with status code 0
// and is not interrupted by a context cancelation. A non-zero exit is
// reported as an [*ExitError].
//
// Execution can be canceled with the provided context. When canceled, we first
// send SIGINT, then if the process doesn't exit within 2 seconds, we send
// SIGKILL. Start will always return an error wrapping the context's error if
// the context is canceled before the script is complete.
func (s Script) Start(ctx context.Context, stdout, stderr io.Writer) error {
	return (&execution{
		script: s,
		cmdMu:  mutex.New("script"),
		stdout: stdout,
		stderr: stderr,
	}).run(ctx)
}

type execution struct {
	script Script

	cmd   *exec.Cmd
	cmdMu *mutex.Mutex

	stdout io.Writer
	stderr io.Writer
}

func (x *execution) run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := x.startCmd(); err != nil {
		return err
	}
	defer x.cleanup()

	// Wait for either exit or cancel.
	exit := x.wait()
	select {
	case err := <-exit:
		return err

	case <-ctx.Done():
		x.printf(styles.Log, "canceled; stopping")
	}

	// -- CONTEXT CANCELED ------------------------------------------------
	// First SIGINT, then, if the script is still running after 2 seconds,
	// SIGKILL. Return any errors encountered along the way.

	errs := []error{ctx.Err()}

	if err := x.sigint(); err != nil {
		errs = append(errs, err)
	}

	select {
	case <-exit:
		return errors.Join(errs...)
	case <-time.After(2 * time.Second):
	}

	if err := x.sigkill(); err != nil {
		errs = append(errs, err)
	}
	<-exit

	return errors.Join(errs...)
}

func (x *execution) printf(style lipgloss.Style, f string, args ...any) {
	fmt.Fprintln(x.stderr, style.Render(fmt.Sprintf(f, args...)))
}

var (
	findBash       sync.Once
	errFindingBash error
	bash           string
)

func (x *execution) startCmd() error {
	defer x.cmdMu.Lock("startCmd").Unlock()

	if findBash.Do(func() {
		var b bytes.Buffer
		whichBash := exec.Command("/bin/sh", "-c", "command -v bash")
		whichBash.Stdout = &b
		if errFindingBash = whichBash.Run(); errFindingBash != nil {
			errFindingBash = fmt.Errorf("finding bash: %w", errFindingBash)
			return
		}
		bash = strings.TrimSpace(b.String())
	}); errFindingBash != nil {
		return errFindingBash
	}

	env := os.Environ()
	for k, v := range x.script.Env {
		env = append(env, fmt.Sprintf(`%s=%s`, k, v))
	}

	x.cmd = exec.Command(bash, "-c", x.script.Text)
	x.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	x.cmd.Dir = x.script.Dir
	x.cmd.Stdout = x.stdout
	x.cmd.Stderr = x.stderr
	x.cmd.Env = env

	return x.cmd.Start()
}

// wait reports the process's exit exactly once on the returned channel. The
// channel is buffered so that the waiting goroutine never leaks if nobody
// reads the result.
func (x *execution) wait() <-chan error {
	exit := make(chan error, 1)
	go func() {
		x.cmdMu.Lock("wait")
		cmd := x.cmd
		x.cmdMu.Unlock()

		// cmd.Wait also drains the stdout and stderr copiers, so by the
		// time it returns, all output has been written.
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			exit <- nil
		case errors.As(err, &exitErr):
			code := exitErr.ExitCode()
			if code == -1 {
				// killed by a signal
				code = 128 + int(exitErr.Sys().(syscall.WaitStatus).Signal())
			}
			exit <- &ExitError{Code: code}
		default:
			exit <- fmt.Errorf("wait err: %w", err)
		}
	}()
	return exit
}

func (x *execution) sigint() error {
	defer x.cmdMu.Lock("sigint").Unlock()

	if x.cmd == nil || x.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-x.cmd.Process.Pid, syscall.SIGINT); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("sigint error: %w", err)
	}
	return nil
}

func (x *execution) sigkill() error {
	defer x.cmdMu.Lock("sigkill").Unlock()

	if x.cmd == nil || x.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-x.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("sigkill error: %w", err)
	}
	return nil
}

func (x *execution) cleanup() {
	defer x.cmdMu.Lock("cleanup").Unlock()

	x.cmd = nil
}

package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"storyreel/internal/services"
)

// Command describes one external tool invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
	// AllowedBase, when set, confines every path-like argument to this
	// directory tree. Arguments that resolve outside it abort the run
	// before the process starts.
	AllowedBase string
}

// Result holds the outcome of a completed invocation.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

const killGracePeriod = 5 * time.Second

// Run executes the command and waits for completion. A deadline overrun
// returns an error matching services.ErrTimeout; a non-zero exit returns one
// matching services.ErrExternalTool with the combined output attached. The
// child runs in its own process group so a timeout kill reaches any helpers
// the tool spawned.
func Run(ctx context.Context, command Command) (Result, error) {
	name := strings.TrimSpace(command.Name)
	if name == "" {
		return Result{}, services.Wrap(services.ErrValidation, "proc", "run", "command name required", nil)
	}
	if command.AllowedBase != "" {
		if err := confineArgs(command.AllowedBase, command.Args); err != nil {
			return Result{}, err
		}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if command.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, command.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, name, command.Args...)
	cmd.Dir = command.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid addresses the whole process group.
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = killGracePeriod

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Output:   output.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	if runCtx.Err() != nil && !errors.Is(ctx.Err(), context.Canceled) {
		return result, services.Wrap(services.ErrTimeout, "proc", name,
			fmt.Sprintf("killed after %s", command.Timeout), runCtx.Err())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return result, ctx.Err()
	}

	return result, services.Wrap(services.ErrExternalTool, "proc", name,
		fmt.Sprintf("exit code %d: %s", result.ExitCode, tailOf(result.Output)), err)
}

// ValidateOutput confirms that a step produced a non-empty file at path.
// A missing or zero-byte output is a fatal step failure, never skipped.
func ValidateOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "proc", "validate output",
			fmt.Sprintf("expected output missing: %s", path), err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrExternalTool, "proc", "validate output",
			fmt.Sprintf("expected output is empty: %s", path), nil)
	}
	return nil
}

func confineArgs(base string, args []string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return services.Wrap(services.ErrValidation, "proc", "confine", "resolve base directory", err)
	}
	for _, arg := range args {
		if !looksLikePath(arg) {
			continue
		}
		abs, err := filepath.Abs(arg)
		if err != nil {
			return services.Wrap(services.ErrValidation, "proc", "confine",
				fmt.Sprintf("resolve argument %q", arg), err)
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return services.Wrap(services.ErrValidation, "proc", "confine",
				fmt.Sprintf("argument escapes base directory: %q", arg), nil)
		}
	}
	return nil
}

// looksLikePath reports whether an argument should be confined. Flags,
// filter expressions, and bare values pass through; anything with a path
// separator that is not a flag is checked.
func looksLikePath(arg string) bool {
	if arg == "" || strings.HasPrefix(arg, "-") {
		return false
	}
	return strings.ContainsRune(arg, filepath.Separator)
}

func tailOf(output string) string {
	output = strings.TrimSpace(output)
	const max = 400
	if len(output) <= max {
		return output
	}
	return "..." + output[len(output)-max:]
}

package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Invocation is a single blocking run of an external tool.
type Invocation struct {
	// Tool names the collaborator in errors, e.g. "dumpbin".
	Tool string
	Path string
	Args []string
	// Target is the file the tool is asked about; used only for error context.
	Target string
	// Detail narrows Target in errors, e.g. the symbol being demangled.
	Detail string
	// Timeout bounds the run when positive.
	Timeout time.Duration
}

// Run executes inv and returns its standard output. A non-zero exit, a
// failure to start, or a timeout is returned as an error; stdout is
// discarded in that case.
func Run(ctx context.Context, inv Invocation) ([]byte, error) {
	runCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	// #nosec G204 -- the executable is resolved by Resolve and arguments are passed without a shell.
	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if inv.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &TimeoutError{Tool: inv.Tool, Target: inv.Target, Detail: inv.Detail, Timeout: inv.Timeout}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s (%s): %w", inv.Tool, inv.Target, ctxErr)
	}

	toolErr := &ExternalToolError{Tool: inv.Tool, Target: inv.Target, Detail: inv.Detail, Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
		toolErr.Err = errors.New("abnormal exit")
	}
	return nil, toolErr
}

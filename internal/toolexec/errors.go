package toolexec

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExternalToolError reports a missing tool or an abnormal exit.
type ExternalToolError struct {
	Tool     string
	Target   string
	ExitCode int
	Stderr   string
	Detail   string
	Err      error
}

func (e *ExternalToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	if e.Target != "" {
		b.WriteString(" (")
		b.WriteString(e.Target)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a tool invocation that exceeded its time budget.
type TimeoutError struct {
	Tool    string
	Target  string
	Detail  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s: timed out after %s", e.Tool, e.Target, e.Detail, e.Timeout)
	}
	return fmt.Sprintf("%s (%s): timed out after %s", e.Tool, e.Target, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

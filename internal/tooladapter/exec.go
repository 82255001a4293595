// Package tooladapter wraps every external PDF-processing tool (subprocess
// or in-process library) behind a small, typed interface per tool family,
// enforcing the shared contract from spec.md §4.3: argv-only invocation,
// a wall-clock deadline, capped stdout/stderr, and exit-code/stderr-pattern
// mapping to apperr codes.
package tooladapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/pdfpipe/server/internal/apperr"
)

// outputCap bounds how much of stdout/stderr this package buffers per
// invocation (spec.md §4.3 "stdout and stderr are each capped").
const outputCap = 1 << 20 // 1 MiB

// Invocation describes a single subprocess call.
type Invocation struct {
	Name    string   // tool binary name, resolved via Discover
	Args    []string // argv, never shell-interpolated
	Timeout time.Duration
}

// Result carries the captured, capped output of a completed invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// stderrPatterns maps a known, lower-cased stderr substring to the apperr
// code it indicates, checked before falling back to the generic
// ToolFailed mapping (spec.md §4.3/§7).
var stderrPatterns = []struct {
	substr string
	code   apperr.Code
}{
	{"invalid password", apperr.InvalidPassword},
	{"wrong password", apperr.InvalidPassword},
	{"incorrect password", apperr.InvalidPassword},
}

// Run executes inv, enforcing its deadline and output caps, and maps the
// outcome to a *apperr.Coded on any non-zero exit, timeout, or overflow.
func Run(ctx context.Context, inv Invocation) (*Result, *apperr.Coded) {
	path, err := Discover(inv.Name)
	if err != nil {
		return nil, err
	}

	deadline := inv.Timeout
	if deadline <= 0 {
		deadline = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, inv.Args...)

	var stdout, stderr capBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if stdout.overflowed || stderr.overflowed {
		return nil, apperr.New(apperr.ToolOutputOverflow, fmt.Sprintf("%s output exceeded the %d byte cap", inv.Name, outputCap))
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, apperr.New(apperr.ToolTimeout, fmt.Sprintf("%s exceeded its %s deadline", inv.Name, deadline))
	}

	if runErr != nil {
		if code, ok := matchStderrPattern(stderr.buf.String()); ok {
			return nil, apperr.New(code, sanitizedTail(stderr.buf.Bytes()))
		}
		exitCode := -1
		if ee, ok := runErr.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return nil, apperr.New(apperr.ToolFailed, fmt.Sprintf("%s exited %d: %s", inv.Name, exitCode, sanitizedTail(stderr.buf.Bytes())))
	}

	return &Result{Stdout: stdout.buf.Bytes(), Stderr: stderr.buf.Bytes(), ExitCode: 0}, nil
}

func matchStderrPattern(stderr string) (apperr.Code, bool) {
	lower := strings.ToLower(stderr)
	for _, p := range stderrPatterns {
		if strings.Contains(lower, p.substr) {
			return p.code, true
		}
	}
	return "", false
}

// sanitizedTail returns a bounded, user-facing tail of raw stderr. Callers
// pass this only into apperr messages, never persisted or logged verbatim
// with secrets; passwords should never appear in a tool's stderr to begin
// with, but the tail is capped defensively.
func sanitizedTail(stderr []byte) string {
	const tailLen = 512
	if len(stderr) <= tailLen {
		return strings.TrimSpace(string(stderr))
	}
	return strings.TrimSpace(string(stderr[len(stderr)-tailLen:]))
}

// capBuffer is an io.Writer that stops accepting bytes once it exceeds
// outputCap, recording the overflow rather than growing unbounded.
type capBuffer struct {
	buf        bytes.Buffer
	overflowed bool
}

func (c *capBuffer) Write(p []byte) (int, error) {
	if c.overflowed {
		return len(p), nil
	}
	if c.buf.Len()+len(p) > outputCap {
		c.overflowed = true
		return len(p), nil
	}
	return c.buf.Write(p)
}

var _ io.Writer = (*capBuffer)(nil)

// Package executor runs untrusted solutions against one test case at a time.
//
// The Sandbox type does the work common to every backend: scratch directory,
// harness generation, deadline, output capture and failure classification.
// Backends (package process, package docker) only know how to run a command
// inside a scratch directory.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/practice-platform/internal/problemtype"
)

// Request is one run of one test case.
type Request struct {
	Language Language
	Code     string
	Problem  problemtype.Descriptor
	Input    problemtype.Input
}

// Result is a run that produced a value.
type Result struct {
	// Output is the value the solution returned, as printed by the harness.
	Output string
	// Stdout holds whatever the solution printed itself.
	Stdout    string
	Truncated bool
	Duration  time.Duration
}

// Executor is the contract the execution service depends on.
//
// Execute returns either a Result, a *Failure (a business outcome to report
// to the user), or any other error (infrastructure trouble or a cancelled ctx).
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// FailureKind names a terminal outcome that is reported to the user.
type FailureKind string

const (
	CompileError        FailureKind = "CompileError"
	RuntimeError        FailureKind = "RuntimeError"
	TimeoutError        FailureKind = "TimeoutError"
	UnsupportedLanguage FailureKind = "UnsupportedLanguage"
)

// Failure is a run that did not produce a value.
type Failure struct {
	Kind   FailureKind
	Detail string
	// Duration is how long the run took before failing.
	Duration time.Duration
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/mamdani/internal/domain/fuzzy"
)

// Exit codes: 0 ok, 1 a compute failed, 2 bad configuration or usage.
const (
	exitComputation   = 1
	exitConfiguration = 2
)

// exitError carries a specific exit code. A nil err means the failure was
// already reported and nothing more should be printed.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return exitError{exitConfiguration, fmt.Errorf(format, args...)}
}

func configError(err error) error {
	return exitError{exitConfiguration, err}
}

// reported marks a failure whose details are already on stdout.
func reported(code int) error {
	return exitError{code: code}
}

// ExitCode maps an error returned by Execute to the process exit code.
// Anything that is not a compute failure (flag and argument errors from
// cobra, unreadable files) counts as usage.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, fuzzy.ErrComputation) && !errors.Is(err, fuzzy.ErrConfiguration) {
		return exitComputation
	}
	return exitConfiguration
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dusk-indust/finpanel/internal/config"
)

// Process exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitPartial  = 3
	exitConfig   = 4
	exitCanceled = 130
)

// exitErr carries an exit code through cobra's error return.
type exitErr struct {
	code int
	err  error
}

func (e *exitErr) Error() string { return e.err.Error() }
func (e *exitErr) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitErr{code: code, err: err}
}

// configErr marks err as a configuration problem.
func configErr(err error) error { return withCode(exitConfig, err) }

// exitCode maps an error returned by a command to a process exit code and
// reports it on stderr.
func exitCode(ctx context.Context, err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	code := exitError
	var ee *exitErr
	var verrs config.ValidationErrors
	switch {
	case errors.As(err, &ee):
		code = ee.code
	case errors.As(err, &verrs):
		code = exitConfig
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		code = exitCanceled
	}

	if code == exitCanceled {
		fmt.Fprintln(stderr, "interrupted")
	} else {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return code
}

package main

import (
	"errors"

	"github.com/iota-uz/ats-console/pkg/backend"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitNetwork    = 4
	exitForbidden  = 5
	exitNotFound   = 6
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// exitCode prefers an explicit code and otherwise derives one from the
// backend error kind.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var be *backend.Error
	if !errors.As(err, &be) {
		return 1
	}
	switch be.Kind {
	case backend.KindValidation:
		return exitValidation
	case backend.KindMissingIdentity:
		return exitUsage
	case backend.KindForbidden:
		return exitForbidden
	case backend.KindNotFound:
		return exitNotFound
	case backend.KindNetwork:
		return exitNetwork
	}
	return 1
}

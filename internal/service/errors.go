package service

import "errors"

// loggedError marks a failure the service already wrote to the log.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

func logged(err error) error {
	return &loggedError{err: err}
}

// AlreadyLogged reports whether err was logged where it happened, so the
// HTTP layer need not log it again.
func AlreadyLogged(err error) bool {
	var le *loggedError
	return errors.As(err, &le)
}

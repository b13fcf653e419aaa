package commands

import "errors"

// exitError carries a process exit code. The command that returns it has
// already written its own diagnostics, so Error is empty.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// SilentExit returns an error that makes main exit with code without
// cobra printing anything. Callers set cmd.SilenceErrors first.
func SilentExit(code int) error {
	return &exitError{code: code}
}

// ExitCode returns the code carried by err, or 0 when err is nil or
// carries none.
func ExitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 0
}

package cmd

import "errors"

// ErrUncovered is returned by analyze --fail-on-uncovered when requirements
// are left without tests or justification.
var ErrUncovered = errors.New("unjustified uncovered requirements")

// ExitCode maps a command error to the process exit status: 0 for nil, 2
// for ErrUncovered and 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUncovered):
		return 2
	default:
		return 1
	}
}

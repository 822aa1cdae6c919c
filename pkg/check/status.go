// SPDX-License-Identifier: GPL-3.0-or-later

package check

// Status is the health classification of a report.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusWarning Status = "WARNING"
	StatusFailure Status = "FAILURE"
)

// Process exit codes.
const (
	ExitSuccess       = 0
	ExitWarning       = 1
	ExitFailure       = 2
	ExitConfiguration = 3
)

func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return ExitSuccess
	case StatusWarning:
		return ExitWarning
	default:
		return ExitFailure
	}
}

func (s Status) severity() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusWarning:
		return 1
	default:
		return 2
	}
}

// Worst returns the more severe of the two statuses.
func Worst(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

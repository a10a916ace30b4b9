// Package status carries the three-way result convention of the image's
// build and hook scripts: success, intentional skip, or failure. The
// numeric mapping (0/2/other) is fixed by the surrounding shell ecosystem
// and must hold at every process boundary.
package status

import "fmt"

type Kind int

const (
	Success Kind = iota
	Skip
	Failure
)

const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitSkip    = 2
)

type Status struct {
	Kind   Kind
	Reason string
}

func Succeeded() Status {
	return Status{Kind: Success}
}

func Skipped(reason string) Status {
	return Status{Kind: Skip, Reason: reason}
}

func Failed(reason string) Status {
	return Status{Kind: Failure, Reason: reason}
}

// FromExitCode maps a module script's exit code onto a Status: 0 success,
// 2 intentional skip, anything else a hard failure.
func FromExitCode(code int) Status {
	switch code {
	case ExitSuccess:
		return Succeeded()
	case ExitSkip:
		return Skipped("")
	default:
		return Failed(fmt.Sprintf("exit code %d", code))
	}
}

// ExitCode maps a Status back onto the shell convention.
func (s Status) ExitCode() int {
	switch s.Kind {
	case Success:
		return ExitSuccess
	case Skip:
		return ExitSkip
	default:
		return ExitFailure
	}
}

func (s Status) String() string {
	switch s.Kind {
	case Success:
		return "success"
	case Skip:
		if s.Reason != "" {
			return "skip: " + s.Reason
		}
		return "skip"
	default:
		if s.Reason != "" {
			return "failure: " + s.Reason
		}
		return "failure"
	}
}

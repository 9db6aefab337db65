package bench

import (
	"errors"
	"time"
)

var (
	// ErrNotImplemented marks a baseline that cannot run this
	// configuration. It degrades the comparison, never the case.
	ErrNotImplemented = errors.New("bench: baseline not implemented for this configuration")

	// ErrExecFailed marks a device-side failure during staging, submission
	// or synchronization. It is fatal for the case and discards any
	// partial timing.
	ErrExecFailed = errors.New("bench: device execution failed")
)

// Verdict is the terminal outcome of a benchmark case.
type Verdict int

const (
	// Skipped: the resource gate rejected the problem size. Not a failure.
	Skipped Verdict = iota
	// Fatal: resources or execution failed; the case did not complete.
	Fatal
	// Passed: the device run completed and was not slower than the
	// baseline, or no baseline comparison was possible.
	Passed
	// Regressed: the device run completed but took at least as long as the
	// baseline. A warning, not a hard failure.
	Regressed
)

func (v Verdict) String() string {
	switch v {
	case Skipped:
		return "skipped"
	case Fatal:
		return "fatal"
	case Passed:
		return "passed"
	case Regressed:
		return "regressed"
	default:
		return "unknown"
	}
}

// FatalKind distinguishes the two hard-failure classes.
type FatalKind int

const (
	FatalNone FatalKind = iota
	// FatalAllocation: a device buffer could not be created.
	FatalAllocation
	// FatalExecution: a device command returned a non-success status.
	FatalExecution
)

func (k FatalKind) String() string {
	switch k {
	case FatalAllocation:
		return "allocation"
	case FatalExecution:
		return "execution"
	default:
		return "none"
	}
}

// Result is the outcome of one benchmark case. It replaces the original
// dual-channel protocol (a negative return for fatal errors plus a separate
// slower-than-baseline check) with one value carrying both signals.
type Result struct {
	Verdict Verdict
	Fatal   FatalKind

	// DeviceTime is valid only when Verdict is Passed or Regressed.
	DeviceTime time.Duration
	// BaselineTime is valid only when BaselineErr is nil.
	BaselineTime time.Duration

	// BaselineErr reports why no performance comparison was possible,
	// typically ErrNotImplemented. The case still counts as completed.
	BaselineErr error

	// Err carries the failure detail for Fatal verdicts.
	Err error
}

// HasComparison reports whether both timings are valid.
func (r Result) HasComparison() bool {
	return (r.Verdict == Passed || r.Verdict == Regressed) && r.BaselineErr == nil
}

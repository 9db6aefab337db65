// Package baseline provides the single-threaded host SYRK used as the
// performance floor for device runs. It can be compiled out with the noref
// build tag, in which case every call reports ErrUnavailable.
package baseline

import "errors"

// ErrUnavailable is returned when no reference backend is compiled into the
// binary. Callers treat it as "no comparison possible", not as a failure.
var ErrUnavailable = errors.New("baseline: reference backend unavailable")

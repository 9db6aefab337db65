package device

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/syrk-bench/internal/elem"
)

var (
	// ErrOutOfMemory is returned when a buffer cannot be allocated on the
	// device.
	ErrOutOfMemory = errors.New("device: out of memory")
	// ErrClosed is returned for operations against a closed device or a
	// released buffer.
	ErrClosed = errors.New("device: closed")
	// ErrInvalidArgument is returned for malformed SYRK arguments or
	// out-of-range transfers.
	ErrInvalidArgument = errors.New("device: invalid argument")
)

// Order selects the storage layout of the matrices.
type Order int

const (
	RowMajor Order = iota
	ColMajor
)

func (o Order) String() string {
	if o == RowMajor {
		return "row-major"
	}
	return "col-major"
}

// Uplo selects which triangle of C is referenced and updated.
type Uplo int

const (
	Upper Uplo = iota
	Lower
)

func (u Uplo) String() string {
	if u == Upper {
		return "upper"
	}
	return "lower"
}

// Transpose selects the operation applied to A.
type Transpose int

const (
	NoTrans Transpose = iota
	Trans
	ConjTrans
)

func (t Transpose) String() string {
	switch t {
	case NoTrans:
		return "notrans"
	case Trans:
		return "trans"
	default:
		return "conjtrans"
	}
}

// Intent declares how a buffer will be accessed by kernels.
type Intent int

const (
	ReadOnly Intent = iota
	ReadWrite
)

// Info describes the capabilities of a device that matter to the benchmark:
// how much memory a problem may occupy and whether double precision kinds
// can run at all.
type Info struct {
	Name            string
	Backend         string
	GlobalMemSize   uint64
	MaxMemAllocSize uint64
	SupportsFloat64 bool
}

// SyrkArgs carries one symmetric rank-k update request,
// C = alpha*A*A^T + beta*C, against device-resident buffers. Offsets and
// leading dimensions are in elements of Kind.
type SyrkArgs struct {
	Kind   elem.Kind
	Order  Order
	Uplo   Uplo
	TransA Transpose
	N, K   int
	Alpha  complex128
	Beta   complex128
	A      Buffer
	OffA   int
	Lda    int
	C      Buffer
	OffC   int
	Ldc    int
}

// Validate checks argument consistency before the request reaches a backend.
func (a SyrkArgs) Validate() error {
	if a.N <= 0 || a.K <= 0 {
		return fmt.Errorf("%w: n=%d k=%d", ErrInvalidArgument, a.N, a.K)
	}
	if a.A == nil || a.C == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}
	if a.Kind.IsComplex() && a.TransA == ConjTrans {
		// csyrk/zsyrk accept only N and T; the conjugated form is herk.
		return fmt.Errorf("%w: conjtrans is not defined for complex syrk", ErrInvalidArgument)
	}
	minLda := a.K
	if (a.TransA == NoTrans) == (a.Order == ColMajor) {
		minLda = a.N
	}
	if a.Lda < minLda {
		return fmt.Errorf("%w: lda=%d < %d", ErrInvalidArgument, a.Lda, minLda)
	}
	if a.Ldc < a.N {
		return fmt.Errorf("%w: ldc=%d < n=%d", ErrInvalidArgument, a.Ldc, a.N)
	}
	if a.OffA < 0 || a.OffC < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidArgument)
	}
	return nil
}

// Device is the accelerator boundary. One Device is constructed per process
// and handed to each benchmark case; ownership of buffers created through it
// stays with the caller.
type Device interface {
	Info() Info
	Queues() []Queue

	// CreateBuffer allocates a device buffer of size bytes.
	CreateBuffer(intent Intent, size int) (Buffer, error)

	// EnqueueSyrk submits the rank-k update on the given queue and returns
	// the event associated with its completion. Submission is asynchronous;
	// callers flush the queue and wait on the event.
	EnqueueSyrk(q Queue, args SyrkArgs) (Event, error)

	Close() error
}

// Queue is a device command queue. Enqueued commands are not guaranteed to
// start until Flush; Finish blocks until everything submitted has completed.
type Queue interface {
	Flush() error
	Finish() error
}

// Buffer is a device-resident allocation. Transfer offsets are in bytes.
type Buffer interface {
	// Write copies data into the buffer at off. When blocking is true the
	// call returns after the copy has completed; otherwise the returned
	// event signals completion.
	Write(q Queue, blocking bool, off int, data []byte) (Event, error)

	// Read copies from the buffer at off into out, with the same blocking
	// contract as Write.
	Read(q Queue, blocking bool, off int, out []byte) (Event, error)

	Size() int
	Release() error
}

// Event tracks completion of one enqueued command.
type Event interface {
	// Wait blocks until the command has completed and returns its status.
	Wait() error
}

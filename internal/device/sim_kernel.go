package device

import (
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/blas"
	blasimpl "gonum.org/v1/gonum/blas/gonum"

	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// runSyrkKernel executes the rank-k update on the simulated device's worker
// goroutine. gonum's BLAS panics on inconsistent dimensions; those panics are
// converted to an error status so callers see a failed command, not a crash.
func runSyrkKernel(args SyrkArgs, a, c *simBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: syrk kernel: %v", ErrInvalidArgument, r)
		}
	}()

	if err := a.checkRange(0, args.OffA*args.Kind.Size()); err != nil {
		return err
	}
	if err := c.checkRange(0, args.OffC*args.Kind.Size()); err != nil {
		return err
	}

	uplo, trans := RowMajorForm(args.Order, args.Uplo, args.TransA)

	var impl blasimpl.Implementation
	switch args.Kind {
	case elem.F32:
		av := wordsAsF32(a.words, a.size)[args.OffA:]
		cv := wordsAsF32(c.words, c.size)[args.OffC:]
		impl.Ssyrk(uplo, trans, args.N, args.K,
			float32(real(args.Alpha)), av, args.Lda,
			float32(real(args.Beta)), cv, args.Ldc)
	case elem.F64:
		av := wordsAsF64(a.words, a.size)[args.OffA:]
		cv := wordsAsF64(c.words, c.size)[args.OffC:]
		impl.Dsyrk(uplo, trans, args.N, args.K,
			real(args.Alpha), av, args.Lda,
			real(args.Beta), cv, args.Ldc)
	case elem.C64:
		av := wordsAsC64(a.words, a.size)[args.OffA:]
		cv := wordsAsC64(c.words, c.size)[args.OffC:]
		impl.Csyrk(uplo, trans, args.N, args.K,
			complex64(args.Alpha), av, args.Lda,
			complex64(args.Beta), cv, args.Ldc)
	case elem.C128:
		av := wordsAsC128(a.words, a.size)[args.OffA:]
		cv := wordsAsC128(c.words, c.size)[args.OffC:]
		impl.Zsyrk(uplo, trans, args.N, args.K,
			args.Alpha, av, args.Lda,
			args.Beta, cv, args.Ldc)
	default:
		return fmt.Errorf("%w: element kind %v", ErrInvalidArgument, args.Kind)
	}
	return nil
}

// RowMajorForm maps a request onto gonum's row-major BLAS. A column-major
// matrix read as row-major is its transpose, so the column-major case flips
// both the referenced triangle and the transpose flag; the product A*A^T is
// unchanged by the flip.
func RowMajorForm(order Order, uplo Uplo, trans Transpose) (blas.Uplo, blas.Transpose) {
	flipUplo := uplo == Lower
	transposed := trans != NoTrans
	if order == ColMajor {
		flipUplo = !flipUplo
		transposed = !transposed
	}

	bu := blas.Upper
	if flipUplo {
		bu = blas.Lower
	}
	bt := blas.NoTrans
	if transposed {
		bt = blas.Trans
	}
	return bu, bt
}

func bytesOfWords(words []uint64, size int) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

func wordsAsF32(words []uint64, size int) []float32 {
	return unsafe.Slice((*float32)(unsafe.Pointer(&words[0])), size/4)
}

func wordsAsF64(words []uint64, size int) []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(&words[0])), size/8)
}

func wordsAsC64(words []uint64, size int) []complex64 {
	return unsafe.Slice((*complex64)(unsafe.Pointer(&words[0])), size/8)
}

func wordsAsC128(words []uint64, size int) []complex128 {
	return unsafe.Slice((*complex128)(unsafe.Pointer(&words[0])), size/16)
}

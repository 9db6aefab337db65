//go:build !noref
// +build !noref

package baseline

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	blasimpl "gonum.org/v1/gonum/blas/gonum"

	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// Enabled reports whether a reference backend is compiled in.
const Enabled = true

// Syrk computes C = alpha*A*A^T + beta*C in place on host memory. Arguments
// are already in row-major form. gonum's argument panics are converted to
// errors so a misconfigured case fails instead of crashing the sweep.
func Syrk[E elem.Number](uplo blas.Uplo, trans blas.Transpose, n, k int,
	alpha complex128, a []E, lda int, beta complex128, c []E, ldc int) (err error) {

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("baseline syrk: %v", r)
		}
	}()

	var impl blasimpl.Implementation
	switch av := any(a).(type) {
	case []float32:
		impl.Ssyrk(uplo, trans, n, k, float32(real(alpha)), av, lda,
			float32(real(beta)), any(c).([]float32), ldc)
	case []float64:
		impl.Dsyrk(uplo, trans, n, k, real(alpha), av, lda,
			real(beta), any(c).([]float64), ldc)
	case []complex64:
		impl.Csyrk(uplo, trans, n, k, complex64(alpha), av, lda,
			complex64(beta), any(c).([]complex64), ldc)
	case []complex128:
		impl.Zsyrk(uplo, trans, n, k, alpha, av, lda,
			beta, any(c).([]complex128), ldc)
	default:
		return fmt.Errorf("baseline syrk: unsupported element type %T", a)
	}
	return nil
}

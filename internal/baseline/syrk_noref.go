//go:build noref
// +build noref

package baseline

import (
	"gonum.org/v1/gonum/blas"

	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// Enabled reports whether a reference backend is compiled in.
const Enabled = false

// Syrk always reports ErrUnavailable in noref builds.
func Syrk[E elem.Number](uplo blas.Uplo, trans blas.Transpose, n, k int,
	alpha complex128, a []E, lda int, beta complex128, c []E, ldc int) error {

	return ErrUnavailable
}

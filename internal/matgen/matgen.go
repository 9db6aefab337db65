// Package matgen produces reproducible pseudo-random matrix content for
// benchmark inputs. The same seed and shape always yield the same buffer, so
// a device run can be checked against a host run on identical data.
package matgen

import (
	"math/rand"

	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// Matrix generates a rows×cols matrix stored with leading dimension ld in
// the given order. Values lie in [-1, 1); complex kinds get an imaginary
// component from the same stream. Padding introduced by ld stays zero.
func Matrix[E elem.Number](rng *rand.Rand, order device.Order, rows, cols, ld int) []E {
	var buf []E
	if order == device.RowMajor {
		buf = make([]E, rows*ld)
	} else {
		buf = make([]E, cols*ld)
	}

	complexKind := elem.KindOf[E]().IsComplex()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			re := rng.Float64()*2 - 1
			im := 0.0
			if complexKind {
				im = rng.Float64()*2 - 1
			}
			idx := i*ld + j
			if order == device.ColMajor {
				idx = i + j*ld
			}
			buf[idx] = elem.Scalar[E](complex(re, im))
		}
	}
	return buf
}

// SyrkInputs generates the A and C matrices for one rank-k update. A has
// op-dependent shape (n×k untransposed, k×n transposed); C is n×n.
func SyrkInputs[E elem.Number](seed int64, order device.Order, trans device.Transpose,
	n, k, lda, ldc int) (a, c []E) {

	rng := rand.New(rand.NewSource(seed))

	rowsA, colsA := n, k
	if trans != device.NoTrans {
		rowsA, colsA = k, n
	}
	a = Matrix[E](rng, order, rowsA, colsA, lda)
	c = Matrix[E](rng, order, n, n, ldc)
	return a, c
}

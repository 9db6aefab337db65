package bench

import (
	"fmt"

	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// Params describes one SYRK problem: C = alpha*A*A^T + beta*C with C of
// order N and contraction depth K. Leading dimensions and offsets are in
// elements. The element kind is chosen by the generic Case instantiation,
// so the same Params drive all four type variants of a sweep.
type Params struct {
	Order  device.Order
	Uplo   device.Uplo
	TransA device.Transpose
	N, K   int
	Lda    int
	Ldc    int
	OffA   int
	OffC   int
	Alpha  complex128
	Beta   complex128
}

// RowsA and ColsA are the stored dimensions of A: N×K untransposed, K×N
// transposed.
func (p Params) RowsA() int {
	if p.TransA == device.NoTrans {
		return p.N
	}
	return p.K
}

func (p Params) ColsA() int {
	if p.TransA == device.NoTrans {
		return p.K
	}
	return p.N
}

// MinLda is the smallest valid leading dimension of A for the configured
// order and transpose.
func (p Params) MinLda() int {
	if p.Order == device.RowMajor {
		return p.ColsA()
	}
	return p.RowsA()
}

// WithDefaults fills zero leading dimensions with their tight minimum.
func (p Params) WithDefaults() Params {
	if p.Lda == 0 {
		p.Lda = p.MinLda()
	}
	if p.Ldc == 0 {
		p.Ldc = p.N
	}
	return p
}

// SizeA is the element count of the stored A matrix including padding from
// the leading dimension.
func (p Params) SizeA() int {
	if p.Order == device.RowMajor {
		return p.RowsA() * p.Lda
	}
	return p.ColsA() * p.Lda
}

// SizeC is the element count of the stored C matrix.
func (p Params) SizeC() int {
	return p.N * p.Ldc
}

// Ops is the number of multiply-add pairs one run performs, used for
// throughput reporting: N*N*K scaled by the element kind's operation factor.
func (p Params) Ops(kind elem.Kind) int64 {
	return int64(kind.OpFactor()) * int64(p.N) * int64(p.N) * int64(p.K)
}

func (p Params) Validate() error {
	if p.N <= 0 || p.K <= 0 {
		return fmt.Errorf("invalid dimensions n=%d k=%d", p.N, p.K)
	}
	if p.Lda < p.MinLda() {
		return fmt.Errorf("lda=%d below minimum %d", p.Lda, p.MinLda())
	}
	if p.Ldc < p.N {
		return fmt.Errorf("ldc=%d below minimum %d", p.Ldc, p.N)
	}
	if p.OffA < 0 || p.OffC < 0 {
		return fmt.Errorf("negative offset offA=%d offC=%d", p.OffA, p.OffC)
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%v %v %v n=%d k=%d lda=%d ldc=%d offA=%d offC=%d",
		p.Order, p.Uplo, p.TransA, p.N, p.K, p.Lda, p.Ldc, p.OffA, p.OffC)
}

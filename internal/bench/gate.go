package bench

import (
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// DefaultGateDivisor reserves a third of global device memory per buffer the
// operation logically touches (A, C in, C out). Inherited from the clBLAS
// performance suite; configurable because the count is a heuristic.
const DefaultGateDivisor = 3

// Gate decides whether a problem fits the device before any allocation
// happens.
type Gate struct {
	divisor uint64
}

func NewGate(divisor int) Gate {
	if divisor <= 0 {
		divisor = DefaultGateDivisor
	}
	return Gate{divisor: uint64(divisor)}
}

// Ceiling is the usable per-matrix byte budget: the smaller of the divided
// global memory and the device's single-allocation maximum. The zero value
// of Gate uses the default divisor.
func (g Gate) Ceiling(info device.Info) uint64 {
	div := g.divisor
	if div == 0 {
		div = DefaultGateDivisor
	}
	ceiling := info.GlobalMemSize / div
	if info.MaxMemAllocSize < ceiling {
		ceiling = info.MaxMemAllocSize
	}
	return ceiling
}

// Admit reports whether an N×K problem of the given element kind may run.
func (g Gate) Admit(info device.Info, n, k int, kind elem.Kind) bool {
	need := uint64(n) * uint64(k) * uint64(kind.Size())
	return need < g.Ceiling(info)
}

package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
)

func TestGateCeiling(t *testing.T) {
	t.Run("global memory divided", func(t *testing.T) {
		info := device.Info{GlobalMemSize: 3 << 30, MaxMemAllocSize: 2 << 30}
		assert.Equal(t, uint64(1<<30), NewGate(3).Ceiling(info))
	})

	t.Run("max alloc caps the ceiling", func(t *testing.T) {
		info := device.Info{GlobalMemSize: 12 << 30, MaxMemAllocSize: 1 << 30}
		assert.Equal(t, uint64(1<<30), NewGate(3).Ceiling(info))
	})

	t.Run("custom divisor honored", func(t *testing.T) {
		info := device.Info{GlobalMemSize: 8 << 30, MaxMemAllocSize: 8 << 30}
		assert.Equal(t, uint64(4<<30), NewGate(2).Ceiling(info))
	})

	t.Run("non-positive divisor falls back to default", func(t *testing.T) {
		info := device.Info{GlobalMemSize: 6 << 30, MaxMemAllocSize: 6 << 30}
		assert.Equal(t, uint64(2<<30), NewGate(0).Ceiling(info))
	})
}

func TestGateAdmit(t *testing.T) {
	info := device.Info{GlobalMemSize: 3 << 20, MaxMemAllocSize: 1 << 20}
	g := NewGate(3)

	tests := []struct {
		name  string
		n, k  int
		kind  elem.Kind
		admit bool
	}{
		{"small f32 fits", 256, 256, elem.F32, true},
		{"just below ceiling", 512, 511, elem.F32, true},
		{"exactly at ceiling rejected", 512, 512, elem.F32, false},
		{"huge f64 rejected", 100000, 100000, elem.F64, false},
		{"c128 fits at half the area", 256, 128, elem.C128, true},
		{"c128 at limit rejected", 256, 256, elem.C128, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.admit, g.Admit(info, tt.n, tt.k, tt.kind))
		})
	}
}

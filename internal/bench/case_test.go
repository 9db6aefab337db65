package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/baseline"
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
	"github.com/fxnlabs/syrk-bench/internal/matgen"
)

func colMajorParams(n, k int) Params {
	return Params{
		Order:  device.ColMajor,
		Uplo:   device.Upper,
		TransA: device.NoTrans,
		N:      n,
		K:      k,
		Alpha:  1,
		Beta:   1,
	}
}

func TestCaseSkippedWithoutAllocations(t *testing.T) {
	dev := newFakeDevice()
	dev.info.MaxMemAllocSize = 1 << 20 // 1 MiB ceiling

	// 100000^2 float64 elements dwarf the ceiling.
	c, err := NewCase[float64](dev, colMajorParams(100000, 100000), Options{})
	require.NoError(t, err)

	res := c.Run()
	assert.Equal(t, Skipped, res.Verdict)
	assert.Equal(t, FatalNone, res.Fatal)
	assert.Equal(t, StateSkipped, c.State())
	assert.Zero(t, dev.created, "skip must not allocate device buffers")
	assert.Zero(t, dev.live)
}

func TestCaseFatalAllocation(t *testing.T) {
	t.Run("first buffer fails", func(t *testing.T) {
		dev := newFakeDevice()
		dev.createErrAfter = 1

		c, err := NewCase[float32](dev, colMajorParams(32, 16), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Fatal, res.Verdict)
		assert.Equal(t, FatalAllocation, res.Fatal)
		assert.ErrorIs(t, res.Err, device.ErrOutOfMemory)
		assert.Zero(t, res.DeviceTime)
		assert.Empty(t, dev.syrkArgs, "execution must not start after a failed allocation")
		assert.Zero(t, dev.live, "no buffers may survive a fatal case")
	})

	t.Run("second buffer fails", func(t *testing.T) {
		dev := newFakeDevice()
		dev.createErrAfter = 2

		c, err := NewCase[float32](dev, colMajorParams(32, 16), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Fatal, res.Verdict)
		assert.Equal(t, FatalAllocation, res.Fatal)
		assert.Empty(t, dev.syrkArgs)
		assert.Zero(t, dev.live, "the A buffer must be released on the fatal path")
	})
}

func TestCaseReseedInvariant(t *testing.T) {
	dev := newFakeDevice()
	params := colMajorParams(24, 12).WithDefaults()
	params.OffC = 5

	const seed = 77
	c, err := NewCase[float64](dev, params, Options{Seed: seed})
	require.NoError(t, err)

	res := c.Run()
	require.NotEqual(t, Fatal, res.Verdict)
	require.Len(t, dev.syrkCSnaps, 1)

	// The device-side C at submission time must be bit-identical to the
	// generated backup at its offset.
	_, backC := matgen.SyrkInputs[float64](seed, params.Order, params.TransA,
		params.N, params.K, params.Lda, params.Ldc)
	esz := elem.F64.Size()
	snap := dev.syrkCSnaps[0][params.OffC*esz:]
	assert.Equal(t, elem.Bytes(backC), snap[:len(backC)*esz])
}

func TestCaseWaitsOnTransferEvents(t *testing.T) {
	dev := newFakeDevice()

	c, err := NewCase[float32](dev, colMajorParams(16, 8), Options{})
	require.NoError(t, err)

	res := c.Run()
	require.NotEqual(t, Fatal, res.Verdict, "unexpected failure: %v", res.Err)

	// Two staging writes plus the re-seed. Every transfer event must be
	// waited on, or backends that allocate a native event per write leak
	// them across a sweep.
	require.Len(t, dev.writeEvents, 3)
	for i, ev := range dev.writeEvents {
		assert.True(t, ev.waited, "write event %d never waited on", i+1)
	}
}

func TestCaseExecutionFailures(t *testing.T) {
	t.Run("re-seed write fails", func(t *testing.T) {
		dev := newFakeDevice()
		// Writes 1 and 2 stage A and C; write 3 is the re-seed.
		dev.writeErrAfter = 3

		c, err := NewCase[float32](dev, colMajorParams(16, 8), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Fatal, res.Verdict)
		assert.Equal(t, FatalExecution, res.Fatal)
		assert.ErrorIs(t, res.Err, ErrExecFailed)
		assert.Zero(t, res.DeviceTime, "failed runs must not report a timing")
		assert.Empty(t, dev.syrkArgs)
		assert.Zero(t, dev.live)
	})

	t.Run("submission fails", func(t *testing.T) {
		dev := newFakeDevice()
		dev.enqueueErr = device.ErrInvalidArgument

		c, err := NewCase[float32](dev, colMajorParams(16, 8), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Fatal, res.Verdict)
		assert.Equal(t, FatalExecution, res.Fatal)
		assert.Zero(t, dev.live)
	})

	t.Run("completion fails", func(t *testing.T) {
		dev := newFakeDevice()
		dev.completionErr = device.ErrInvalidArgument

		c, err := NewCase[float32](dev, colMajorParams(16, 8), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Fatal, res.Verdict)
		assert.Equal(t, FatalExecution, res.Fatal)
		assert.Zero(t, res.DeviceTime)
		assert.Zero(t, dev.live)
	})
}

func TestCaseRowMajorRunsWithoutComparison(t *testing.T) {
	dev := newFakeDevice()
	params := Params{
		Order:  device.RowMajor,
		Uplo:   device.Upper,
		TransA: device.NoTrans,
		N:      512,
		K:      256,
		Alpha:  1,
		Beta:   1,
	}

	c, err := NewCase[float32](dev, params, Options{AllowRowMajorRef: false})
	require.NoError(t, err)

	res := c.Run()
	assert.Equal(t, Passed, res.Verdict, "missing baseline must not fail the case")
	assert.ErrorIs(t, res.BaselineErr, ErrNotImplemented)
	assert.False(t, res.HasComparison())
	assert.GreaterOrEqual(t, res.DeviceTime, time.Duration(0))
	require.Len(t, dev.syrkArgs, 1, "the device path still executes")
	assert.Zero(t, dev.live)
}

func TestCaseVerdictComparison(t *testing.T) {
	if !baseline.Enabled {
		t.Skip("verdict comparison needs a compiled-in host reference")
	}

	t.Run("device slower is a regression", func(t *testing.T) {
		dev := newFakeDevice()
		dev.deviceDelay = 50 * time.Millisecond

		c, err := NewCase[float64](dev, colMajorParams(16, 8), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Regressed, res.Verdict)
		assert.True(t, res.HasComparison())
		assert.GreaterOrEqual(t, res.DeviceTime, res.BaselineTime)
		assert.Zero(t, dev.live)
	})

	t.Run("device faster passes", func(t *testing.T) {
		dev := newFakeDevice()

		// A fake device completes instantly; a 64x32 host baseline does
		// real work, so the device side wins the comparison.
		c, err := NewCase[float64](dev, colMajorParams(64, 32), Options{})
		require.NoError(t, err)

		res := c.Run()
		assert.Equal(t, Passed, res.Verdict)
		assert.True(t, res.HasComparison())
		assert.Less(t, res.DeviceTime, res.BaselineTime)
		assert.Equal(t, StateVerdicted, c.State())
	})
}

func TestCaseInputDeterminism(t *testing.T) {
	run := func() ([]byte, []byte) {
		dev := newFakeDevice()
		c, err := NewCase[complex64](dev, colMajorParams(20, 10), Options{Seed: 7})
		require.NoError(t, err)
		res := c.Run()
		require.NotEqual(t, Fatal, res.Verdict)
		return elem.Bytes(c.hostA), elem.Bytes(c.backC)
	}

	a1, c1 := run()
	a2, c2 := run()
	assert.Equal(t, a1, a2, "same seed must stage identical A")
	assert.Equal(t, c1, c2, "same seed must stage identical C")
}

func TestCaseCloseIdempotent(t *testing.T) {
	dev := newFakeDevice()
	c, err := NewCase[float32](dev, colMajorParams(8, 4), Options{Logger: zap.NewNop()})
	require.NoError(t, err)

	_ = c.Run()
	assert.Zero(t, dev.live)
	c.Close()
	c.Close()
	assert.Zero(t, dev.live)
}

func TestCaseRejectsBadParams(t *testing.T) {
	dev := newFakeDevice()

	p := colMajorParams(8, 4)
	p.Lda = 2 // below minimum of n=8 for col-major notrans
	_, err := NewCase[float32](dev, p, Options{})
	assert.Error(t, err)

	p = colMajorParams(0, 4)
	_, err = NewCase[float32](dev, p, Options{})
	assert.Error(t, err)
}

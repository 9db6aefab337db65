// Package bench runs correctness-gated SYRK performance cases: it stages
// deterministic inputs into device buffers, times the accelerated operation
// against a host baseline, and renders a verdict per case.
package bench

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fxnlabs/syrk-bench/internal/baseline"
	"github.com/fxnlabs/syrk-bench/internal/device"
	"github.com/fxnlabs/syrk-bench/internal/elem"
	"github.com/fxnlabs/syrk-bench/internal/matgen"
	"github.com/fxnlabs/syrk-bench/internal/metrics"
)

// State tracks a case through its lifecycle. Terminal states are
// StateSkipped, StateFatal and StateVerdicted.
type State int

const (
	StateCreated State = iota
	StateGated
	StateStaged
	StateExecuted
	StateVerdicted
	StateSkipped
	StateFatal
)

// Options configure a Case beyond its problem parameters.
type Options struct {
	Gate Gate
	// Seed drives input generation; the same seed and parameters always
	// produce the same matrices.
	Seed int64
	// AllowRowMajorRef enables the host reference for row-major problems.
	// When false, row-major cases run without a performance comparison.
	AllowRowMajorRef bool
	Logger           *zap.Logger
}

// Case is one benchmark execution for a single element type. The device
// handle is injected; the case owns its host matrices and device buffers for
// its lifetime and releases the buffers on every exit path.
type Case[E elem.Number] struct {
	params Params
	kind   elem.Kind
	dev    device.Device
	queue  device.Queue
	opts   Options
	log    *zap.Logger

	hostA      []E
	hostC      []E // working copy for the baseline run
	backC      []E // immutable backup, the re-seed source
	bufA, bufC device.Buffer

	state State
}

// NewCase validates parameters and binds the case to the device's first
// command queue. No device resources are allocated yet.
func NewCase[E elem.Number](dev device.Device, params Params, opts Options) (*Case[E], error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	queues := dev.Queues()
	if len(queues) == 0 {
		return nil, errors.New("bench: device exposes no command queues")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	kind := elem.KindOf[E]()
	return &Case[E]{
		params: params,
		kind:   kind,
		dev:    dev,
		queue:  queues[0],
		opts:   opts,
		log:    opts.Logger.With(zap.Stringer("elem", kind), zap.Stringer("params", params)),
		state:  StateCreated,
	}, nil
}

// State returns the case's current lifecycle state.
func (c *Case[E]) State() State { return c.state }

// Run drives the case to a terminal state and returns its result. Device
// buffers are released before Run returns, whatever the exit path.
func (c *Case[E]) Run() Result {
	defer c.Close()

	c.state = StateGated
	if !c.opts.Gate.Admit(c.dev.Info(), c.params.N, c.params.K, c.kind) {
		c.log.Warn("skipping case, insufficient device resources",
			zap.Uint64("ceiling_bytes", c.opts.Gate.Ceiling(c.dev.Info())),
			zap.Int64("required_bytes", int64(c.params.N)*int64(c.params.K)*int64(c.kind.Size())))
		c.state = StateSkipped
		return Result{Verdict: Skipped}
	}

	if err := c.stage(); err != nil {
		c.log.Error("staging failed", zap.Error(err))
		c.state = StateFatal
		return Result{Verdict: Fatal, Fatal: FatalAllocation, Err: err}
	}
	c.state = StateStaged

	baseTime, baseErr := c.runBaseline()
	if baseErr != nil {
		c.log.Info("no baseline comparison", zap.Error(baseErr))
	}

	devTime, devErr := c.runDevice()
	if devErr != nil {
		c.log.Error("device run failed", zap.Error(devErr))
		c.state = StateFatal
		return Result{Verdict: Fatal, Fatal: FatalExecution, Err: devErr, BaselineErr: baseErr}
	}
	c.state = StateExecuted

	res := Result{DeviceTime: devTime, BaselineErr: baseErr}
	switch {
	case baseErr != nil:
		res.Verdict = Passed
	case devTime >= baseTime:
		res.BaselineTime = baseTime
		res.Verdict = Regressed
	default:
		res.BaselineTime = baseTime
		res.Verdict = Passed
	}
	c.state = StateVerdicted
	c.log.Debug("case verdicted",
		zap.Stringer("verdict", res.Verdict),
		zap.Duration("device_time", res.DeviceTime),
		zap.Duration("baseline_time", res.BaselineTime))
	return res
}

// stage generates the input matrices and moves them into device buffers:
// A read-only at its element offset, the backup of C read-write at its own.
// Any failure here is an allocation failure for the case.
func (c *Case[E]) stage() error {
	p := c.params
	c.hostA, c.backC = matgen.SyrkInputs[E](c.opts.Seed, p.Order, p.TransA, p.N, p.K, p.Lda, p.Ldc)
	c.hostC = make([]E, len(c.backC))

	esz := c.kind.Size()

	bufA, err := c.dev.CreateBuffer(device.ReadOnly, (p.OffA+p.SizeA())*esz)
	if err != nil {
		return fmt.Errorf("create A buffer: %w", err)
	}
	c.bufA = bufA
	metrics.DeviceBuffersLive.Inc()
	// Waiting on a blocking write's event retires it; backends that
	// allocate a native event per transfer release it there.
	ev, err := bufA.Write(c.queue, true, p.OffA*esz, elem.Bytes(c.hostA))
	if err != nil {
		return fmt.Errorf("stage A: %w", err)
	}
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("stage A: %w", err)
	}

	bufC, err := c.dev.CreateBuffer(device.ReadWrite, (p.OffC+p.SizeC())*esz)
	if err != nil {
		return fmt.Errorf("create C buffer: %w", err)
	}
	c.bufC = bufC
	metrics.DeviceBuffersLive.Inc()
	ev, err = bufC.Write(c.queue, true, p.OffC*esz, elem.Bytes(c.backC))
	if err != nil {
		return fmt.Errorf("stage C: %w", err)
	}
	if err := ev.Wait(); err != nil {
		return fmt.Errorf("stage C: %w", err)
	}
	return nil
}

// runBaseline times the host reference on a fresh working copy of C.
// A non-nil error means no comparison is available, never a case failure.
func (c *Case[E]) runBaseline() (time.Duration, error) {
	p := c.params
	if p.Order == device.RowMajor && !c.opts.AllowRowMajorRef {
		return 0, fmt.Errorf("%w: row-major order disabled for the reference path", ErrNotImplemented)
	}

	copy(c.hostC, c.backC)
	uplo, trans := device.RowMajorForm(p.Order, p.Uplo, p.TransA)

	start := time.Now()
	err := baseline.Syrk(uplo, trans, p.N, p.K, p.Alpha, c.hostA, p.Lda, p.Beta, c.hostC, p.Ldc)
	if err != nil {
		if errors.Is(err, baseline.ErrUnavailable) {
			return 0, fmt.Errorf("%w: not compiled in", ErrNotImplemented)
		}
		return 0, fmt.Errorf("%w: %v", ErrNotImplemented, err)
	}
	return time.Since(start), nil
}

// runDevice re-seeds the device-side C from the backup, submits the SYRK and
// times it from completed flush to signaled event. Any non-success status is
// an execution failure and discards the partial timing.
func (c *Case[E]) runDevice() (time.Duration, error) {
	p := c.params
	esz := c.kind.Size()

	// The write is blocking and its event is still waited on explicitly:
	// a stale in-flight write overlapping the timed kernel would corrupt
	// both the result and the measurement.
	ev, err := c.bufC.Write(c.queue, true, p.OffC*esz, elem.Bytes(c.backC))
	if err != nil {
		return 0, fmt.Errorf("%w: re-seed C: %v", ErrExecFailed, err)
	}
	if err := ev.Wait(); err != nil {
		return 0, fmt.Errorf("%w: re-seed C wait: %v", ErrExecFailed, err)
	}

	args := device.SyrkArgs{
		Kind:   c.kind,
		Order:  p.Order,
		Uplo:   p.Uplo,
		TransA: p.TransA,
		N:      p.N,
		K:      p.K,
		Alpha:  p.Alpha,
		Beta:   p.Beta,
		A:      c.bufA,
		OffA:   p.OffA,
		Lda:    p.Lda,
		C:      c.bufC,
		OffC:   p.OffC,
		Ldc:    p.Ldc,
	}
	opEvent, err := c.dev.EnqueueSyrk(c.queue, args)
	if err != nil {
		return 0, fmt.Errorf("%w: submit syrk: %v", ErrExecFailed, err)
	}
	if err := c.queue.Flush(); err != nil {
		return 0, fmt.Errorf("%w: flush: %v", ErrExecFailed, err)
	}

	start := time.Now()
	if err := opEvent.Wait(); err != nil {
		return 0, fmt.Errorf("%w: completion: %v", ErrExecFailed, err)
	}
	return time.Since(start), nil
}

// Close releases the case's device buffers. Safe to call more than once.
func (c *Case[E]) Close() {
	for _, buf := range []*device.Buffer{&c.bufA, &c.bufC} {
		if *buf == nil {
			continue
		}
		if err := (*buf).Release(); err != nil {
			c.log.Warn("buffer release failed", zap.Error(err))
		}
		metrics.DeviceBuffersLive.Dec()
		*buf = nil
	}
}

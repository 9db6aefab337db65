package device

import (
	"fmt"
	"log/slog"
	"sync"
)

// SimConfig tunes the simulated device. The zero value picks defaults that
// behave like a mid-size discrete GPU.
type SimConfig struct {
	Name            string
	GlobalMemSize   uint64
	MaxMemAllocSize uint64
	QueueCount      int
	DisableFloat64  bool
}

func (c SimConfig) withDefaults() SimConfig {
	if c.Name == "" {
		c.Name = "Simulated device"
	}
	if c.GlobalMemSize == 0 {
		c.GlobalMemSize = 4 << 30
	}
	if c.MaxMemAllocSize == 0 {
		c.MaxMemAllocSize = 1 << 30
	}
	if c.QueueCount <= 0 {
		c.QueueCount = 1
	}
	return c
}

// SimDevice is a host-side Device implementation. Kernels run on worker
// goroutines behind command queues, so submission, flush and event
// completion behave like an accelerator even though the arithmetic happens
// on the CPU. It is the fallback backend and the workhorse for tests.
type SimDevice struct {
	logger *slog.Logger
	cfg    SimConfig
	queues []Queue

	mu        sync.Mutex
	allocated uint64
	live      int
	closed    bool
}

// NewSimDevice creates and starts a simulated device.
func NewSimDevice(logger *slog.Logger, cfg SimConfig) *SimDevice {
	if logger == nil {
		logger = slog.Default()
	}
	d := &SimDevice{
		logger: logger,
		cfg:    cfg.withDefaults(),
	}
	for i := 0; i < d.cfg.QueueCount; i++ {
		q := &simQueue{dev: d, work: make(chan simCommand, 32)}
		go q.loop()
		d.queues = append(d.queues, q)
	}
	logger.Debug("simulated device started",
		"queues", d.cfg.QueueCount,
		"global_mem", d.cfg.GlobalMemSize,
		"max_alloc", d.cfg.MaxMemAllocSize)
	return d
}

func (d *SimDevice) Info() Info {
	return Info{
		Name:            d.cfg.Name,
		Backend:         "sim",
		GlobalMemSize:   d.cfg.GlobalMemSize,
		MaxMemAllocSize: d.cfg.MaxMemAllocSize,
		SupportsFloat64: !d.cfg.DisableFloat64,
	}
}

func (d *SimDevice) Queues() []Queue { return d.queues }

// LiveBuffers returns the number of buffers allocated and not yet released.
func (d *SimDevice) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *SimDevice) CreateBuffer(intent Intent, size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidArgument, size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if uint64(size) > d.cfg.MaxMemAllocSize || d.allocated+uint64(size) > d.cfg.GlobalMemSize {
		return nil, fmt.Errorf("%w: %d bytes requested, %d in use", ErrOutOfMemory, size, d.allocated)
	}
	d.allocated += uint64(size)
	d.live++

	// Back the buffer with uint64 storage so typed views stay aligned.
	words := make([]uint64, (size+7)/8)
	return &simBuffer{dev: d, words: words, size: size, intent: intent}, nil
}

func (d *SimDevice) EnqueueSyrk(q Queue, args SyrkArgs) (Event, error) {
	sq, ok := q.(*simQueue)
	if !ok || sq.dev != d {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	a, ok := args.A.(*simBuffer)
	if !ok || a.dev != d {
		return nil, fmt.Errorf("%w: foreign A buffer", ErrInvalidArgument)
	}
	c, ok := args.C.(*simBuffer)
	if !ok || c.dev != d {
		return nil, fmt.Errorf("%w: foreign C buffer", ErrInvalidArgument)
	}
	if args.Kind.NeedsFloat64() && d.cfg.DisableFloat64 {
		return nil, fmt.Errorf("%w: device has no float64 support", ErrInvalidArgument)
	}
	return sq.enqueue(func() error {
		return runSyrkKernel(args, a, c)
	}), nil
}

func (d *SimDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	live := d.live
	d.mu.Unlock()

	for _, q := range d.queues {
		q.(*simQueue).stop()
	}
	if live > 0 {
		d.logger.Warn("device closed with live buffers", "count", live)
	}
	return nil
}

func (d *SimDevice) releaseBytes(n int) {
	d.mu.Lock()
	d.allocated -= uint64(n)
	d.live--
	d.mu.Unlock()
}

type simCommand struct {
	run func() error
	ev  *simEvent
}

// simQueue holds enqueued commands until Flush hands them to the worker
// goroutine, mirroring a deferred-submission command queue.
type simQueue struct {
	dev  *SimDevice
	work chan simCommand

	mu      sync.Mutex
	pending []simCommand
	stopped bool
}

func (q *simQueue) loop() {
	for cmd := range q.work {
		cmd.ev.complete(cmd.run())
	}
}

func (q *simQueue) enqueue(run func() error) *simEvent {
	ev := newSimEvent()
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		ev.complete(ErrClosed)
		return ev
	}
	q.pending = append(q.pending, simCommand{run: run, ev: ev})
	q.mu.Unlock()
	return ev
}

func (q *simQueue) Flush() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return ErrClosed
	}
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, cmd := range batch {
		q.work <- cmd
	}
	return nil
}

func (q *simQueue) Finish() error {
	if err := q.Flush(); err != nil {
		return err
	}
	marker := newSimEvent()
	q.work <- simCommand{run: func() error { return nil }, ev: marker}
	return marker.Wait()
}

func (q *simQueue) stop() {
	_ = q.Finish()
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.work)
	}
	for _, cmd := range q.pending {
		cmd.ev.complete(ErrClosed)
	}
	q.pending = nil
	q.mu.Unlock()
}

type simEvent struct {
	done chan struct{}
	err  error
}

func newSimEvent() *simEvent {
	return &simEvent{done: make(chan struct{})}
}

func (e *simEvent) complete(err error) {
	e.err = err
	close(e.done)
}

func (e *simEvent) Wait() error {
	<-e.done
	return e.err
}

type simBuffer struct {
	dev    *SimDevice
	words  []uint64
	size   int
	intent Intent

	mu       sync.Mutex
	released bool
}

func (b *simBuffer) Size() int { return b.size }

func (b *simBuffer) bytes() []byte {
	return bytesOfWords(b.words, b.size)
}

func (b *simBuffer) checkRange(off, n int) error {
	b.mu.Lock()
	released := b.released
	b.mu.Unlock()
	if released {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > b.size {
		return fmt.Errorf("%w: transfer [%d,%d) exceeds buffer of %d bytes", ErrInvalidArgument, off, off+n, b.size)
	}
	return nil
}

func (b *simBuffer) Write(q Queue, blocking bool, off int, data []byte) (Event, error) {
	sq, ok := q.(*simQueue)
	if !ok || sq.dev != b.dev {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := b.checkRange(off, len(data)); err != nil {
		return nil, err
	}
	ev := sq.enqueue(func() error {
		copy(b.bytes()[off:], data)
		return nil
	})
	if blocking {
		if err := sq.Flush(); err != nil {
			return nil, err
		}
		if err := ev.Wait(); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

func (b *simBuffer) Read(q Queue, blocking bool, off int, out []byte) (Event, error) {
	sq, ok := q.(*simQueue)
	if !ok || sq.dev != b.dev {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := b.checkRange(off, len(out)); err != nil {
		return nil, err
	}
	ev := sq.enqueue(func() error {
		copy(out, b.bytes()[off:off+len(out)])
		return nil
	})
	if blocking {
		if err := sq.Flush(); err != nil {
			return nil, err
		}
		if err := ev.Wait(); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

func (b *simBuffer) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ErrClosed
	}
	b.released = true
	b.mu.Unlock()
	b.dev.releaseBytes(b.size)
	return nil
}

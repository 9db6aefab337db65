package bench

import (
	"errors"
	"time"

	"github.com/fxnlabs/syrk-bench/internal/device"
)

// fakeDevice records the protocol a Case drives against the device layer and
// injects failures at chosen steps.
type fakeDevice struct {
	info   device.Info
	queues []device.Queue

	createErrAfter int // fail the Nth CreateBuffer (1-based), 0 disables
	writeErrAfter  int // fail the Nth buffer write (1-based), 0 disables
	enqueueErr     error
	flushErr       error
	completionErr  error // surfaced on the syrk event
	deviceDelay    time.Duration

	created     int
	writes      int
	live        int
	writeEvents []*fakeEvent // one per buffer write, in order
	syrkArgs    []device.SyrkArgs
	syrkCSnaps  [][]byte // C buffer contents at each syrk submission
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{
		info: device.Info{
			Name:            "fake",
			Backend:         "fake",
			GlobalMemSize:   1 << 30,
			MaxMemAllocSize: 512 << 20,
			SupportsFloat64: true,
		},
	}
	d.queues = []device.Queue{&fakeQueue{dev: d}}
	return d
}

func (d *fakeDevice) Info() device.Info      { return d.info }
func (d *fakeDevice) Queues() []device.Queue { return d.queues }
func (d *fakeDevice) Close() error           { return nil }

func (d *fakeDevice) CreateBuffer(intent device.Intent, size int) (device.Buffer, error) {
	d.created++
	if d.createErrAfter > 0 && d.created >= d.createErrAfter {
		return nil, device.ErrOutOfMemory
	}
	d.live++
	return &fakeBuffer{dev: d, data: make([]byte, size), intent: intent}, nil
}

func (d *fakeDevice) EnqueueSyrk(q device.Queue, args device.SyrkArgs) (device.Event, error) {
	if d.enqueueErr != nil {
		return nil, d.enqueueErr
	}
	d.syrkArgs = append(d.syrkArgs, args)
	cbuf := args.C.(*fakeBuffer)
	d.syrkCSnaps = append(d.syrkCSnaps, append([]byte(nil), cbuf.data...))
	return &fakeEvent{err: d.completionErr, delay: d.deviceDelay}, nil
}

type fakeQueue struct {
	dev *fakeDevice
}

func (q *fakeQueue) Flush() error  { return q.dev.flushErr }
func (q *fakeQueue) Finish() error { return q.dev.flushErr }

type fakeEvent struct {
	err    error
	delay  time.Duration
	waited bool
}

func (e *fakeEvent) Wait() error {
	e.waited = true
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	return e.err
}

type fakeBuffer struct {
	dev      *fakeDevice
	data     []byte
	intent   device.Intent
	released bool
}

func (b *fakeBuffer) Size() int { return len(b.data) }

func (b *fakeBuffer) Write(q device.Queue, blocking bool, off int, data []byte) (device.Event, error) {
	b.dev.writes++
	if b.dev.writeErrAfter > 0 && b.dev.writes >= b.dev.writeErrAfter {
		return nil, errors.New("injected write failure")
	}
	if b.released {
		return nil, device.ErrClosed
	}
	copy(b.data[off:], data)
	ev := &fakeEvent{}
	b.dev.writeEvents = append(b.dev.writeEvents, ev)
	return ev, nil
}

func (b *fakeBuffer) Read(q device.Queue, blocking bool, off int, out []byte) (device.Event, error) {
	copy(out, b.data[off:])
	return &fakeEvent{}, nil
}

func (b *fakeBuffer) Release() error {
	if b.released {
		return device.ErrClosed
	}
	b.released = true
	b.dev.live--
	return nil
}

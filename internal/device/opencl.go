//go:build opencl
// +build opencl

package device

/*
#cgo LDFLAGS: -lOpenCL -lclBLAS
#include <clBLAS.h>
#include <stdlib.h>
#include <string.h>

static cl_int syrk_s(clblasOrder order, clblasUplo uplo, clblasTranspose transA,
                     size_t n, size_t k, float alpha,
                     cl_mem a, size_t offA, size_t lda, float beta,
                     cl_mem c, size_t offC, size_t ldc,
                     cl_command_queue queue, cl_event *event)
{
	return clblasSsyrk(order, uplo, transA, n, k, alpha, a, offA, lda,
	                   beta, c, offC, ldc, 1, &queue, 0, NULL, event);
}

static cl_int syrk_d(clblasOrder order, clblasUplo uplo, clblasTranspose transA,
                     size_t n, size_t k, double alpha,
                     cl_mem a, size_t offA, size_t lda, double beta,
                     cl_mem c, size_t offC, size_t ldc,
                     cl_command_queue queue, cl_event *event)
{
	return clblasDsyrk(order, uplo, transA, n, k, alpha, a, offA, lda,
	                   beta, c, offC, ldc, 1, &queue, 0, NULL, event);
}

static cl_int syrk_c(clblasOrder order, clblasUplo uplo, clblasTranspose transA,
                     size_t n, size_t k, float alphaRe, float alphaIm,
                     cl_mem a, size_t offA, size_t lda, float betaRe, float betaIm,
                     cl_mem c, size_t offC, size_t ldc,
                     cl_command_queue queue, cl_event *event)
{
	cl_float2 alpha, beta;
	alpha.s[0] = alphaRe;
	alpha.s[1] = alphaIm;
	beta.s[0] = betaRe;
	beta.s[1] = betaIm;
	return clblasCsyrk(order, uplo, transA, n, k, alpha, a, offA, lda,
	                   beta, c, offC, ldc, 1, &queue, 0, NULL, event);
}

static cl_int syrk_z(clblasOrder order, clblasUplo uplo, clblasTranspose transA,
                     size_t n, size_t k, double alphaRe, double alphaIm,
                     cl_mem a, size_t offA, size_t lda, double betaRe, double betaIm,
                     cl_mem c, size_t offC, size_t ldc,
                     cl_command_queue queue, cl_event *event)
{
	cl_double2 alpha, beta;
	alpha.s[0] = alphaRe;
	alpha.s[1] = alphaIm;
	beta.s[0] = betaRe;
	beta.s[1] = betaIm;
	return clblasZsyrk(order, uplo, transA, n, k, alpha, a, offA, lda,
	                   beta, c, offC, ldc, 1, &queue, 0, NULL, event);
}
*/
import "C"
import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/fxnlabs/syrk-bench/internal/elem"
)

// OpenCLDevice implements Device on top of OpenCL with clBLAS providing the
// SYRK kernels.
type OpenCLDevice struct {
	logger *slog.Logger
	id     C.cl_device_id
	ctx    C.cl_context
	queues []Queue
	info   Info

	mu     sync.Mutex
	live   int
	closed bool
}

// NewOpenCLDevice opens the first GPU device of the first platform, falling
// back to any device type, and initializes clBLAS.
func NewOpenCLDevice(logger *slog.Logger) (*OpenCLDevice, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var platform C.cl_platform_id
	if status := C.clGetPlatformIDs(1, &platform, nil); status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clGetPlatformIDs: %s", clStatusString(status))
	}

	var id C.cl_device_id
	status := C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_GPU, 1, &id, nil)
	if status != C.CL_SUCCESS {
		status = C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, 1, &id, nil)
	}
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clGetDeviceIDs: %s", clStatusString(status))
	}

	ctx := C.clCreateContext(nil, 1, &id, nil, nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clCreateContext: %s", clStatusString(status))
	}

	queue := C.clCreateCommandQueue(ctx, id, 0, &status)
	if status != C.CL_SUCCESS {
		C.clReleaseContext(ctx)
		return nil, fmt.Errorf("clCreateCommandQueue: %s", clStatusString(status))
	}

	if status := C.clblasSetup(); status != C.CL_SUCCESS {
		C.clReleaseCommandQueue(queue)
		C.clReleaseContext(ctx)
		return nil, fmt.Errorf("clblasSetup: %s", clStatusString(status))
	}

	d := &OpenCLDevice{
		logger: logger,
		id:     id,
		ctx:    ctx,
		queues: []Queue{&oclQueue{q: queue}},
	}
	d.info = Info{
		Name:            deviceInfoString(id, C.CL_DEVICE_NAME),
		Backend:         "opencl",
		GlobalMemSize:   deviceInfoULong(id, C.CL_DEVICE_GLOBAL_MEM_SIZE),
		MaxMemAllocSize: deviceInfoULong(id, C.CL_DEVICE_MAX_MEM_ALLOC_SIZE),
		SupportsFloat64: strings.Contains(deviceInfoString(id, C.CL_DEVICE_EXTENSIONS), "cl_khr_fp64"),
	}
	logger.Info("OpenCL device opened",
		"device", d.info.Name,
		"global_mem", d.info.GlobalMemSize,
		"max_alloc", d.info.MaxMemAllocSize,
		"fp64", d.info.SupportsFloat64)
	return d, nil
}

func (d *OpenCLDevice) Info() Info      { return d.info }
func (d *OpenCLDevice) Queues() []Queue { return d.queues }

func (d *OpenCLDevice) CreateBuffer(intent Intent, size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidArgument, size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}

	flags := C.cl_mem_flags(C.CL_MEM_READ_WRITE)
	if intent == ReadOnly {
		flags = C.CL_MEM_READ_ONLY
	}
	var status C.cl_int
	mem := C.clCreateBuffer(d.ctx, flags, C.size_t(size), nil, &status)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("%w: clCreateBuffer: %s", ErrOutOfMemory, clStatusString(status))
	}
	d.live++
	return &oclBuffer{dev: d, mem: mem, size: size}, nil
}

func (d *OpenCLDevice) EnqueueSyrk(q Queue, args SyrkArgs) (Event, error) {
	oq, ok := q.(*oclQueue)
	if !ok {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	a, ok := args.A.(*oclBuffer)
	if !ok || a.dev != d {
		return nil, fmt.Errorf("%w: foreign A buffer", ErrInvalidArgument)
	}
	c, ok := args.C.(*oclBuffer)
	if !ok || c.dev != d {
		return nil, fmt.Errorf("%w: foreign C buffer", ErrInvalidArgument)
	}

	order := C.clblasOrder(C.clblasRowMajor)
	if args.Order == ColMajor {
		order = C.clblasColumnMajor
	}
	uplo := C.clblasUplo(C.clblasUpper)
	if args.Uplo == Lower {
		uplo = C.clblasLower
	}
	trans := C.clblasTranspose(C.clblasNoTrans)
	switch args.TransA {
	case Trans:
		trans = C.clblasTrans
	case ConjTrans:
		trans = C.clblasConjTrans
	}

	var ev C.cl_event
	var status C.cl_int
	switch args.Kind {
	case elem.F32:
		status = C.syrk_s(order, uplo, trans, C.size_t(args.N), C.size_t(args.K),
			C.float(real(args.Alpha)), a.mem, C.size_t(args.OffA), C.size_t(args.Lda),
			C.float(real(args.Beta)), c.mem, C.size_t(args.OffC), C.size_t(args.Ldc),
			oq.q, &ev)
	case elem.F64:
		status = C.syrk_d(order, uplo, trans, C.size_t(args.N), C.size_t(args.K),
			C.double(real(args.Alpha)), a.mem, C.size_t(args.OffA), C.size_t(args.Lda),
			C.double(real(args.Beta)), c.mem, C.size_t(args.OffC), C.size_t(args.Ldc),
			oq.q, &ev)
	case elem.C64:
		status = C.syrk_c(order, uplo, trans, C.size_t(args.N), C.size_t(args.K),
			C.float(real(args.Alpha)), C.float(imag(args.Alpha)),
			a.mem, C.size_t(args.OffA), C.size_t(args.Lda),
			C.float(real(args.Beta)), C.float(imag(args.Beta)),
			c.mem, C.size_t(args.OffC), C.size_t(args.Ldc),
			oq.q, &ev)
	case elem.C128:
		status = C.syrk_z(order, uplo, trans, C.size_t(args.N), C.size_t(args.K),
			C.double(real(args.Alpha)), C.double(imag(args.Alpha)),
			a.mem, C.size_t(args.OffA), C.size_t(args.Lda),
			C.double(real(args.Beta)), C.double(imag(args.Beta)),
			c.mem, C.size_t(args.OffC), C.size_t(args.Ldc),
			oq.q, &ev)
	default:
		return nil, fmt.Errorf("%w: element kind %v", ErrInvalidArgument, args.Kind)
	}
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clblas syrk: %s", clStatusString(status))
	}
	return &oclEvent{ev: ev}, nil
}

func (d *OpenCLDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	if d.live > 0 {
		d.logger.Warn("device closed with live buffers", "count", d.live)
	}

	for _, q := range d.queues {
		oq := q.(*oclQueue)
		C.clFinish(oq.q)
		C.clReleaseCommandQueue(oq.q)
	}
	C.clblasTeardown()
	C.clReleaseContext(d.ctx)
	return nil
}

type oclQueue struct {
	q C.cl_command_queue
}

func (q *oclQueue) Flush() error {
	if status := C.clFlush(q.q); status != C.CL_SUCCESS {
		return fmt.Errorf("clFlush: %s", clStatusString(status))
	}
	return nil
}

func (q *oclQueue) Finish() error {
	if status := C.clFinish(q.q); status != C.CL_SUCCESS {
		return fmt.Errorf("clFinish: %s", clStatusString(status))
	}
	return nil
}

type oclEvent struct {
	ev C.cl_event
}

func (e *oclEvent) Wait() error {
	status := C.clWaitForEvents(1, &e.ev)
	C.clReleaseEvent(e.ev)
	if status != C.CL_SUCCESS {
		return fmt.Errorf("clWaitForEvents: %s", clStatusString(status))
	}
	return nil
}

type oclBuffer struct {
	dev  *OpenCLDevice
	mem  C.cl_mem
	size int

	mu       sync.Mutex
	released bool
}

func (b *oclBuffer) Size() int { return b.size }

func (b *oclBuffer) checkRange(off, n int) error {
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

func (b *oclBuffer) Write(q Queue, blocking bool, off int, data []byte) (Event, error) {
	oq, ok := q.(*oclQueue)
	if !ok {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := b.checkRange(off, len(data)); err != nil {
		return nil, err
	}
	flag := C.cl_bool(C.CL_FALSE)
	if blocking {
		flag = C.CL_TRUE
	}
	var ev C.cl_event
	status := C.clEnqueueWriteBuffer(oq.q, b.mem, flag, C.size_t(off), C.size_t(len(data)),
		unsafe.Pointer(&data[0]), 0, nil, &ev)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clEnqueueWriteBuffer: %s", clStatusString(status))
	}
	return &oclEvent{ev: ev}, nil
}

func (b *oclBuffer) Read(q Queue, blocking bool, off int, out []byte) (Event, error) {
	oq, ok := q.(*oclQueue)
	if !ok {
		return nil, fmt.Errorf("%w: queue does not belong to this device", ErrInvalidArgument)
	}
	if err := b.checkRange(off, len(out)); err != nil {
		return nil, err
	}
	flag := C.cl_bool(C.CL_FALSE)
	if blocking {
		flag = C.CL_TRUE
	}
	var ev C.cl_event
	status := C.clEnqueueReadBuffer(oq.q, b.mem, flag, C.size_t(off), C.size_t(len(out)),
		unsafe.Pointer(&out[0]), 0, nil, &ev)
	if status != C.CL_SUCCESS {
		return nil, fmt.Errorf("clEnqueueReadBuffer: %s", clStatusString(status))
	}
	return &oclEvent{ev: ev}, nil
}

func (b *oclBuffer) Release() error {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return ErrClosed
	}
	b.released = true
	b.mu.Unlock()

	C.clReleaseMemObject(b.mem)
	b.dev.mu.Lock()
	b.dev.live--
	b.dev.mu.Unlock()
	return nil
}

func deviceInfoString(id C.cl_device_id, param C.cl_device_info) string {
	var n C.size_t
	if C.clGetDeviceInfo(id, param, 0, nil, &n) != C.CL_SUCCESS || n == 0 {
		return ""
	}
	buf := make([]byte, int(n))
	if C.clGetDeviceInfo(id, param, n, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

func deviceInfoULong(id C.cl_device_id, param C.cl_device_info) uint64 {
	var v C.cl_ulong
	if C.clGetDeviceInfo(id, param, C.size_t(unsafe.Sizeof(v)), unsafe.Pointer(&v), nil) != C.CL_SUCCESS {
		return 0
	}
	return uint64(v)
}

func clStatusString(status C.cl_int) string {
	switch status {
	case C.CL_SUCCESS:
		return "success"
	case C.CL_DEVICE_NOT_FOUND:
		return "device not found"
	case C.CL_OUT_OF_RESOURCES:
		return "out of resources"
	case C.CL_MEM_OBJECT_ALLOCATION_FAILURE:
		return "memory object allocation failure"
	case C.CL_OUT_OF_HOST_MEMORY:
		return "out of host memory"
	case C.CL_INVALID_VALUE:
		return "invalid value"
	case C.CL_INVALID_MEM_OBJECT:
		return "invalid memory object"
	case C.CL_INVALID_COMMAND_QUEUE:
		return "invalid command queue"
	default:
		return fmt.Sprintf("status %d", int(status))
	}
}

package compute

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WordSize is the size in bytes of one storage word.
const WordSize = 8

// DefaultMaxBufferBytes is the device memory limit used when Limits leaves it unset.
const DefaultMaxBufferBytes = 1 << 30

// Limits bounds the resources a device may use.
type Limits struct {
	// MaxBufferBytes is the total size of all live buffers. If 0, DefaultMaxBufferBytes.
	MaxBufferBytes int64
	// MaxWorkers is the number of goroutines executing workgroups. If 0, GOMAXPROCS.
	MaxWorkers int
}

// Device owns buffers and a queue that executes submitted work.
type Device struct {
	limits Limits
	mem    *semaphore.Weighted
	queue  *Queue

	mu        sync.Mutex
	destroyed bool
}

// RequestDevice acquires a device with the given limits.
func RequestDevice(ctx context.Context, limits Limits) (*Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := requestAdapter(); err != nil {
		return nil, err
	}
	if limits.MaxBufferBytes < 0 || limits.MaxWorkers < 0 {
		return nil, fmt.Errorf("%w: negative device limits", ErrValidation)
	}
	if limits.MaxBufferBytes == 0 {
		limits.MaxBufferBytes = DefaultMaxBufferBytes
	}
	if limits.MaxWorkers == 0 {
		limits.MaxWorkers = runtime.GOMAXPROCS(0)
	}

	d := &Device{
		limits: limits,
		mem:    semaphore.NewWeighted(limits.MaxBufferBytes),
	}
	d.queue = newQueue(d)
	return d, nil
}

// Limits returns the effective device limits.
func (d *Device) Limits() Limits { return d.limits }

// Queue returns the device queue.
func (d *Device) Queue() *Queue { return d.queue }

// BufferDescriptor describes a buffer to allocate.
type BufferDescriptor struct {
	Label string
	// Size is the buffer length in words.
	Size  int
	Usage BufferUsage
}

// CreateBuffer allocates a zeroed buffer charged against the device memory limit.
func (d *Device) CreateBuffer(desc BufferDescriptor) (*Buffer, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if desc.Size < 0 {
		return nil, fmt.Errorf("%w: buffer %q has negative size", ErrValidation, desc.Label)
	}
	if desc.Usage&BufferUsageMapRead != 0 && desc.Usage&^(BufferUsageMapRead|BufferUsageCopyDst) != 0 {
		return nil, fmt.Errorf("%w: buffer %q: MapRead may only be combined with CopyDst", ErrValidation, desc.Label)
	}

	bytes := int64(desc.Size) * WordSize
	if !d.mem.TryAcquire(bytes) {
		return nil, fmt.Errorf("%w: buffer %q needs %d bytes", ErrOutOfMemory, desc.Label, bytes)
	}

	return &Buffer{
		device: d,
		label:  desc.Label,
		usage:  desc.Usage,
		words:  make([]uint64, desc.Size),
	}, nil
}

// CreateCommandEncoder starts recording a command buffer.
func (d *Device) CreateCommandEncoder(label string) *CommandEncoder {
	return &CommandEncoder{device: d, label: label}
}

// Destroy stops the queue after pending work drains. Buffers must not be used afterwards.
func (d *Device) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.mu.Unlock()

	d.queue.stop()
}

func (d *Device) alive() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrDeviceLost
	}
	return nil
}

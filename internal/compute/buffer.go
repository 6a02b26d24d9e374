package compute

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// BufferUsage is a bit set of the ways a buffer may be used.
type BufferUsage uint32

const (
	// BufferUsageStorage allows binding the buffer to a kernel.
	BufferUsageStorage BufferUsage = 1 << iota
	// BufferUsageCopySrc allows the buffer as a copy source.
	BufferUsageCopySrc
	// BufferUsageCopyDst allows the buffer as a copy or write destination.
	BufferUsageCopyDst
	// BufferUsageMapRead allows mapping the buffer for host reads.
	BufferUsageMapRead
)

type mapState int

const (
	unmapped mapState = iota
	mapPending
	mapped
	destroyed
)

// Buffer is device memory made of 64-bit words.
//
// While unmapped the device owns the contents. MapAsync transfers ownership to
// the host until Unmap.
type Buffer struct {
	device *Device
	label  string
	usage  BufferUsage
	words  []uint64

	mu    sync.Mutex
	state mapState
}

// Label returns the buffer label.
func (b *Buffer) Label() string { return b.label }

// Len returns the buffer length in words.
func (b *Buffer) Len() int { return len(b.words) }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() BufferUsage { return b.usage }

// MapAsync waits until every previously submitted command has completed and
// then maps the buffer for host reads. Errors raised by that work are returned
// here. A context that is already done fails before any waiting.
func (b *Buffer) MapAsync(ctx context.Context) error {
	if b.usage&BufferUsageMapRead == 0 {
		return fmt.Errorf("%w: buffer %q is not mappable", ErrValidation, b.label)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	b.mu.Lock()
	switch b.state {
	case destroyed:
		b.mu.Unlock()
		return fmt.Errorf("%w: buffer %q is destroyed", ErrValidation, b.label)
	case mapPending, mapped:
		b.mu.Unlock()
		return fmt.Errorf("%w: buffer %q is already mapped", ErrValidation, b.label)
	}
	b.state = mapPending
	b.mu.Unlock()

	done, err := b.device.queue.onSubmittedWorkDone()
	if err == nil {
		select {
		case <-done:
			err = b.device.queue.takeError()
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.state = unmapped
		return err
	}
	b.state = mapped
	return nil
}

// Read copies the mapped contents into a new slice.
func (b *Buffer) Read() ([]uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != mapped {
		return nil, fmt.Errorf("%w: buffer %q is not mapped", ErrValidation, b.label)
	}
	out := make([]uint64, len(b.words))
	copy(out, b.words)
	return out, nil
}

// Unmap returns ownership of the buffer to the device.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == mapped {
		b.state = unmapped
	}
}

// Destroy releases the buffer memory. It is safe to call more than once.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == destroyed {
		return
	}
	b.state = destroyed
	b.device.mem.Release(int64(len(b.words)) * WordSize)
	b.words = nil
}

// acquire checks that the device may touch the buffer with the given usage.
func (b *Buffer) acquire(usage BufferUsage) error {
	if b.usage&usage == 0 {
		return fmt.Errorf("%w: buffer %q lacks usage %d", ErrValidation, b.label, usage)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case destroyed:
		return fmt.Errorf("%w: buffer %q is destroyed", ErrValidation, b.label)
	case mapPending, mapped:
		return fmt.Errorf("%w: buffer %q is mapped", ErrValidation, b.label)
	}
	return nil
}

// Storage is a kernel's view of a bound buffer.
type Storage struct {
	buf      *Buffer
	readOnly bool
}

// Len returns the number of words.
func (s Storage) Len() int { return len(s.buf.words) }

// Load reads word i.
func (s Storage) Load(i int) uint64 { return s.buf.words[i] }

// LoadFloat reads word i as a float64.
func (s Storage) LoadFloat(i int) float64 { return math.Float64frombits(s.buf.words[i]) }

// LoadInt reads word i as a signed integer.
func (s Storage) LoadInt(i int) int64 { return int64(s.buf.words[i]) }

// Store writes word i. Concurrent invocations must store to distinct words.
func (s Storage) Store(i int, v uint64) {
	if s.readOnly {
		panic(fmt.Sprintf("store to read-only binding %q", s.buf.label))
	}
	s.buf.words[i] = v
}

// StoreFloat writes word i as a float64.
func (s Storage) StoreFloat(i int, v float64) { s.Store(i, math.Float64bits(v)) }

// AtomicAdd adds delta to word i. Signed deltas wrap as two's complement.
func (s Storage) AtomicAdd(i int, delta int64) {
	if s.readOnly {
		panic(fmt.Sprintf("atomic add to read-only binding %q", s.buf.label))
	}
	atomic.AddUint64(&s.buf.words[i], uint64(delta))
}

// AtomicLoad reads word i atomically.
func (s Storage) AtomicLoad(i int) uint64 { return atomic.LoadUint64(&s.buf.words[i]) }

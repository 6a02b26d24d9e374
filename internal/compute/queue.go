package compute

import (
	"errors"
	"fmt"
	"sync"
)

type submission struct {
	label string
	cmds  []command
	done  chan struct{}
}

// Queue executes submitted command buffers in order on a background goroutine.
type Queue struct {
	device *Device
	work   chan *submission
	exited chan struct{}

	mu     sync.Mutex
	tail   chan struct{}
	closed bool

	errMu sync.Mutex
	err   error
}

func newQueue(d *Device) *Queue {
	closedCh := make(chan struct{})
	close(closedCh)

	q := &Queue{
		device: d,
		work:   make(chan *submission, 16),
		exited: make(chan struct{}),
		tail:   closedCh,
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.exited)
	for sub := range q.work {
		for _, cmd := range sub.cmds {
			if err := cmd.execute(q.device); err != nil {
				q.recordError(fmt.Errorf("%s: %w", sub.label, err))
				break
			}
		}
		close(sub.done)
	}
}

// Submit validates the command buffer and schedules it for execution.
func (q *Queue) Submit(cb *CommandBuffer) error {
	if cb == nil {
		return nil
	}
	if err := q.device.alive(); err != nil {
		return err
	}
	for _, cmd := range cb.cmds {
		if err := cmd.validate(); err != nil {
			return fmt.Errorf("submit %s: %w", cb.label, err)
		}
	}
	return q.enqueue(cb.label, cb.cmds)
}

// WriteBuffer schedules a copy of data into buf at the given word offset.
// The data is copied before WriteBuffer returns.
func (q *Queue) WriteBuffer(buf *Buffer, offset int, data []uint64) error {
	if err := q.device.alive(); err != nil {
		return err
	}
	cmd := &writeCmd{dst: buf, offset: offset, data: append([]uint64(nil), data...)}
	if err := cmd.validate(); err != nil {
		return err
	}
	return q.enqueue("write "+buf.label, []command{cmd})
}

func (q *Queue) enqueue(label string, cmds []command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrDeviceLost
	}
	sub := &submission{label: label, cmds: cmds, done: make(chan struct{})}
	q.tail = sub.done
	q.work <- sub
	return nil
}

// onSubmittedWorkDone returns a channel closed once every submission made so far has run.
func (q *Queue) onSubmittedWorkDone() (<-chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrDeviceLost
	}
	return q.tail, nil
}

// Drain blocks until every submitted command buffer has run and discards any
// errors raised by that work.
func (q *Queue) Drain() {
	done, err := q.onSubmittedWorkDone()
	if err != nil {
		return
	}
	<-done
	_ = q.takeError()
}

func (q *Queue) recordError(err error) {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	q.err = errors.Join(q.err, err)
}

// takeError returns and clears errors raised by completed work.
func (q *Queue) takeError() error {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	err := q.err
	q.err = nil
	return err
}

func (q *Queue) stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.work)
	q.mu.Unlock()
	<-q.exited
}

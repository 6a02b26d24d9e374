package compute

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// CommandEncoder records commands into a CommandBuffer.
type CommandEncoder struct {
	device *Device
	label  string
	cmds   []command
}

// CommandBuffer is a finished, submittable list of commands.
type CommandBuffer struct {
	label string
	cmds  []command
}

// ClearBuffer zeroes buf.
func (e *CommandEncoder) ClearBuffer(buf *Buffer) {
	e.cmds = append(e.cmds, &clearCmd{buf: buf})
}

// CopyBufferToBuffer copies the first n words of src into dst.
func (e *CommandEncoder) CopyBufferToBuffer(src, dst *Buffer, n int) {
	e.cmds = append(e.cmds, &copyCmd{src: src, dst: dst, n: n})
}

// Dispatch runs p over the given number of workgroups with the bind group attached.
func (e *CommandEncoder) Dispatch(p *ComputePipeline, group *BindGroup, workgroups int) {
	e.cmds = append(e.cmds, &dispatchCmd{pipeline: p, group: group, workgroups: workgroups})
}

// Finish ends recording.
func (e *CommandEncoder) Finish() *CommandBuffer {
	cb := &CommandBuffer{label: e.label, cmds: e.cmds}
	e.cmds = nil
	return cb
}

// command is validated at submit time, when map state is checked, and
// executed later on the queue goroutine.
type command interface {
	validate() error
	execute(d *Device) error
}

type clearCmd struct{ buf *Buffer }

func (c *clearCmd) validate() error { return c.buf.acquire(BufferUsageCopyDst) }

func (c *clearCmd) execute(*Device) error {
	clear(c.buf.words)
	return nil
}

type copyCmd struct {
	src, dst *Buffer
	n        int
}

func (c *copyCmd) validate() error {
	if err := c.src.acquire(BufferUsageCopySrc); err != nil {
		return err
	}
	if err := c.dst.acquire(BufferUsageCopyDst); err != nil {
		return err
	}
	if c.n < 0 || c.n > c.src.Len() || c.n > c.dst.Len() {
		return fmt.Errorf("%w: copy of %d words from %q to %q out of range", ErrValidation, c.n, c.src.label, c.dst.label)
	}
	return nil
}

func (c *copyCmd) execute(*Device) error {
	copy(c.dst.words[:c.n], c.src.words[:c.n])
	return nil
}

type writeCmd struct {
	dst    *Buffer
	offset int
	data   []uint64
}

func (c *writeCmd) validate() error {
	if err := c.dst.acquire(BufferUsageCopyDst); err != nil {
		return err
	}
	if c.offset < 0 || c.offset+len(c.data) > c.dst.Len() {
		return fmt.Errorf("%w: write of %d words at %d overruns %q", ErrValidation, len(c.data), c.offset, c.dst.label)
	}
	return nil
}

func (c *writeCmd) execute(*Device) error {
	copy(c.dst.words[c.offset:], c.data)
	return nil
}

type dispatchCmd struct {
	pipeline   *ComputePipeline
	group      *BindGroup
	workgroups int
}

func (c *dispatchCmd) validate() error {
	if c.workgroups < 0 {
		return fmt.Errorf("%w: negative workgroup count for %q", ErrValidation, c.pipeline.Label)
	}
	return c.group.validate(c.pipeline)
}

func (c *dispatchCmd) execute(d *Device) error {
	bindings := c.group.storage(c.pipeline)
	size := c.pipeline.WorkgroupSize
	kernel := c.pipeline.Kernel

	var g errgroup.Group
	g.SetLimit(d.limits.MaxWorkers)
	for wg := 0; wg < c.workgroups; wg++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("dispatch %s workgroup %d: %v", c.pipeline.Label, wg, r)
				}
			}()
			base := wg * size
			for local := 0; local < size; local++ {
				kernel(Invocation{GlobalID: base + local, WorkgroupID: wg, LocalID: local}, bindings)
			}
			return nil
		})
	}
	return g.Wait()
}

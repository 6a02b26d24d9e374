package compute

import "fmt"

// DefaultWorkgroupSize is the number of invocations per workgroup when a
// pipeline does not set one.
const DefaultWorkgroupSize = 64

// Invocation identifies one kernel execution within a dispatch.
type Invocation struct {
	GlobalID    int
	WorkgroupID int
	LocalID     int
}

// Kernel is the body of a compute pipeline. bindings is indexed by binding
// slot. Kernels must bounds-check GlobalID themselves; a panic aborts the
// dispatch and surfaces as a queue error.
type Kernel func(inv Invocation, bindings []Storage)

// BindingLayout declares one storage binding of a pipeline.
type BindingLayout struct {
	ReadOnly bool
}

// ComputePipeline pairs a kernel with its binding layout.
type ComputePipeline struct {
	Label         string
	WorkgroupSize int
	Layout        []BindingLayout
	Kernel        Kernel
}

// CreateComputePipeline validates and returns a pipeline.
func (d *Device) CreateComputePipeline(p ComputePipeline) (*ComputePipeline, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if p.Kernel == nil {
		return nil, fmt.Errorf("%w: pipeline %q has no kernel", ErrValidation, p.Label)
	}
	if p.WorkgroupSize == 0 {
		p.WorkgroupSize = DefaultWorkgroupSize
	}
	if p.WorkgroupSize < 0 {
		return nil, fmt.Errorf("%w: pipeline %q has negative workgroup size", ErrValidation, p.Label)
	}
	return &p, nil
}

// WorkgroupCount returns the number of workgroups needed to cover n invocations.
func (p *ComputePipeline) WorkgroupCount(n int) int {
	return (n + p.WorkgroupSize - 1) / p.WorkgroupSize
}

// BindGroup attaches buffers to binding slots.
type BindGroup struct {
	label   string
	buffers []*Buffer
}

// CreateBindGroup binds buffers to the slots of p in order.
func (d *Device) CreateBindGroup(label string, p *ComputePipeline, buffers ...*Buffer) (*BindGroup, error) {
	g := &BindGroup{label: label, buffers: buffers}
	if err := g.validate(p); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *BindGroup) validate(p *ComputePipeline) error {
	if len(g.buffers) != len(p.Layout) {
		return fmt.Errorf("%w: bind group %q has %d buffers, pipeline %q expects %d",
			ErrValidation, g.label, len(g.buffers), p.Label, len(p.Layout))
	}
	for i, b := range g.buffers {
		if b == nil {
			return fmt.Errorf("%w: bind group %q slot %d is empty", ErrValidation, g.label, i)
		}
		if err := b.acquire(BufferUsageStorage); err != nil {
			return err
		}
	}
	return nil
}

func (g *BindGroup) storage(p *ComputePipeline) []Storage {
	out := make([]Storage, len(g.buffers))
	for i, b := range g.buffers {
		out[i] = Storage{buf: b, readOnly: p.Layout[i].ReadOnly}
	}
	return out
}

package kmeans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"colorcrunch/internal/compute"
)

// parallelEngine drives Lloyd iterations on a compute device.
//
// Per iteration the device assigns every point and, depending on the
// algorithm, aggregates clusters and resolves centroids. The host reads the
// results back through a mapped staging buffer, tests convergence and uploads
// the next centroids. A final assignment pass materialises the labels.
type parallelEngine struct {
	cfg    Config
	logger *slog.Logger
	device *compute.Device

	assign     *compute.ComputePipeline
	accumulate *compute.ComputePipeline
	resolve    *compute.ComputePipeline

	mu     sync.Mutex
	closed bool
}

func newParallelEngine(ctx context.Context, cfg Config, o options) (*parallelEngine, error) {
	device, err := compute.RequestDevice(ctx, o.limits)
	if errors.Is(err, compute.ErrNoAdapter) {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedAlgorithm, cfg.Algorithm, err)
	}
	if err != nil {
		return nil, deviceError("request device", err)
	}

	e := &parallelEngine{cfg: cfg, logger: o.logger, device: device}
	pipelines := []struct {
		target **compute.ComputePipeline
		desc   compute.ComputePipeline
	}{
		{&e.assign, compute.ComputePipeline{
			Label:  "kmeans_assign",
			Layout: []compute.BindingLayout{{ReadOnly: true}, {ReadOnly: true}, {}},
			Kernel: assignKernel,
		}},
		{&e.accumulate, compute.ComputePipeline{
			Label:  "kmeans_accumulate",
			Layout: []compute.BindingLayout{{ReadOnly: true}, {ReadOnly: true}, {}, {}},
			Kernel: accumulateKernel,
		}},
		{&e.resolve, compute.ComputePipeline{
			Label:  "kmeans_resolve",
			Layout: []compute.BindingLayout{{ReadOnly: true}, {ReadOnly: true}, {}},
			Kernel: resolveKernel,
		}},
	}
	for _, p := range pipelines {
		p.desc.WorkgroupSize = workgroupSize
		pl, err := device.CreateComputePipeline(p.desc)
		if err != nil {
			device.Destroy()
			return nil, deviceError("create pipeline", err)
		}
		*p.target = pl
	}
	return e, nil
}

func (e *parallelEngine) Run(data []Vector) (Result, error) {
	return e.RunContext(context.Background(), data)
}

func (e *parallelEngine) RunContext(ctx context.Context, data []Vector) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Result{}, ErrClosed
	}

	centroids, err := seed(e.cfg, data)
	if err != nil {
		logRunError(ctx, e.logger, e.cfg, len(data), err)
		return Result{}, err
	}
	if len(data) == 0 {
		return emptyResult(), nil
	}

	res, err := e.run(ctx, data, centroids)
	if err != nil {
		logRunError(ctx, e.logger, e.cfg, len(data), err)
		return Result{}, err
	}
	logRun(ctx, e.logger, e.cfg, len(data), res)
	return res, nil
}

func (e *parallelEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.device.Destroy()
	}
	return nil
}

// runBuffers are the device resources of one run.
type runBuffers struct {
	points      *compute.Buffer
	centroids   *compute.Buffer
	assignments *compute.Buffer
	aggregates  *compute.Buffer
	next        *compute.Buffer

	assignStaging    *compute.Buffer
	aggregateStaging *compute.Buffer
	nextStaging      *compute.Buffer

	assignGroup     *compute.BindGroup
	accumulateGroup *compute.BindGroup
	resolveGroup    *compute.BindGroup
}

func (b *runBuffers) destroy() {
	for _, buf := range []*compute.Buffer{
		b.points, b.centroids, b.assignments, b.aggregates, b.next,
		b.assignStaging, b.aggregateStaging, b.nextStaging,
	} {
		if buf != nil {
			buf.Destroy()
		}
	}
}

func (e *parallelEngine) prepare(data, centroids []Vector) (_ *runBuffers, err error) {
	n, k := len(data), len(centroids)
	b := &runBuffers{}
	defer func() {
		if err != nil {
			e.device.Queue().Drain()
			b.destroy()
		}
	}()

	storage := compute.BufferUsageStorage
	staging := compute.BufferUsageMapRead | compute.BufferUsageCopyDst

	specs := []struct {
		target **compute.Buffer
		label  string
		size   int
		usage  compute.BufferUsage
		needed bool
	}{
		{&b.points, "points", n * vectorWords, storage | compute.BufferUsageCopyDst, true},
		{&b.centroids, "centroids", k * vectorWords, storage | compute.BufferUsageCopyDst, true},
		{&b.assignments, "assignments", n, storage | compute.BufferUsageCopySrc, true},
		{&b.assignStaging, "assignments_staging", n, staging, true},
		{&b.aggregates, "aggregates", k * aggregateWords, storage | compute.BufferUsageCopySrc | compute.BufferUsageCopyDst,
			e.cfg.Algorithm != ParallelAssignments},
		{&b.aggregateStaging, "aggregates_staging", k * aggregateWords, staging, e.cfg.Algorithm == ParallelAggregates},
		{&b.next, "next_centroids", k * vectorWords, storage | compute.BufferUsageCopySrc, e.cfg.Algorithm == ParallelCentroids},
		{&b.nextStaging, "next_centroids_staging", k * vectorWords, staging, e.cfg.Algorithm == ParallelCentroids},
	}
	for _, s := range specs {
		if !s.needed {
			continue
		}
		buf, err := e.device.CreateBuffer(compute.BufferDescriptor{Label: s.label, Size: s.size, Usage: s.usage})
		if err != nil {
			return nil, err
		}
		*s.target = buf
	}

	queue := e.device.Queue()
	if err := queue.WriteBuffer(b.points, 0, encodeVectors(data)); err != nil {
		return nil, err
	}
	if err := queue.WriteBuffer(b.centroids, 0, encodeVectors(centroids)); err != nil {
		return nil, err
	}

	if b.assignGroup, err = e.device.CreateBindGroup("assign", e.assign, b.points, b.centroids, b.assignments); err != nil {
		return nil, err
	}
	if b.aggregates != nil {
		b.accumulateGroup, err = e.device.CreateBindGroup("accumulate", e.accumulate,
			b.points, b.centroids, b.assignments, b.aggregates)
		if err != nil {
			return nil, err
		}
	}
	if b.next != nil {
		if b.resolveGroup, err = e.device.CreateBindGroup("resolve", e.resolve, b.aggregates, b.centroids, b.next); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (e *parallelEngine) run(ctx context.Context, data, centroids []Vector) (Result, error) {
	bufs, err := e.prepare(data, centroids)
	if err != nil {
		return Result{}, deviceError("prepare buffers", err)
	}
	defer func() {
		// Abandoned work may still reference the buffers.
		e.device.Queue().Drain()
		bufs.destroy()
	}()

	var res Result
	for res.Iterations < e.cfg.MaxIterations {
		next, err := e.iterate(ctx, bufs, data, centroids)
		if err != nil {
			return Result{}, err
		}
		res.Iterations++
		res.Converged = Converged(centroids, next, e.cfg.Tolerance)
		centroids = next
		if res.Converged || res.Iterations >= e.cfg.MaxIterations {
			// The device keeps the centroids of the last assignment pass.
			break
		}
		if err := e.device.Queue().WriteBuffer(bufs.centroids, 0, encodeVectors(centroids)); err != nil {
			return Result{}, deviceError("upload centroids", err)
		}
	}

	assignments, err := e.readAssignments(ctx, bufs, len(data))
	if err != nil {
		return Result{}, err
	}
	res.Assignments = assignments
	res.Centroids = centroids
	return res, nil
}

// iterate runs one assignment and update step and returns the next centroids.
func (e *parallelEngine) iterate(ctx context.Context, bufs *runBuffers, data, centroids []Vector) ([]Vector, error) {
	n, k := len(data), len(centroids)
	enc := e.device.CreateCommandEncoder("kmeans_iteration")

	switch e.cfg.Algorithm {
	case ParallelAssignments:
		enc.Dispatch(e.assign, bufs.assignGroup, e.assign.WorkgroupCount(n))
		enc.CopyBufferToBuffer(bufs.assignments, bufs.assignStaging, n)
		words, err := e.submitAndRead(ctx, enc, bufs.assignStaging)
		if err != nil {
			return nil, err
		}
		return accumulate(data, decodeAssignments(words), centroids), nil

	case ParallelCentroids:
		enc.ClearBuffer(bufs.aggregates)
		enc.Dispatch(e.accumulate, bufs.accumulateGroup, e.accumulate.WorkgroupCount(n))
		enc.Dispatch(e.resolve, bufs.resolveGroup, e.resolve.WorkgroupCount(k))
		enc.CopyBufferToBuffer(bufs.next, bufs.nextStaging, k*vectorWords)
		words, err := e.submitAndRead(ctx, enc, bufs.nextStaging)
		if err != nil {
			return nil, err
		}
		return decodeVectors(words), nil

	default:
		enc.ClearBuffer(bufs.aggregates)
		enc.Dispatch(e.accumulate, bufs.accumulateGroup, e.accumulate.WorkgroupCount(n))
		enc.CopyBufferToBuffer(bufs.aggregates, bufs.aggregateStaging, k*aggregateWords)
		words, err := e.submitAndRead(ctx, enc, bufs.aggregateStaging)
		if err != nil {
			return nil, err
		}
		return decodeAggregates(words, centroids), nil
	}
}

func (e *parallelEngine) readAssignments(ctx context.Context, bufs *runBuffers, n int) ([]int, error) {
	enc := e.device.CreateCommandEncoder("kmeans_final_assign")
	enc.Dispatch(e.assign, bufs.assignGroup, e.assign.WorkgroupCount(n))
	enc.CopyBufferToBuffer(bufs.assignments, bufs.assignStaging, n)
	words, err := e.submitAndRead(ctx, enc, bufs.assignStaging)
	if err != nil {
		return nil, err
	}
	return decodeAssignments(words), nil
}

// submitAndRead submits the encoded work and copies staging back once the
// device is done with it. The host owns staging only between map and unmap.
func (e *parallelEngine) submitAndRead(ctx context.Context, enc *compute.CommandEncoder, staging *compute.Buffer) ([]uint64, error) {
	if err := e.device.Queue().Submit(enc.Finish()); err != nil {
		return nil, deviceError("submit", err)
	}
	if err := staging.MapAsync(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, deviceError("map "+staging.Label(), err)
	}
	defer staging.Unmap()

	words, err := staging.Read()
	if err != nil {
		return nil, deviceError("read "+staging.Label(), err)
	}
	return words, nil
}

func deviceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDevice, op, err)
}

// Package compute is a software data-parallel device modelled on the WebGPU
// execution model.
//
// Host code allocates storage buffers, records clear, copy and dispatch
// commands into an encoder and submits them to the device queue, which runs
// them asynchronously and in order. Results come back through MapRead
// staging buffers: MapAsync waits for every prior submission, Read copies the
// contents out and Unmap hands the buffer back to the device. A buffer is
// owned either by the device or by the host, never both.
//
// Kernels run once per invocation, grouped into fixed-size workgroups that are
// spread across worker goroutines. Storage words are 64 bits wide and support
// atomic addition for concurrent accumulation.
package compute

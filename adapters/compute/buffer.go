// Package compute holds the execution back ends that run the per-path
// pricing kernel: a serial loop, a CPU worker pool and a block/thread grid
// that mirrors an accelerator launch.
package compute

import (
	"fmt"
	"math"
	"unsafe"

	"mcprice/internal/errors"
)

// Element is the numeric type a payoff buffer stores
type Element interface {
	~float32 | ~float64
}

// Residency tells where a buffer's storage lives
type Residency int

const (
	HostResident Residency = iota
	DeviceResident
)

func (r Residency) String() string {
	switch r {
	case HostResident:
		return "host"
	case DeviceResident:
		return "device"
	}
	return fmt.Sprintf("Residency(%d)", int(r))
}

// ComputeBuffer is a fixed-length payoff array with an explicit residency.
// Device buffers are written by kernels and must be copied to the host
// before anything reads them.
type ComputeBuffer[T Element] struct {
	data      []T
	residency Residency
	released  bool
}

// NewHostBuffer allocates a zeroed host buffer of n elements
func NewHostBuffer[T Element](n int) *ComputeBuffer[T] {
	return &ComputeBuffer[T]{data: make([]T, n), residency: HostResident}
}

// NewDeviceBuffer allocates a zeroed device buffer of n elements
func NewDeviceBuffer[T Element](n int) *ComputeBuffer[T] {
	return &ComputeBuffer[T]{data: make([]T, n), residency: DeviceResident}
}

// Len returns the number of elements
func (b *ComputeBuffer[T]) Len() int {
	return len(b.data)
}

// Residency returns where the buffer lives
func (b *ComputeBuffer[T]) Residency() Residency {
	return b.residency
}

// Bytes returns the storage size in bytes
func (b *ComputeBuffer[T]) Bytes() int64 {
	return int64(len(b.data)) * elemSize[T]()
}

// Slots exposes the storage to a kernel. Every path index owns exactly one
// slot, so concurrent kernels never write the same element.
func (b *ComputeBuffer[T]) Slots() []T {
	return b.data
}

// Host returns the contents of a host-resident buffer
func (b *ComputeBuffer[T]) Host() ([]T, error) {
	if b.released {
		return nil, errors.InternalError("buffer used after release")
	}
	if b.residency != HostResident {
		return nil, errors.InternalError("device buffer read without a transfer to host")
	}
	return b.data, nil
}

// CopyToHost transfers a device buffer into a new host buffer. A host
// buffer is returned as is.
func (b *ComputeBuffer[T]) CopyToHost() (*ComputeBuffer[T], error) {
	if b.released {
		return nil, errors.InternalError("buffer used after release")
	}
	if b.residency == HostResident {
		return b, nil
	}
	out := NewHostBuffer[T](len(b.data))
	copy(out.data, b.data)
	return out, nil
}

// Release drops the storage. Releasing twice is a no-op.
func (b *ComputeBuffer[T]) Release() {
	b.data = nil
	b.released = true
}

func elemSize[T Element]() int64 {
	var zero T
	return int64(unsafe.Sizeof(zero))
}

// Footprint returns the bytes needed for a call and a put buffer of n
// elements, times copies (2 when device buffers are mirrored on the host).
// Fails with RESOURCE_EXHAUSTION on overflow or when the total exceeds
// limit; a limit <= 0 disables the budget.
func Footprint[T Element](n, copies int, limit int64) (int64, error) {
	if n < 0 || copies < 1 {
		return 0, errors.InternalError(fmt.Sprintf("invalid footprint request n=%d copies=%d", n, copies))
	}
	perPath := elemSize[T]() * 2 * int64(copies)
	if int64(n) > math.MaxInt64/perPath {
		return 0, errors.ResourceExhaustion("payoff buffers for %d paths overflow the addressable size", n)
	}
	total := int64(n) * perPath
	if limit > 0 && total > limit {
		return total, errors.ResourceExhaustion("payoff buffers need %d bytes for %d paths, budget is %d bytes", total, n, limit)
	}
	return total, nil
}

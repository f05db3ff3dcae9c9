package compute

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Geometry is a one-dimensional launch configuration
type Geometry struct {
	Blocks          int
	ThreadsPerBlock int
}

// NewGeometry covers n work items with blocks of threadsPerBlock threads.
// The last block may be partially idle.
func NewGeometry(n, threadsPerBlock int) Geometry {
	blocks := n / threadsPerBlock
	if n%threadsPerBlock != 0 {
		blocks++
	}
	return Geometry{Blocks: blocks, ThreadsPerBlock: threadsPerBlock}
}

// Threads returns the number of launched threads, which is >= n
func (g Geometry) Threads() int {
	return g.Blocks * g.ThreadsPerBlock
}

// GlobalIndex maps a (block, thread) pair to its flat index
func (g Geometry) GlobalIndex(block, thread int) int {
	return block*g.ThreadsPerBlock + thread
}

// BlockFunc runs every thread of one block
type BlockFunc func(block int)

// Device schedules blocks onto a bounded number of resident slots. Blocks
// run in no particular order and may run concurrently.
type Device struct {
	resident int
	sem      *semaphore.Weighted
}

// NewDevice creates a device that keeps at most residentBlocks blocks in
// flight
func NewDevice(residentBlocks int) *Device {
	if residentBlocks < 1 {
		residentBlocks = 1
	}
	return &Device{resident: residentBlocks, sem: semaphore.NewWeighted(int64(residentBlocks))}
}

// ResidentBlocks returns the number of blocks that may run at once
func (d *Device) ResidentBlocks() int {
	return d.resident
}

// Launch enqueues every block of the geometry and returns at once. Call
// Synchronize before touching anything the blocks write.
func (d *Device) Launch(ctx context.Context, geom Geometry, fn BlockFunc) *Launch {
	l := &Launch{done: make(chan struct{})}
	go func() {
		defer close(l.done)
		var wg sync.WaitGroup
		for b := 0; b < geom.Blocks; b++ {
			if err := d.sem.Acquire(ctx, 1); err != nil {
				l.err = err
				break
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer d.sem.Release(1)
				if ctx.Err() != nil {
					return
				}
				fn(b)
			}()
		}
		wg.Wait()
		if l.err == nil {
			l.err = ctx.Err()
		}
	}()
	return l
}

// Launch is an in-flight kernel launch
type Launch struct {
	done chan struct{}
	err  error
}

// Synchronize blocks until every block of the launch has finished. It
// returns the context error when the launch was cancelled.
func (l *Launch) Synchronize() error {
	<-l.done
	return l.err
}

package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/notargets/meshop/device"
	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

const (
	DefaultBlocks  = 32
	DefaultThreads = 256
)

// ErrNoDevice is returned when a Grid backend has no accelerator
var ErrNoDevice = errors.New("grid backend has no device")

// Grid runs a fixed launch of Blocks x Threads on an accelerator. Thread t
// handles positions t, t+stride, ... so the launch size is independent of n.
// The bound arrays must already be resident on Device.
type Grid struct {
	Device  device.Accelerator
	Blocks  int
	Threads int
}

func (g Grid) Name() string {
	if g.Device == nil {
		return "grid"
	}
	return "grid/" + g.Device.Mode()
}

func (Grid) isBackend() {}

func (g Grid) dims() (blocks, threads int) {
	blocks, threads = g.Blocks, g.Threads
	if blocks <= 0 {
		blocks = DefaultBlocks
	}
	if threads <= 0 {
		threads = DefaultThreads
	}
	return
}

func runGrid[C mesh.Connectivity, IA any, OA field.Sink[V], V any](
	g Grid, n int, conn C, in IA, out OA, idx []int32, ix field.Indexer,
	f Functor[IA, V]) error {

	if g.Device == nil {
		return ErrNoDevice
	}
	blocks, threads := g.dims()

	var (
		once     sync.Once
		firstErr error
	)
	kernel := func(tid device.ThreadID) {
		var ids [mesh.MaxLocalIDs]int
		stride := tid.NumThreads()
		for i := tid.Global(); i < n; i += stride {
			if err := gather(i, conn, in, out, idx, ix, ids[:], f); err != nil {
				once.Do(func() { firstErr = err })
				return
			}
		}
	}
	if err := g.Device.Launch(device.D1(blocks), device.D1(threads), kernel); err != nil {
		return fmt.Errorf("launch on %s: %w", g.Device.Mode(), err)
	}
	if err := g.Device.Finish(); err != nil {
		return fmt.Errorf("finish on %s: %w", g.Device.Mode(), err)
	}
	return firstErr
}

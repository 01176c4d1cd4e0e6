package device

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// Emulator is an in-process accelerator. Its memory is separate from the
// host arrays it mirrors, so data only reaches a kernel through explicit
// staging. Blocks run concurrently; the threads of a block run in order on
// the block's goroutine.
type Emulator struct {
	// MaxConcurrentBlocks limits blocks in flight, GOMAXPROCS when 0
	MaxConcurrentBlocks int

	allocated atomic.Int64
	launches  atomic.Int64
}

// NewEmulator creates an emulated accelerator
func NewEmulator() *Emulator {
	return &Emulator{}
}

func (em *Emulator) Mode() string { return "Emulator" }

// Allocated returns the bytes of device memory currently live
func (em *Emulator) Allocated() int64 { return em.allocated.Load() }

// Launches returns the number of completed launches
func (em *Emulator) Launches() int64 { return em.launches.Load() }

// Malloc allocates device memory, copying bytes from src when it is non-nil
func (em *Emulator) Malloc(bytes int64, src unsafe.Pointer) (Memory, error) {
	if bytes < 0 {
		return nil, fmt.Errorf("invalid allocation size %d", bytes)
	}
	// word backing keeps every element type aligned
	mem := &emulatorMemory{owner: em, words: make([]uint64, (bytes+7)/8), size: bytes}
	if src != nil && bytes > 0 {
		copy(mem.bytes(), unsafe.Slice((*byte)(src), bytes))
	}
	em.allocated.Add(bytes)
	return mem, nil
}

// Launch runs kernel once for every thread of the grid and returns after all
// threads finished. A panic in a thread aborts its block and is reported as a
// *FaultError.
func (em *Emulator) Launch(grid, block Dim3, kernel KernelFunc) error {
	if grid.Size() <= 0 || block.Size() <= 0 {
		return fmt.Errorf("%w: grid %s block %s", ErrInvalidLaunch, grid, block)
	}
	limit := em.MaxConcurrentBlocks
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for bz := 0; bz < grid.Z; bz++ {
		for by := 0; by < grid.Y; by++ {
			for bx := 0; bx < grid.X; bx++ {
				blockIdx := Dim3{X: bx, Y: by, Z: bz}
				g.Go(func() error {
					return em.runBlock(grid, block, blockIdx, kernel)
				})
			}
		}
	}
	err := g.Wait()
	em.launches.Add(1)
	return err
}

func (em *Emulator) runBlock(grid, block, blockIdx Dim3, kernel KernelFunc) (err error) {
	tid := ThreadID{BlockIdx: blockIdx, BlockDim: block, GridDim: grid}
	defer func() {
		if r := recover(); r != nil {
			err = &FaultError{Mode: em.Mode(), Block: blockIdx, Thread: tid.ThreadIdx, Value: r}
		}
	}()
	for tz := 0; tz < block.Z; tz++ {
		for ty := 0; ty < block.Y; ty++ {
			for tx := 0; tx < block.X; tx++ {
				tid.ThreadIdx = Dim3{X: tx, Y: ty, Z: tz}
				kernel(tid)
			}
		}
	}
	return nil
}

// Finish is a no-op: launches are synchronous
func (em *Emulator) Finish() error { return nil }

type emulatorMemory struct {
	owner *Emulator
	words []uint64
	size  int64
	freed bool
}

func (m *emulatorMemory) bytes() []byte {
	if m.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.words[0])), m.size)
}

func (m *emulatorMemory) CopyFrom(src unsafe.Pointer, bytes int64) {
	if m.freed {
		panic(ErrFreed)
	}
	if bytes > 0 {
		copy(m.bytes()[:bytes], unsafe.Slice((*byte)(src), bytes))
	}
}

func (m *emulatorMemory) CopyTo(dst unsafe.Pointer, bytes int64) {
	if m.freed {
		panic(ErrFreed)
	}
	if bytes > 0 {
		copy(unsafe.Slice((*byte)(dst), bytes), m.bytes()[:bytes])
	}
}

func (m *emulatorMemory) Pointer() unsafe.Pointer {
	if m.freed || m.size == 0 {
		return nil
	}
	return unsafe.Pointer(&m.words[0])
}

func (m *emulatorMemory) Free() {
	if m.freed {
		return
	}
	m.freed = true
	m.owner.allocated.Add(-m.size)
	m.words = nil
}

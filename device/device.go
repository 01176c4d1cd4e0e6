// Package device abstracts the accelerator an operation may run on: device
// memory used to stage arrays, and the launch of a grid of threads.
package device

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	// ErrUnsupportedLaunch is returned by devices that cannot run Go kernels
	ErrUnsupportedLaunch = errors.New("device cannot launch Go kernels")
	// ErrInvalidLaunch is returned for an empty grid or block
	ErrInvalidLaunch = errors.New("invalid launch configuration")
	// ErrFreed is returned when using memory after Free
	ErrFreed = errors.New("device memory already freed")
)

// Memory is a buffer in device memory
type Memory interface {
	CopyFrom(src unsafe.Pointer, bytes int64)
	CopyTo(dst unsafe.Pointer, bytes int64)
	Free()
}

// Mapped is device memory addressable from Go kernels launched on the same
// device
type Mapped interface {
	Memory
	Pointer() unsafe.Pointer
}

// Allocator allocates device memory, optionally initialised from src
type Allocator interface {
	Malloc(bytes int64, src unsafe.Pointer) (Memory, error)
}

// Dim3 represents 3D dimensions for grid/block
type Dim3 struct {
	X, Y, Z int
}

// D1 returns a one-dimensional Dim3
func D1(x int) Dim3 { return Dim3{X: x, Y: 1, Z: 1} }

// Size returns the number of entries covered
func (d Dim3) Size() int { return d.X * d.Y * d.Z }

func (d Dim3) String() string { return fmt.Sprintf("(%d,%d,%d)", d.X, d.Y, d.Z) }

// ThreadID identifies a thread within the execution hierarchy
type ThreadID struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3
}

// Global returns the linear id of the thread across the grid
func (t ThreadID) Global() int {
	block := t.BlockIdx.X + t.GridDim.X*(t.BlockIdx.Y+t.GridDim.Y*t.BlockIdx.Z)
	thread := t.ThreadIdx.X + t.BlockDim.X*(t.ThreadIdx.Y+t.BlockDim.Y*t.ThreadIdx.Z)
	return block*t.BlockDim.Size() + thread
}

// NumThreads returns the total number of threads in the grid
func (t ThreadID) NumThreads() int { return t.GridDim.Size() * t.BlockDim.Size() }

// KernelFunc is a function run once per thread of a launch
type KernelFunc func(tid ThreadID)

// Accelerator is a device able to hold memory and run a grid of threads
type Accelerator interface {
	Allocator
	Mode() string
	Launch(grid, block Dim3, kernel KernelFunc) error
	Finish() error
}

// FaultError reports a failure raised by a thread during a launch
type FaultError struct {
	Mode   string
	Block  Dim3
	Thread Dim3
	Value  any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s device fault in block %s thread %s: %v", e.Mode, e.Block, e.Thread, e.Value)
}

// Unwrap exposes the panic value when it was an error
func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

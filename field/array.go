package field

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/notargets/meshop/device"
)

var (
	// ErrNotMapped is returned when device data is not addressable from Go
	ErrNotMapped = errors.New("device memory is not mapped")
	// ErrNotResident is returned when the data is not current at the
	// requested location
	ErrNotResident = errors.New("array not resident")
	// ErrShape is returned for inconsistent array dimensions
	ErrShape = errors.New("invalid array shape")
)

// Location is a residency bitmask: which copies of an array are current
type Location uint8

const (
	Host Location = 1 << iota
	Device
	Both = Host | Device
)

func (l Location) String() string {
	switch l {
	case Host:
		return "host"
	case Device:
		return "device"
	case Both:
		return "host+device"
	default:
		return "none"
	}
}

// Resident is the type-independent residency contract of an array
type Resident interface {
	Name() string
	Location() Location
	// NeedOnDevice makes the device copy current, allocating it on alloc
	NeedOnDevice(alloc device.Allocator) error
	// NeedOnHost makes the host copy current
	NeedOnHost() error
	// MarkDeviceModified records a device-side write; the host copy is stale
	MarkDeviceModified()
	// Free releases device memory after recalling data to the host
	Free() error
	// DeviceMemory returns the device buffer, nil when not allocated
	DeviceMemory() device.Memory
	// DeviceAllocator returns the allocator holding the device buffer
	DeviceAllocator() device.Allocator
}

// Array is a named, fixed-length sequence of tuples of NumComponents values
type Array[T Scalar] struct {
	name  string
	ncomp int
	host  []T

	mu       sync.Mutex
	dev      device.Memory
	devAlloc device.Allocator
	loc      Location
}

// NewArray allocates a zeroed host array of ntuples tuples
func NewArray[T Scalar](name string, ncomp, ntuples int) *Array[T] {
	if ncomp < 1 || ntuples < 0 {
		panic(fmt.Sprintf("array %s: invalid shape %d×%d", name, ntuples, ncomp))
	}
	return &Array[T]{name: name, ncomp: ncomp, host: make([]T, ncomp*ntuples), loc: Host}
}

// Wrap adopts data as the host storage of an array of ncomp-tuples
func Wrap[T Scalar](name string, ncomp int, data []T) (*Array[T], error) {
	if ncomp < 1 || len(data)%ncomp != 0 {
		return nil, fmt.Errorf("%w: %s has %d values for %d components", ErrShape, name, len(data), ncomp)
	}
	return &Array[T]{name: name, ncomp: ncomp, host: data, loc: Host}, nil
}

func (a *Array[T]) Name() string       { return a.name }
func (a *Array[T]) NumComponents() int { return a.ncomp }
func (a *Array[T]) NumTuples() int     { return len(a.host) / a.ncomp }
func (a *Array[T]) Len() int           { return len(a.host) }
func (a *Array[T]) DataType() DataType { return DataTypeOf[T]() }

// SizeBytes returns the size of the data in bytes
func (a *Array[T]) SizeBytes() int64 {
	return int64(len(a.host)) * a.DataType().SizeOf()
}

func (a *Array[T]) Location() Location {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loc
}

// Host returns the host storage. It is only current while Location includes
// Host; call NeedOnHost first after device work.
func (a *Array[T]) Host() []T { return a.host }

// Values recalls the array to the host and returns its storage
func (a *Array[T]) Values() ([]T, error) {
	if err := a.NeedOnHost(); err != nil {
		return nil, err
	}
	return a.host, nil
}

// At returns component c of tuple i from the host copy
func (a *Array[T]) At(i, c int) T { return a.host[i*a.ncomp+c] }

// Set writes component c of tuple i on the host, invalidating the device copy
func (a *Array[T]) Set(i, c int, v T) {
	a.host[i*a.ncomp+c] = v
	a.mu.Lock()
	a.loc = Host
	a.mu.Unlock()
}

func (a *Array[T]) hostPtr() unsafe.Pointer {
	if len(a.host) == 0 {
		return nil
	}
	return unsafe.Pointer(&a.host[0])
}

func (a *Array[T]) NeedOnDevice(alloc device.Allocator) error {
	if alloc == nil {
		return fmt.Errorf("array %s: nil device allocator", a.name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	// Resident on another device: bring it home first
	if a.dev != nil && a.devAlloc != alloc {
		a.recallLocked()
		a.dev.Free()
		a.dev, a.devAlloc = nil, nil
		a.loc = Host
	}
	switch {
	case a.dev == nil:
		mem, err := alloc.Malloc(a.SizeBytes(), a.hostPtr())
		if err != nil {
			return fmt.Errorf("failed to allocate %s on device: %w", a.name, err)
		}
		a.dev, a.devAlloc = mem, alloc
		a.loc = Both
	case a.loc&Device == 0:
		a.dev.CopyFrom(a.hostPtr(), a.SizeBytes())
		a.loc = Both
	}
	return nil
}

func (a *Array[T]) NeedOnHost() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recallLocked()
	if a.loc&Host == 0 {
		return fmt.Errorf("%w: %s has no current copy", ErrNotResident, a.name)
	}
	return nil
}

func (a *Array[T]) recallLocked() {
	if a.loc&Host == 0 && a.dev != nil {
		a.dev.CopyTo(a.hostPtr(), a.SizeBytes())
		a.loc |= Host
	}
}

func (a *Array[T]) MarkDeviceModified() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev != nil {
		a.loc = Device
	}
}

func (a *Array[T]) Free() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil {
		return nil
	}
	a.recallLocked()
	a.dev.Free()
	a.dev, a.devAlloc = nil, nil
	a.loc = Host
	return nil
}

// DeviceMemory returns the device buffer, nil when not allocated
func (a *Array[T]) DeviceMemory() device.Memory {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dev
}

func (a *Array[T]) DeviceAllocator() device.Allocator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.devAlloc
}

// DeviceSlice returns a typed view of the device copy. The device memory must
// be mapped and current.
func (a *Array[T]) DeviceSlice() ([]T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dev == nil || a.loc&Device == 0 {
		return nil, fmt.Errorf("%w: %s on device", ErrNotResident, a.name)
	}
	if len(a.host) == 0 {
		return []T{}, nil
	}
	mapped, ok := a.dev.(device.Mapped)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMapped, a.name)
	}
	return unsafe.Slice((*T)(mapped.Pointer()), len(a.host)), nil
}

// Slice returns the data current at loc: the host storage or the mapped
// device copy
func (a *Array[T]) Slice(loc Location) ([]T, error) {
	if loc == Device {
		return a.DeviceSlice()
	}
	if a.Location()&Host == 0 {
		return nil, fmt.Errorf("%w: %s on host", ErrNotResident, a.name)
	}
	return a.host, nil
}

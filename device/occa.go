package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"
)

// OCCA adapts an OCCA device. It stages memory for OCCA kernels; it cannot
// launch Go kernels.
type OCCA struct {
	Device *gocca.OCCADevice
}

// NewOCCA wraps an existing OCCA device
func NewOCCA(device *gocca.OCCADevice) *OCCA {
	if device == nil {
		panic("nil OCCA device")
	}
	return &OCCA{Device: device}
}

// DefaultOCCABackends is the order tried by NewOCCADevice
var DefaultOCCABackends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

// NewOCCADevice creates the first OCCA device that initialises from the
// given property strings, DefaultOCCABackends when none are given
func NewOCCADevice(props ...string) (*OCCA, error) {
	if len(props) == 0 {
		props = DefaultOCCABackends
	}
	var lastErr error
	for _, p := range props {
		dev, err := gocca.NewDevice(p)
		if err == nil {
			return NewOCCA(dev), nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to create any OCCA device: %w", lastErr)
}

func (o *OCCA) Mode() string { return o.Device.Mode() }

// Malloc allocates OCCA device memory. Empty allocations are padded to one
// word so kernels always receive a valid pointer.
func (o *OCCA) Malloc(bytes int64, src unsafe.Pointer) (Memory, error) {
	if bytes < 0 {
		return nil, fmt.Errorf("invalid allocation size %d", bytes)
	}
	if bytes == 0 {
		bytes, src = 8, nil
	}
	mem := o.Device.Malloc(bytes, src, nil)
	if mem == nil {
		return nil, fmt.Errorf("%s device failed to allocate %d bytes", o.Mode(), bytes)
	}
	return &occaMemory{mem: mem}, nil
}

// Launch is unsupported, OCCA devices run OKL kernels only
func (o *OCCA) Launch(grid, block Dim3, kernel KernelFunc) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedLaunch, o.Mode())
}

func (o *OCCA) Finish() error {
	o.Device.Finish()
	return nil
}

// Free releases the underlying device
func (o *OCCA) Free() {
	o.Device.Free()
}

type occaMemory struct {
	mem *gocca.OCCAMemory
}

func (m *occaMemory) CopyFrom(src unsafe.Pointer, bytes int64) {
	if bytes > 0 {
		m.mem.CopyFrom(src, bytes)
	}
}

func (m *occaMemory) CopyTo(dst unsafe.Pointer, bytes int64) {
	if bytes > 0 {
		m.mem.CopyTo(dst, bytes)
	}
}

func (m *occaMemory) Free() {
	if m.mem != nil {
		m.mem.Free()
		m.mem = nil
	}
}

// OCCAMemory returns the OCCA buffer behind memory allocated by an OCCA device
func OCCAMemory(m Memory) (*gocca.OCCAMemory, bool) {
	om, ok := m.(*occaMemory)
	if !ok || om.mem == nil {
		return nil, false
	}
	return om.mem, true
}

// LaunchesGo reports false: Go kernels cannot run on an OCCA device
func (o *OCCA) LaunchesGo() bool { return false }

// CanLaunch reports whether Launch on a runs Go kernels
func CanLaunch(a Accelerator) bool {
	if l, ok := a.(interface{ LaunchesGo() bool }); ok {
		return l.LaunchesGo()
	}
	return true
}

package field

import (
	"errors"

	"github.com/notargets/meshop/device"
)

// Staging tracks the arrays one run promoted to a device. Arrays the run
// allocated are freed on Recall; arrays already resident on the same device
// stay resident. An array resident on another device is recalled from it by
// the promotion and counts as allocated by the run.
type Staging struct {
	dev    device.Allocator
	staged []Resident
	owned  map[Resident]bool
}

func NewStaging(dev device.Allocator) *Staging {
	return &Staging{dev: dev, owned: make(map[Resident]bool)}
}

// Promote makes every array current on the device, each array once
func (s *Staging) Promote(arrays ...Resident) error {
	for _, a := range arrays {
		if _, seen := s.owned[a]; seen {
			continue
		}
		s.owned[a] = a.DeviceMemory() == nil || a.DeviceAllocator() != s.dev
		s.staged = append(s.staged, a)
		if err := a.NeedOnDevice(s.dev); err != nil {
			return err
		}
	}
	return nil
}

// Discard drops the device copies of arrays whose device data is invalid.
// Their host copies are left as they were before the run.
func (s *Staging) Discard(arrays ...Resident) {
	for _, a := range arrays {
		if _, ok := s.owned[a]; ok && a.Location() == Both {
			_ = a.Free()
			s.owned[a] = false
		}
	}
}

// Recall brings every staged array back to the host, freeing the device
// memory the run allocated
func (s *Staging) Recall() error {
	var errs []error
	for _, a := range s.staged {
		var err error
		if s.owned[a] {
			err = a.Free()
		} else {
			err = a.NeedOnHost()
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package op

import (
	"errors"
	"fmt"

	"github.com/notargets/meshop/device"
	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

var (
	// ErrConfiguration wraps every error detected before iteration starts
	ErrConfiguration = errors.New("operation misconfigured")
	// ErrNoAccelerator is returned when accelerator execution is requested
	// and no usable device is configured
	ErrNoAccelerator = errors.New("no accelerator available")
	// ErrAcceleratorFault wraps a failure raised on the device during a run
	ErrAcceleratorFault = errors.New("accelerator fault")
	// ErrAlreadyRun is returned when a completed or failed op is run again
	ErrAlreadyRun = errors.New("operation already run")
)

// OpError reports a failed run of a named operation.
//
// The original underlying error can be accessed via errors.Unwrap.
type OpError struct {
	Op      string
	Backend string
	Err     error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("op %s on %s: %v", e.Op, e.Backend, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// classify tags an error with its class sentinel
func classify(err error) error {
	if err == nil {
		return nil
	}
	var fault *device.FaultError
	switch {
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrNoAccelerator),
		errors.Is(err, ErrAcceleratorFault):
		return err
	case errors.As(err, &fault):
		return fmt.Errorf("%w: %w", ErrAcceleratorFault, err)
	case isConfiguration(err):
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return err
}

func isConfiguration(err error) bool {
	for _, target := range []error{
		ErrConfiguration,
		mesh.ErrUnsupportedCellSet,
		mesh.ErrArityExceeded,
		mesh.ErrElementOutOfRange,
		mesh.ErrRelationUnsupported,
		mesh.ErrInvalidMesh,
		field.ErrIndexOutOfRange,
		field.ErrLengthMismatch,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewError wraps err from a run of op on backend, tagged with its class
func NewError(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Backend: backend, Err: classify(err)}
}

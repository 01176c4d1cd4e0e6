package op

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/notargets/meshop/device"
	"github.com/notargets/meshop/dispatch"
	"github.com/notargets/meshop/partitions"
)

var (
	// ErrInvalidMode is returned for an unknown execution mode
	ErrInvalidMode = errors.New("invalid execution mode")
	// ErrInvalidLaunch is returned for negative worker or grid sizes
	ErrInvalidLaunch = errors.New("invalid launch size")
	// ErrInvalidPartitioning is returned for an unknown host partition strategy
	ErrInvalidPartitioning = errors.New("invalid partitioning")
)

// ExecutionMode chooses between host and accelerator execution in Run
type ExecutionMode int

const (
	ForceHost ExecutionMode = iota
	ForceAccelerator
	PreferHost
	PreferAccelerator
)

func (m ExecutionMode) String() string {
	switch m {
	case ForceHost:
		return "force-host"
	case ForceAccelerator:
		return "force-accelerator"
	case PreferHost:
		return "prefer-host"
	case PreferAccelerator:
		return "prefer-accelerator"
	default:
		return fmt.Sprintf("ExecutionMode(%d)", int(m))
	}
}

// Config controls how an operation executes
type Config struct {
	Mode ExecutionMode
	// Workers is the host parallelism, serial when <= 1
	Workers int
	// Partitioning splits the dense range between host workers
	Partitioning partitions.PartitionStrategy
	// Blocks and Threads size the accelerator launch, 32x256 when 0
	Blocks  int
	Threads int
	// Accelerator runs RunOnAccelerator; nil means none is available
	Accelerator device.Accelerator
	Logger      *Logger
}

// DefaultConfig runs on the host with one worker per CPU
func DefaultConfig() Config {
	return Config{
		Mode:    PreferHost,
		Workers: runtime.GOMAXPROCS(0),
		Blocks:  dispatch.DefaultBlocks,
		Threads: dispatch.DefaultThreads,
		Logger:  NoopLogger(),
	}
}

// Validate checks the configuration values
func (c Config) Validate() error {
	if c.Mode < ForceHost || c.Mode > PreferAccelerator {
		return fmt.Errorf("%w: %w: %s", ErrConfiguration, ErrInvalidMode, c.Mode)
	}
	if c.Partitioning != partitions.BlockPartition && c.Partitioning != partitions.RoundRobin {
		return fmt.Errorf("%w: %w: partitioning %s", ErrConfiguration, ErrInvalidPartitioning, c.Partitioning)
	}
	if c.Workers < 0 || c.Blocks < 0 || c.Threads < 0 {
		return fmt.Errorf("%w: %w: workers %d, grid %dx%d",
			ErrConfiguration, ErrInvalidLaunch, c.Workers, c.Blocks, c.Threads)
	}
	return nil
}

func (c Config) logger() *Logger {
	if c.Logger == nil {
		return NoopLogger()
	}
	return c.Logger
}

func (c Config) hostBackend() dispatch.Host {
	return dispatch.Host{Workers: c.Workers, Strategy: c.Partitioning}
}

func (c Config) gridBackend() dispatch.Grid {
	return dispatch.Grid{Device: c.Accelerator, Blocks: c.Blocks, Threads: c.Threads}
}

// hasAccelerator reports whether Go kernels can run on the configured device
func (c Config) hasAccelerator() bool {
	return c.Accelerator != nil && device.CanLaunch(c.Accelerator)
}

package op

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/meshop/device"
	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/functors"
	"github.com/notargets/meshop/mesh"
	"github.com/notargets/meshop/partitions"
)

func TestNewError_Classes(t *testing.T) {
	fault := &device.FaultError{Mode: "Emulator", Value: "boom"}
	tests := []struct {
		name  string
		err   error
		class error
	}{
		{"mesh", fmt.Errorf("resolve: %w", mesh.ErrInvalidMesh), ErrConfiguration},
		{"index", field.ErrIndexOutOfRange, ErrConfiguration},
		{"fault", fmt.Errorf("launch: %w", fault), ErrAcceleratorFault},
		{"no accelerator", ErrNoAccelerator, ErrNoAccelerator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("avg", "host", tt.err)
			assert.ErrorIs(t, err, tt.class)
			assert.ErrorIs(t, err, tt.err)

			var opErr *OpError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, "avg", opErr.Op)
			assert.Equal(t, "host", opErr.Backend)
			assert.True(t, strings.HasPrefix(err.Error(), "op avg on host: "))
		})
	}

	other := errors.New("disk full")
	err := NewError("avg", "host", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.NoError(t, NewError("avg", "host", nil))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Mode = ExecutionMode(9)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidMode)
	assert.ErrorIs(t, cfg.Validate(), ErrConfiguration)

	cfg = DefaultConfig()
	cfg.Partitioning = partitions.PartitionStrategy(7)
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidPartitioning)

	cfg = DefaultConfig()
	cfg.Threads = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidLaunch)

	// an invalid configuration fails the run before anything executes
	out := field.NewArray[int64]("sum", 1, 1)
	g := NewGatherMap("sum", structured(t, 2, 2), mesh.PointsOfCells, field.None{},
		field.Of1(out), field.Identity("cells", 1), functors.SumIDs, cfg)
	assert.ErrorIs(t, g.Run(context.Background()), ErrInvalidLaunch)
}

func TestLogger_RunRecords(t *testing.T) {
	var buf bytes.Buffer
	cfg := hostConfig(1)
	cfg.Logger = NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	out := field.NewArray[int64]("sum", 1, 1)
	g := NewGatherMap("corner-sum", structured(t, 2, 2), mesh.PointsOfCells, field.None{},
		field.Of1(out), field.NewIndexArray("idx", []int32{5}), functors.SumIDs, cfg)
	require.Error(t, g.Run(context.Background()))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "gather run failed", rec["msg"])
	assert.Equal(t, "corner-sum", rec["op"])
	assert.Equal(t, "host", rec["backend"])
	assert.Contains(t, rec["error"], "index out of range")
}

func TestLogger_StagingRecords(t *testing.T) {
	var buf bytes.Buffer
	cfg, _ := emulatorConfig()
	cfg.Logger = NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	out := field.NewArray[int64]("sum", 1, 1)
	g := NewGatherMap("sum", twoTriangles(t), mesh.PointsOfCells, field.None{},
		field.Of1(out), field.Identity("cells", 1), functors.SumIDs, cfg)
	require.NoError(t, g.Run(context.Background()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"direction":"promote"`)
	assert.Contains(t, lines[1], `"direction":"recall"`)
	assert.Contains(t, lines[2], "gather run completed")
}

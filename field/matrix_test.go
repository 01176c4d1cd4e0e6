package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/meshop/device"
)

func TestMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	a := FromMatrix("m", m)
	assert.Equal(t, 3, a.NumComponents())
	assert.Equal(t, 2, a.NumTuples())
	assert.Equal(t, 6.0, a.At(1, 2))

	back, err := ToMatrix(a)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))
}

func TestToMatrix_RecallsDevice(t *testing.T) {
	em := device.NewEmulator()
	a, err := Wrap("ids", 2, []int32{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, a.NeedOnDevice(em))
	dev, err := a.DeviceSlice()
	require.NoError(t, err)
	dev[3] = 40
	a.MarkDeviceModified()

	m, err := ToMatrix(a)
	require.NoError(t, err)
	assert.Equal(t, 40.0, m.At(1, 1))

	_, err = ToMatrix(NewArray[float64]("empty", 1, 0))
	assert.ErrorIs(t, err, ErrShape)
}

package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/meshop/device"
)

func TestStaging_PromoteRecall(t *testing.T) {
	em := device.NewEmulator()
	in, err := Wrap("in", 1, []float64{1, 2})
	require.NoError(t, err)
	out := NewArray[float64]("out", 1, 2)

	// already resident arrays stay resident after the run
	resident := NewArray[int32]("resident", 1, 3)
	require.NoError(t, resident.NeedOnDevice(em))

	s := NewStaging(em)
	require.NoError(t, s.Promote(in, out, resident, in))
	for _, a := range []Resident{in, out, resident} {
		assert.Equal(t, Both, a.Location(), a.Name())
	}

	dev, err := out.DeviceSlice()
	require.NoError(t, err)
	dev[0], dev[1] = 3, 4
	out.MarkDeviceModified()

	require.NoError(t, s.Recall())
	assert.Equal(t, []float64{3, 4}, out.Host())
	assert.Nil(t, in.DeviceMemory())
	assert.Nil(t, out.DeviceMemory())
	assert.NotNil(t, resident.DeviceMemory())
	assert.EqualValues(t, 12, em.Allocated())
	require.NoError(t, resident.Free())
}

func TestStaging_Discard(t *testing.T) {
	em := device.NewEmulator()
	out, err := Wrap("out", 1, []float64{5, 6})
	require.NoError(t, err)

	s := NewStaging(em)
	require.NoError(t, s.Promote(out))
	dev, err := out.DeviceSlice()
	require.NoError(t, err)
	dev[0] = 99

	s.Discard(out)
	require.NoError(t, s.Recall())
	assert.Equal(t, []float64{5, 6}, out.Host())
	assert.Zero(t, em.Allocated())
}

func TestStaging_ArrayFromOtherDevice(t *testing.T) {
	em, other := device.NewEmulator(), device.NewEmulator()
	u, err := Wrap("u", 1, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	require.NoError(t, u.NeedOnDevice(other))
	dev, err := u.DeviceSlice()
	require.NoError(t, err)
	dev[2] = 30
	u.MarkDeviceModified()

	s := NewStaging(em)
	require.NoError(t, s.Promote(u))
	assert.Same(t, em, u.DeviceAllocator())
	assert.Zero(t, other.Allocated())
	assert.EqualValues(t, 32, em.Allocated())

	// the run allocated u on em, so Recall frees it
	require.NoError(t, s.Recall())
	assert.Zero(t, em.Allocated())
	assert.Nil(t, u.DeviceAllocator())
	assert.Equal(t, Host, u.Location())
	assert.Equal(t, []float64{1, 2, 30, 4}, u.Host())
}

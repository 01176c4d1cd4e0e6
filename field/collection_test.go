package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuple_LenIsShortest(t *testing.T) {
	a := NewArray[float64]("a", 1, 5)
	b := NewArray[int32]("b", 1, 3)
	c := NewArray[float32]("c", 1, 4)

	assert.Equal(t, 5, Of1(a).Len())
	assert.Equal(t, 3, Of2(a, b).Len())
	assert.Equal(t, 3, Of3(a, b, c).Len())
	assert.Equal(t, math.MaxInt, None{}.Len())
}

func TestTuple_ArraysDeduplicated(t *testing.T) {
	coords := NewArray[float64]("coords", 3, 2)
	other := NewArray[float64]("other", 1, 2)

	assert.Len(t, Components(coords).Arrays(), 1)
	assert.Len(t, Of2(coords, other).Arrays(), 2)
	assert.Len(t, Of3(other, coords, other).Arrays(), 2)
	assert.Nil(t, None{}.Arrays())
}

func TestTuple_BindHost(t *testing.T) {
	coords, err := Wrap("coords", 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	v, err := Components(coords).Bind(Host)
	require.NoError(t, err)
	p := v.Get(1)
	assert.Equal(t, Triple[float64, float64, float64]{First: 4, Second: 5, Third: 6}, p)

	v.Set(0, Triple[float64, float64, float64]{First: -1, Second: -2, Third: -3})
	assert.Equal(t, []float64{-1, -2, -3, 4, 5, 6}, coords.Host())

	ids := NewArray[int32]("ids", 1, 2)
	w := NewArray[float32]("w", 1, 2)
	v2, err := Of2(ids, w).Bind(Host)
	require.NoError(t, err)
	v2.Set(1, Pair[int32, float32]{First: 7, Second: 0.5})
	assert.Equal(t, Pair[int32, float32]{First: 7, Second: 0.5}, v2.Get(1))
	assert.Equal(t, int32(7), v2.X0.Get(1))
}

func TestTuple_BindDeviceNotResident(t *testing.T) {
	a := NewArray[float64]("a", 1, 2)
	_, err := Of1(a).Bind(Device)
	assert.ErrorIs(t, err, ErrNotResident)

	_, err = Of3(a, a, a).Bind(Device)
	assert.ErrorIs(t, err, ErrNotResident)
}

package functors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

func TestIDFunctors(t *testing.T) {
	assert.Equal(t, int64(28), SumIDs(mesh.Hex, []int{0, 1, 3, 2, 4, 5, 7, 6}, field.None{}))
	assert.Equal(t, int64(0), SumIDs(mesh.Vertex, nil, field.None{}))
	assert.Equal(t, int32(3), Count(mesh.Tri, []int{4, 5, 6}, field.None{}))
}

func TestReductions(t *testing.T) {
	u, err := field.Wrap("u", 1, []float64{4, -2, 9, 1})
	require.NoError(t, err)
	view, err := field.Of1(u).Bind(field.Host)
	require.NoError(t, err)

	tests := []struct {
		name string
		f    func(mesh.Shape, []int, field.View1[float64]) float64
		ids  []int
		want float64
	}{
		{"average", Average, []int{0, 1, 2}, 11.0 / 3},
		{"average single", Average, []int{3}, 1},
		{"average empty", Average, nil, 0},
		{"max", Max, []int{0, 1, 3}, 4},
		{"max repeated", Max, []int{2, 2}, 9},
		{"max empty", Max, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.f(mesh.Tri, tt.ids, view), 1e-12)
		})
	}

	ids, err := field.Wrap("n", 1, []int32{3, 5})
	require.NoError(t, err)
	iview, err := field.Of1(ids).Bind(field.Host)
	require.NoError(t, err)
	assert.Equal(t, 4.0, AverageOf(mesh.Line, []int{0, 1}, iview))
}

func TestCentroid(t *testing.T) {
	coords, err := field.Wrap("coords", 3, []float64{
		0, 0, 0,
		2, 0, 0,
		0, 4, 0,
		0, 0, 6,
	})
	require.NoError(t, err)
	view, err := field.Components(coords).Bind(field.Host)
	require.NoError(t, err)

	c := Centroid(mesh.Tet, []int{0, 1, 2, 3}, view)
	assert.InDelta(t, 0.5, c.First, 1e-12)
	assert.InDelta(t, 1.0, c.Second, 1e-12)
	assert.InDelta(t, 1.5, c.Third, 1e-12)

	assert.Equal(t, Point{}, Centroid(mesh.Tet, nil, view))
}

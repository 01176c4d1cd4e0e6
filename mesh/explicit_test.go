package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two triangles sharing the edge 1-2
func twoTriangles(t *testing.T) *Explicit {
	t.Helper()
	ex, err := NewExplicit(4, []Shape{Tri, Tri}, [][]int{{0, 1, 2}, {1, 3, 2}})
	require.NoError(t, err)
	return ex
}

func TestExplicit_RoundTrip(t *testing.T) {
	cellPoints := [][]int{{0, 1, 2}, {1, 3, 2}, {2, 3, 5, 4}}
	shapes := []Shape{Tri, Tri, Quad}
	ex, err := NewExplicit(6, shapes, cellPoints)
	require.NoError(t, err)
	assert.Equal(t, 3, ex.NumCells())
	assert.Equal(t, 6, ex.NumPoints())

	ec, err := ex.Connectivity(PointsOfCells)
	require.NoError(t, err)
	assert.Equal(t, 4, ec.MaxArity())
	for c, want := range cellPoints {
		shape, ids := components(t, ec, c)
		assert.Equal(t, shapes[c], shape)
		assert.Equal(t, want, ids)
	}
}

func TestExplicit_DerivedEdges(t *testing.T) {
	ex := twoTriangles(t)

	cellEdges, err := ex.Connectivity(EdgesOfCells)
	require.NoError(t, err)
	edgePts, err := ex.Connectivity(PointsOfEdges)
	require.NoError(t, err)
	assert.Equal(t, 5, edgePts.NumElements())

	_, e0 := components(t, cellEdges, 0)
	_, e1 := components(t, cellEdges, 1)
	assert.Equal(t, []int{0, 1, 2}, e0)
	assert.Equal(t, []int{3, 4, 1}, e1)

	shape, pts := components(t, edgePts, 1)
	assert.Equal(t, Line, shape)
	assert.Equal(t, []int{1, 2}, pts)

	// cached
	again, err := ex.Connectivity(EdgesOfCells)
	require.NoError(t, err)
	assert.Same(t, cellEdges, again)
}

func TestExplicit_DerivedFaces(t *testing.T) {
	t.Run("2D cells are their own faces", func(t *testing.T) {
		ex := twoTriangles(t)
		cellFaces, err := ex.Connectivity(FacesOfCells)
		require.NoError(t, err)
		_, f1 := components(t, cellFaces, 1)
		assert.Equal(t, []int{1}, f1)

		facePts, err := ex.Connectivity(PointsOfFaces)
		require.NoError(t, err)
		shape, pts := components(t, facePts, 1)
		assert.Equal(t, Tri, shape)
		assert.Equal(t, []int{1, 3, 2}, pts)
	})

	t.Run("two hexes share one face", func(t *testing.T) {
		rs, err := NewRegularStructure(3, 2, 2)
		require.NoError(t, err)
		rc, err := NewRegularConnectivity(rs, PointsOfCells)
		require.NoError(t, err)
		_, c0 := components(t, rc, 0)
		_, c1 := components(t, rc, 1)
		ex, err := NewExplicit(rs.NumPoints(), []Shape{Hex, Hex}, [][]int{c0, c1})
		require.NoError(t, err)

		facePts, err := ex.Connectivity(PointsOfFaces)
		require.NoError(t, err)
		assert.Equal(t, 11, facePts.NumElements())

		cellFaces, err := ex.Connectivity(FacesOfCells)
		require.NoError(t, err)
		_, f0 := components(t, cellFaces, 0)
		_, f1 := components(t, cellFaces, 1)
		// i-max face of cell 0 is the i-min face of cell 1
		assert.Equal(t, f0[1], f1[0])
	})
}

func TestExplicit_CellsOfPoints(t *testing.T) {
	ex := twoTriangles(t)
	ec, err := ex.Connectivity(CellsOfPoints)
	require.NoError(t, err)
	assert.Equal(t, 4, ec.NumElements())

	tests := map[int][]int{0: {0}, 1: {0, 1}, 2: {0, 1}, 3: {1}}
	for point, want := range tests {
		shape, ids := components(t, ec, point)
		assert.Equal(t, Vertex, shape)
		assert.Equal(t, want, ids, "point %d", point)
	}
}

func TestExplicit_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		npts   int
		shapes []Shape
		cells  [][]int
	}{
		{"shape count", 3, []Shape{Tri}, [][]int{{0, 1, 2}, {0, 1, 2}}},
		{"vertex count", 4, []Shape{Quad}, [][]int{{0, 1, 2}}},
		{"point range", 3, []Shape{Tri}, [][]int{{0, 1, 3}}},
		{"negative point", 3, []Shape{Tri}, [][]int{{0, -1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExplicit(tt.npts, tt.shapes, tt.cells)
			assert.ErrorIs(t, err, ErrInvalidMesh)
		})
	}
}

func TestExplicitConnectivity_ArityExceeded(t *testing.T) {
	poly := make([]int, MaxLocalIDs+1)
	for i := range poly {
		poly[i] = i
	}
	ex, err := NewExplicit(len(poly), []Shape{Polygon}, [][]int{poly})
	require.NoError(t, err)
	ec, err := ex.Connectivity(PointsOfCells)
	require.NoError(t, err)
	assert.Equal(t, MaxLocalIDs+1, ec.MaxArity())

	ids := make([]int, MaxLocalIDs)
	_, n, err := ec.ElementComponents(0, ids)
	assert.ErrorIs(t, err, ErrArityExceeded)
	assert.Zero(t, n)

	_, _, err = ec.ElementComponents(1, ids)
	assert.ErrorIs(t, err, ErrElementOutOfRange)
}

func TestExplicitTables_MatchConnectivity(t *testing.T) {
	ex := twoTriangles(t)
	ec, err := ex.Connectivity(EdgesOfCells)
	require.NoError(t, err)
	shapes, conn, offsets := ec.Tables()
	et := ExplicitTables{Shapes: shapes, Conn: conn, Offsets: offsets, Arity: ec.MaxArity()}

	assert.Equal(t, ec.NumElements(), et.NumElements())
	for id := 0; id < ec.NumElements(); id++ {
		s1, want := components(t, ec, id)
		s2, got := components(t, et, id)
		assert.Equal(t, s1, s2)
		assert.Equal(t, want, got)
	}
}

func TestMaterialize(t *testing.T) {
	rs, err := NewRegularStructure(3, 4)
	require.NoError(t, err)
	rc, err := NewRegularConnectivity(rs, CellsOfPoints)
	require.NoError(t, err)

	ec, err := Materialize(rc)
	require.NoError(t, err)
	require.Equal(t, rc.NumElements(), ec.NumElements())
	for id := 0; id < rc.NumElements(); id++ {
		_, want := components(t, rc, id)
		_, got := components(t, ec, id)
		assert.Equal(t, want, got)
	}
}

package mesh

import (
	"path/filepath"
	"testing"

	gmesh "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testElement struct {
	et    utils.ElementType
	nodes []int // 1-based node ids
}

func buildMesh(t *testing.T, npts int, elements []testElement) *gmesh.Mesh {
	t.Helper()
	msh := gmesh.NewMesh()
	for n := 1; n <= npts; n++ {
		msh.AddNode(n, []float64{float64(n), float64(2 * n), float64(3 * n)})
	}
	for k, e := range elements {
		require.NoError(t, msh.AddElement(k+1, e.et, nil, e.nodes))
	}
	return msh
}

func TestExplicitFromMesh(t *testing.T) {
	tests := []struct {
		name      string
		npts      int
		elements  []testElement
		shapes    []Shape
		points    [][]int
		elementID []int
		faces     int
	}{
		{
			name: "tet and hex with boundary quad",
			npts: 12,
			elements: []testElement{
				{utils.Tet, []int{1, 2, 3, 4}},
				{utils.Quad, []int{5, 6, 7, 8}},
				{utils.Hex, []int{5, 6, 7, 8, 9, 10, 11, 12}},
			},
			shapes:    []Shape{Tet, Hex},
			points:    [][]int{{0, 1, 2, 3}, {4, 5, 6, 7, 8, 9, 10, 11}},
			elementID: []int{0, 2},
			faces:     10,
		},
		{
			name: "2D quad and triangle",
			npts: 5,
			elements: []testElement{
				{utils.Line, []int{1, 2}},
				{utils.Quad, []int{1, 2, 3, 4}},
				{utils.Triangle, []int{2, 5, 3}},
			},
			shapes:    []Shape{Quad, Tri},
			points:    [][]int{{0, 1, 2, 3}, {1, 4, 2}},
			elementID: []int{1, 2},
			faces:     2,
		},
		{
			name: "quadratic tet keeps corners",
			npts: 10,
			elements: []testElement{
				{utils.Tet10, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
			},
			shapes:    []Shape{Tet},
			points:    [][]int{{0, 1, 2, 3}},
			elementID: []int{0},
			faces:     4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, err := ExplicitFromMesh(buildMesh(t, tt.npts, tt.elements))
			require.NoError(t, err)
			assert.Equal(t, tt.npts, imp.Cells.NumPoints())
			assert.Equal(t, len(tt.shapes), imp.Cells.NumCells())
			assert.Equal(t, tt.elementID, imp.Elements)

			ec, err := imp.Cells.Connectivity(PointsOfCells)
			require.NoError(t, err)
			for c := range tt.shapes {
				shape, ids := components(t, ec, c)
				assert.Equal(t, tt.shapes[c], shape, "cell %d", c)
				assert.Equal(t, tt.points[c], ids, "cell %d", c)
			}

			faces, err := NewExplicitCellSet(imp.Cells).NumElements(Faces)
			require.NoError(t, err)
			assert.Equal(t, tt.faces, faces)

			require.Len(t, imp.Coords, 3*tt.npts)
			assert.Equal(t, []float64{2, 4, 6}, imp.Coords[3:6])
		})
	}
}

func TestShapeOf(t *testing.T) {
	tests := map[utils.ElementType]Shape{
		utils.Point:     Vertex,
		utils.Line3:     Line,
		utils.Triangle6: Tri,
		utils.Quad9:     Quad,
		utils.Prism:     Wedge,
		utils.Pyramid13: Pyramid,
		utils.Hex27:     Hex,
		utils.Unknown:   Unknown,
	}
	for et, want := range tests {
		assert.Equal(t, want, ShapeOf(et), et.String())
	}
}

func TestExplicitFromMesh_Errors(t *testing.T) {
	_, err := ReadExplicit(filepath.Join(t.TempDir(), "missing.neu"))
	assert.ErrorContains(t, err, "failed to read mesh")

	_, err = ExplicitFromMesh(nil)
	assert.ErrorIs(t, err, ErrInvalidMesh)

	msh := buildMesh(t, 4, []testElement{{utils.Tet, []int{1, 2, 3, 4}}})
	msh.ElementTypes = nil
	_, err = ExplicitFromMesh(msh)
	assert.ErrorIs(t, err, ErrInvalidMesh)

	msh = buildMesh(t, 4, []testElement{{utils.Unknown, []int{1, 2, 3, 4}}})
	_, err = ExplicitFromMesh(msh)
	assert.ErrorIs(t, err, ErrInvalidMesh)

	msh = buildMesh(t, 4, []testElement{{utils.Hex, []int{1, 2, 3, 4}}})
	_, err = ExplicitFromMesh(msh)
	assert.ErrorIs(t, err, ErrInvalidMesh)
}

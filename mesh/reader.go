package mesh

import (
	"fmt"

	gmesh "github.com/notargets/gocfd/DG3D/mesh"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
	"github.com/notargets/gocfd/utils"
)

// Imported is an explicit cell set read from a mesh file, with the point
// coordinates as flat xyz triples
type Imported struct {
	Cells  *Explicit
	Coords []float64 // 3 components per point
	// Elements maps each cell to its element index in the source mesh
	Elements []int
}

// ReadExplicit reads a mesh file (.neu, .msh, .su2) into an explicit cell set
func ReadExplicit(path string) (*Imported, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mesh %s: %w", path, err)
	}
	return ExplicitFromMesh(msh)
}

// ShapeOf maps a gocfd element type to its linear shape; higher order
// elements map to the shape of their corner nodes
func ShapeOf(et utils.ElementType) Shape {
	return ShapeForVertexCount(et.GetDimension(), len(et.GetCornerNodes()))
}

// ExplicitFromMesh converts a gocfd mesh into an explicit cell set. The cells
// are the elements of the highest dimension present; lower dimensional
// boundary elements are skipped. Each cell keeps only its corner nodes.
func ExplicitFromMesh(msh *gmesh.Mesh) (*Imported, error) {
	if msh == nil {
		return nil, fmt.Errorf("%w: nil mesh", ErrInvalidMesh)
	}
	if len(msh.ElementTypes) != len(msh.EtoV) {
		return nil, fmt.Errorf("%w: %d element types for %d elements",
			ErrInvalidMesh, len(msh.ElementTypes), len(msh.EtoV))
	}

	dim := -1
	for k, et := range msh.ElementTypes {
		if ShapeOf(et) == Unknown {
			return nil, fmt.Errorf("%w: element %d has unsupported type %s", ErrInvalidMesh, k, et)
		}
		dim = max(dim, et.GetDimension())
	}
	elements, etov, types := msh.FilterByDimension(dim)

	shapes := make([]Shape, len(etov))
	cellPoints := make([][]int, len(etov))
	for c, verts := range etov {
		corners := types[c].GetCornerNodes()
		if len(verts) < len(corners) {
			return nil, fmt.Errorf("%w: element %d is %s with %d nodes",
				ErrInvalidMesh, elements[c], types[c], len(verts))
		}
		shapes[c] = ShapeOf(types[c])
		cellPoints[c] = make([]int, len(corners))
		for i, n := range corners {
			cellPoints[c][i] = verts[n]
		}
	}
	ex, err := NewExplicit(len(msh.Vertices), shapes, cellPoints)
	if err != nil {
		return nil, err
	}

	coords := make([]float64, 3*len(msh.Vertices))
	for i, v := range msh.Vertices {
		copy(coords[3*i:3*i+3], v)
	}
	return &Imported{Cells: ex, Coords: coords, Elements: elements}, nil
}

package mesh

import "fmt"

// Shape identifies the geometry of a topological element
type Shape uint8

const (
	Unknown Shape = iota
	Vertex
	Line
	Tri
	Quad
	Polygon // arbitrary vertex count, 2D
	Tet
	Pyramid
	Wedge // triangular prism
	Hex
)

// MaxLocalIDs bounds the number of ids a single element may reference on any
// relation. A hex has 12 edges, which is the largest fixed arity supported.
const MaxLocalIDs = 12

func (s Shape) String() string {
	switch s {
	case Vertex:
		return "Vertex"
	case Line:
		return "Line"
	case Tri:
		return "Tri"
	case Quad:
		return "Quad"
	case Polygon:
		return "Polygon"
	case Tet:
		return "Tet"
	case Pyramid:
		return "Pyramid"
	case Wedge:
		return "Wedge"
	case Hex:
		return "Hex"
	default:
		return fmt.Sprintf("Shape(%d)", uint8(s))
	}
}

// Dimension returns the topological dimension of the shape
func (s Shape) Dimension() int {
	switch s {
	case Vertex:
		return 0
	case Line:
		return 1
	case Tri, Quad, Polygon:
		return 2
	case Tet, Pyramid, Wedge, Hex:
		return 3
	default:
		return -1
	}
}

// NumVertices returns the fixed vertex count of the shape, or 0 for shapes
// without one (Polygon, Unknown)
func (s Shape) NumVertices() int {
	switch s {
	case Vertex:
		return 1
	case Line:
		return 2
	case Tri:
		return 3
	case Quad, Tet:
		return 4
	case Pyramid:
		return 5
	case Wedge:
		return 6
	case Hex:
		return 8
	default:
		return 0
	}
}

// Local edge tables, expressed in local vertex indices. Winding follows the
// cell→point ordering used by both connectivity encodings.
var shapeEdges = map[Shape][][2]int{
	Line:    {{0, 1}},
	Tri:     {{0, 1}, {1, 2}, {2, 0}},
	Quad:    {{0, 1}, {1, 2}, {2, 3}, {3, 0}},
	Tet:     {{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3}},
	Pyramid: {{0, 1}, {1, 2}, {2, 3}, {3, 0}, {0, 4}, {1, 4}, {2, 4}, {3, 4}},
	Wedge:   {{0, 1}, {1, 2}, {2, 0}, {3, 4}, {4, 5}, {5, 3}, {0, 3}, {1, 4}, {2, 5}},
	Hex: {
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	},
}

// Local face tables for 3D shapes
var shapeFaces = map[Shape][][]int{
	Tet:     {{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {0, 2, 1}},
	Pyramid: {{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}},
	Wedge:   {{0, 2, 1}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}},
	Hex: {
		{0, 4, 7, 3}, {1, 2, 6, 5},
		{0, 1, 5, 4}, {3, 7, 6, 2},
		{0, 3, 2, 1}, {4, 5, 6, 7},
	},
}

// Edges returns the local edge table of the shape. Polygons derive their
// edges from the vertex count, see polygonEdges.
func (s Shape) Edges() [][2]int {
	return shapeEdges[s]
}

// Faces returns the local face table of a 3D shape, nil otherwise
func (s Shape) Faces() [][]int {
	return shapeFaces[s]
}

func polygonEdges(n int) [][2]int {
	edges := make([][2]int, n)
	for i := 0; i < n; i++ {
		edges[i] = [2]int{i, (i + 1) % n}
	}
	return edges
}

// ShapeForVertexCount classifies an element of the given dimension by its
// vertex count. It returns Unknown when no shape matches.
func ShapeForVertexCount(dim, nverts int) Shape {
	switch dim {
	case 0:
		if nverts == 1 {
			return Vertex
		}
	case 1:
		if nverts == 2 {
			return Line
		}
	case 2:
		switch {
		case nverts == 3:
			return Tri
		case nverts == 4:
			return Quad
		case nverts > 4:
			return Polygon
		}
	case 3:
		switch nverts {
		case 4:
			return Tet
		case 5:
			return Pyramid
		case 6:
			return Wedge
		case 8:
			return Hex
		}
	}
	return Unknown
}

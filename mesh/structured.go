package mesh

import "fmt"

// RegularStructure describes a logical i/j/k grid by its point dimensions.
// Axes of extent 1 are collapsed, so {5, 1, 3} is a 2D grid of 5×3 points.
type RegularStructure struct {
	n   [3]int // point dims of the active axes, padded with 1
	dim int    // number of active axes
}

// NewRegularStructure builds a structure from point dimensions
func NewRegularStructure(dims ...int) (RegularStructure, error) {
	var rs RegularStructure
	if len(dims) == 0 || len(dims) > 3 {
		return rs, fmt.Errorf("%w: %d grid dimensions", ErrInvalidMesh, len(dims))
	}
	rs.n = [3]int{1, 1, 1}
	for _, d := range dims {
		if d < 1 {
			return rs, fmt.Errorf("%w: point dimension %d", ErrInvalidMesh, d)
		}
		if d > 1 {
			rs.n[rs.dim] = d
			rs.dim++
		}
	}
	if rs.dim == 0 {
		return rs, fmt.Errorf("%w: grid %v has no cells", ErrInvalidMesh, dims)
	}
	return rs, nil
}

// Dimension returns the number of logical axes
func (rs RegularStructure) Dimension() int { return rs.dim }

// PointDims returns the point extent of each logical axis
func (rs RegularStructure) PointDims() [3]int { return rs.n }

// CellDims returns the cell extent of each logical axis
func (rs RegularStructure) CellDims() [3]int {
	c := [3]int{1, 1, 1}
	for a := 0; a < rs.dim; a++ {
		c[a] = rs.n[a] - 1
	}
	return c
}

func (rs RegularStructure) NumPoints() int { return rs.n[0] * rs.n[1] * rs.n[2] }

func (rs RegularStructure) NumCells() int {
	c := rs.CellDims()
	return c[0] * c[1] * c[2]
}

func (rs RegularStructure) cellShape() Shape {
	switch rs.dim {
	case 1:
		return Line
	case 2:
		return Quad
	default:
		return Hex
	}
}

// extent of axis-aligned sub-entities: per axis, the point extent minus one
// along the entity's own span
func (rs RegularStructure) extent(span [3]bool) [3]int {
	e := rs.n
	for a := 0; a < 3; a++ {
		if span[a] {
			e[a]--
		}
	}
	return e
}

func count(e [3]int) int { return e[0] * e[1] * e[2] }

func flat(e [3]int, ijk [3]int) int { return ijk[0] + e[0]*(ijk[1]+e[1]*ijk[2]) }

func unflat(e [3]int, id int) [3]int {
	i := id % e[0]
	id /= e[0]
	return [3]int{i, id % e[1], id / e[1]}
}

// edgeSpan marks the single axis an axis-a edge spans
func edgeSpan(a int) (s [3]bool) {
	s[a] = true
	return
}

// faceSpan marks the two axes spanned by a face normal to axis a
func faceSpan(a int) (s [3]bool) {
	for b := 0; b < 3; b++ {
		s[b] = b != a
	}
	return
}

func (rs RegularStructure) NumEdges() int {
	total := 0
	for a := 0; a < rs.dim; a++ {
		total += count(rs.extent(edgeSpan(a)))
	}
	return total
}

func (rs RegularStructure) NumFaces() int {
	switch rs.dim {
	case 2:
		return rs.NumCells()
	case 3:
		total := 0
		for a := 0; a < 3; a++ {
			total += count(rs.extent(faceSpan(a)))
		}
		return total
	default:
		return 0
	}
}

func (rs RegularStructure) pointID(ijk [3]int) int { return flat(rs.n, ijk) }

func (rs RegularStructure) edgeID(axis int, ijk [3]int) int {
	off := 0
	for a := 0; a < axis; a++ {
		off += count(rs.extent(edgeSpan(a)))
	}
	return off + flat(rs.extent(edgeSpan(axis)), ijk)
}

func (rs RegularStructure) faceID(normal int, ijk [3]int) int {
	off := 0
	for a := 0; a < normal; a++ {
		off += count(rs.extent(faceSpan(a)))
	}
	return off + flat(rs.extent(faceSpan(normal)), ijk)
}

// corner offsets of the cell vertices in cell→point order
var hexCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// local corners of a face, per normal axis, in the hex face table winding
var faceCorners = [3][4][3]int{
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

func add(a, b [3]int) [3]int { return [3]int{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

// RegularConnectivity computes a relation of a regular structure from index
// arithmetic alone. It is a plain value and safe to copy per thread.
type RegularConnectivity struct {
	Structure RegularStructure
	Relation  Relation
}

// NewRegularConnectivity checks that the structure supports the relation
func NewRegularConnectivity(rs RegularStructure, rel Relation) (RegularConnectivity, error) {
	rc := RegularConnectivity{Structure: rs, Relation: rel}
	switch rel {
	case PointsOfCells, CellsOfPoints, EdgesOfCells, PointsOfEdges:
	case FacesOfCells, PointsOfFaces:
		if rs.dim < 2 {
			return rc, fmt.Errorf("%w: %s on a %dD grid", ErrRelationUnsupported, rel, rs.dim)
		}
	default:
		return rc, fmt.Errorf("%w: %s", ErrRelationUnsupported, rel)
	}
	return rc, nil
}

func (rc RegularConnectivity) NumElements() int {
	rs := rc.Structure
	switch rc.Relation.Source() {
	case Cells:
		return rs.NumCells()
	case Edges:
		return rs.NumEdges()
	case Faces:
		return rs.NumFaces()
	default:
		return rs.NumPoints()
	}
}

func (rc RegularConnectivity) MaxArity() int {
	d := rc.Structure.dim
	switch rc.Relation {
	case PointsOfCells, CellsOfPoints:
		return 1 << d
	case EdgesOfCells:
		return len(rc.Structure.cellShape().Edges())
	case PointsOfEdges:
		return 2
	case FacesOfCells:
		if d == 2 {
			return 1
		}
		return 6
	case PointsOfFaces:
		return 4
	default:
		return 0
	}
}

func (rc RegularConnectivity) ElementComponents(id int, ids []int) (Shape, int, error) {
	if id < 0 || id >= rc.NumElements() {
		return Unknown, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrElementOutOfRange, id, rc.NumElements())
	}
	if n := rc.MaxArity(); n > len(ids) {
		return Unknown, 0, fmt.Errorf("%w: %s needs %d ids, buffer holds %d",
			ErrArityExceeded, rc.Relation, n, len(ids))
	}
	rs := rc.Structure
	switch rc.Relation {
	case PointsOfCells:
		return rc.pointsOfCell(id, ids)
	case CellsOfPoints:
		return rc.cellsOfPoint(id, ids)
	case EdgesOfCells:
		return rc.edgesOfCell(id, ids)
	case PointsOfEdges:
		return rc.pointsOfEdge(id, ids)
	case FacesOfCells:
		if rs.dim == 2 {
			ids[0] = id
			return Quad, 1, nil
		}
		return rc.facesOfCell(id, ids)
	case PointsOfFaces:
		if rs.dim == 2 {
			return rc.pointsOfCell(id, ids)
		}
		return rc.pointsOfFace(id, ids)
	}
	return Unknown, 0, fmt.Errorf("%w: %s", ErrRelationUnsupported, rc.Relation)
}

func (rc RegularConnectivity) pointsOfCell(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	base := unflat(rs.CellDims(), id)
	n := 1 << rs.dim
	for v := 0; v < n; v++ {
		ids[v] = rs.pointID(add(base, hexCorners[v]))
	}
	return rs.cellShape(), n, nil
}

// cellsOfPoint lists the cells touching a point in ascending (k, j, i) order
func (rc RegularConnectivity) cellsOfPoint(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	p := unflat(rs.n, id)
	c := rs.CellDims()
	var lo, hi [3]int
	for a := 0; a < 3; a++ {
		lo[a], hi[a] = p[a]-1, p[a]
		if a >= rs.dim {
			lo[a], hi[a] = 0, 0
		}
	}
	n := 0
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				if i < 0 || j < 0 || k < 0 || i >= c[0] || j >= c[1] || k >= c[2] {
					continue
				}
				ids[n] = flat(c, [3]int{i, j, k})
				n++
			}
		}
	}
	return Vertex, n, nil
}

func (rc RegularConnectivity) edgesOfCell(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	shape := rs.cellShape()
	base := unflat(rs.CellDims(), id)
	edges := shape.Edges()
	for e, lv := range edges {
		a, b := hexCorners[lv[0]], hexCorners[lv[1]]
		axis, lo := 0, a
		for d := 0; d < 3; d++ {
			if a[d] != b[d] {
				axis = d
				if b[d] < a[d] {
					lo = b
				}
			}
		}
		ids[e] = rs.edgeID(axis, add(base, lo))
	}
	return shape, len(edges), nil
}

func (rc RegularConnectivity) pointsOfEdge(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	axis := 0
	for ; axis < rs.dim; axis++ {
		n := count(rs.extent(edgeSpan(axis)))
		if id < n {
			break
		}
		id -= n
	}
	p := unflat(rs.extent(edgeSpan(axis)), id)
	var step [3]int
	step[axis] = 1
	ids[0] = rs.pointID(p)
	ids[1] = rs.pointID(add(p, step))
	return Line, 2, nil
}

func (rc RegularConnectivity) facesOfCell(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	base := unflat(rs.CellDims(), id)
	for f := 0; f < 6; f++ {
		normal := f / 2
		var lo [3]int
		lo[normal] = f % 2
		ids[f] = rs.faceID(normal, add(base, lo))
	}
	return Hex, 6, nil
}

func (rc RegularConnectivity) pointsOfFace(id int, ids []int) (Shape, int, error) {
	rs := rc.Structure
	normal := 0
	for ; normal < 3; normal++ {
		n := count(rs.extent(faceSpan(normal)))
		if id < n {
			break
		}
		id -= n
	}
	base := unflat(rs.extent(faceSpan(normal)), id)
	for v, corner := range faceCorners[normal] {
		ids[v] = rs.pointID(add(base, corner))
	}
	return Quad, 4, nil
}

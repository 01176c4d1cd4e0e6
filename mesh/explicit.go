package mesh

import (
	"fmt"
	"slices"
	"sync"
)

// Explicit is a cell set with arbitrary cell shapes whose cell→point
// connectivity is stored. The other relations are derived from it on first
// request and cached.
type Explicit struct {
	numPoints int
	cells     *ExplicitConnectivity // cell → point

	mu      sync.Mutex
	derived map[Relation]*ExplicitConnectivity
}

// NewExplicit builds an explicit cell set from per-cell shapes and point lists
func NewExplicit(numPoints int, shapes []Shape, cellPoints [][]int) (*Explicit, error) {
	if len(shapes) != len(cellPoints) {
		return nil, fmt.Errorf("%w: %d shapes for %d cells", ErrInvalidMesh, len(shapes), len(cellPoints))
	}
	offsets := make([]int, len(cellPoints)+1)
	conn := make([]int, 0, 4*len(cellPoints))
	for c, pts := range cellPoints {
		if nv := shapes[c].NumVertices(); nv != 0 && nv != len(pts) {
			return nil, fmt.Errorf("%w: cell %d is %s with %d points", ErrInvalidMesh, c, shapes[c], len(pts))
		}
		for _, p := range pts {
			if p < 0 || p >= numPoints {
				return nil, fmt.Errorf("%w: cell %d references point %d of %d", ErrInvalidMesh, c, p, numPoints)
			}
		}
		conn = append(conn, pts...)
		offsets[c+1] = len(conn)
	}
	ec, err := NewExplicitConnectivity(slices.Clone(shapes), conn, offsets)
	if err != nil {
		return nil, err
	}
	return &Explicit{
		numPoints: numPoints,
		cells:     ec,
		derived:   make(map[Relation]*ExplicitConnectivity),
	}, nil
}

// NumPoints returns the number of points referenced by the cell set
func (ex *Explicit) NumPoints() int { return ex.numPoints }

// NumCells returns the number of cells
func (ex *Explicit) NumCells() int { return ex.cells.NumElements() }

// Connectivity returns the explicit connectivity for a relation
func (ex *Explicit) Connectivity(rel Relation) (*ExplicitConnectivity, error) {
	if rel == PointsOfCells {
		return ex.cells, nil
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ec, ok := ex.derived[rel]; ok {
		return ec, nil
	}
	var err error
	switch rel {
	case EdgesOfCells, PointsOfEdges:
		err = ex.buildSubElements(EdgesOfCells, PointsOfEdges, cellEdges)
	case FacesOfCells, PointsOfFaces:
		err = ex.buildSubElements(FacesOfCells, PointsOfFaces, cellFaces)
	case CellsOfPoints:
		err = ex.buildCellsOfPoints()
	default:
		return nil, fmt.Errorf("%w: %s", ErrRelationUnsupported, rel)
	}
	if err != nil {
		return nil, err
	}
	return ex.derived[rel], nil
}

// subElements lists the local sub-entities (edges or faces) of a cell as
// local vertex index lists, along with the shape of each sub-entity
type subElements func(shape Shape, nverts int) ([][]int, []Shape)

func cellEdges(shape Shape, nverts int) ([][]int, []Shape) {
	var table [][2]int
	if shape == Polygon {
		table = polygonEdges(nverts)
	} else {
		table = shape.Edges()
	}
	local := make([][]int, len(table))
	shapes := make([]Shape, len(table))
	for i, e := range table {
		local[i] = []int{e[0], e[1]}
		shapes[i] = Line
	}
	return local, shapes
}

func cellFaces(shape Shape, nverts int) ([][]int, []Shape) {
	switch shape.Dimension() {
	case 2:
		// A 2D cell is its own single face
		local := make([]int, nverts)
		for i := range local {
			local[i] = i
		}
		return [][]int{local}, []Shape{shape}
	case 3:
		table := shape.Faces()
		shapes := make([]Shape, len(table))
		for i, f := range table {
			shapes[i] = ShapeForVertexCount(2, len(f))
		}
		return table, shapes
	default:
		return nil, nil
	}
}

// buildSubElements numbers unique edges or faces in first-visit order,
// keyed by their sorted global vertex ids
func (ex *Explicit) buildSubElements(ofCells, pointsOf Relation, sub subElements) error {
	var (
		cellConn    []int
		cellOffsets = make([]int, ex.NumCells()+1)
		cellShapes  = make([]Shape, ex.NumCells())
		subShapes   []Shape
		subConn     []int
		subOffsets  = []int{0}
		index       = make(map[string]int)
		ids         = make([]int, MaxLocalIDs)
	)
	for c := 0; c < ex.NumCells(); c++ {
		shape, n, err := ex.cells.ElementComponents(c, ids)
		if err != nil {
			return err
		}
		cellShapes[c] = shape
		local, shapes := sub(shape, n)
		for i, lv := range local {
			verts := make([]int, len(lv))
			for j, v := range lv {
				verts[j] = ids[v]
			}
			key := vertexKey(verts)
			id, ok := index[key]
			if !ok {
				id = len(subShapes)
				index[key] = id
				subShapes = append(subShapes, shapes[i])
				subConn = append(subConn, verts...)
				subOffsets = append(subOffsets, len(subConn))
			}
			cellConn = append(cellConn, id)
		}
		cellOffsets[c+1] = len(cellConn)
	}
	cells, err := NewExplicitConnectivity(cellShapes, cellConn, cellOffsets)
	if err != nil {
		return err
	}
	subs, err := NewExplicitConnectivity(subShapes, subConn, subOffsets)
	if err != nil {
		return err
	}
	ex.derived[ofCells] = cells
	ex.derived[pointsOf] = subs
	return nil
}

func vertexKey(verts []int) string {
	sorted := slices.Clone(verts)
	slices.Sort(sorted)
	return fmt.Sprint(sorted)
}

// buildCellsOfPoints inverts cell→point; cells appear in ascending order
func (ex *Explicit) buildCellsOfPoints() error {
	counts := make([]int, ex.numPoints+1)
	for _, p := range ex.cells.Conn {
		counts[p+1]++
	}
	for p := 0; p < ex.numPoints; p++ {
		counts[p+1] += counts[p]
	}
	offsets := slices.Clone(counts)
	conn := make([]int, len(ex.cells.Conn))
	next := counts[:ex.numPoints]
	for c := 0; c < ex.NumCells(); c++ {
		for _, p := range ex.cells.Conn[ex.cells.Offsets[c]:ex.cells.Offsets[c+1]] {
			conn[next[p]] = c
			next[p]++
		}
	}
	shapes := make([]Shape, ex.numPoints)
	for p := range shapes {
		shapes[p] = Vertex
	}
	ec, err := NewExplicitConnectivity(shapes, conn, offsets)
	if err != nil {
		return err
	}
	ex.derived[CellsOfPoints] = ec
	return nil
}

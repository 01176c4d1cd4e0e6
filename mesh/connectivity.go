package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrArityExceeded is returned when an element references more ids than
	// the caller's local id buffer can hold
	ErrArityExceeded = errors.New("element arity exceeds local id buffer")
	// ErrElementOutOfRange is returned for a sparse id outside the source level
	ErrElementOutOfRange = errors.New("element id out of range")
	// ErrRelationUnsupported is returned when a cell set cannot provide a relation
	ErrRelationUnsupported = errors.New("relation not supported by cell set")
	// ErrUnsupportedCellSet is returned for a cell set that is neither explicit
	// nor structured
	ErrUnsupportedCellSet = errors.New("unsupported cell set variant")
	// ErrInvalidMesh is returned when mesh construction input is inconsistent
	ErrInvalidMesh = errors.New("invalid mesh")
)

// Connectivity is a read-only view of one relation of a cell set.
// ElementComponents writes the ids referenced by element id into ids and
// returns the element shape and the number of ids written. Implementations
// never allocate and never write past len(ids).
type Connectivity interface {
	ElementComponents(id int, ids []int) (Shape, int, error)
	// NumElements is the number of elements on the source level
	NumElements() int
	// MaxArity is the largest id count of any element
	MaxArity() int
}

// ExplicitConnectivity stores a relation as flattened id lists
type ExplicitConnectivity struct {
	Shapes  []Shape // per source element
	Conn    []int   // referenced ids, element after element
	Offsets []int   // len(Shapes)+1, element e owns Conn[Offsets[e]:Offsets[e+1]]

	maxArity int
}

// NewExplicitConnectivity validates and wraps flattened connectivity
func NewExplicitConnectivity(shapes []Shape, conn, offsets []int) (*ExplicitConnectivity, error) {
	if len(offsets) != len(shapes)+1 {
		return nil, fmt.Errorf("%w: offsets length %d, expected %d",
			ErrInvalidMesh, len(offsets), len(shapes)+1)
	}
	if offsets[0] != 0 || offsets[len(offsets)-1] != len(conn) {
		return nil, fmt.Errorf("%w: offsets must span [0, %d]", ErrInvalidMesh, len(conn))
	}
	ec := &ExplicitConnectivity{Shapes: shapes, Conn: conn, Offsets: offsets}
	for e := range shapes {
		n := offsets[e+1] - offsets[e]
		if n < 0 {
			return nil, fmt.Errorf("%w: offsets decrease at element %d", ErrInvalidMesh, e)
		}
		if n > ec.maxArity {
			ec.maxArity = n
		}
	}
	return ec, nil
}

// ElementComponents copies the stored ids of element id into ids
func (ec *ExplicitConnectivity) ElementComponents(id int, ids []int) (Shape, int, error) {
	if id < 0 || id >= len(ec.Shapes) {
		return Unknown, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrElementOutOfRange, id, len(ec.Shapes))
	}
	start, end := ec.Offsets[id], ec.Offsets[id+1]
	n := end - start
	if n > len(ids) {
		return ec.Shapes[id], 0, fmt.Errorf("%w: element %d has %d ids, buffer holds %d",
			ErrArityExceeded, id, n, len(ids))
	}
	copy(ids, ec.Conn[start:end])
	return ec.Shapes[id], n, nil
}

func (ec *ExplicitConnectivity) NumElements() int { return len(ec.Shapes) }

func (ec *ExplicitConnectivity) MaxArity() int { return ec.maxArity }

// Tables returns the connectivity as int32 arrays for device staging:
// shapes, flattened ids and offsets
func (ec *ExplicitConnectivity) Tables() (shapes, conn, offsets []int32) {
	shapes = make([]int32, len(ec.Shapes))
	for i, s := range ec.Shapes {
		shapes[i] = int32(s)
	}
	conn = make([]int32, len(ec.Conn))
	for i, v := range ec.Conn {
		conn[i] = int32(v)
	}
	offsets = make([]int32, len(ec.Offsets))
	for i, v := range ec.Offsets {
		offsets[i] = int32(v)
	}
	return
}

// Materialize stores any connectivity view as explicit tables
func Materialize(c Connectivity) (*ExplicitConnectivity, error) {
	n := c.NumElements()
	shapes := make([]Shape, n)
	offsets := make([]int, n+1)
	conn := make([]int, 0, n*c.MaxArity())
	ids := make([]int, max(c.MaxArity(), 1))
	for e := 0; e < n; e++ {
		shape, count, err := c.ElementComponents(e, ids)
		if err != nil {
			return nil, err
		}
		shapes[e] = shape
		conn = append(conn, ids[:count]...)
		offsets[e+1] = len(conn)
	}
	return NewExplicitConnectivity(shapes, conn, offsets)
}

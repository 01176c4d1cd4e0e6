package mesh

import "fmt"

// ExplicitTables is an explicit connectivity over int32 tables, the layout
// used once the tables are staged into accelerator memory
type ExplicitTables struct {
	Shapes  []int32
	Conn    []int32
	Offsets []int32
	Arity   int
}

func (et ExplicitTables) ElementComponents(id int, ids []int) (Shape, int, error) {
	if id < 0 || id >= len(et.Shapes) {
		return Unknown, 0, fmt.Errorf("%w: %d not in [0, %d)", ErrElementOutOfRange, id, len(et.Shapes))
	}
	start, end := int(et.Offsets[id]), int(et.Offsets[id+1])
	n := end - start
	if n > len(ids) {
		return Shape(et.Shapes[id]), 0, fmt.Errorf("%w: element %d has %d ids, buffer holds %d",
			ErrArityExceeded, id, n, len(ids))
	}
	for i, v := range et.Conn[start:end] {
		ids[i] = int(v)
	}
	return Shape(et.Shapes[id]), n, nil
}

func (et ExplicitTables) NumElements() int { return len(et.Shapes) }

func (et ExplicitTables) MaxArity() int { return et.Arity }

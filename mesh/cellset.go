package mesh

import "fmt"

// Kind tags the variant held by a CellSet
type Kind uint8

const (
	KindInvalid Kind = iota
	KindExplicit
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindExplicit:
		return "explicit"
	case KindStructured:
		return "structured"
	default:
		return "invalid"
	}
}

// Structured is a cell set over a regular structure; its connectivity is
// computed, never stored
type Structured struct {
	Structure RegularStructure
}

// CellSet is a closed union over the explicit and structured encodings.
// Exactly one of the variant pointers is set for a valid value.
type CellSet struct {
	kind       Kind
	explicit   *Explicit
	structured *Structured
}

func NewExplicitCellSet(ex *Explicit) CellSet {
	return CellSet{kind: KindExplicit, explicit: ex}
}

func NewStructuredCellSet(rs RegularStructure) CellSet {
	return CellSet{kind: KindStructured, structured: &Structured{Structure: rs}}
}

func (cs CellSet) Kind() Kind { return cs.kind }

// CellSetCases holds one handler per variant for Match
type CellSetCases struct {
	Explicit   func(*Explicit) error
	Structured func(*Structured) error
}

// Match calls the handler of the held variant. A zero CellSet, a variant
// without its data, or a missing handler is an ErrUnsupportedCellSet.
func (cs CellSet) Match(cases CellSetCases) error {
	switch {
	case cs.kind == KindExplicit && cs.explicit != nil && cases.Explicit != nil:
		return cases.Explicit(cs.explicit)
	case cs.kind == KindStructured && cs.structured != nil && cases.Structured != nil:
		return cases.Structured(cs.structured)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedCellSet, cs.kind)
	}
}

// NumElements returns the element count of a level
func (cs CellSet) NumElements(level Level) (int, error) {
	var n int
	err := cs.Match(CellSetCases{
		Explicit: func(ex *Explicit) error {
			switch level {
			case Cells:
				n = ex.NumCells()
			case Points:
				n = ex.NumPoints()
			case Edges, Faces:
				rel := PointsOfEdges
				if level == Faces {
					rel = PointsOfFaces
				}
				ec, err := ex.Connectivity(rel)
				if err != nil {
					return err
				}
				n = ec.NumElements()
			}
			return nil
		},
		Structured: func(st *Structured) error {
			rs := st.Structure
			switch level {
			case Cells:
				n = rs.NumCells()
			case Points:
				n = rs.NumPoints()
			case Edges:
				n = rs.NumEdges()
			case Faces:
				n = rs.NumFaces()
			}
			return nil
		},
	})
	return n, err
}

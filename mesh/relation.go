package mesh

import "fmt"

// Level is a topological level of a mesh
type Level uint8

const (
	Points Level = iota
	Edges
	Faces
	Cells
)

func (l Level) String() string {
	switch l {
	case Points:
		return "points"
	case Edges:
		return "edges"
	case Faces:
		return "faces"
	case Cells:
		return "cells"
	default:
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
}

// Relation names the element-to-element mapping traversed by an operation.
// The source level is the one iterated over (and addressed by the index
// array); the target level is the one whose ids are handed to the functor.
type Relation uint8

const (
	PointsOfCells Relation = iota // cell → point
	EdgesOfCells                  // cell → edge
	FacesOfCells                  // cell → face
	PointsOfEdges                 // edge → point
	PointsOfFaces                 // face → point
	CellsOfPoints                 // point → cell
)

func (r Relation) String() string {
	return fmt.Sprintf("%s→%s", r.Source(), r.Target())
}

// Source returns the level being iterated
func (r Relation) Source() Level {
	switch r {
	case PointsOfCells, EdgesOfCells, FacesOfCells:
		return Cells
	case PointsOfEdges:
		return Edges
	case PointsOfFaces:
		return Faces
	default:
		return Points
	}
}

// Target returns the level of the referenced ids
func (r Relation) Target() Level {
	switch r {
	case EdgesOfCells:
		return Edges
	case FacesOfCells:
		return Faces
	case CellsOfPoints:
		return Cells
	default:
		return Points
	}
}

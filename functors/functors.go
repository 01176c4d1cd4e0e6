// Package functors holds gather functors shared by operations and tests.
// Each has the dispatch.Functor shape: it receives the element shape, the ids
// of its components and the bound input accessor.
package functors

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

// SumIDs returns the sum of the component ids
func SumIDs(_ mesh.Shape, ids []int, _ field.None) int64 {
	var sum int64
	for _, id := range ids {
		sum += int64(id)
	}
	return sum
}

// Count returns the number of components
func Count(_ mesh.Shape, ids []int, _ field.None) int32 {
	return int32(len(ids))
}

// gather collects the input values of the components into buf
func gather[T field.Scalar](ids []int, in field.View1[T], buf *[mesh.MaxLocalIDs]float64) []float64 {
	vals := buf[:len(ids)]
	for k, id := range ids {
		vals[k] = float64(in.Get(id))
	}
	return vals
}

// AverageOf returns the mean input value over the components, 0 for an
// element without components
func AverageOf[T field.Scalar](_ mesh.Shape, ids []int, in field.View1[T]) float64 {
	if len(ids) == 0 {
		return 0
	}
	var buf [mesh.MaxLocalIDs]float64
	return floats.Sum(gather(ids, in, &buf)) / float64(len(ids))
}

// Average is AverageOf over float64 inputs
func Average(shape mesh.Shape, ids []int, in field.View1[float64]) float64 {
	return AverageOf(shape, ids, in)
}

// Max returns the largest input value over the components, 0 for an element
// without components
func Max(_ mesh.Shape, ids []int, in field.View1[float64]) float64 {
	if len(ids) == 0 {
		return 0
	}
	var buf [mesh.MaxLocalIDs]float64
	return floats.Max(gather(ids, in, &buf))
}

// Point is a coordinate triple
type Point = field.Triple[float64, float64, float64]

// Centroid returns the mean of the component coordinates
func Centroid(_ mesh.Shape, ids []int, in field.View3[float64, float64, float64]) Point {
	if len(ids) == 0 {
		return Point{}
	}
	var x, y, z [mesh.MaxLocalIDs]float64
	for k, id := range ids {
		p := in.Get(id)
		x[k], y[k], z[k] = p.First, p.Second, p.Third
	}
	n := float64(len(ids))
	return Point{
		First:  floats.Sum(x[:len(ids)]) / n,
		Second: floats.Sum(y[:len(ids)]) / n,
		Third:  floats.Sum(z[:len(ids)]) / n,
	}
}

package field

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FromMatrix copies m into a float64 array with one tuple per row
func FromMatrix(name string, m mat.Matrix) *Array[float64] {
	r, c := m.Dims()
	a := NewArray[float64](name, c, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.host[i*c+j] = m.At(i, j)
		}
	}
	return a
}

// ToMatrix recalls a to the host and copies it into a dense matrix with one
// row per tuple
func ToMatrix[T Scalar](a *Array[T]) (*mat.Dense, error) {
	data, err := a.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a.Name(), err)
	}
	if a.NumTuples() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrShape, a.Name())
	}
	vals := make([]float64, len(data))
	for i, v := range data {
		vals[i] = float64(v)
	}
	return mat.NewDense(a.NumTuples(), a.NumComponents(), vals), nil
}

package field

import "math"

// Indexer maps a dense position to an array slot:
// ((i/Div)%Mod)*Mul + Add. Mod 0 disables the modulus; Mul is non-negative.
type Indexer struct {
	Div, Mod, Mul, Add int
}

// Direct addresses slot i
var Direct = Indexer{Div: 1, Mul: 1}

// Component addresses component c of an ncomp-tuple array
func Component(ncomp, c int) Indexer {
	return Indexer{Div: 1, Mul: ncomp, Add: c}
}

// Index returns the slot addressed by dense position i
func (ix Indexer) Index(i int) int {
	if ix.Div > 1 {
		i /= ix.Div
	}
	if ix.Mod > 0 {
		i %= ix.Mod
	}
	return i*ix.Mul + ix.Add
}

// Indexable binds an array to the indexer addressing it
type Indexable[T Scalar] struct {
	Array   *Array[T]
	Indexer Indexer
}

// Bound addresses component c of each tuple of a
func Bound[T Scalar](a *Array[T], c int) Indexable[T] {
	return Indexable[T]{Array: a, Indexer: Component(a.NumComponents(), c)}
}

// Len returns the number of leading dense positions whose slot lies inside
// the array; math.MaxInt when every position does
func (x Indexable[T]) Len() int {
	ix, size := x.Indexer, x.Array.Len()
	if ix.Add < 0 || ix.Add >= size {
		return 0
	}
	if ix.Mul <= 0 {
		return math.MaxInt
	}
	q := (size - ix.Add + ix.Mul - 1) / ix.Mul
	if ix.Mod > 0 && q >= ix.Mod {
		return math.MaxInt
	}
	return q * max(ix.Div, 1)
}

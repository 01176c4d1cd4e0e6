package field

import "math"

// Binding is a collection of arrays bound for one operation. Bind resolves it
// to an accessor A over the data current at loc; Arrays lists the arrays to
// stage before a device run.
type Binding[A any] interface {
	Len() int
	Arrays() []Resident
	Bind(loc Location) (A, error)
}

// Sink is an output accessor written once per dense position
type Sink[V any] interface {
	Set(i int, v V)
}

// Pair is the value of a two-array collection at one position
type Pair[T0, T1 Scalar] struct {
	First  T0
	Second T1
}

// Triple is the value of a three-array collection at one position
type Triple[T0, T1, T2 Scalar] struct {
	First  T0
	Second T1
	Third  T2
}

// View1 reads and writes one indexed array
type View1[T Scalar] struct {
	data []T
	ix   Indexer
}

func (v View1[T]) Get(i int) T    { return v.data[v.ix.Index(i)] }
func (v View1[T]) Set(i int, x T) { v.data[v.ix.Index(i)] = x }

type View2[T0, T1 Scalar] struct {
	X0 View1[T0]
	X1 View1[T1]
}

func (v View2[T0, T1]) Get(i int) Pair[T0, T1] {
	return Pair[T0, T1]{First: v.X0.Get(i), Second: v.X1.Get(i)}
}

func (v View2[T0, T1]) Set(i int, p Pair[T0, T1]) {
	v.X0.Set(i, p.First)
	v.X1.Set(i, p.Second)
}

type View3[T0, T1, T2 Scalar] struct {
	X0 View1[T0]
	X1 View1[T1]
	X2 View1[T2]
}

func (v View3[T0, T1, T2]) Get(i int) Triple[T0, T1, T2] {
	return Triple[T0, T1, T2]{First: v.X0.Get(i), Second: v.X1.Get(i), Third: v.X2.Get(i)}
}

func (v View3[T0, T1, T2]) Set(i int, t Triple[T0, T1, T2]) {
	v.X0.Set(i, t.First)
	v.X1.Set(i, t.Second)
	v.X2.Set(i, t.Third)
}

// Tuple1 is a collection of one indexed array
type Tuple1[T Scalar] struct {
	X0 Indexable[T]
}

// Of1 collects a single array addressed by its first component
func Of1[T Scalar](a *Array[T]) Tuple1[T] { return Tuple1[T]{X0: Bound(a, 0)} }

func (t Tuple1[T]) Len() int           { return t.X0.Len() }
func (t Tuple1[T]) Arrays() []Resident { return residents(t.X0.Array) }

func (t Tuple1[T]) Bind(loc Location) (View1[T], error) {
	return bind(t.X0, loc)
}

// Tuple2 is a collection of two indexed arrays
type Tuple2[T0, T1 Scalar] struct {
	X0 Indexable[T0]
	X1 Indexable[T1]
}

func Of2[T0, T1 Scalar](a0 *Array[T0], a1 *Array[T1]) Tuple2[T0, T1] {
	return Tuple2[T0, T1]{X0: Bound(a0, 0), X1: Bound(a1, 0)}
}

func (t Tuple2[T0, T1]) Len() int { return min(t.X0.Len(), t.X1.Len()) }

func (t Tuple2[T0, T1]) Arrays() []Resident {
	return residents(t.X0.Array, t.X1.Array)
}

func (t Tuple2[T0, T1]) Bind(loc Location) (v View2[T0, T1], err error) {
	if v.X0, err = bind(t.X0, loc); err != nil {
		return
	}
	v.X1, err = bind(t.X1, loc)
	return
}

// Tuple3 is a collection of three indexed arrays
type Tuple3[T0, T1, T2 Scalar] struct {
	X0 Indexable[T0]
	X1 Indexable[T1]
	X2 Indexable[T2]
}

func Of3[T0, T1, T2 Scalar](a0 *Array[T0], a1 *Array[T1], a2 *Array[T2]) Tuple3[T0, T1, T2] {
	return Tuple3[T0, T1, T2]{X0: Bound(a0, 0), X1: Bound(a1, 0), X2: Bound(a2, 0)}
}

// Components collects the first three components of a single array, the
// usual binding of point coordinates
func Components[T Scalar](a *Array[T]) Tuple3[T, T, T] {
	return Tuple3[T, T, T]{X0: Bound(a, 0), X1: Bound(a, 1), X2: Bound(a, 2)}
}

func (t Tuple3[T0, T1, T2]) Len() int {
	return min(t.X0.Len(), t.X1.Len(), t.X2.Len())
}

func (t Tuple3[T0, T1, T2]) Arrays() []Resident {
	return residents(t.X0.Array, t.X1.Array, t.X2.Array)
}

func (t Tuple3[T0, T1, T2]) Bind(loc Location) (v View3[T0, T1, T2], err error) {
	if v.X0, err = bind(t.X0, loc); err != nil {
		return
	}
	if v.X1, err = bind(t.X1, loc); err != nil {
		return
	}
	v.X2, err = bind(t.X2, loc)
	return
}

func bind[T Scalar](x Indexable[T], loc Location) (View1[T], error) {
	data, err := x.Array.Slice(loc)
	if err != nil {
		return View1[T]{}, err
	}
	return View1[T]{data: data, ix: x.Indexer}, nil
}

// residents lists arrays once each, in order of first appearance
func residents(arrays ...Resident) []Resident {
	out := make([]Resident, 0, len(arrays))
	for _, a := range arrays {
		dup := false
		for _, b := range out {
			if a == b {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}

// None is the empty collection, for functors that read only the element ids
type None struct{}

func (None) Len() int                        { return math.MaxInt }
func (None) Arrays() []Resident              { return nil }
func (None) Bind(loc Location) (None, error) { return None{}, nil }

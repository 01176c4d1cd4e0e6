// Package dispatch runs a gather functor over a dense range of output
// positions. Each position i reads the sparse element id idx[ix.Index(i)],
// fetches that element's components from a connectivity view and stores the
// functor result at out[i].
//
// Run is instantiated per concrete connectivity, input and output type, so
// the loop bodies carry no type switches.
package dispatch

import (
	"context"
	"fmt"

	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

// Functor computes the value of one output position from the element shape,
// the ids of its components and the bound inputs
type Functor[IA, V any] func(shape mesh.Shape, ids []int, in IA) V

// Backend selects where Run executes: Host or Grid
type Backend interface {
	Name() string
	isBackend()
}

// Run executes f for every dense position in [0, n) on backend
func Run[C mesh.Connectivity, IA any, OA field.Sink[V], V any](
	ctx context.Context, backend Backend, n int, conn C, in IA, out OA,
	idx []int32, ix field.Indexer, f Functor[IA, V]) error {

	if err := ctx.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	switch b := backend.(type) {
	case Host:
		return runHost(b, n, conn, in, out, idx, ix, f)
	case Grid:
		return runGrid(b, n, conn, in, out, idx, ix, f)
	default:
		return fmt.Errorf("unknown backend %T", backend)
	}
}

// gather processes dense position i using the local id buffer ids
func gather[C mesh.Connectivity, IA any, OA field.Sink[V], V any](
	i int, conn C, in IA, out OA, idx []int32, ix field.Indexer,
	ids []int, f Functor[IA, V]) error {

	id := int(idx[ix.Index(i)])
	shape, count, err := conn.ElementComponents(id, ids)
	if err != nil {
		return fmt.Errorf("position %d: %w", i, err)
	}
	out.Set(i, f(shape, ids[:count], in))
	return nil
}

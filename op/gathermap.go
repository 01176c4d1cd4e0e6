// Package op binds a cell set, a topology relation, input and output
// collections, an index array and a functor into a gather map operation, and
// runs it on the host or on an accelerator.
package op

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/notargets/meshop/dispatch"
	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

// State is the position of an operation in its lifecycle
type State int32

const (
	Constructed State = iota
	Dispatching
	Executing
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Dispatching:
		return "dispatching"
	case Executing:
		return "executing"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// GatherMap computes out[i] = f(element idx[i] of the relation's source
// level, inputs gathered at its component ids). The index array length sets
// the number of dense positions n; the output collection must cover them and
// the input collection must cover every element of the target level.
type GatherMap[IA any, OA field.Sink[V], V any] struct {
	name  string
	cells mesh.CellSet
	rel   mesh.Relation
	in    field.Binding[IA]
	out   field.Binding[OA]
	idx   *field.IndexArray
	f     dispatch.Functor[IA, V]
	cfg   Config
	log   *Logger

	state atomic.Int32
}

// NewGatherMap captures the bindings of an operation; nothing is checked or
// executed until it runs
func NewGatherMap[IA any, OA field.Sink[V], V any](
	name string, cells mesh.CellSet, rel mesh.Relation,
	in field.Binding[IA], out field.Binding[OA], idx *field.IndexArray,
	f dispatch.Functor[IA, V], cfg Config) *GatherMap[IA, OA, V] {

	if f == nil {
		panic(fmt.Sprintf("op %s: nil functor", name))
	}
	return &GatherMap[IA, OA, V]{
		name:  name,
		cells: cells,
		rel:   rel,
		in:    in,
		out:   out,
		idx:   idx,
		f:     f,
		cfg:   cfg,
		log:   cfg.logger().WithOp(name),
	}
}

func (g *GatherMap[IA, OA, V]) Name() string { return g.name }

func (g *GatherMap[IA, OA, V]) State() State { return State(g.state.Load()) }

// plan is a validated operation: the iteration bound and a dispatch closure
// over the concrete connectivity of the cell set variant
type plan[IA any, OA field.Sink[V], V any] struct {
	n        int
	explicit *mesh.ExplicitConnectivity
	run      func(ctx context.Context, b dispatch.Backend, in IA, out OA,
		ids []int32, ix field.Indexer, staged *mesh.ExplicitTables) error
}

// Validate resolves the cell set variant and checks every binding. It reports
// all configuration errors a run would report, without running.
func (g *GatherMap[IA, OA, V]) Validate() error {
	_, err := g.resolve()
	return classify(err)
}

// Coverage returns the distinct source elements a run reads, or the
// configuration error a run would report
func (g *GatherMap[IA, OA, V]) Coverage() (*roaring.Bitmap, error) {
	if _, err := g.resolve(); err != nil {
		return nil, classify(err)
	}
	return g.idx.Coverage(), nil
}

func (g *GatherMap[IA, OA, V]) resolve() (*plan[IA, OA, V], error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}
	if g.idx == nil || g.in == nil || g.out == nil {
		return nil, fmt.Errorf("%w: unbound collection", ErrConfiguration)
	}

	p := &plan[IA, OA, V]{n: g.idx.Len()}
	var conn mesh.Connectivity
	err := g.cells.Match(mesh.CellSetCases{
		Explicit: func(ex *mesh.Explicit) error {
			ec, err := ex.Connectivity(g.rel)
			if err != nil {
				return err
			}
			conn, p.explicit = ec, ec
			p.run = func(ctx context.Context, b dispatch.Backend, in IA, out OA,
				ids []int32, ix field.Indexer, staged *mesh.ExplicitTables) error {
				if staged != nil {
					return dispatch.Run(ctx, b, p.n, *staged, in, out, ids, ix, g.f)
				}
				return dispatch.Run(ctx, b, p.n, ec, in, out, ids, ix, g.f)
			}
			return nil
		},
		Structured: func(st *mesh.Structured) error {
			rc, err := mesh.NewRegularConnectivity(st.Structure, g.rel)
			if err != nil {
				return err
			}
			conn = rc
			p.run = func(ctx context.Context, b dispatch.Backend, in IA, out OA,
				ids []int32, ix field.Indexer, _ *mesh.ExplicitTables) error {
				return dispatch.Run(ctx, b, p.n, rc, in, out, ids, ix, g.f)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if conn.MaxArity() > mesh.MaxLocalIDs {
		return nil, fmt.Errorf("%w: %s arity %d, local buffer holds %d",
			mesh.ErrArityExceeded, g.rel, conn.MaxArity(), mesh.MaxLocalIDs)
	}
	if err := g.idx.Validate(conn.NumElements()); err != nil {
		return nil, err
	}
	// an empty index writes nothing, so any output length is accepted
	if m := g.out.Len(); m < p.n || (p.n > 0 && m > p.n && m != math.MaxInt) {
		return nil, fmt.Errorf("%w: output has %d positions, index has %d",
			field.ErrLengthMismatch, m, p.n)
	}
	targets, err := g.cells.NumElements(g.rel.Target())
	if err != nil {
		return nil, err
	}
	if m := g.in.Len(); m < targets {
		return nil, fmt.Errorf("%w: input covers %d of %d %s",
			field.ErrLengthMismatch, m, targets, g.rel.Target())
	}
	return p, nil
}

// begin moves a constructed operation to Dispatching
func (g *GatherMap[IA, OA, V]) begin() error {
	if !g.state.CompareAndSwap(int32(Constructed), int32(Dispatching)) {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyRun, g.name, g.State())
	}
	return nil
}

// finish records the outcome of a run and returns the error seen by callers
func (g *GatherMap[IA, OA, V]) finish(ctx context.Context, backend string, n int, start time.Time, err error) error {
	if err != nil {
		g.state.Store(int32(Failed))
		err = NewError(g.name, backend, err)
	} else {
		g.state.Store(int32(Complete))
	}
	g.log.LogRun(ctx, backend, n, time.Since(start), err)
	return err
}

// RunOnHost executes the operation on the host backend
func (g *GatherMap[IA, OA, V]) RunOnHost(ctx context.Context) error {
	if err := g.begin(); err != nil {
		return err
	}
	backend := g.cfg.hostBackend()
	start := time.Now()

	p, err := g.resolve()
	if err != nil {
		return g.finish(ctx, backend.Name(), 0, start, err)
	}
	return g.finish(ctx, backend.Name(), p.n, start, g.runHost(ctx, backend, p))
}

func (g *GatherMap[IA, OA, V]) runHost(ctx context.Context, backend dispatch.Host, p *plan[IA, OA, V]) error {
	arrays := g.residents()
	for _, a := range arrays {
		if err := a.NeedOnHost(); err != nil {
			return err
		}
	}
	in, err := g.in.Bind(field.Host)
	if err != nil {
		return err
	}
	out, err := g.out.Bind(field.Host)
	if err != nil {
		return err
	}
	ids, ix, err := g.idx.Bind(field.Host)
	if err != nil {
		return err
	}

	g.state.Store(int32(Executing))
	if err := p.run(ctx, backend, in, out, ids, ix, nil); err != nil {
		return err
	}
	// host writes invalidate any device copy of the outputs
	for _, a := range g.out.Arrays() {
		if a.Location() == field.Both {
			if err := a.Free(); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunOnAccelerator stages every bound array and the explicit connectivity on
// the configured accelerator, runs the grid backend and recalls everything to
// the host before returning, whatever the outcome
func (g *GatherMap[IA, OA, V]) RunOnAccelerator(ctx context.Context) error {
	if err := g.begin(); err != nil {
		return err
	}
	start := time.Now()
	if !g.cfg.hasAccelerator() {
		return g.finish(ctx, "grid", 0, start, ErrNoAccelerator)
	}
	backend := g.cfg.gridBackend()
	p, err := g.resolve()
	if err != nil {
		return g.finish(ctx, backend.Name(), 0, start, err)
	}
	return g.finish(ctx, backend.Name(), p.n, start, g.runAccelerator(ctx, backend, p))
}

func (g *GatherMap[IA, OA, V]) runAccelerator(ctx context.Context, backend dispatch.Grid, p *plan[IA, OA, V]) (err error) {
	dev := backend.Device
	arrays := g.residents()

	var tables *mesh.ExplicitTables
	var tableArrays []*field.Array[int32]
	if p.explicit != nil {
		shapes, conn, offsets := p.explicit.Tables()
		tableArrays = []*field.Array[int32]{
			mustWrap(g.name+".shapes", shapes),
			mustWrap(g.name+".conn", conn),
			mustWrap(g.name+".offsets", offsets),
		}
		for _, a := range tableArrays {
			arrays = append(arrays, a)
		}
	}

	g.log.LogStaging(ctx, "promote", dev.Mode(), len(arrays))
	staging := field.NewStaging(dev)
	defer func() {
		g.log.LogStaging(ctx, "recall", dev.Mode(), len(arrays))
		if rerr := staging.Recall(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err := staging.Promote(arrays...); err != nil {
		return err
	}

	if p.explicit != nil {
		t := mesh.ExplicitTables{Arity: p.explicit.MaxArity()}
		if t.Shapes, err = tableArrays[0].DeviceSlice(); err != nil {
			return err
		}
		if t.Conn, err = tableArrays[1].DeviceSlice(); err != nil {
			return err
		}
		if t.Offsets, err = tableArrays[2].DeviceSlice(); err != nil {
			return err
		}
		tables = &t
	}

	in, err := g.in.Bind(field.Device)
	if err != nil {
		return err
	}
	out, err := g.out.Bind(field.Device)
	if err != nil {
		return err
	}
	ids, ix, err := g.idx.Bind(field.Device)
	if err != nil {
		return err
	}

	g.state.Store(int32(Executing))
	if err := p.run(ctx, backend, in, out, ids, ix, tables); err != nil {
		// partial device writes never reach the host copies
		staging.Discard(g.out.Arrays()...)
		if !isConfiguration(err) {
			err = fmt.Errorf("%w: %w", ErrAcceleratorFault, err)
		}
		return err
	}
	for _, a := range g.out.Arrays() {
		a.MarkDeviceModified()
	}
	return nil
}

// Run executes on the backend selected by the configured mode.
// PreferAccelerator falls back to the host only when no accelerator is
// configured; ForceAccelerator never falls back.
func (g *GatherMap[IA, OA, V]) Run(ctx context.Context) error {
	switch g.cfg.Mode {
	case ForceAccelerator:
		return g.RunOnAccelerator(ctx)
	case PreferAccelerator:
		if g.cfg.hasAccelerator() {
			return g.RunOnAccelerator(ctx)
		}
		return g.RunOnHost(ctx)
	default:
		return g.RunOnHost(ctx)
	}
}

// residents lists every array the operation reads or writes
func (g *GatherMap[IA, OA, V]) residents() []field.Resident {
	arrays := []field.Resident{g.idx.Array}
	arrays = append(arrays, g.in.Arrays()...)
	arrays = append(arrays, g.out.Arrays()...)
	return arrays
}

func mustWrap(name string, data []int32) *field.Array[int32] {
	a, err := field.Wrap(name, 1, data)
	if err != nil {
		panic(err)
	}
	return a
}

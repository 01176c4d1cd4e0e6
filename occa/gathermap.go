// Package occa runs gather map operations as generated OKL kernels on an OCCA
// device. The functor is an OKL statement block instead of a Go function;
// everything else follows the op package: bindings are validated before the
// run, arrays are staged through their residency and recalled afterwards.
package occa

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/notargets/gocca"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/meshop/device"
	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
	"github.com/notargets/meshop/op"
)

var (
	// ErrInvalidArg is returned for an argument name that is not an OKL
	// identifier, or a duplicate one
	ErrInvalidArg = errors.New("invalid kernel argument")
	// ErrEmptyBody is returned for a functor without a body
	ErrEmptyBody = errors.New("functor body is empty")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Functor is an OKL statement block run once per dense position. The block
// sees the loop position i, the element e, its shape and its nids component
// ids in ids[]. Inputs are read with IN_<name>(id), outputs are assigned
// through OUT_<name>.
type Functor struct {
	Name string
	Body string
}

// Array is the type-independent view of a field array used as an argument
type Array interface {
	field.Resident
	DataType() field.DataType
}

// Arg binds an array to the name the functor body uses for it
type Arg struct {
	Name    string
	Array   Array
	Indexer field.Indexer
	length  int
}

// NewArg binds an indexed array under name
func NewArg[T field.Scalar](name string, x field.Indexable[T]) Arg {
	return Arg{Name: name, Array: x.Array, Indexer: x.Indexer, length: x.Len()}
}

// GatherMap is an operation whose functor runs as an OKL kernel.
// Constants are compiled into the kernel as static real_t arrays the functor
// body reads by name, e.g. W[r][c].
type GatherMap struct {
	Name      string
	Cells     mesh.CellSet
	Relation  mesh.Relation
	Index     *field.IndexArray
	Inputs    []Arg
	Outputs   []Arg
	Constants map[string]mat.Matrix
	Functor   Functor
	Config    Config
}

// plan is the resolved connectivity of a run
type plan struct {
	pre    preamble
	n      int
	tables *mesh.ExplicitConnectivity
}

func (g *GatherMap) resolve() (*plan, error) {
	if strings.TrimSpace(g.Functor.Body) == "" {
		return nil, fmt.Errorf("%w: %w: %s", op.ErrConfiguration, ErrEmptyBody, g.Functor.Name)
	}
	if err := g.validateArgs(); err != nil {
		return nil, fmt.Errorf("%w: %w", op.ErrConfiguration, err)
	}
	if g.Index == nil {
		return nil, fmt.Errorf("%w: no index array", op.ErrConfiguration)
	}

	p := &plan{
		n: g.Index.Len(),
		pre: preamble{
			cfg:     g.Config.withDefaults(),
			index:   g.Index.Indexer,
			inputs:  g.Inputs,
			outputs: g.Outputs,
			consts:  g.Constants,
		},
	}
	var conn mesh.Connectivity
	err := g.Cells.Match(mesh.CellSetCases{
		Explicit: func(ex *mesh.Explicit) error {
			ec, err := ex.Connectivity(g.Relation)
			if err != nil {
				return err
			}
			conn, p.tables = ec, ec
			p.pre.kind = explicitTables
			return nil
		},
		Structured: func(st *mesh.Structured) error {
			rc, err := mesh.NewRegularConnectivity(st.Structure, g.Relation)
			if err != nil {
				return err
			}
			conn = rc
			if g.Relation == mesh.PointsOfCells {
				p.pre.kind = regularPoints
				p.pre.dims = st.Structure.PointDims()
				p.pre.dim = st.Structure.Dimension()
				return nil
			}
			// other regular relations run from materialized tables
			p.tables, err = mesh.Materialize(rc)
			p.pre.kind = explicitTables
			return err
		},
	})
	if err != nil {
		return nil, err
	}

	if conn.MaxArity() > mesh.MaxLocalIDs {
		return nil, fmt.Errorf("%w: %s arity %d, local buffer holds %d",
			mesh.ErrArityExceeded, g.Relation, conn.MaxArity(), mesh.MaxLocalIDs)
	}
	if err := g.Index.Validate(conn.NumElements()); err != nil {
		return nil, err
	}
	for _, a := range g.Outputs {
		if a.length < p.n || (p.n > 0 && a.length > p.n) {
			return nil, fmt.Errorf("%w: output %s has %d positions, index has %d",
				field.ErrLengthMismatch, a.Name, a.length, p.n)
		}
	}
	targets, err := g.Cells.NumElements(g.Relation.Target())
	if err != nil {
		return nil, err
	}
	for _, a := range g.Inputs {
		if a.length < targets {
			return nil, fmt.Errorf("%w: input %s covers %d of %d %s",
				field.ErrLengthMismatch, a.Name, a.length, targets, g.Relation.Target())
		}
	}
	return p, nil
}

func (g *GatherMap) validateArgs() error {
	seen := make(map[string]bool)
	for _, set := range [][]Arg{g.Inputs, g.Outputs} {
		for _, a := range set {
			if !identifier.MatchString(a.Name) {
				return fmt.Errorf("%w: name %q", ErrInvalidArg, a.Name)
			}
			if seen[a.Name] {
				return fmt.Errorf("%w: duplicate name %q", ErrInvalidArg, a.Name)
			}
			if a.Array == nil {
				return fmt.Errorf("%w: %s has no array", ErrInvalidArg, a.Name)
			}
			seen[a.Name] = true
		}
	}
	if len(g.Outputs) == 0 {
		return fmt.Errorf("%w: no outputs", ErrInvalidArg)
	}
	for name, m := range g.Constants {
		if !identifier.MatchString(name) || seen[name] {
			return fmt.Errorf("%w: constant name %q", ErrInvalidArg, name)
		}
		if m == nil {
			return fmt.Errorf("%w: constant %s has no matrix", ErrInvalidArg, name)
		}
	}
	return nil
}

// Source returns the complete OKL source of the kernel
func (g *GatherMap) Source() (string, error) {
	p, err := g.resolve()
	if err != nil {
		return "", err
	}
	return g.source(p), nil
}

func (g *GatherMap) kernelName() string { return "gather_" + g.Functor.Name }

func (g *GatherMap) source(p *plan) string {
	var sb strings.Builder
	sb.WriteString(p.pre.generate())

	params := []string{"const int n", "const int *index"}
	if p.pre.kind == explicitTables {
		params = append(params, "const int *shapes", "const int *conn", "const int *offsets")
	}
	for _, a := range sortedArgs(g.Inputs) {
		params = append(params, fmt.Sprintf("const %s *in_%s", a.Array.DataType().TypeName(), a.Name))
	}
	for _, a := range sortedArgs(g.Outputs) {
		params = append(params, fmt.Sprintf("%s *out_%s", a.Array.DataType().TypeName(), a.Name))
	}

	sb.WriteString(fmt.Sprintf("@kernel void %s(\n\t%s\n) {\n", g.kernelName(), strings.Join(params, ",\n\t")))
	sb.WriteString(`	for (int b = 0; b < NBLOCKS; ++b; @outer) {
		for (int t = 0; t < NTHREADS; ++t; @inner) {
			int ids[MAX_LOCAL_IDS];
			for (int i = b * NTHREADS + t; i < n; i += NBLOCKS * NTHREADS) {
				const int e = INDEX(i);
				int shape, nids;
				GET_COMPONENTS(e, shape, nids, ids);
				{
`)
	for _, line := range strings.Split(strings.TrimSpace(g.Functor.Body), "\n") {
		sb.WriteString("\t\t\t\t\t" + strings.TrimSpace(line) + "\n")
	}
	sb.WriteString(`				}
			}
		}
	}
}
`)
	return sb.String()
}

// buildKernel compiles source on the device
func buildKernel(dev *gocca.OCCADevice, source, name string) (*gocca.OCCAKernel, error) {
	var kernel *gocca.OCCAKernel
	var err error
	if dev.Mode() == "OpenMP" {
		// Workaround for OCCA bug: OpenMP doesn't get default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = dev.BuildKernelFromString(source, name, props)
	} else {
		kernel, err = dev.BuildKernelFromString(source, name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", name, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", name)
	}
	return kernel, nil
}

// Run validates the bindings, stages every array on dev, runs the kernel and
// recalls the arrays to the host
func (g *GatherMap) Run(ctx context.Context, dev *device.OCCA) error {
	if dev == nil {
		return op.NewError(g.Name, "occa", op.ErrNoAccelerator)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return op.NewError(g.Name, "occa/"+dev.Mode(), g.run(dev))
}

func (g *GatherMap) run(dev *device.OCCA) (err error) {
	p, err := g.resolve()
	if err != nil {
		return err
	}
	if p.n == 0 {
		return nil
	}

	kernel, err := buildKernel(dev.Device, g.source(p), g.kernelName())
	if err != nil {
		return fmt.Errorf("%w: %w", op.ErrAcceleratorFault, err)
	}
	defer kernel.Free()

	arrays := []field.Resident{g.Index.Array}
	var tables []*field.Array[int32]
	if p.tables != nil {
		shapes, conn, offsets := p.tables.Tables()
		for i, data := range [][]int32{shapes, conn, offsets} {
			a, werr := field.Wrap(fmt.Sprintf("%s.table%d", g.Name, i), 1, data)
			if werr != nil {
				return werr
			}
			tables = append(tables, a)
			arrays = append(arrays, a)
		}
	}
	for _, a := range g.Inputs {
		arrays = append(arrays, a.Array)
	}
	for _, a := range g.Outputs {
		arrays = append(arrays, a.Array)
	}

	staging := field.NewStaging(dev)
	defer func() {
		if rerr := staging.Recall(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err := staging.Promote(arrays...); err != nil {
		return err
	}

	args := []interface{}{p.n}
	mems := []field.Resident{g.Index.Array}
	for _, t := range tables {
		mems = append(mems, t)
	}
	for _, a := range sortedArgs(g.Inputs) {
		mems = append(mems, a.Array)
	}
	for _, a := range sortedArgs(g.Outputs) {
		mems = append(mems, a.Array)
	}
	for _, r := range mems {
		mem, ok := device.OCCAMemory(r.DeviceMemory())
		if !ok {
			return fmt.Errorf("%w: %s is not in OCCA memory", op.ErrAcceleratorFault, r.Name())
		}
		args = append(args, mem)
	}

	if err := kernel.RunWithArgs(args...); err != nil {
		outputs := make([]field.Resident, len(g.Outputs))
		for i, a := range g.Outputs {
			outputs[i] = a.Array
		}
		staging.Discard(outputs...)
		return fmt.Errorf("%w: kernel execution failed: %w", op.ErrAcceleratorFault, err)
	}
	dev.Device.Finish()
	for _, a := range g.Outputs {
		a.Array.MarkDeviceModified()
	}
	return nil
}

package occa

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
)

// Config holds the type and launch configuration of generated kernels
type Config struct {
	FloatType field.DataType
	IntType   field.DataType
	Blocks    int
	Threads   int
}

func (c Config) withDefaults() Config {
	if c.FloatType == 0 {
		c.FloatType = field.Float64
	}
	if c.IntType == 0 {
		c.IntType = field.Int64
	}
	if c.Blocks <= 0 {
		c.Blocks = 32
	}
	if c.Threads <= 0 {
		c.Threads = 256
	}
	return c
}

// connectivityKind selects how GET_COMPONENTS is generated
type connectivityKind int

const (
	explicitTables connectivityKind = iota
	regularPoints
)

// preamble generates the type definitions, constants and macros shared by the
// gather kernel
type preamble struct {
	cfg     Config
	kind    connectivityKind
	dims    [3]int // regular point dims
	dim     int
	index   field.Indexer
	inputs  []Arg
	outputs []Arg
	consts  map[string]mat.Matrix
}

func (p *preamble) generate() string {
	var sb strings.Builder
	sb.WriteString(p.generateTypeDefinitions())
	sb.WriteString(p.generateShapeConstants())
	sb.WriteString(p.generateStaticMatrices())
	sb.WriteString(p.generateAccessMacros())
	sb.WriteString(p.generateConnectivityMacro())
	return sb.String()
}

// generateTypeDefinitions creates type definitions based on precision settings
func (p *preamble) generateTypeDefinitions() string {
	var sb strings.Builder

	floatSuffix := ""
	if p.cfg.FloatType == field.Float32 {
		floatSuffix = "f"
	}
	sb.WriteString(fmt.Sprintf("typedef %s real_t;\n", p.cfg.FloatType.TypeName()))
	sb.WriteString(fmt.Sprintf("typedef %s int_t;\n", p.cfg.IntType.TypeName()))
	sb.WriteString(fmt.Sprintf("#define REAL_ZERO 0.0%s\n", floatSuffix))
	sb.WriteString(fmt.Sprintf("#define REAL_ONE 1.0%s\n", floatSuffix))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("#define MAX_LOCAL_IDS %d\n", mesh.MaxLocalIDs))
	sb.WriteString(fmt.Sprintf("#define NBLOCKS %d\n", p.cfg.Blocks))
	sb.WriteString(fmt.Sprintf("#define NTHREADS %d\n", p.cfg.Threads))
	sb.WriteString("\n")
	return sb.String()
}

func (p *preamble) generateShapeConstants() string {
	var sb strings.Builder
	for s := mesh.Vertex; s <= mesh.Hex; s++ {
		sb.WriteString(fmt.Sprintf("#define SHAPE_%s %d\n", strings.ToUpper(s.String()), int(s)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// generateStaticMatrices emits each constant matrix as a static array,
// ordered by name
func (p *preamble) generateStaticMatrices() string {
	if len(p.consts) == 0 {
		return ""
	}
	names := make([]string, 0, len(p.consts))
	for name := range p.consts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("// Static matrices\n")
	for _, name := range names {
		sb.WriteString(p.formatStaticMatrix(name, p.consts[name]))
	}
	return sb.String()
}

func (p *preamble) formatStaticMatrix(name string, m mat.Matrix) string {
	rows, cols := m.Dims()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("const real_t %s[%d][%d] = {\n", name, rows, cols))
	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			if p.cfg.FloatType == field.Float32 {
				sb.WriteString(fmt.Sprintf("%.7ef", m.At(i, j)))
			} else {
				sb.WriteString(fmt.Sprintf("%.15e", m.At(i, j)))
			}
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

// indexExpr renders an Indexer applied to expression i
func indexExpr(ix field.Indexer, i string) string {
	expr := i
	if ix.Div > 1 {
		expr = fmt.Sprintf("(%s / %d)", expr, ix.Div)
	}
	if ix.Mod > 0 {
		expr = fmt.Sprintf("(%s %% %d)", expr, ix.Mod)
	}
	return fmt.Sprintf("(%s * %d + %d)", expr, ix.Mul, ix.Add)
}

// generateAccessMacros defines IN_<name>(id) readers and OUT_<name> slots of
// the current dense position
func (p *preamble) generateAccessMacros() string {
	var sb strings.Builder
	sb.WriteString("// Array access macros\n")
	sb.WriteString(fmt.Sprintf("#define INDEX(i) index[%s]\n", indexExpr(p.index, "(i)")))
	for _, a := range sortedArgs(p.inputs) {
		sb.WriteString(fmt.Sprintf("#define IN_%s(id) in_%s[%s]\n", a.Name, a.Name, indexExpr(a.Indexer, "(id)")))
	}
	for _, a := range sortedArgs(p.outputs) {
		sb.WriteString(fmt.Sprintf("#define OUT_%s out_%s[%s]\n", a.Name, a.Name, indexExpr(a.Indexer, "i")))
	}
	sb.WriteString("\n")
	return sb.String()
}

// generateConnectivityMacro defines GET_COMPONENTS(e, shape, nids, ids)
func (p *preamble) generateConnectivityMacro() string {
	var sb strings.Builder
	sb.WriteString("// Element components\n")
	if p.kind == explicitTables {
		sb.WriteString("#define GET_COMPONENTS(e, shape, nids, ids) \\\n")
		sb.WriteString("    do { \\\n")
		sb.WriteString("        shape = shapes[e]; \\\n")
		sb.WriteString("        const int o_ = offsets[e]; \\\n")
		sb.WriteString("        nids = offsets[(e) + 1] - o_; \\\n")
		sb.WriteString("        for (int c_ = 0; c_ < nids; ++c_) { \\\n")
		sb.WriteString("            ids[c_] = conn[o_ + c_]; \\\n")
		sb.WriteString("        } \\\n")
		sb.WriteString("    } while(0)\n\n")
		return sb.String()
	}

	ni, nj := p.dims[0], p.dims[1]
	sb.WriteString(fmt.Sprintf("#define NI %d\n#define NJ %d\n", ni, nj))
	sb.WriteString("#define GET_COMPONENTS(e, shape, nids, ids) \\\n")
	sb.WriteString("    do { \\\n")
	switch p.dim {
	case 1:
		sb.WriteString("        shape = SHAPE_LINE; nids = 2; \\\n")
		sb.WriteString("        ids[0] = (e); ids[1] = (e) + 1; \\\n")
	case 2:
		sb.WriteString("        shape = SHAPE_QUAD; nids = 4; \\\n")
		sb.WriteString("        const int p_ = (e) % (NI - 1) + NI * ((e) / (NI - 1)); \\\n")
		sb.WriteString("        ids[0] = p_; ids[1] = p_ + 1; ids[2] = p_ + 1 + NI; ids[3] = p_ + NI; \\\n")
	default:
		sb.WriteString("        shape = SHAPE_HEX; nids = 8; \\\n")
		sb.WriteString("        const int i_ = (e) % (NI - 1); \\\n")
		sb.WriteString("        const int j_ = ((e) / (NI - 1)) % (NJ - 1); \\\n")
		sb.WriteString("        const int k_ = (e) / ((NI - 1) * (NJ - 1)); \\\n")
		sb.WriteString("        const int p_ = i_ + NI * (j_ + NJ * k_); \\\n")
		sb.WriteString("        ids[0] = p_; ids[1] = p_ + 1; ids[2] = p_ + 1 + NI; ids[3] = p_ + NI; \\\n")
		sb.WriteString("        for (int c_ = 0; c_ < 4; ++c_) { \\\n")
		sb.WriteString("            ids[c_ + 4] = ids[c_] + NI * NJ; \\\n")
		sb.WriteString("        } \\\n")
	}
	sb.WriteString("    } while(0)\n\n")
	return sb.String()
}

// sortedArgs orders arguments by name so kernel signatures are stable
func sortedArgs(args []Arg) []Arg {
	out := append([]Arg(nil), args...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

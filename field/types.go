package field

import "unsafe"

// Scalar is the set of element types an Array may hold
type Scalar interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	Int32
	Int64
)

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// SizeOf returns the size in bytes of a data type
func (dt DataType) SizeOf() int64 {
	switch dt {
	case Float32, Int32:
		return 4
	default:
		return 8
	}
}

// TypeName returns the C/OKL type name for a data type
func (dt DataType) TypeName() string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case Int32:
		return "int"
	default:
		return "long"
	}
}

// IsReal reports whether the type is a floating point type
func (dt DataType) IsReal() bool { return dt == Float32 || dt == Float64 }

// DataTypeOf returns the DataType of T
func DataTypeOf[T Scalar]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	}
	// Named types fall back to their size and kind
	switch {
	case unsafe.Sizeof(zero) == 4 && isReal(zero):
		return Float32
	case unsafe.Sizeof(zero) == 4:
		return Int32
	case isReal(zero):
		return Float64
	default:
		return Int64
	}
}

func isReal[T Scalar](v T) bool {
	v = 1
	return v/2 != 0
}

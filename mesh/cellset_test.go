package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellSet_Match(t *testing.T) {
	rs, err := NewRegularStructure(3, 3, 3)
	require.NoError(t, err)
	ex := twoTriangles(t)

	tests := []struct {
		name string
		cs   CellSet
		kind Kind
	}{
		{"explicit", NewExplicitCellSet(ex), KindExplicit},
		{"structured", NewStructuredCellSet(rs), KindStructured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Kind
			err := tt.cs.Match(CellSetCases{
				Explicit:   func(*Explicit) error { got = KindExplicit; return nil },
				Structured: func(*Structured) error { got = KindStructured; return nil },
			})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, got)
			assert.Equal(t, tt.kind, tt.cs.Kind())
		})
	}
}

func TestCellSet_Unsupported(t *testing.T) {
	var zero CellSet
	called := false
	err := zero.Match(CellSetCases{
		Explicit:   func(*Explicit) error { called = true; return nil },
		Structured: func(*Structured) error { called = true; return nil },
	})
	assert.ErrorIs(t, err, ErrUnsupportedCellSet)
	assert.False(t, called)

	// a variant without a handler is not silently skipped
	rs, err := NewRegularStructure(2, 2)
	require.NoError(t, err)
	err = NewStructuredCellSet(rs).Match(CellSetCases{Explicit: func(*Explicit) error { return nil }})
	assert.ErrorIs(t, err, ErrUnsupportedCellSet)

	_, err = NewExplicitCellSet(nil).NumElements(Cells)
	assert.ErrorIs(t, err, ErrUnsupportedCellSet)
}

func TestCellSet_NumElements(t *testing.T) {
	rs, err := NewRegularStructure(3, 3, 3)
	require.NoError(t, err)
	st := NewStructuredCellSet(rs)
	ex := NewExplicitCellSet(twoTriangles(t))

	tests := []struct {
		name  string
		cs    CellSet
		level Level
		want  int
	}{
		{"structured cells", st, Cells, 8},
		{"structured points", st, Points, 27},
		{"structured edges", st, Edges, 54},
		{"structured faces", st, Faces, 36},
		{"explicit cells", ex, Cells, 2},
		{"explicit points", ex, Points, 4},
		{"explicit edges", ex, Edges, 5},
		{"explicit faces", ex, Faces, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.cs.NumElements(tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexer_Index(t *testing.T) {
	tests := []struct {
		name string
		ix   Indexer
		in   []int
		want []int
	}{
		{"direct", Direct, []int{0, 1, 5}, []int{0, 1, 5}},
		{"component", Component(3, 2), []int{0, 1, 4}, []int{2, 5, 14}},
		{"broadcast", Indexer{Div: 1, Mul: 0, Add: 4}, []int{0, 9}, []int{4, 4}},
		{"repeat", Indexer{Div: 2, Mul: 1}, []int{0, 1, 2, 3}, []int{0, 0, 1, 1}},
		{"periodic", Indexer{Div: 1, Mod: 3, Mul: 2, Add: 1}, []int{0, 2, 3, 4}, []int{1, 5, 1, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, i := range tt.in {
				assert.Equal(t, tt.want[k], tt.ix.Index(i), "position %d", i)
			}
		})
	}
}

func TestIndexable_Len(t *testing.T) {
	a := NewArray[float64]("a", 3, 4)
	tests := []struct {
		name string
		ix   Indexer
		want int
	}{
		{"direct", Direct, 12},
		{"component", Component(3, 1), 4},
		{"last component", Component(3, 2), 4},
		{"broadcast", Indexer{Div: 1, Add: 5}, math.MaxInt},
		{"periodic", Indexer{Div: 1, Mod: 4, Mul: 3}, math.MaxInt},
		{"repeat", Indexer{Div: 2, Mul: 3}, 8},
		{"offset outside", Indexer{Div: 1, Mul: 1, Add: 12}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Indexable[float64]{Array: a, Indexer: tt.ix}.Len()
			assert.Equal(t, tt.want, got)
		})
	}
}

package field

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

var (
	// ErrIndexOutOfRange is returned when an index array entry names an
	// element outside the source level
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrLengthMismatch is returned when bound collections disagree in length
	ErrLengthMismatch = errors.New("length mismatch")
)

// IndexArray maps dense output positions to sparse element ids
type IndexArray struct {
	Indexable[int32]
}

// NewIndexArray wraps ids as a single component index array
func NewIndexArray(name string, ids []int32) *IndexArray {
	a, _ := Wrap(name, 1, ids)
	return &IndexArray{Indexable: Bound(a, 0)}
}

// Identity returns the index array 0..n-1
func Identity(name string, n int) *IndexArray {
	ids := make([]int32, n)
	for i := range ids {
		ids[i] = int32(i)
	}
	return NewIndexArray(name, ids)
}

// IndexFromBitmap builds an ascending index array from a selection of element
// ids
func IndexFromBitmap(name string, bm *roaring.Bitmap) *IndexArray {
	ids := make([]int32, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, int32(it.Next()))
	}
	return NewIndexArray(name, ids)
}

// Len returns the number of dense positions
func (x *IndexArray) Len() int { return x.Array.NumTuples() }

// At returns the sparse id of dense position i from the host copy
func (x *IndexArray) At(i int) int {
	return int(x.Array.Host()[x.Indexer.Index(i)])
}

// Validate fails with ErrIndexOutOfRange at the first entry outside
// [0, limit)
func (x *IndexArray) Validate(limit int) error {
	if x.Array.Location()&Host == 0 {
		if err := x.Array.NeedOnHost(); err != nil {
			return err
		}
	}
	n := x.Len()
	if x.Indexable.Len() < n {
		return fmt.Errorf("%w: index array %s addresses %d of %d positions",
			ErrLengthMismatch, x.Array.Name(), x.Indexable.Len(), n)
	}
	for i := 0; i < n; i++ {
		if id := x.At(i); id < 0 || id >= limit {
			return fmt.Errorf("%w: %s[%d] = %d, source level has %d elements",
				ErrIndexOutOfRange, x.Array.Name(), i, id, limit)
		}
	}
	return nil
}

// Coverage returns the set of distinct element ids referenced. Negative ids
// are skipped; Validate reports them.
func (x *IndexArray) Coverage() *roaring.Bitmap {
	bm := roaring.New()
	for i := 0; i < x.Len(); i++ {
		if id := x.At(i); id >= 0 {
			bm.Add(uint32(id))
		}
	}
	return bm
}

// Bind returns the raw ids and their indexer at loc
func (x *IndexArray) Bind(loc Location) ([]int32, Indexer, error) {
	data, err := x.Array.Slice(loc)
	if err != nil {
		return nil, Indexer{}, err
	}
	return data, x.Indexer, nil
}

package partitions

import (
	"fmt"
	"math"
)

// Partition is a strided range of dense indices that executes together as
// one unit of host work: Start, Start+Stride, ... while below End
type Partition struct {
	ID     int
	Start  int
	End    int
	Stride int
}

// NumItems returns the number of indices covered by the partition
func (p Partition) NumItems() int {
	if p.End <= p.Start {
		return 0
	}
	return (p.End - p.Start + p.Stride - 1) / p.Stride
}

// Each calls fn for every index of the partition in ascending order and stops
// at the first error
func (p Partition) Each(fn func(i int) error) error {
	for i := p.Start; i < p.End; i += p.Stride {
		if err := fn(i); err != nil {
			return err
		}
	}
	return nil
}

// PartitionLayout is the complete decomposition of [0, NumItems)
type PartitionLayout struct {
	Partitions    []Partition
	KpartMax      int // max(NumItems) across all partitions
	NumItems      int
	NumPartitions int
}

// PartitionStrategy defines how indices are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive indices
	RoundRobin                              // Distribute cyclically
)

func (s PartitionStrategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	default:
		return fmt.Sprintf("PartitionStrategy(%d)", int(s))
	}
}

// PartitionBuilder constructs partitions of a dense index range
type PartitionBuilder struct {
	NumItems            int
	TargetPartitionSize int // Desired indices per partition
	MaxPartitions       int // Upper bound on partitions, 0 for none
	Strategy            PartitionStrategy
}

// BuildPartitions creates a partition layout covering [0, NumItems)
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumItems < 0 {
		return nil, fmt.Errorf("negative item count %d", pb.NumItems)
	}
	numPartitions := pb.calculateNumPartitions()

	partitions := make([]Partition, numPartitions)
	switch pb.Strategy {
	case RoundRobin:
		for p := range partitions {
			partitions[p] = Partition{ID: p, Start: p, End: pb.NumItems, Stride: numPartitions}
		}
	case BlockPartition:
		per := int(math.Ceil(float64(pb.NumItems) / float64(numPartitions)))
		for p := range partitions {
			start := min(p*per, pb.NumItems)
			end := min(start+per, pb.NumItems)
			partitions[p] = Partition{ID: p, Start: start, End: end, Stride: 1}
		}
	default:
		return nil, fmt.Errorf("unknown partition strategy %s", pb.Strategy)
	}

	kpartMax := 0
	for _, p := range partitions {
		kpartMax = max(kpartMax, p.NumItems())
	}

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		NumItems:      pb.NumItems,
		NumPartitions: numPartitions,
	}
	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}
	return layout, nil
}

// calculateNumPartitions determines the partition count from the target size
func (pb *PartitionBuilder) calculateNumPartitions() int {
	target := pb.TargetPartitionSize
	if target < 1 {
		target = 1
	}
	numPartitions := int(math.Ceil(float64(pb.NumItems) / float64(target)))
	if pb.MaxPartitions > 0 && numPartitions > pb.MaxPartitions {
		numPartitions = pb.MaxPartitions
	}
	// Ensure at least one partition
	if numPartitions < 1 {
		numPartitions = 1
	}
	return numPartitions
}

// ValidateLayout checks that every index is covered exactly once and that
// KpartMax matches the partitions
func (pl *PartitionLayout) ValidateLayout() error {
	total, actualMax := 0, 0
	for _, p := range pl.Partitions {
		if p.Stride < 1 {
			return fmt.Errorf("partition %d: stride %d", p.ID, p.Stride)
		}
		total += p.NumItems()
		actualMax = max(actualMax, p.NumItems())
	}
	if total != pl.NumItems {
		return fmt.Errorf("partitions cover %d items, expected %d", total, pl.NumItems)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	return nil
}

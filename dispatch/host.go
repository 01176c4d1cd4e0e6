package dispatch

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/meshop/field"
	"github.com/notargets/meshop/mesh"
	"github.com/notargets/meshop/partitions"
)

// Host runs on the calling machine. Workers <= 1 runs serially in dense
// order; otherwise the range is split into one partition per worker, blocks
// of consecutive positions unless Strategy says otherwise.
type Host struct {
	Workers  int
	Strategy partitions.PartitionStrategy
}

func (h Host) Name() string {
	switch {
	case h.Workers <= 1:
		return "host"
	case h.Strategy != partitions.BlockPartition:
		return fmt.Sprintf("host/%d/%s", h.Workers, h.Strategy)
	}
	return fmt.Sprintf("host/%d", h.Workers)
}

func (Host) isBackend() {}

func runHost[C mesh.Connectivity, IA any, OA field.Sink[V], V any](
	h Host, n int, conn C, in IA, out OA, idx []int32, ix field.Indexer,
	f Functor[IA, V]) error {

	if h.Workers <= 1 {
		var ids [mesh.MaxLocalIDs]int
		for i := 0; i < n; i++ {
			if err := gather(i, conn, in, out, idx, ix, ids[:], f); err != nil {
				return err
			}
		}
		return nil
	}

	pb := partitions.PartitionBuilder{
		NumItems:            n,
		TargetPartitionSize: (n + h.Workers - 1) / h.Workers,
		MaxPartitions:       h.Workers,
		Strategy:            h.Strategy,
	}
	layout, err := pb.BuildPartitions()
	if err != nil {
		return fmt.Errorf("failed to partition %d positions: %w", n, err)
	}

	var g errgroup.Group
	g.SetLimit(h.Workers)
	for _, p := range layout.Partitions {
		g.Go(func() error {
			var ids [mesh.MaxLocalIDs]int
			return p.Each(func(i int) error {
				return gather(i, conn, in, out, idx, ix, ids[:], f)
			})
		})
	}
	return g.Wait()
}

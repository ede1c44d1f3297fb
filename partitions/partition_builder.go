package partitions

import (
	"fmt"
	"math"
	"sync"
)

// PartitionBuilder constructs partitions over the elements of a mesh
type PartitionBuilder struct {
	NumElements int

	// Partitioning parameters
	NumPartitions int // Requested partition count, clamped to [1, NumElements]
	Strategy      PartitionStrategy
}

// PartitionStrategy defines how elements are grouped
type PartitionStrategy int

const (
	BlockPartition PartitionStrategy = iota // Consecutive elements
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

// NewPartitionBuilder partitions numElements into at most numPartitions blocks
func NewPartitionBuilder(numElements, numPartitions int) *PartitionBuilder {
	return &PartitionBuilder{
		NumElements:   numElements,
		NumPartitions: numPartitions,
		Strategy:      BlockPartition,
	}
}

// BuildPartitions creates a partition layout
func (pb *PartitionBuilder) BuildPartitions() (*PartitionLayout, error) {
	if pb.NumElements < 1 {
		return nil, fmt.Errorf("cannot partition %d elements", pb.NumElements)
	}
	numPartitions := pb.calculateNumPartitions()

	eToP, err := pb.partitionElements(numPartitions)
	if err != nil {
		return nil, err
	}

	partitions := pb.createPartitions(eToP, numPartitions)

	layout := &PartitionLayout{
		Partitions:    partitions,
		KpartMax:      calculateKpartMax(partitions),
		TotalElements: pb.NumElements,
		NumPartitions: numPartitions,
		EToP:          eToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions clamps the requested count so no partition is empty
func (pb *PartitionBuilder) calculateNumPartitions() int {
	n := pb.NumPartitions
	if n < 1 {
		n = 1
	}
	if n > pb.NumElements {
		n = pb.NumElements
	}
	return n
}

// partitionElements assigns elements to partitions
func (pb *PartitionBuilder) partitionElements(numPartitions int) ([]int, error) {
	eToP := make([]int, pb.NumElements)

	switch pb.Strategy {
	case BlockPartition:
		// Spread the remainder over the first partitions so sizes differ by at most one
		base := pb.NumElements / numPartitions
		extra := pb.NumElements % numPartitions
		k := 0
		for p := 0; p < numPartitions; p++ {
			size := base
			if p < extra {
				size++
			}
			for i := 0; i < size; i++ {
				eToP[k] = p
				k++
			}
		}

	case RoundRobin:
		for i := 0; i < pb.NumElements; i++ {
			eToP[i] = i % numPartitions
		}

	default:
		return nil, fmt.Errorf("unknown partition strategy %v", pb.Strategy)
	}

	return eToP, nil
}

// createPartitions builds partition structures from element assignments
func (pb *PartitionBuilder) createPartitions(eToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)
	for i := range partitions {
		partitions[i] = Partition{ID: i, Elements: make([]int, 0)}
	}
	for elem, part := range eToP {
		partitions[part].Elements = append(partitions[part].Elements, elem)
		partitions[part].NumElements++
	}
	return partitions
}

// calculateKpartMax finds maximum elements across all partitions
func calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumElements > kpartMax {
			kpartMax = p.NumElements
		}
	}
	return kpartMax
}

// Each runs fn once per partition, one goroutine per partition, and returns
// the error of the lowest-numbered failing partition
func (layout *PartitionLayout) Each(fn func(p Partition) error) error {
	errs := make([]error, layout.NumPartitions)
	var wg sync.WaitGroup
	for i := range layout.Partitions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = fn(layout.Partitions[i])
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("partition %d: %w", i, err)
		}
	}
	return nil
}

// PartitionStatistics computes load balance metrics
func (layout *PartitionLayout) PartitionStatistics() PartitionStats {
	stats := PartitionStats{
		NumPartitions: layout.NumPartitions,
		MinElements:   math.MaxInt32,
		MaxElements:   0,
		AvgElements:   float64(layout.TotalElements) / float64(layout.NumPartitions),
	}

	for _, p := range layout.Partitions {
		if p.NumElements < stats.MinElements {
			stats.MinElements = p.NumElements
		}
		if p.NumElements > stats.MaxElements {
			stats.MaxElements = p.NumElements
		}
	}

	stats.Imbalance = float64(stats.MaxElements) / stats.AvgElements

	return stats
}

type PartitionStats struct {
	NumPartitions int
	MinElements   int
	MaxElements   int
	AvgElements   float64
	Imbalance     float64 // MaxElements / AvgElements
}

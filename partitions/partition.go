package partitions

import (
	"fmt"
	"strings"
)

// Partition is a group of elements processed together by one worker
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Element membership
	Elements    []int // Global element indices in this partition, ascending
	NumElements int   // Number of elements
}

// PartitionLayout manages the complete element decomposition of a mesh
type PartitionLayout struct {
	// All partitions in the mesh
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumElements) across all partitions
	TotalElements int // Sum of all elements across partitions
	NumPartitions int // Total number of partitions

	// Element to partition mapping
	EToP []int // Length TotalElements: element k belongs to partition EToP[k]
}

// GetPartition returns the partition containing element k
func (pl *PartitionLayout) GetPartition(elementID int) int {
	if elementID < 0 || elementID >= len(pl.EToP) {
		return -1
	}
	return pl.EToP[elementID]
}

// ValidateLayout checks partition consistency: every element belongs to
// exactly one partition and EToP agrees with the membership lists
func (pl *PartitionLayout) ValidateLayout() error {
	if len(pl.Partitions) != pl.NumPartitions {
		return fmt.Errorf("%d partitions stored, NumPartitions is %d",
			len(pl.Partitions), pl.NumPartitions)
	}
	if len(pl.EToP) != pl.TotalElements {
		return fmt.Errorf("EToP has %d entries for %d elements", len(pl.EToP), pl.TotalElements)
	}
	actualMax, total := 0, 0
	seen := make([]bool, pl.TotalElements)
	for i, p := range pl.Partitions {
		if p.ID != i {
			return fmt.Errorf("partition at position %d has ID %d", i, p.ID)
		}
		if p.NumElements != len(p.Elements) {
			return fmt.Errorf("partition %d: NumElements %d != %d listed",
				p.ID, p.NumElements, len(p.Elements))
		}
		if p.NumElements > actualMax {
			actualMax = p.NumElements
		}
		total += p.NumElements
		for _, k := range p.Elements {
			if k < 0 || k >= pl.TotalElements {
				return fmt.Errorf("partition %d: element %d out of range", p.ID, k)
			}
			if seen[k] {
				return fmt.Errorf("element %d assigned twice", k)
			}
			seen[k] = true
			if pl.EToP[k] != p.ID {
				return fmt.Errorf("element %d: EToP says %d, listed in %d", k, pl.EToP[k], p.ID)
			}
		}
	}
	if total != pl.TotalElements {
		return fmt.Errorf("partitions hold %d elements, expected %d", total, pl.TotalElements)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	return nil
}

// String summarises the layout
func (pl *PartitionLayout) String() string {
	var sb strings.Builder
	stats := pl.PartitionStatistics()
	sb.WriteString(fmt.Sprintf("PartitionLayout: %d elements in %d partitions\n",
		pl.TotalElements, pl.NumPartitions))
	sb.WriteString(fmt.Sprintf("  min %d, max %d, imbalance %.3f\n",
		stats.MinElements, stats.MaxElements, stats.Imbalance))
	return sb.String()
}

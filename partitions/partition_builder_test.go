package partitions

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartitions_Block(t *testing.T) {
	layout, err := NewPartitionBuilder(10, 3).BuildPartitions()
	require.NoError(t, err)

	if layout.NumPartitions != 3 {
		t.Fatalf("Expected 3 partitions, got %d", layout.NumPartitions)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, layout.Partitions[0].Elements)
	assert.Equal(t, []int{4, 5, 6}, layout.Partitions[1].Elements)
	assert.Equal(t, []int{7, 8, 9}, layout.Partitions[2].Elements)
	assert.Equal(t, 4, layout.KpartMax)
	assert.Equal(t, 1, layout.GetPartition(5))
	assert.Equal(t, -1, layout.GetPartition(10))
}

func TestBuildPartitions_RoundRobin(t *testing.T) {
	pb := NewPartitionBuilder(7, 3)
	pb.Strategy = RoundRobin
	layout, err := pb.BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, layout.Partitions[0].Elements)
	assert.Equal(t, []int{1, 4}, layout.Partitions[1].Elements)
	assert.Equal(t, []int{2, 5}, layout.Partitions[2].Elements)
	assert.Equal(t, "round-robin", pb.Strategy.String())
}

func TestBuildPartitions_Clamping(t *testing.T) {
	layout, err := NewPartitionBuilder(2, 8).BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, 2, layout.NumPartitions)

	layout, err = NewPartitionBuilder(5, 0).BuildPartitions()
	require.NoError(t, err)
	assert.Equal(t, 1, layout.NumPartitions)
	assert.Equal(t, 5, layout.KpartMax)

	_, err = NewPartitionBuilder(0, 2).BuildPartitions()
	assert.Error(t, err)

	pb := NewPartitionBuilder(4, 2)
	pb.Strategy = PartitionStrategy(9)
	_, err = pb.BuildPartitions()
	assert.Error(t, err)
}

func TestPartitionStatistics(t *testing.T) {
	layout, err := NewPartitionBuilder(10, 4).BuildPartitions()
	require.NoError(t, err)
	stats := layout.PartitionStatistics()
	assert.Equal(t, 2, stats.MinElements)
	assert.Equal(t, 3, stats.MaxElements)
	assert.InDelta(t, 2.5, stats.AvgElements, 1e-15)
	assert.InDelta(t, 1.2, stats.Imbalance, 1e-15)
	assert.Contains(t, layout.String(), "10 elements in 4 partitions")
}

func TestValidateLayout_DetectsCorruption(t *testing.T) {
	layout, err := NewPartitionBuilder(6, 2).BuildPartitions()
	require.NoError(t, err)
	require.NoError(t, layout.ValidateLayout())

	layout.EToP[0] = 1
	if err := layout.ValidateLayout(); err == nil {
		t.Errorf("Expected EToP mismatch to be reported")
	}
	layout.EToP[0] = 0

	layout.Partitions[1].Elements[0] = 0
	assert.Error(t, layout.ValidateLayout())
}

func TestEachVisitsEveryElementOnce(t *testing.T) {
	const n = 101
	layout, err := NewPartitionBuilder(n, 4).BuildPartitions()
	require.NoError(t, err)

	visits := make([]int32, n)
	err = layout.Each(func(p Partition) error {
		for _, k := range p.Elements {
			atomic.AddInt32(&visits[k], 1)
		}
		return nil
	})
	require.NoError(t, err)
	for k, v := range visits {
		if v != 1 {
			t.Errorf("element %d visited %d times", k, v)
		}
	}

	boom := errors.New("boom")
	err = layout.Each(func(p Partition) error {
		if p.ID >= 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "partition 2")
}

package keyspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPartitioner(units int) *Partitioner {
	return NewPartitioner(Config{HardwareUnits: units})
}

func testSpace(seconds int64) Space {
	return Space{
		TimeStart: 1000,
		TimeEnd:   1000 + seconds - 1,
		Timer0:    Range{Min: 0xC79, Max: 0xC7A},
		VCount:    Range{Min: 0x60, Max: 0x60},
	}
}

func TestPartitionCoversSpace(t *testing.T) {
	t.Parallel()

	// Odd second counts and unit counts exercise the remainder handling.
	for _, seconds := range []int64{1, 7, 100, 86400, 86401} {
		for _, units := range []int{1, 2, 3, 8, 16} {
			space := testSpace(seconds)
			chunks := testPartitioner(units).Partition(space, units)

			require.NotEmpty(t, chunks)
			require.LessOrEqual(t, len(chunks), units)

			next := space.TimeStart
			var ops uint64

			for i, c := range chunks {
				assert.Equal(t, i, c.UnitID)
				assert.Equal(t, next, c.TimeStart, "gap or overlap before chunk %d", i)
				assert.LessOrEqual(t, c.TimeStart, c.TimeEnd)
				assert.Equal(t, space.Timer0, c.Timer0)
				assert.Equal(t, space.VCount, c.VCount)

				next = c.TimeEnd + 1
				ops += c.EstimatedOperations
			}

			assert.Equal(t, space.TimeEnd+1, next, "chunks must end exactly at the space end")
			assert.Equal(t, space.TotalOperations(), ops)
		}
	}
}

func TestPartitionBalanced(t *testing.T) {
	t.Parallel()

	// 120 seconds over 4 units divides evenly: identical chunks, score 100.
	chunks := testPartitioner(4).Partition(testSpace(120), 4)
	require.Len(t, chunks, 4)

	for _, c := range chunks {
		assert.Equal(t, chunks[0].EstimatedOperations, c.EstimatedOperations)
		assert.Equal(t, int64(30), c.Seconds())
	}

	assert.InDelta(t, 100.0, LoadBalanceScore(chunks), 1e-9)
}

func TestPartitionOverProvisioned(t *testing.T) {
	t.Parallel()

	// 3 seconds cannot feed 8 units; trailing segments are dropped.
	chunks := testPartitioner(8).Partition(testSpace(3), 8)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, int64(1), c.Seconds())
	}
}

func TestPartitionEmptySpace(t *testing.T) {
	t.Parallel()

	p := testPartitioner(4)

	assert.Nil(t, p.Partition(Space{TimeStart: 10, TimeEnd: 9}, 4))
	assert.Nil(t, p.Partition(Space{TimeStart: 10, TimeEnd: -10}, 4))
}

func TestEffectiveUnits(t *testing.T) {
	t.Parallel()

	p := NewPartitioner(Config{HardwareUnits: 8, MemoryBudget: 16 * PerUnitMemoryEstimate})

	assert.Equal(t, 4, p.EffectiveUnits(4))
	assert.Equal(t, 8, p.EffectiveUnits(32), "clamped by the hardware hint")
	assert.Equal(t, 1, p.EffectiveUnits(0))
	assert.Equal(t, 1, p.EffectiveUnits(-3))

	tight := NewPartitioner(Config{HardwareUnits: 8, MemoryBudget: 2 * PerUnitMemoryEstimate})
	assert.Equal(t, 2, tight.EffectiveUnits(8), "clamped by the memory budget")

	starved := NewPartitioner(Config{HardwareUnits: 8, MemoryBudget: 1})
	assert.Equal(t, 1, starved.EffectiveUnits(8), "at least one unit always runs")
}

func TestTotalOperations(t *testing.T) {
	t.Parallel()

	s := Space{
		TimeStart: 0,
		TimeEnd:   59,
		Timer0:    Range{Min: 0xC79, Max: 0xC7A},
		VCount:    Range{Min: 0x5F, Max: 0x61},
	}

	// 60 seconds x 2 timer0 values x 3 vcount values.
	assert.Equal(t, uint64(360), s.TotalOperations())
	assert.Zero(t, Space{TimeStart: 5, TimeEnd: 4}.TotalOperations())
}

func TestRangeCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(1), Range{Min: 7, Max: 7}.Count())
	assert.Equal(t, uint64(0x10000), Range{Min: 0, Max: 0xFFFF}.Count())
	assert.Zero(t, Range{Min: 2, Max: 1}.Count())

	assert.True(t, Range{Min: 2, Max: 4}.Contains(3))
	assert.False(t, Range{Min: 2, Max: 4}.Contains(5))
}

func TestLoadBalanceScoreDegenerate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, LoadBalanceScore(nil))
	assert.InDelta(t, 100.0, LoadBalanceScore([]Chunk{{EstimatedOperations: 42}}), 1e-9)

	// One heavy and one empty chunk: CoV = 1, score floored at 0.
	skewed := []Chunk{{EstimatedOperations: 100}, {EstimatedOperations: 0}}
	assert.Zero(t, LoadBalanceScore(skewed))
}

package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionPolicyKeepsShortCoursesWhole(t *testing.T) {
	policy := NewPartitionPolicy(8, []int{6, 4})

	assert.Equal(t, []int{4}, policy(4))
	assert.Equal(t, []int{8}, policy(8))
	assert.Equal(t, []int{6, 4}, policy(10))
}

func TestContiguousBlocksEnumeratesRuns(t *testing.T) {
	blocks := contiguousBlocks([]int{16, 17, 18, 19, 21, 22}, 2)

	assert.Equal(t, [][]int{
		{16, 17},
		{17, 18},
		{18, 19},
		{21, 22},
	}, blocks)
}

func TestContiguousBlocksSkipsGaps(t *testing.T) {
	assert.Empty(t, contiguousBlocks([]int{16, 18, 20}, 2))
}

func TestContiguousBlocksEdgeLengths(t *testing.T) {
	assert.Nil(t, contiguousBlocks([]int{16, 17}, 0))
	assert.Empty(t, contiguousBlocks([]int{16, 17}, 3))
}

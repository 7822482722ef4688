package timetable

// PartitionPolicy maps a course's weekly duration (in atomic units) to the
// ordered list of admissible block lengths used to cover it.
type PartitionPolicy func(units int) []int

// NewPartitionPolicy builds the default policy: durations at or below the
// single-day threshold are placed as one block of the full duration, anything
// above is covered by the configured split lengths.
func NewPartitionPolicy(singleDayMaxUnits int, splitLengths []int) PartitionPolicy {
	split := make([]int, len(splitLengths))
	copy(split, splitLengths)
	return func(units int) []int {
		if units <= singleDayMaxUnits {
			return []int{units}
		}
		return split
	}
}

// contiguousBlocks enumerates every run of exactly length consecutive slot
// indices inside the sorted availability list. Runs from different starting
// points may overlap; selecting among them is the model's job, not the
// generator's.
func contiguousBlocks(available []int, length int) [][]int {
	if length <= 0 {
		return nil
	}
	var blocks [][]int
	for i := 0; i+length <= len(available); i++ {
		run := available[i : i+length]
		contiguous := true
		for j := 1; j < len(run); j++ {
			if run[j] != run[j-1]+1 {
				contiguous = false
				break
			}
		}
		if contiguous {
			block := make([]int, length)
			copy(block, run)
			blocks = append(blocks, block)
		}
	}
	return blocks
}

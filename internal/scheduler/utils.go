package scheduler

import "github.com/isc-horarios/timetable/backend/internal/domain"

// validStarts 返回能容纳 duration 个课时的所有起始课时
func validStarts(duration int) []int {
	starts := make([]int, 0, domain.BlocksPerShift)
	for b := 1; b+duration-1 <= domain.BlocksPerShift; b++ {
		starts = append(starts, b)
	}
	return starts
}

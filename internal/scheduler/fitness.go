package scheduler

import (
	"sort"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

type groupSubjectKey struct {
	groupID   int64
	subjectID int64
}

type groupSubjectDayKey struct {
	groupID   int64
	subjectID int64
	day       domain.Day
}

/**
 * 计算染色体中各类约束被违反的次数
 * 基因会被按三种方式分组:
 * 		1. (group, day, shift): 预约冲突、班级时间冲突、连堂超限
 * 		2. (teacher, day, shift): 教师时间冲突
 * 		3. (group, subject, day): 每日课时超限
 * 另外还会统计每个教师每周的总课时
 */
func (s *Snapshot) calcMetrics(genes []Gene) domain.Metrics {
	var m domain.Metrics

	byGroupDay := make(map[slotKey][]Gene)
	byTeacherDay := make(map[slotKey][]Gene)
	blocksBySubjectDay := make(map[groupSubjectDayKey]int)
	blocksByTeacher := make(map[int64]int)
	sessions := make(map[groupSubjectKey]int)

	for _, g := range genes {
		gk := slotKey{id: g.groupID, day: g.day, shift: g.shift}
		byGroupDay[gk] = append(byGroupDay[gk], g)
		tk := slotKey{id: g.teacherID, day: g.day, shift: g.shift}
		byTeacherDay[tk] = append(byTeacherDay[tk], g)
		blocksBySubjectDay[groupSubjectDayKey{groupID: g.groupID, subjectID: g.subjectID, day: g.day}] += g.duration()
		blocksByTeacher[g.teacherID] += g.duration()
		sessions[groupSubjectKey{groupID: g.groupID, subjectID: g.subjectID}]++

		m.ReservationViolations += s.reservationConflicts(g.groupID, g.day, g.shift, g.blockStart, g.blockEnd, g.subjectID)

		if !s.isAvailable(g.teacherID, g.day, g.shift, g.blockStart, g.blockEnd) {
			m.AvailabilityViolations++
		}
		if meta, ok := s.subjects[g.subjectID]; !ok || meta.shift != g.shift {
			m.ShiftMismatches++
		}
	}

	for _, slots := range byGroupDay {
		sortByStart(slots)
		m.GroupConflicts += overlappingPairs(slots)

		for i := 0; i+1 < len(slots); i++ {
			cur, next := slots[i], slots[i+1]
			if cur.subjectID != next.subjectID || next.blockStart != cur.blockEnd+1 {
				continue
			}
			if combined := cur.duration() + next.duration(); combined > domain.MaxBlocksPerSubjectDay {
				m.ConsecutiveBlockExcess += combined - domain.MaxBlocksPerSubjectDay
			}
		}
	}

	for _, slots := range byTeacherDay {
		sortByStart(slots)
		m.TeacherConflicts += overlappingPairs(slots)
	}

	for _, p := range s.plans {
		cnt := sessions[groupSubjectKey{groupID: p.groupID, subjectID: p.subjectID}]
		switch {
		case cnt > p.sessionsPerWeek:
			m.ExcessSessions += cnt - p.sessionsPerWeek
		case cnt < p.sessionsPerWeek:
			m.MissingSessions += p.sessionsPerWeek - cnt
		}
	}

	for _, blocks := range blocksBySubjectDay {
		if blocks > domain.MaxBlocksPerSubjectDay {
			m.DailyBlockExcess += blocks - domain.MaxBlocksPerSubjectDay
		}
	}

	for _, blocks := range blocksByTeacher {
		hours := float64(blocks) * domain.BlockHours
		if hours > domain.MaxWeeklyHours {
			m.WeeklyHourExcess += int(hours - domain.MaxWeeklyHours)
		}
	}

	return m
}

// calcFitness fitness = -(加权惩罚之和)，因此 fitness <= 0
func (s *Snapshot) calcFitness(ch *Chromosome) {
	ch.fitness = -s.calcMetrics(ch.genes).Penalty()
}

// sortByStart 按起始课时升序排序，起始课时相同时保持原有顺序
func sortByStart(slots []Gene) {
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].blockStart < slots[j].blockStart
	})
}

func overlappingPairs(slots []Gene) int {
	cnt := 0
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if slots[i].overlaps(slots[j].blockStart, slots[j].blockEnd) {
				cnt++
			}
		}
	}
	return cnt
}

package scheduler

import (
	"slices"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

type slotKey struct {
	id    int64
	day   domain.Day
	shift domain.Shift
}

type reservedRange struct {
	start, end int
	subjectID  int64
}

type blockRange struct {
	start, end int
}

type plan struct {
	groupID         int64
	subjectID       int64
	sessionsPerWeek int
	duration        int
	shift           domain.Shift
}

type subjectMeta struct {
	duration int
	shift    domain.Shift
}

// Snapshot 为一次运行期间只读的基础数据索引，构建之后不会再被修改
type Snapshot struct {
	reservations   map[slotKey][]reservedRange // {(group, day, shift): [...]}
	availability   map[slotKey][]blockRange    // {(teacher, day, shift): [...]}
	capabilities   map[int64]map[int64]bool    // {teacher: {subject}}
	capableByTopic map[int64][]int64           // {subject: [teacher...]}，按 id 升序
	plans          []plan
	subjects       map[int64]subjectMeta
	teacherIDs     []int64
}

// NewSnapshot 根据 scope 过滤并索引基础数据
func NewSnapshot(ref *domain.ReferenceData, scope domain.Scope) *Snapshot {
	s := &Snapshot{
		reservations:   make(map[slotKey][]reservedRange),
		availability:   make(map[slotKey][]blockRange),
		capabilities:   make(map[int64]map[int64]bool),
		capableByTopic: make(map[int64][]int64),
		plans:          make([]plan, 0, len(ref.Curriculum)),
		subjects:       make(map[int64]subjectMeta, len(ref.Subjects)),
		teacherIDs:     make([]int64, 0, len(ref.Teachers)),
	}

	for _, subject := range ref.Subjects {
		duration := subject.Duration
		if duration <= 0 {
			duration = domain.DefaultSubjectDuration
		}
		s.subjects[subject.ID] = subjectMeta{duration: duration, shift: subject.Shift}
	}

	for _, teacher := range ref.Teachers {
		s.teacherIDs = append(s.teacherIDs, teacher.ID)
		if _, exists := s.capabilities[teacher.ID]; !exists {
			s.capabilities[teacher.ID] = make(map[int64]bool)
		}
		for _, subjectID := range teacher.SubjectIDs {
			if s.capabilities[teacher.ID][subjectID] {
				continue
			}
			s.capabilities[teacher.ID][subjectID] = true
			s.capableByTopic[subjectID] = append(s.capableByTopic[subjectID], teacher.ID)
		}
	}
	slices.Sort(s.teacherIDs)
	s.teacherIDs = slices.Compact(s.teacherIDs)
	for _, teachers := range s.capableByTopic {
		slices.Sort(teachers)
	}

	groups := make(map[int64]*domain.Group, len(ref.Groups))
	for _, group := range ref.Groups {
		groups[group.ID] = group
	}

	for _, entry := range ref.Curriculum {
		group, ok := groups[entry.GroupID]
		if !ok || !scope.Includes(group.Shift) {
			continue
		}
		meta, ok := s.subjects[entry.SubjectID]
		if !ok {
			continue
		}
		s.plans = append(s.plans, plan{
			groupID:         entry.GroupID,
			subjectID:       entry.SubjectID,
			sessionsPerWeek: entry.SessionsPerWeek,
			duration:        meta.duration,
			shift:           group.Shift,
		})
	}

	for _, r := range ref.Reservations {
		if !scope.Includes(r.Shift) {
			continue
		}
		key := slotKey{id: r.GroupID, day: r.Day, shift: r.Shift}
		s.reservations[key] = append(s.reservations[key], reservedRange{start: r.BlockStart, end: r.BlockEnd, subjectID: r.SubjectID})
	}

	for _, w := range ref.Availability {
		if !scope.Includes(w.Shift) {
			continue
		}
		key := slotKey{id: w.TeacherID, day: w.Day, shift: w.Shift}
		s.availability[key] = append(s.availability[key], blockRange{start: w.BlockStart, end: w.BlockEnd})
	}

	return s
}

// reservationConflicts 统计与 [start, end] 重叠且课程不同的预约数量
func (s *Snapshot) reservationConflicts(groupID int64, day domain.Day, shift domain.Shift, start, end int, subjectID int64) int {
	cnt := 0
	for _, r := range s.reservations[slotKey{id: groupID, day: day, shift: shift}] {
		if !(end < r.start || start > r.end) && r.subjectID != subjectID {
			cnt++
		}
	}
	return cnt
}

// isAvailable 判断教师是否有一个空闲时间段完整覆盖 [start, end]
func (s *Snapshot) isAvailable(teacherID int64, day domain.Day, shift domain.Shift, start, end int) bool {
	for _, w := range s.availability[slotKey{id: teacherID, day: day, shift: shift}] {
		if start >= w.start && end <= w.end {
			return true
		}
	}
	return false
}

func (s *Snapshot) capableTeachers(subjectID int64) []int64 {
	return s.capableByTopic[subjectID]
}

func (s *Snapshot) demands() []demand {
	var demands []demand
	for _, p := range s.plans {
		for i := 0; i < p.sessionsPerWeek; i++ {
			demands = append(demands, demand{
				groupID:   p.groupID,
				subjectID: p.subjectID,
				duration:  p.duration,
				shift:     p.shift,
			})
		}
	}
	return demands
}

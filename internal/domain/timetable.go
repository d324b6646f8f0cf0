package domain

import (
	"fmt"
	"strings"
)

// Day 为一周中的上课日，1 表示周一
type Day int32

const (
	DayMonday Day = iota + 1
	DayTuesday
	DayWednesday
	DayThursday
	DayFriday
)

// Days 按顺序列出所有上课日
var Days = []Day{DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday}

var dayNames = map[Day]string{
	DayMonday:    "LUNES",
	DayTuesday:   "MARTES",
	DayWednesday: "MIERCOLES",
	DayThursday:  "JUEVES",
	DayFriday:    "VIERNES",
}

func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "DESCONOCIDO"
}

func (d Day) Valid() bool {
	return d >= DayMonday && d <= DayFriday
}

// ParseDay 接受西班牙语的星期名称（带或不带重音）
func ParseDay(s string) (Day, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "É", "E")
	for d, n := range dayNames {
		if n == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("día desconocido: %q", s)
}

type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftAfternoon
}

// ParseShift 同时接受英文和西班牙语的班次名称
func ParseShift(s string) (Shift, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MORNING", "MATUTINO":
		return ShiftMorning, nil
	case "AFTERNOON", "VESPERTINO":
		return ShiftAfternoon, nil
	default:
		return "", fmt.Errorf("turno desconocido: %q", s)
	}
}

// Scope 表示一次排课所覆盖的班次
type Scope string

const (
	ScopeMorning   Scope = "MORNING"
	ScopeAfternoon Scope = "AFTERNOON"
	ScopeBoth      Scope = "BOTH"
)

func (s Scope) Valid() bool {
	return s == ScopeMorning || s == ScopeAfternoon || s == ScopeBoth
}

func (s Scope) Shifts() []Shift {
	switch s {
	case ScopeMorning:
		return []Shift{ShiftMorning}
	case ScopeAfternoon:
		return []Shift{ShiftAfternoon}
	case ScopeBoth:
		return []Shift{ShiftMorning, ShiftAfternoon}
	default:
		return nil
	}
}

func (s Scope) Includes(shift Shift) bool {
	switch s {
	case ScopeMorning:
		return shift == ShiftMorning
	case ScopeAfternoon:
		return shift == ShiftAfternoon
	case ScopeBoth:
		return shift.Valid()
	default:
		return false
	}
}

const (
	BlocksPerShift         = 8
	DefaultSubjectDuration = 2
	MaxBlocksPerSubjectDay = 2
	BlockHours             = 0.83
	MaxWeeklyHours         = 35
)

type Teacher struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	SubjectIDs []int64 `json:"subjectIDs"`
}

type Subject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Shift    Shift  `json:"shift"`
	Duration int    `json:"duration"`
}

type Group struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Shift Shift  `json:"shift"`
}

// CurriculumEntry 为某个班级每周需要上的某门课的次数
type CurriculumEntry struct {
	ID              int64 `json:"id"`
	GroupID         int64 `json:"groupID"`
	SubjectID       int64 `json:"subjectID"`
	SessionsPerWeek int   `json:"sessionsPerWeek"`
}

type AvailabilityWindow struct {
	ID         int64 `json:"id"`
	TeacherID  int64 `json:"teacherID"`
	Day        Day   `json:"day"`
	Shift      Shift `json:"shift"`
	BlockStart int   `json:"blockStart"`
	BlockEnd   int   `json:"blockEnd"`
}

// ModuleReservation 为班级预先占用的课时，只允许对应的课程使用
type ModuleReservation struct {
	ID         int64 `json:"id"`
	GroupID    int64 `json:"groupID"`
	SubjectID  int64 `json:"subjectID"`
	Day        Day   `json:"day"`
	Shift      Shift `json:"shift"`
	BlockStart int   `json:"blockStart"`
	BlockEnd   int   `json:"blockEnd"`
}

type ScheduleAssignment struct {
	GroupID    int64 `json:"groupID"`
	Day        Day   `json:"day"`
	Shift      Shift `json:"shift"`
	BlockStart int   `json:"blockStart"`
	BlockEnd   int   `json:"blockEnd"`
	SubjectID  int64 `json:"subjectID"`
	TeacherID  int64 `json:"teacherID"`
}

// ScheduleEntry 为带有名称的排课结果，用于展示和导出
type ScheduleEntry struct {
	ScheduleAssignment
	GroupName    string `json:"groupName"`
	SubjectName  string `json:"subjectName"`
	TeacherName  string `json:"teacherName"`
	TeacherEmail string `json:"teacherEmail"`
}

// ReferenceData 为一次排课所读取的全部基础数据
type ReferenceData struct {
	Teachers     []*Teacher
	Subjects     []*Subject
	Groups       []*Group
	Curriculum   []*CurriculumEntry
	Availability []*AvailabilityWindow
	Reservations []*ModuleReservation
}

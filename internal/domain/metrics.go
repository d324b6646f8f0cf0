package domain

// Metrics 为一个排课方案中各类约束被违反的原始次数
type Metrics struct {
	ReservationViolations  int `json:"reservationViolations"`
	GroupConflicts         int `json:"groupConflicts"`
	TeacherConflicts       int `json:"teacherConflicts"`
	AvailabilityViolations int `json:"availabilityViolations"`
	ShiftMismatches        int `json:"shiftMismatches"`
	ExcessSessions         int `json:"excessSessions"`
	MissingSessions        int `json:"missingSessions"`
	DailyBlockExcess       int `json:"dailyBlockExcess"`
	ConsecutiveBlockExcess int `json:"consecutiveBlockExcess"`
	WeeklyHourExcess       int `json:"weeklyHourExcess"`
}

const (
	PenaltyReservation      = 10
	PenaltyGroupConflict    = 5
	PenaltyTeacherConflict  = 6
	PenaltyAvailability     = 8
	PenaltyShiftMismatch    = 4
	PenaltySessionCount     = 3
	PenaltyDailyBlocks      = 7
	PenaltyConsecutiveBlock = 5
	PenaltyWeeklyHours      = 10
)

// Penalty 返回加权后的惩罚值
func (m Metrics) Penalty() int {
	return m.ReservationViolations*PenaltyReservation +
		m.GroupConflicts*PenaltyGroupConflict +
		m.TeacherConflicts*PenaltyTeacherConflict +
		m.AvailabilityViolations*PenaltyAvailability +
		m.ShiftMismatches*PenaltyShiftMismatch +
		m.ExcessSessions*PenaltySessionCount +
		m.MissingSessions*PenaltySessionCount +
		m.DailyBlockExcess*PenaltyDailyBlocks +
		m.ConsecutiveBlockExcess*PenaltyConsecutiveBlock +
		m.WeeklyHourExcess*PenaltyWeeklyHours
}

func (m Metrics) IsZero() bool {
	return m == Metrics{}
}

type GenerationRecord struct {
	Generation     int     `json:"generation"`
	BestFitness    int     `json:"bestFitness"`
	MeanFitness    float64 `json:"meanFitness"`
	Metrics        Metrics `json:"metrics"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

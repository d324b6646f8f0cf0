package scheduler

import (
	"errors"
	"fmt"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// Gene: 一节已经安排好的课 (group, day, shift, [start, end], subject, teacher)
type Gene struct {
	groupID    int64
	day        domain.Day
	shift      domain.Shift
	blockStart int
	blockEnd   int
	subjectID  int64
	teacherID  int64
}

func (g Gene) duration() int {
	return g.blockEnd - g.blockStart + 1
}

func (g Gene) overlaps(start, end int) bool {
	return !(g.blockEnd < start || g.blockStart > end)
}

func (g Gene) assignment() domain.ScheduleAssignment {
	return domain.ScheduleAssignment{
		GroupID:    g.groupID,
		Day:        g.day,
		Shift:      g.shift,
		BlockStart: g.blockStart,
		BlockEnd:   g.blockEnd,
		SubjectID:  g.subjectID,
		TeacherID:  g.teacherID,
	}
}

// Chromosome: 整个课表。genes 只会被整体替换，不会被原地修改
type Chromosome struct {
	genes   []Gene
	fitness int
}

func (ch *Chromosome) assignments() []domain.ScheduleAssignment {
	out := make([]domain.ScheduleAssignment, len(ch.genes))
	for i, g := range ch.genes {
		out[i] = g.assignment()
	}
	return out
}

// Placement 表示初始化时一节课是如何被放下的
type Placement int

const (
	// PlacedConstrained 满足预约、空闲时间和每日课时限制
	PlacedConstrained Placement = iota
	// PlacedUnconstrained 搜索失败后的兜底放置，可能违反约束
	PlacedUnconstrained
)

func (p Placement) String() string {
	if p == PlacedUnconstrained {
		return "unconstrained"
	}
	return "constrained"
}

// demand 为一次需要安排的课
type demand struct {
	groupID   int64
	subjectID int64
	duration  int
	shift     domain.Shift
}

var ErrInvalidParameters = errors.New("invalid scheduler parameters")

// 遗传算法参数
type Parameters struct {
	Generations    int          // 最大迭代次数
	PopulationSize int          // 种群大小
	EliteCount     int          // 精英数量
	MutationRate   float64      // 变异概率
	Seed           *int64       // 随机种子，为 nil 时不可复现
	Scope          domain.Scope // 参与排课的班次
	MaxSeconds     float64      // 运行时间上限
	EarlyStopStall int          // 连续多少代没有改进后停止
	Workers        int          // 并行计算适应度的 goroutine 数量
}

func DefaultParameters() Parameters {
	return Parameters{
		Generations:    60,
		PopulationSize: 40,
		EliteCount:     6,
		MutationRate:   0.15,
		Scope:          domain.ScopeBoth,
		MaxSeconds:     60,
		EarlyStopStall: 12,
		Workers:        4,
	}
}

func (p Parameters) Validate() error {
	switch {
	case p.Generations <= 0:
		return fmt.Errorf("%w: generations must be positive (got %d)", ErrInvalidParameters, p.Generations)
	case p.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be positive (got %d)", ErrInvalidParameters, p.PopulationSize)
	case p.EliteCount < 0:
		return fmt.Errorf("%w: elite count must not be negative (got %d)", ErrInvalidParameters, p.EliteCount)
	case p.PopulationSize < p.EliteCount:
		return fmt.Errorf("%w: population size %d is smaller than elite count %d", ErrInvalidParameters, p.PopulationSize, p.EliteCount)
	case p.MutationRate < 0 || p.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate must be within [0, 1] (got %f)", ErrInvalidParameters, p.MutationRate)
	case p.MaxSeconds <= 0:
		return fmt.Errorf("%w: max seconds must be positive (got %f)", ErrInvalidParameters, p.MaxSeconds)
	case p.EarlyStopStall <= 0:
		return fmt.Errorf("%w: early stop stall must be positive (got %d)", ErrInvalidParameters, p.EarlyStopStall)
	case !p.Scope.Valid():
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidParameters, p.Scope)
	}
	return nil
}

// Result 为一次排课运行的结果
type Result struct {
	Assignments []domain.ScheduleAssignment
	BestFitness int
	Metrics     domain.Metrics
	Generations int
	// Placements 统计初始种群中每种放置方式的次数
	Placements map[Placement]int
}

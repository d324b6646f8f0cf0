package scheduler

import (
	"math/rand"
	"slices"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// engine 持有一次运行所需的全部状态，只被驱动这次运行的 goroutine 使用
type engine struct {
	snap   *Snapshot
	rng    *rand.Rand
	params Parameters
}

// randomInitChromosome 把每一个课程需求贪心地放进一个随机但尽量满足约束的位置
func (e *engine) randomInitChromosome() (*Chromosome, map[Placement]int) {
	demands := e.snap.demands()
	e.rng.Shuffle(len(demands), func(i, j int) {
		demands[i], demands[j] = demands[j], demands[i]
	})

	genes := make([]Gene, 0, len(demands))
	placements := make(map[Placement]int, 2)
	for _, d := range demands {
		gene, placement := e.placeDemand(genes, d)
		genes = append(genes, gene)
		placements[placement]++
	}

	return &Chromosome{genes: genes}, placements
}

// placeDemand 为一个需求寻找 (day, start, teacher)，找不到时退化为不受约束的放置
func (e *engine) placeDemand(placed []Gene, d demand) (Gene, Placement) {
	days := slices.Clone(domain.Days)
	e.rng.Shuffle(len(days), func(i, j int) {
		days[i], days[j] = days[j], days[i]
	})

	teachers := slices.Clone(e.snap.capableTeachers(d.subjectID))
	e.rng.Shuffle(len(teachers), func(i, j int) {
		teachers[i], teachers[j] = teachers[j], teachers[i]
	})

	for _, day := range days {
		// 当天这门课已经占用的课时
		usedBlocks := 0
		for _, g := range placed {
			if g.groupID == d.groupID && g.day == day && g.subjectID == d.subjectID {
				usedBlocks += g.duration()
			}
		}

		starts := validStarts(d.duration)
		e.rng.Shuffle(len(starts), func(i, j int) {
			starts[i], starts[j] = starts[j], starts[i]
		})

		for _, start := range starts {
			end := start + d.duration - 1
			if e.snap.reservationConflicts(d.groupID, day, d.shift, start, end, d.subjectID) > 0 {
				continue
			}

			for _, teacherID := range teachers {
				if !e.snap.isAvailable(teacherID, day, d.shift, start, end) {
					continue
				}
				if usedBlocks+d.duration > domain.MaxBlocksPerSubjectDay {
					continue
				}

				return Gene{
					groupID:    d.groupID,
					day:        day,
					shift:      d.shift,
					blockStart: start,
					blockEnd:   end,
					subjectID:  d.subjectID,
					teacherID:  teacherID,
				}, PlacedConstrained
			}
		}
	}

	// 兜底：随机的一天，从第一个课时开始，选一个能教这门课的老师（没有的话随便选一个）
	var teacherID int64
	switch {
	case len(teachers) > 0:
		teacherID = teachers[0]
	case len(e.snap.teacherIDs) > 0:
		teacherID = e.snap.teacherIDs[e.rng.Intn(len(e.snap.teacherIDs))]
	}

	return Gene{
		groupID:    d.groupID,
		day:        domain.Days[e.rng.Intn(len(domain.Days))],
		shift:      d.shift,
		blockStart: 1,
		blockEnd:   d.duration,
		subjectID:  d.subjectID,
		teacherID:  teacherID,
	}, PlacedUnconstrained
}

// crossover 单点交叉：child = a[:cut] + b[cut:]，只按位置重组
func crossover(a, b *Chromosome, rate float64) *Chromosome {
	n := min(len(a.genes), len(b.genes))
	cut := int(float64(n) * rate)

	genes := make([]Gene, 0, len(b.genes))
	genes = append(genes, a.genes[:cut]...)
	genes = append(genes, b.genes[cut:]...)

	return &Chromosome{genes: genes}
}

type mutation int

const (
	mutateDay mutation = iota
	mutateBlock
	mutateTeacher
)

// mutate 以 pm 的概率对每个基因重新抽取日期、起始课时或教师之一，返回新的染色体
func (e *engine) mutate(ch *Chromosome, pm float64) *Chromosome {
	genes := make([]Gene, len(ch.genes))
	for i, gene := range ch.genes {
		if e.rng.Float64() < pm {
			gene = e.mutateGene(gene, mutation(e.rng.Intn(3)))
		}
		genes[i] = gene
	}

	return &Chromosome{genes: genes}
}

func (e *engine) mutateGene(gene Gene, op mutation) Gene {
	switch op {
	case mutateDay:
		gene.day = domain.Days[e.rng.Intn(len(domain.Days))]
	case mutateBlock:
		duration := gene.duration()
		starts := validStarts(duration)
		if len(starts) == 0 {
			return gene
		}
		gene.blockStart = starts[e.rng.Intn(len(starts))]
		gene.blockEnd = gene.blockStart + duration - 1
	case mutateTeacher:
		teachers := e.snap.capableTeachers(gene.subjectID)
		if len(teachers) == 0 {
			return gene
		}
		gene.teacherID = teachers[e.rng.Intn(len(teachers))]
	}
	return gene
}

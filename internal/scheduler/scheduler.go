package scheduler

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// ReferenceReader 读取当前保存的全部基础数据
type ReferenceReader interface {
	LoadReferenceData(ctx context.Context) (*domain.ReferenceData, error)
}

// ScheduleWriter 用给定的课表整体替换已保存的课表
type ScheduleWriter interface {
	ReplaceSchedule(ctx context.Context, assignments []domain.ScheduleAssignment) error
}

type Scheduler struct {
	reader ReferenceReader
	writer ScheduleWriter
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	log []domain.GenerationRecord // 最近一次运行的日志
}

type Option func(*Scheduler)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock 替换用于计算运行时间的时钟
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func New(reader ReferenceReader, writer ScheduleWriter, opts ...Option) *Scheduler {
	s := &Scheduler{
		reader: reader,
		writer: writer,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Optimize 读取基础数据，运行遗传算法，并用找到的最佳课表替换已保存的课表。
// 保存失败时仍然返回计算出的结果，同时返回保存时的错误。
func (s *Scheduler) Optimize(ctx context.Context, params Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ref, err := s.reader.LoadReferenceData(ctx)
	if err != nil {
		return nil, err
	}

	result, records, err := s.run(ctx, NewSnapshot(ref, params.Scope), params)
	s.setGenerationLog(records)
	if err != nil {
		return nil, err
	}

	if err := s.writer.ReplaceSchedule(ctx, result.Assignments); err != nil {
		s.logger.Error("无法保存排课结果", "error", err)
		return result, err
	}

	return result, nil
}

// GenerationLog 返回最近一次运行的每代记录
func (s *Scheduler) GenerationLog() []domain.GenerationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

func (s *Scheduler) setGenerationLog(records []domain.GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = records
}

func (s *Scheduler) run(ctx context.Context, snap *Snapshot, params Parameters) (*Result, []domain.GenerationRecord, error) {
	start := s.now()

	seed := start.UnixNano()
	if params.Seed != nil {
		seed = *params.Seed
	}
	e := &engine{
		snap:   snap,
		rng:    rand.New(rand.NewSource(seed)),
		params: params,
	}

	// 生成初始种群
	pop := make([]*Chromosome, params.PopulationSize)
	placements := make(map[Placement]int, 2)
	for i := range pop {
		ch, cnt := e.randomInitChromosome()
		pop[i] = ch
		for p, n := range cnt {
			placements[p] += n
		}
	}
	s.logger.Info("初始种群已生成",
		"population", params.PopulationSize,
		"constrained", placements[PlacedConstrained],
		"unconstrained", placements[PlacedUnconstrained],
	)

	var (
		best        *Chromosome
		bestMetrics domain.Metrics
		bestScore   = math.MinInt
		stall       = 0
		records     = make([]domain.GenerationRecord, 0, params.Generations)
		gen         int
	)

	for gen = 1; gen <= params.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, records, err
		}

		if err := e.evaluate(pop); err != nil {
			return nil, records, err
		}
		ranked := rank(pop)

		sum := 0
		for _, ch := range pop {
			sum += ch.fitness
		}
		genBest := ranked[0]
		metrics := snap.calcMetrics(genBest.genes)
		elapsed := s.now().Sub(start).Seconds()

		records = append(records, domain.GenerationRecord{
			Generation:     gen,
			BestFitness:    genBest.fitness,
			MeanFitness:    float64(sum) / float64(len(pop)),
			Metrics:        metrics,
			ElapsedSeconds: elapsed,
		})

		// 本代最佳只有严格优于历史最佳时才算改进
		if genBest.fitness > bestScore {
			best = genBest
			bestScore = genBest.fitness
			bestMetrics = metrics
			stall = 0
		} else {
			stall++
		}
		s.logger.Debug("已完成一代", "generation", gen, "best", genBest.fitness, "bestEver", bestScore, "stall", stall, "elapsed", elapsed)

		if elapsed > params.MaxSeconds || stall >= params.EarlyStopStall || gen == params.Generations {
			break
		}

		pop = e.nextGeneration(ranked)
	}

	s.logger.Info("排课完成", "generations", min(gen, params.Generations), "best", bestScore, "elapsed", s.now().Sub(start).Seconds())

	return &Result{
		Assignments: best.assignments(),
		BestFitness: bestScore,
		Metrics:     bestMetrics,
		Generations: min(gen, params.Generations),
		Placements:  placements,
	}, records, nil
}

// evaluate 并行计算每个个体的适应度，结果按下标写回，与执行顺序无关
func (e *engine) evaluate(pop []*Chromosome) error {
	g := new(errgroup.Group)
	g.SetLimit(max(1, e.params.Workers))
	for _, ch := range pop {
		ch := ch
		g.Go(func() error {
			e.snap.calcFitness(ch)
			return nil
		})
	}
	return g.Wait()
}

// rank 按适应度降序排列，适应度相同时保持原有顺序
func rank(pop []*Chromosome) []*Chromosome {
	ranked := slices.Clone(pop)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].fitness > ranked[j].fitness
	})
	return ranked
}

// nextGeneration 保留精英，其余位置由前 max(2, 2*elite) 名个体交叉变异产生
func (e *engine) nextGeneration(ranked []*Chromosome) []*Chromosome {
	size := e.params.PopulationSize
	newPop := make([]*Chromosome, 0, size)

	// 保留精英，不做变异
	newPop = append(newPop, ranked[:e.params.EliteCount]...)

	limit := min(max(2, 2*e.params.EliteCount), len(ranked))
	for len(newPop) < size {
		p1 := ranked[e.rng.Intn(limit)]
		p2 := ranked[e.rng.Intn(limit)]

		child := crossover(p1, p2, 0.3+e.rng.Float64()*0.4)
		child = e.mutate(child, e.params.MutationRate)
		newPop = append(newPop, child)
	}

	return newPop
}

package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

type fakeReader struct {
	ref   *domain.ReferenceData
	err   error
	calls int
}

func (f *fakeReader) LoadReferenceData(ctx context.Context) (*domain.ReferenceData, error) {
	f.calls++
	return f.ref, f.err
}

type fakeWriter struct {
	saved [][]domain.ScheduleAssignment
	err   error
}

func (f *fakeWriter) ReplaceSchedule(ctx context.Context, assignments []domain.ScheduleAssignment) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, assignments)
	return nil
}

// steppingClock 每次调用前进 10ms，使得运行时间可复现
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(10 * time.Millisecond)
		return t
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seed(v int64) *int64 {
	return &v
}

func fullWeek(teacherID int64, shift domain.Shift) []*domain.AvailabilityWindow {
	windows := make([]*domain.AvailabilityWindow, 0, len(domain.Days))
	for _, day := range domain.Days {
		windows = append(windows, &domain.AvailabilityWindow{
			TeacherID: teacherID, Day: day, Shift: shift, BlockStart: 1, BlockEnd: domain.BlocksPerShift,
		})
	}
	return windows
}

// singleSubjectData 一个班级、一门每周两次的课、一个全天有空的老师
func singleSubjectData() *domain.ReferenceData {
	return &domain.ReferenceData{
		Teachers:     []*domain.Teacher{{ID: 1, Name: "Ana", SubjectIDs: []int64{10}}},
		Subjects:     []*domain.Subject{{ID: 10, Name: "Cálculo", Shift: domain.ShiftMorning, Duration: 2}},
		Groups:       []*domain.Group{{ID: 100, Name: "1A", Shift: domain.ShiftMorning}},
		Curriculum:   []*domain.CurriculumEntry{{ID: 1, GroupID: 100, SubjectID: 10, SessionsPerWeek: 2}},
		Availability: fullWeek(1, domain.ShiftMorning),
	}
}

// schoolData 两个班次下的多个班级，带有预约和有限的空闲时间
func schoolData() *domain.ReferenceData {
	ref := &domain.ReferenceData{
		Teachers: []*domain.Teacher{
			{ID: 1, Name: "Ana", SubjectIDs: []int64{10, 11}},
			{ID: 2, Name: "Luis", SubjectIDs: []int64{11, 12}},
			{ID: 3, Name: "Marta", SubjectIDs: []int64{12, 20}},
			{ID: 4, Name: "Pedro", SubjectIDs: []int64{20, 21}},
		},
		Subjects: []*domain.Subject{
			{ID: 10, Name: "Cálculo", Shift: domain.ShiftMorning, Duration: 2},
			{ID: 11, Name: "Física", Shift: domain.ShiftMorning, Duration: 2},
			{ID: 12, Name: "Química", Shift: domain.ShiftMorning, Duration: 1},
			{ID: 20, Name: "Programación", Shift: domain.ShiftAfternoon, Duration: 2},
			{ID: 21, Name: "Redes", Shift: domain.ShiftAfternoon, Duration: 3},
		},
		Groups: []*domain.Group{
			{ID: 100, Name: "1A", Shift: domain.ShiftMorning},
			{ID: 101, Name: "1B", Shift: domain.ShiftMorning},
			{ID: 200, Name: "3A", Shift: domain.ShiftAfternoon},
		},
		Curriculum: []*domain.CurriculumEntry{
			{GroupID: 100, SubjectID: 10, SessionsPerWeek: 3},
			{GroupID: 100, SubjectID: 11, SessionsPerWeek: 2},
			{GroupID: 100, SubjectID: 12, SessionsPerWeek: 2},
			{GroupID: 101, SubjectID: 10, SessionsPerWeek: 3},
			{GroupID: 101, SubjectID: 11, SessionsPerWeek: 2},
			{GroupID: 200, SubjectID: 20, SessionsPerWeek: 3},
			{GroupID: 200, SubjectID: 21, SessionsPerWeek: 2},
		},
		Reservations: []*domain.ModuleReservation{
			{GroupID: 100, SubjectID: 12, Day: domain.DayMonday, Shift: domain.ShiftMorning, BlockStart: 1, BlockEnd: 2},
		},
	}
	ref.Availability = append(ref.Availability, fullWeek(1, domain.ShiftMorning)...)
	ref.Availability = append(ref.Availability, fullWeek(3, domain.ShiftAfternoon)...)
	ref.Availability = append(ref.Availability,
		&domain.AvailabilityWindow{TeacherID: 2, Day: domain.DayTuesday, Shift: domain.ShiftMorning, BlockStart: 1, BlockEnd: 4},
		&domain.AvailabilityWindow{TeacherID: 2, Day: domain.DayThursday, Shift: domain.ShiftMorning, BlockStart: 3, BlockEnd: 8},
		&domain.AvailabilityWindow{TeacherID: 4, Day: domain.DayWednesday, Shift: domain.ShiftAfternoon, BlockStart: 1, BlockEnd: 6},
	)
	return ref
}

func testParameters() Parameters {
	params := DefaultParameters()
	params.Generations = 25
	params.PopulationSize = 20
	params.EliteCount = 3
	params.EarlyStopStall = 25
	params.Seed = seed(42)
	return params
}

func TestParametersValidate(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())

	cases := map[string]func(p *Parameters){
		"non-positive generations": func(p *Parameters) { p.Generations = 0 },
		"non-positive population":  func(p *Parameters) { p.PopulationSize = 0 },
		"negative elite":           func(p *Parameters) { p.EliteCount = -1 },
		"population below elite":   func(p *Parameters) { p.PopulationSize = 4; p.EliteCount = 5 },
		"mutation rate above one":  func(p *Parameters) { p.MutationRate = 1.5 },
		"non-positive max seconds": func(p *Parameters) { p.MaxSeconds = 0 },
		"non-positive stall":       func(p *Parameters) { p.EarlyStopStall = 0 },
		"unknown scope":            func(p *Parameters) { p.Scope = "NIGHT" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := DefaultParameters()
			mutate(&params)
			assert.ErrorIs(t, params.Validate(), ErrInvalidParameters)
		})
	}
}

func TestOptimizeRejectsInvalidParametersBeforeReading(t *testing.T) {
	reader := &fakeReader{ref: singleSubjectData()}
	writer := &fakeWriter{}
	s := New(reader, writer, WithLogger(quietLogger()))

	params := DefaultParameters()
	params.EliteCount = params.PopulationSize + 1

	_, err := s.Optimize(context.Background(), params)
	require.ErrorIs(t, err, ErrInvalidParameters)
	assert.Zero(t, reader.calls)
	assert.Empty(t, writer.saved)
}

func TestOptimizeSingleSubjectReachesZero(t *testing.T) {
	writer := &fakeWriter{}
	s := New(&fakeReader{ref: singleSubjectData()}, writer, WithLogger(quietLogger()), WithClock(steppingClock()))

	params := testParameters()
	params.Generations = 5
	params.PopulationSize = 6
	params.EliteCount = 2

	result, err := s.Optimize(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 0, result.BestFitness)
	assert.True(t, result.Metrics.IsZero())
	require.Len(t, result.Assignments, 2)
	for _, a := range result.Assignments {
		assert.Equal(t, int64(100), a.GroupID)
		assert.Equal(t, int64(10), a.SubjectID)
		assert.Equal(t, int64(1), a.TeacherID)
		assert.Equal(t, 2, a.BlockEnd-a.BlockStart+1)
	}

	require.Len(t, writer.saved, 1)
	assert.Equal(t, result.Assignments, writer.saved[0])
}

func TestOptimizeIsDeterministicWithSeed(t *testing.T) {
	run := func() (*Result, []domain.GenerationRecord) {
		s := New(&fakeReader{ref: schoolData()}, &fakeWriter{}, WithLogger(quietLogger()), WithClock(steppingClock()))
		result, err := s.Optimize(context.Background(), testParameters())
		require.NoError(t, err)
		return result, s.GenerationLog()
	}

	r1, log1 := run()
	r2, log2 := run()

	assert.Equal(t, log1, log2)
	assert.Equal(t, r1.Assignments, r2.Assignments)
	assert.Equal(t, r1.BestFitness, r2.BestFitness)
}

func TestOptimizeBestEverIsMonotonic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := New(&fakeReader{ref: schoolData()}, &fakeWriter{}, WithLogger(logger), WithClock(steppingClock()))
	result, err := s.Optimize(context.Background(), testParameters())
	require.NoError(t, err)

	log := s.GenerationLog()
	require.NotEmpty(t, log)

	// 从每代的调试日志中取出历史最佳
	var bestEver []int
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var entry struct {
			Msg        string `json:"msg"`
			Generation int    `json:"generation"`
			Best       int    `json:"best"`
			BestEver   int    `json:"bestEver"`
		}
		require.NoError(t, dec.Decode(&entry))
		if entry.Msg != "已完成一代" {
			continue
		}
		require.Equal(t, len(bestEver)+1, entry.Generation)
		assert.Equal(t, log[len(bestEver)].BestFitness, entry.Best)
		assert.GreaterOrEqual(t, entry.BestEver, entry.Best)
		bestEver = append(bestEver, entry.BestEver)
	}
	require.Len(t, bestEver, len(log))

	for i := 1; i < len(bestEver); i++ {
		assert.GreaterOrEqual(t, bestEver[i], bestEver[i-1], "generation %d", i+1)
	}
	for i, rec := range log {
		assert.Equal(t, i+1, rec.Generation)
		assert.LessOrEqual(t, rec.BestFitness, 0)
		assert.GreaterOrEqual(t, float64(rec.BestFitness), rec.MeanFitness)
	}
	assert.Equal(t, bestEver[len(bestEver)-1], result.BestFitness)
	assert.Equal(t, result.Metrics.Penalty(), -result.BestFitness)
}

func TestOptimizeStopsOnStall(t *testing.T) {
	s := New(&fakeReader{ref: singleSubjectData()}, &fakeWriter{}, WithLogger(quietLogger()), WithClock(steppingClock()))

	params := testParameters()
	params.Generations = 50
	params.EarlyStopStall = 3

	result, err := s.Optimize(context.Background(), params)
	require.NoError(t, err)

	// 第一代就达到 0，此后每一代都算作停滞
	assert.Equal(t, 4, result.Generations)
	assert.Len(t, s.GenerationLog(), 4)
}

func TestOptimizeStopsOnTimeout(t *testing.T) {
	base := time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	s := New(&fakeReader{ref: schoolData()}, &fakeWriter{}, WithLogger(quietLogger()), WithClock(clock))

	params := testParameters()
	params.Generations = 100
	params.EarlyStopStall = 100
	params.MaxSeconds = 3

	result, err := s.Optimize(context.Background(), params)
	require.NoError(t, err)
	assert.Less(t, result.Generations, 100)
	log := s.GenerationLog()
	assert.Greater(t, log[len(log)-1].ElapsedSeconds, params.MaxSeconds)
	assert.NotEmpty(t, result.Assignments)
}

func TestOptimizeReaderErrorPropagates(t *testing.T) {
	readErr := errors.New("connection refused")
	writer := &fakeWriter{}
	s := New(&fakeReader{err: readErr}, writer, WithLogger(quietLogger()))

	result, err := s.Optimize(context.Background(), testParameters())
	assert.Nil(t, result)
	assert.Equal(t, readErr, err)
	assert.Empty(t, writer.saved)
}

func TestOptimizeWriterErrorKeepsResult(t *testing.T) {
	writeErr := errors.New("tx aborted")
	s := New(&fakeReader{ref: schoolData()}, &fakeWriter{err: writeErr}, WithLogger(quietLogger()), WithClock(steppingClock()))

	result, err := s.Optimize(context.Background(), testParameters())
	assert.Equal(t, writeErr, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Assignments)
	assert.NotEmpty(t, s.GenerationLog())
}

func TestOptimizeCancelledContext(t *testing.T) {
	writer := &fakeWriter{}
	s := New(&fakeReader{ref: schoolData()}, writer, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Optimize(ctx, testParameters())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, writer.saved)
}

func TestNextGenerationKeepsElitesUnchanged(t *testing.T) {
	params := testParameters()
	snap := NewSnapshot(schoolData(), params.Scope)
	e := &engine{snap: snap, rng: rand.New(rand.NewSource(7)), params: params}

	pop := make([]*Chromosome, params.PopulationSize)
	for i := range pop {
		pop[i], _ = e.randomInitChromosome()
	}
	require.NoError(t, e.evaluate(pop))
	ranked := rank(pop)

	elites := make([][]Gene, params.EliteCount)
	for i := range elites {
		elites[i] = append([]Gene(nil), ranked[i].genes...)
	}

	next := e.nextGeneration(ranked)
	require.Len(t, next, params.PopulationSize)
	for i := range elites {
		assert.Equal(t, elites[i], next[i].genes)
	}
}

func TestRankIsStable(t *testing.T) {
	a := &Chromosome{fitness: -5}
	b := &Chromosome{fitness: -1}
	c := &Chromosome{fitness: -5}
	d := &Chromosome{fitness: -1}

	ranked := rank([]*Chromosome{a, b, c, d})
	assert.Same(t, b, ranked[0])
	assert.Same(t, d, ranked[1])
	assert.Same(t, a, ranked[2])
	assert.Same(t, c, ranked[3])
}

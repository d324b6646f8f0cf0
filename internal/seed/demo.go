package seed

import (
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"github.com/isc-horarios/timetable/backend/internal/domain"
	"github.com/isc-horarios/timetable/backend/internal/utils"
)

type DemoOptions struct {
	Subjects         int
	Teachers         int
	Groups           int
	SubjectsPerGroup int
	ReservationRate  float64 // 每个班级生成一条预约的概率
}

func DefaultDemoOptions() DemoOptions {
	return DemoOptions{
		Subjects:         12,
		Teachers:         10,
		Groups:           4,
		SubjectsPerGroup: 5,
		ReservationRate:  0.5,
	}
}

// GenerateDemoDataset 生成一套可以直接导入的随机数据。
// 每个科目至少有一名教师，每名教师在其科目所在的班次都有空闲时间。
func GenerateDemoDataset(rng *rand.Rand, opts DemoOptions) *Dataset {
	ds := &Dataset{}

	// 科目在两个班次之间交替分配
	subjectShift := make(map[string]domain.Shift, opts.Subjects)
	subjectDuration := make(map[string]int, opts.Subjects)
	shiftSubjects := make(map[domain.Shift][]string)
	for i, name := range utils.GenerateRandomSubjectNames(rng, opts.Subjects) {
		shift := domain.ShiftMorning
		if i%2 == 1 {
			shift = domain.ShiftAfternoon
		}
		duration := domain.DefaultSubjectDuration
		if rng.Float64() < 0.25 {
			duration = rng.Intn(3) + 1
		}

		ds.Subjects = append(ds.Subjects, &SubjectRow{
			Name:     name,
			Shift:    string(shift),
			Duration: strconv.Itoa(duration),
		})
		subjectShift[name] = shift
		subjectDuration[name] = duration
		shiftSubjects[shift] = append(shiftSubjects[shift], name)
	}

	// 教师，第 i 个科目至少由第 i % Teachers 名教师教授
	if opts.Teachers > 0 {
		taught := make([][]string, opts.Teachers)
		for i, s := range ds.Subjects {
			taught[i%opts.Teachers] = append(taught[i%opts.Teachers], s.Name)
		}
		usedNames := make(map[string]bool)
		for i := 0; i < opts.Teachers; i++ {
			extra := rng.Intn(2)
			for j := 0; j < extra && len(ds.Subjects) > 0; j++ {
				name := ds.Subjects[rng.Intn(len(ds.Subjects))].Name
				if !slices.Contains(taught[i], name) {
					taught[i] = append(taught[i], name)
				}
			}

			name := utils.GenerateRandomTeacherName(rng)
			for usedNames[name] {
				name = utils.GenerateRandomTeacherName(rng)
			}
			usedNames[name] = true

			ds.Teachers = append(ds.Teachers, &TeacherRow{
				Name:     name,
				Email:    utils.GenerateUsernameFromName(rng, name) + "@demo.edu.mx",
				Subjects: strings.Join(taught[i], ";"),
			})

			// 在其科目涉及的每个班次生成空闲时间
			shifts := make(map[domain.Shift]bool)
			for _, s := range taught[i] {
				shifts[subjectShift[s]] = true
			}
			for _, shift := range []domain.Shift{domain.ShiftMorning, domain.ShiftAfternoon} {
				if !shifts[shift] {
					continue
				}
				for _, day := range utils.GenerateRandomDays(rng) {
					start, end := utils.GenerateRandomBlockRange(rng, 4)
					ds.Availability = append(ds.Availability, &AvailabilityRow{
						Teacher:    name,
						Day:        day.String(),
						Shift:      string(shift),
						BlockStart: start,
						BlockEnd:   end,
					})
				}
			}
		}
	}

	// 班级及其教学计划
	for i := 0; i < opts.Groups; i++ {
		shift := domain.ShiftMorning
		if i%2 == 1 {
			shift = domain.ShiftAfternoon
		}
		groupName := utils.GenerateGroupName(i/2+1, i%2)
		ds.Groups = append(ds.Groups, &GroupRow{Name: groupName, Shift: string(shift)})

		candidates := shiftSubjects[shift]
		perm := rng.Perm(len(candidates))
		n := min(opts.SubjectsPerGroup, len(candidates))
		for _, idx := range perm[:n] {
			ds.Curriculum = append(ds.Curriculum, &CurriculumRow{
				Group:           groupName,
				Subject:         candidates[idx],
				SessionsPerWeek: rng.Intn(3) + 1,
			})
		}

		if n > 0 && rng.Float64() < opts.ReservationRate {
			subject := candidates[perm[0]]
			duration := subjectDuration[subject]
			start := rng.Intn(domain.BlocksPerShift-duration+1) + 1
			ds.Reservations = append(ds.Reservations, &ReservationRow{
				Group:      groupName,
				Subject:    subject,
				Day:        domain.Days[rng.Intn(len(domain.Days))].String(),
				Shift:      string(shift),
				BlockStart: start,
				BlockEnd:   start + duration - 1,
			})
		}
	}

	return ds
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/isc-horarios/timetable/backend/internal/domain"
	"github.com/isc-horarios/timetable/backend/internal/export"
	"github.com/isc-horarios/timetable/backend/internal/scheduler"
)

type generateResponse struct {
	BestFitness  int            `json:"bestFitness"`
	Metrics      domain.Metrics `json:"metrics"`
	Generations  int            `json:"generations"`
	Assignments  int            `json:"assignments"`
	TotalSeconds float64        `json:"totalSeconds"`
	Placements   map[string]int `json:"placements"`
}

// defaultParameters 以算法默认参数为基础，用配置文件中给出的值覆盖
func (h *Handler) defaultParameters() scheduler.Parameters {
	cfg := h.config.Scheduler
	params := scheduler.DefaultParameters()
	if cfg.Generations > 0 {
		params.Generations = cfg.Generations
	}
	if cfg.PopulationSize > 0 {
		params.PopulationSize = cfg.PopulationSize
	}
	if cfg.EliteCount > 0 {
		params.EliteCount = cfg.EliteCount
	}
	if cfg.MutationRate > 0 {
		params.MutationRate = cfg.MutationRate
	}
	if cfg.MaxSeconds > 0 {
		params.MaxSeconds = cfg.MaxSeconds
	}
	if cfg.EarlyStopStall > 0 {
		params.EarlyStopStall = cfg.EarlyStopStall
	}
	if cfg.Workers > 0 {
		params.Workers = cfg.Workers
	}
	return params
}

// runSafetyMargin 预留给读取基础数据、保存课表和最后一代计算的时间
const runSafetyMargin = 10

// maxRunSeconds 一次运行必须在排课锁过期和响应写超时之前结束
func (h *Handler) maxRunSeconds() float64 {
	limit := h.config.Scheduler.LockExpiration
	if wt := h.config.Server.WriteTimeout; wt > 0 {
		limit = min(limit, wt)
	}
	return float64(limit - runSafetyMargin)
}

func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	// 获取参数，未给出的参数使用配置中的默认值
	var req struct {
		Generations    *int     `json:"generations" validate:"omitempty,min=1"`
		PopulationSize *int     `json:"populationSize" validate:"omitempty,min=1"`
		EliteCount     *int     `json:"eliteCount" validate:"omitempty,min=0"`
		MutationRate   *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
		Seed           *int64   `json:"seed"`
		Scope          string   `json:"scope" validate:"omitempty,oneof=MORNING AFTERNOON BOTH"`
		MaxSeconds     *float64 `json:"maxSeconds" validate:"omitempty,gt=0"`
		EarlyStopStall *int     `json:"earlyStopStall" validate:"omitempty,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 构建参数
	params := h.defaultParameters()
	if req.Generations != nil {
		params.Generations = *req.Generations
	}
	if req.PopulationSize != nil {
		params.PopulationSize = *req.PopulationSize
	}
	if req.EliteCount != nil {
		params.EliteCount = *req.EliteCount
	}
	if req.MutationRate != nil {
		params.MutationRate = *req.MutationRate
	}
	if req.Scope != "" {
		params.Scope = domain.Scope(req.Scope)
	}
	if req.MaxSeconds != nil {
		params.MaxSeconds = *req.MaxSeconds
	}
	if req.EarlyStopStall != nil {
		params.EarlyStopStall = *req.EarlyStopStall
	}
	params.Seed = req.Seed

	if err := params.Validate(); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	if limit := h.maxRunSeconds(); params.MaxSeconds > limit {
		h.errorResponse(w, r, fmt.Sprintf("El tiempo máximo de ejecución no puede superar %.0f segundos", max(limit, 0)))
		return
	}

	// 同一时间只允许一次排课
	token, acquired, err := h.runs.AcquireRunLock(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !acquired {
		h.errorResponse(w, r, "Ya hay una generación de horarios en curso")
		return
	}
	defer func() {
		if err := h.runs.ReleaseRunLock(context.WithoutCancel(r.Context()), token); err != nil {
			if errors.Is(err, errRunLockLost) {
				slog.Warn("排课锁在运行结束前已过期")
				return
			}
			slog.Error("无法释放排课锁", "error", err)
		}
	}()

	// 自动排课
	result, err := h.scheduler.Optimize(r.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidParameters):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	records := h.scheduler.GenerationLog()
	if err := h.runs.CacheGenerationLog(r.Context(), records); err != nil {
		slog.Warn("无法缓存排课日志", "error", err)
	}

	// 实验记录交给 worker 保存，发送失败不影响本次排课结果
	exp := h.buildExperiment(r.Context(), params, result, records)
	if err := h.publisher.PublishExperiment(r.Context(), exp); err != nil {
		slog.Error("无法发送实验记录", "error", err)
	}

	h.successResponse(w, r, "Horario generado", generateResponse{
		BestFitness:  result.BestFitness,
		Metrics:      result.Metrics,
		Generations:  result.Generations,
		Assignments:  len(result.Assignments),
		TotalSeconds: exp.TotalSeconds,
		Placements: map[string]int{
			scheduler.PlacedConstrained.String():   result.Placements[scheduler.PlacedConstrained],
			scheduler.PlacedUnconstrained.String(): result.Placements[scheduler.PlacedUnconstrained],
		},
	})
}

func (h *Handler) buildExperiment(ctx context.Context, params scheduler.Parameters, result *scheduler.Result, records []domain.GenerationRecord) *domain.Experiment {
	exp := &domain.Experiment{
		Scope:          params.Scope,
		Generations:    result.Generations,
		PopulationSize: params.PopulationSize,
		EliteCount:     params.EliteCount,
		MutationRate:   params.MutationRate,
		Seed:           params.Seed,
		BestFinal:      result.BestFitness,
		FinalMetrics:   result.Metrics,
		Log:            records,
		CreatedAt:      time.Now(),
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		exp.MeanFinal = last.MeanFitness
		exp.TotalSeconds = last.ElapsedSeconds
	}

	counts, err := h.repository.CountGroupsByShift(ctx)
	if err != nil {
		slog.Warn("无法统计班级数量", "error", err)
		return exp
	}
	for _, shift := range params.Scope.Shifts() {
		switch shift {
		case domain.ShiftMorning:
			exp.GroupsMorning = counts[shift]
		case domain.ShiftAfternoon:
			exp.GroupsAfternoon = counts[shift]
		}
	}
	exp.GroupsTotal = exp.GroupsMorning + exp.GroupsAfternoon

	return exp
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	var groupID *int64
	if param := r.URL.Query().Get("groupID"); param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			h.errorResponse(w, r, "ID de grupo inválido")
			return
		}
		groupID = &id
	}

	entries, err := h.repository.GetSchedule(r.Context(), groupID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Horario obtenido", entries)
}

func (h *Handler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := h.repository.GetSchedule(r.Context(), nil)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	f, err := export.BuildWorkbook(entries)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("horarios_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := f.Write(w); err != nil {
		// 响应头已经发出，只能记录错误
		h.logInternalServerError(r, err)
	}
}

// GetGenerationLog 优先返回内存中的日志，服务重启后从 redis 缓存中读取
func (h *Handler) GetGenerationLog(w http.ResponseWriter, r *http.Request) {
	records := h.scheduler.GenerationLog()
	if len(records) == 0 {
		cached, err := h.runs.CachedGenerationLog(r.Context())
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		records = cached
	}
	if records == nil {
		records = make([]domain.GenerationRecord, 0)
	}

	h.successResponse(w, r, "Registro de generaciones obtenido", records)
}

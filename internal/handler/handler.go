package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/isc-horarios/timetable/backend/internal/config"
	"github.com/isc-horarios/timetable/backend/internal/domain"
	"github.com/isc-horarios/timetable/backend/internal/repository"
	"github.com/isc-horarios/timetable/backend/internal/scheduler"
)

// runStore 保存排课运行锁和最近一次运行的日志缓存
type runStore interface {
	AcquireRunLock(ctx context.Context) (token string, acquired bool, err error)
	ReleaseRunLock(ctx context.Context, token string) error
	CacheGenerationLog(ctx context.Context, records []domain.GenerationRecord) error
	CachedGenerationLog(ctx context.Context) ([]domain.GenerationRecord, error)
}

// experimentPublisher 把完成的排课运行发送给 worker
type experimentPublisher interface {
	PublishExperiment(ctx context.Context, exp *domain.Experiment) error
}

type Handler struct {
	validate          *validator.Validate
	config            *config.Config
	repository        *repository.Repository
	scheduler         *scheduler.Scheduler
	translator        ut.Translator
	runs              runStore
	publisher         experimentPublisher
	adminPasswordHash []byte

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, sch *scheduler.Scheduler, ch *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	return newHandler(cfg, repo, sch, &redisRunStore{cfg: cfg, client: rdb}, &amqpPublisher{cfg: cfg, channel: ch})
}

func newHandler(cfg *config.Config, repo *repository.Repository, sch *scheduler.Scheduler, runs runStore, publisher experimentPublisher) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	es := es.New()
	uni := ut.New(es, es)
	trans, _ := uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	// 管理员密码只保存在配置中，启动时计算一次哈希
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:          validate,
		config:            cfg,
		repository:        repo,
		scheduler:         sch,
		translator:        trans,
		runs:              runs,
		publisher:         publisher,
		adminPasswordHash: passwordHash,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	h.Mux.Get("/reference/validate", h.ValidateReferenceData)

	h.Mux.Route("/schedule", func(r chi.Router) {
		r.Get("/", h.GetSchedule)
		r.Get("/export", h.ExportSchedule)
		r.Get("/generation-log", h.GetGenerationLog)
		r.With(h.auth).Post("/generate", h.GenerateSchedule)
	})

	h.Mux.Route("/experiments", func(r chi.Router) {
		r.Get("/", h.GetAllExperiments)

		// 以下 API 必须要在登录后才允许调用
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.auth)
			r.Use(h.experiment)
			r.Get("/", h.GetExperiment)
			r.Delete("/", h.DeleteExperiment)
		})
	})
}

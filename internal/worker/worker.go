package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/isc-horarios/timetable/backend/internal/domain"
)

// Outcome 决定消息最终如何应答
type Outcome int

const (
	Ack Outcome = iota
	Requeue
	Discard
)

type ExperimentStore interface {
	InsertExperiment(ctx context.Context, exp *domain.Experiment) error
}

type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Worker struct {
	store      ExperimentStore
	sender     Sender
	from       string
	recipients []string
	tmpl       *template.Template
	logger     *slog.Logger
}

// New 创建 worker，sender 为 nil 或没有收件人时只保存实验记录
func New(store ExperimentStore, sender Sender, from string, recipients []string, tmpl *template.Template, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:      store,
		sender:     sender,
		from:       from,
		recipients: recipients,
		tmpl:       tmpl,
		logger:     logger,
	}
}

// Handle 保存一条实验记录并发送通知邮件。
// 邮件发送失败不会导致重新入队，避免重复保存同一条记录。
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	exp := &domain.Experiment{}
	if err := json.Unmarshal(body, exp); err != nil {
		w.logger.Error("实验记录反序列化失败", slog.String("error", err.Error()))
		return Discard
	}

	if err := w.store.InsertExperiment(ctx, exp); err != nil {
		w.logger.Error("无法保存实验记录", slog.String("error", err.Error()))
		return Requeue
	}
	w.logger.Info("实验记录已保存", slog.Int64("id", exp.ID), slog.Int("best", exp.BestFinal))

	if w.sender == nil || len(w.recipients) == 0 {
		return Ack
	}

	msg, err := w.buildMessage(exp)
	if err != nil {
		w.logger.Error("无法构建邮件", slog.String("error", err.Error()))
		return Ack
	}
	if err := w.sender.DialAndSendWithContext(ctx, msg); err != nil {
		w.logger.Error("邮件发送失败", slog.String("error", err.Error()))
		return Ack
	}

	return Ack
}

func (w *Worker) buildMessage(exp *domain.Experiment) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(w.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(w.recipients...); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	data := domain.ExperimentMailData{
		ExperimentID: exp.ID,
		Scope:        exp.Scope,
		Generations:  exp.Generations,
		BestFinal:    exp.BestFinal,
		MeanFinal:    exp.MeanFinal,
		TotalSeconds: exp.TotalSeconds,
		FinalMetrics: exp.FinalMetrics,
	}
	if err := msg.SetBodyHTMLTemplate(w.tmpl, data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.Subject(fmt.Sprintf("Horarios ISC - Experimento #%d (aptitud %d)", exp.ID, exp.BestFinal))

	return msg, nil
}

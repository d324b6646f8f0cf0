package handler

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/isc-horarios/timetable/backend/internal/config"
	"github.com/isc-horarios/timetable/backend/internal/domain"
)

const ExperimentQueue = "experiment_queue"

type amqpPublisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func (p *amqpPublisher) PublishExperiment(ctx context.Context, exp *domain.Experiment) error {
	body, err := json.Marshal(exp)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		ExperimentQueue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

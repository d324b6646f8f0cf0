package main

import (
	"context"
	"database/sql"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/isc-horarios/timetable/backend/internal/config"
	"github.com/isc-horarios/timetable/backend/internal/handler"
	"github.com/isc-horarios/timetable/backend/internal/repository"
	"github.com/isc-horarios/timetable/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer pingCancel()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	var sender worker.Sender
	if len(cfg.Email.Recipients) > 0 {
		client, err := mail.NewClient(cfg.Email.SMTP.Host,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithSSL(),
			mail.WithPort(cfg.Email.SMTP.Port),
			mail.WithUsername(cfg.Email.SMTP.Username),
			mail.WithPassword(cfg.Email.SMTP.Password),
		)
		if err != nil {
			logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
			return
		}
		defer client.Close()

		// 验证邮件客户端是否连接成功
		dialCtx, dialCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
		defer dialCancel()
		if err := client.DialWithContext(dialCtx); err != nil {
			logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
			return
		}
		sender = client
	} else {
		logger.Warn("没有配置邮件收件人，只保存实验记录")
	}

	tmpl, err := template.ParseFiles("templates/experiment_summary.html")
	if err != nil {
		logger.Error("无法解析邮件模板", slog.String("error", err.Error()))
		return
	}

	w := worker.New(repo, sender, cfg.Email.SMTP.Username, cfg.Email.Recipients, tmpl, logger)

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	q, err := ch.QueueDeclare(
		handler.ExperimentQueue, // 队列名称
		true,                    // 是否持久化
		false,                   // 是否自动删除
		false,                   // 是否独占
		false,                   // 是否不等待
		nil,                     // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，由 RabbitMQ 自动分配
		false,  // 是否自动确认
		false,  // 是否独占队列
		false,  // no-local，RabbitMQ 不支持这个参数
		false,  // 是否不等待
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("消息通道已关闭")
					return
				}
				logger.Info("收到实验记录", slog.Int("size", len(msg.Body)))

				switch w.Handle(ctx, msg.Body) {
				case worker.Ack:
					_ = msg.Ack(false)
				case worker.Requeue:
					_ = msg.Nack(false, true)
				case worker.Discard:
					_ = msg.Nack(false, false)
				}
			}
		}
	}()

	logger.Info("worker 已启动，等待实验记录")

	<-sigChan
	logger.Info("正在关闭 worker")
	cancel()
	wg.Wait()
	logger.Info("worker 已关闭")
}

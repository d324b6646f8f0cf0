package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/isc-horarios/timetable/backend/internal/config"
	"github.com/isc-horarios/timetable/backend/internal/repository"
	"github.com/isc-horarios/timetable/backend/internal/seed"
	"github.com/isc-horarios/timetable/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op string
	var dir string
	var delim string
	var clear bool
	var randomSeed int64
	opts := seed.DefaultDemoOptions()

	flag.StringVar(&op, "op", "", "要执行的操作 (import: 从 CSV 目录导入, demo: 插入随机演示数据, validate: 检查已有数据)")
	flag.StringVar(&dir, "dir", "./data", "CSV 文件所在的目录")
	flag.StringVar(&delim, "delim", ",", "CSV 分隔符")
	flag.BoolVar(&clear, "clear", false, "导入前清空已有的基础数据和课表")
	flag.Int64Var(&randomSeed, "seed", 0, "演示数据的随机种子，0 表示使用当前时间")
	flag.IntVar(&opts.Subjects, "subjects", opts.Subjects, "演示数据的科目数量")
	flag.IntVar(&opts.Teachers, "teachers", opts.Teachers, "演示数据的教师数量")
	flag.IntVar(&opts.Groups, "groups", opts.Groups, "演示数据的班级数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case "":
		slog.Error("未指定操作")
	case "import":
		runes := []rune(delim)
		if len(runes) != 1 {
			slog.Error("分隔符必须是单个字符", "delim", delim)
			return
		}

		ds, err := seed.LoadDataset(dir, runes[0])
		if err != nil {
			slog.Error("无法读取 CSV 文件", "dir", dir, "error", err)
			return
		}

		stats, err := seed.Import(context.Background(), repo, ds, clear, logger)
		if err != nil {
			slog.Error("导入数据失败", "error", err)
			return
		}
		slog.Info("导入数据成功", "stats", stats)
	case "demo":
		if opts.Subjects <= 0 || opts.Teachers <= 0 || opts.Groups <= 0 {
			slog.Error("请输入合法的数量")
			return
		}
		if randomSeed == 0 {
			randomSeed = time.Now().UnixNano()
		}

		ds := seed.GenerateDemoDataset(rand.New(rand.NewSource(randomSeed)), opts)
		stats, err := seed.Import(context.Background(), repo, ds, clear, logger)
		if err != nil {
			slog.Error("插入演示数据失败", "error", err)
			return
		}
		slog.Info("插入演示数据成功", "seed", randomSeed, "stats", stats)
	case "validate":
		ref, err := repo.LoadReferenceData(context.Background())
		if err != nil {
			slog.Error("无法读取基础数据", "error", err)
			return
		}

		report := utils.ValidateReferenceData(ref)
		slog.Info("检查完成", "valid", report.Valid, "issues", report.TotalIssues)
		for _, section := range []struct {
			name    string
			section []string
		}{
			{"teachers", report.Teachers.Issues},
			{"subjects", report.Subjects.Issues},
			{"groups", report.Groups.Issues},
			{"availability", report.Availability.Issues},
			{"curriculum", report.Curriculum.Issues},
			{"reservations", report.Reservations.Issues},
		} {
			for _, issue := range section.section {
				slog.Warn(issue, "section", section.name)
			}
		}
	default:
		slog.Error("指定的操作非法", "op", op)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/httpmw"
	"github.com/rohitkumar-vc/lifequest-backend/internal/maintenance"
	"github.com/rohitkumar-vc/lifequest-backend/internal/sched"
	"github.com/rohitkumar-vc/lifequest-backend/internal/serverapp"
	"github.com/rohitkumar-vc/lifequest-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := log.Default()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	bal := config.Default()
	if cfg.BalancePath != "" {
		bal, err = config.LoadBalance(cfg.BalancePath)
		if err != nil {
			logger.Fatalf("load balance: %v", err)
		}
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(context.Background(), db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var scheduler sched.Scheduler
	if cfg.RedisAddr != "" {
		rdb, err := sched.NewRedisClient(sched.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer rdb.Close()
		scheduler = sched.NewRedisScheduler(rdb)
		dispatcher := sched.NewDispatcher(rdb, cfg.BaseURL, cfg.WebhookSecret, logger)
		go dispatcher.Run(ctx)
	} else {
		logger.Printf("REDIS_ADDR empty, deadline callbacks will not fire")
		scheduler = sched.NewMemory()
	}

	app, err := serverapp.New(serverapp.Options{
		Config:    cfg,
		Balance:   bal,
		DB:        db,
		Scheduler: scheduler,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatalf("build server: %v", err)
	}

	maint := maintenance.NewService(app.Users, app.Habits, app.Dailies, app.Log, bal, cfg.Location(), logger)
	go maint.Runner(ctx, time.Hour)

	handler := httpmw.Chain(app.Handler,
		httpmw.WithRequestID,
		httpmw.WithRecover(logger),
		httpmw.WithAccessLog(logger),
	)

	logger.Printf("listening on %s", cfg.Addr)
	logger.Fatal(http.ListenAndServe(cfg.Addr, handler))
}

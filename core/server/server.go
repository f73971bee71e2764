package server

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tablepick/core/config"
	"tablepick/core/constants"
	"tablepick/core/database"
	"tablepick/core/lock"
	"tablepick/core/logger"
	"tablepick/core/middleware"
	"tablepick/core/queue"
	"tablepick/core/storage"
	"tablepick/modules/notification"
	notifService "tablepick/modules/notification/service"
	"tablepick/modules/plan"
	"tablepick/modules/user"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// Run wires configuration, storage, the task worker and all modules, then
// serves HTTP until interrupted.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	locker := lock.NewRedisLocker(redisClient)

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	photos := storage.NewS3Storage(cfg.S3)
	mw := middleware.New(cfg)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	g := e.Group("/api/v1")

	userSvc := user.Init(g, &db, cfg)
	notifSvc := notification.Init(g, &db, mw, queueClient)
	planSvc := plan.Init(g, &db, mw, cfg, locker, notifSvc, userSvc, photos)

	// Task worker: push delivery plus the periodic deadline sweep.
	worker := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{Concurrency: 10})
	mux := asynq.NewServeMux()
	pushHandler := notifService.NewPushHandler(notifService.NewLogPushSender())
	mux.HandleFunc(constants.TaskTypePushSend, pushHandler.HandlePushTask)
	mux.HandleFunc(constants.TaskTypePlanSweep, planSvc.HandleSweepTask)

	go func() {
		if err := worker.Run(mux); err != nil {
			logger.Error("asynq worker stopped", "error", err)
		}
	}()

	scheduler := asynq.NewScheduler(queue.RedisOpt(cfg.Redis), nil)
	sweepSpec := fmt.Sprintf("@every %s", cfg.Plan.SweepInterval)
	if _, err := scheduler.Register(sweepSpec, asynq.NewTask(constants.TaskTypePlanSweep, nil)); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("asynq scheduler stopped", "error", err)
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("Shutting down...")
		scheduler.Shutdown()
		worker.Shutdown()
		_ = e.Close()
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server", "addr", addr)
	if err := e.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

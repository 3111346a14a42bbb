package server

import (
	"context"
	"errors"
	"fmt"
	"glee-scheduler/core/cache"
	"glee-scheduler/core/clock"
	"glee-scheduler/core/config"
	"glee-scheduler/core/constants"
	"glee-scheduler/core/database"
	"glee-scheduler/core/logger"
	"glee-scheduler/core/middleware"
	"glee-scheduler/core/queue"
	"glee-scheduler/core/storage"
	"glee-scheduler/modules/appointment"
	"glee-scheduler/modules/attendance"
	"glee-scheduler/modules/calendar"
	"glee-scheduler/modules/directory"
	"glee-scheduler/modules/feed"
	"glee-scheduler/modules/notification"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

// Run wires every module onto one echo instance and blocks until SIGINT or
// SIGTERM, then drains HTTP and the notification worker.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	clk := clock.System{}
	location := cfg.Calendar.Location()

	var (
		feedCache   cache.Cache = cache.Noop{}
		redisClient *redis.Client
	)
	if client, err := cache.NewRedisClient(cfg.Redis); err != nil {
		logger.Warn("Server:Run:Redis", "error", err, "fallback", "no feed cache, inline notifications")
	} else {
		redisClient = client
		feedCache = cache.NewRedisCache(client)
		defer redisClient.Close()
	}

	var objects storage.ObjectStore
	if cfg.Storage.Enabled() {
		objects = storage.NewS3Store(cfg.Storage)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.Server.AllowedOrigins}))
	e.Use(echomw.BodyLimit("2M"))
	e.Use(echomw.ContextTimeout(constants.DefaultRequestTimeout))
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.SQLx().PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	mw := middleware.NewMiddleware()

	notifications := notification.Init(e, db, mw, clk)
	var dispatcher queue.Dispatcher = notifications

	var worker *asynq.Server
	if redisClient != nil {
		client := asynq.NewClient(queue.RedisOpt(cfg.Redis))
		defer client.Close()
		dispatcher = queue.NewDispatcher(client, cfg.Queue)

		worker = queue.NewServer(cfg.Redis, cfg.Queue)
		mux := asynq.NewServeMux()
		mux.HandleFunc(constants.TaskNotificationDispatch, notifications.HandleDispatchTask)
		if err := worker.Start(mux); err != nil {
			return fmt.Errorf("start notification worker: %w", err)
		}
	}

	people := directory.Init(e, db, mw)
	calendars := calendar.Init(e, db, mw, clk, location)

	appointment.Init(e, db, mw, appointment.Dependencies{
		Events:     calendars.Events,
		Calendars:  calendars.Calendars,
		Directory:  people,
		Dispatcher: dispatcher,
		Clock:      clk,
		Location:   location,
	})
	feed.Init(e, mw, cfg, calendars.Events, people, feedCache, clk)
	attendance.Init(e, db, mw, attendance.Dependencies{
		Events:              calendars.Events,
		Objects:             objects,
		Dispatcher:          dispatcher,
		Clock:               clk,
		DefaultTokenMinutes: cfg.Attendance.DefaultTokenMinutes,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server:Run:Start", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Server:Run:Shutdown", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if worker != nil {
		worker.Shutdown()
	}
	return e.Shutdown(ctx)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/learnhub/internal/ai"
	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/db"
	httpx "github.com/geocoder89/learnhub/internal/http"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/redisclient"
	"github.com/geocoder89/learnhub/internal/repo/memory"
	"github.com/geocoder89/learnhub/internal/repo/postgres"
	"github.com/geocoder89/learnhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type stores struct {
	users       service.UserStore
	courses     service.CourseStore
	lessons     service.LessonStore
	enrollments service.EnrollmentStore
	stats       service.StatsStore
	tokens      service.RefreshTokenStore
}

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTelEnabled, "learnhub-api", cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	ready := map[string]handlers.Pinger{}

	var st stores

	switch cfg.StoreDriver {
	case "memory":
		mem := memory.NewStore()
		st = stores{users: mem, courses: mem, lessons: mem, enrollments: mem, stats: mem, tokens: mem}
		log.Warn("using in-memory store; data is lost on restart")
	default:
		if err := db.Migrate(cfg.DBURL); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}

		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		ready["postgres"] = pool
		st = stores{
			users:       postgres.NewUsersRepo(pool, prom),
			courses:     postgres.NewCoursesRepo(pool, prom),
			lessons:     postgres.NewLessonsRepo(pool, prom),
			enrollments: postgres.NewEnrollmentsRepo(pool, prom),
			stats:       postgres.NewStatsRepo(pool, prom),
			tokens:      postgres.NewRefreshTokensRepo(pool, prom),
		}
	}

	var limits middlewares.LimitStore = middlewares.NewMemoryLimitStore()
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			// the limiter fails open, so a cold redis is not fatal
			log.Warn("redis not reachable at boot", "addr", cfg.RedisAddr, "err", err)
		}
		cancel()

		ready["redis"] = rdb
		limits = middlewares.NewRedisLimitStore(rdb.Raw())
	}

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	authSvc := service.NewAuthService(st.users, st.tokens, jwtManager)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		seedCtx, cancel := config.WithTimeout(5 * time.Second)
		err := authSvc.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		cancel()
		if err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
	}

	var asker ai.Asker = ai.Disabled{}
	if cfg.AIAPIKey != "" {
		timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
		asker = ai.NewProtectedAsker(
			ai.NewClient(ai.ClientConfig{
				BaseURL: cfg.AIBaseURL,
				APIKey:  cfg.AIAPIKey,
				Model:   cfg.AIModel,
				Timeout: timeout,
			}),
			ai.BreakerConfig{Timeout: timeout},
		)

		if cfg.AICacheTTLSeconds > 0 {
			asker = ai.NewCachedAsker(asker, time.Duration(cfg.AICacheTTLSeconds)*time.Second, cfg.AICacheMaxEntries)
		}
	}

	// set up routers with the wired services
	router := httpx.NewRouter(httpx.Deps{
		Cfg:         cfg,
		Prom:        prom,
		Tokens:      jwtManager,
		Auth:        authSvc,
		Courses:     service.NewCourseService(st.courses, st.lessons, cfg.EnforceOwnership),
		Enrollments: service.NewEnrollmentService(st.enrollments, prom, cfg.EnforceOwnership),
		Admin:       service.NewAdminService(st.users, st.stats),
		AI:          asker,
		Limits:      limits,
		Ready:       ready,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

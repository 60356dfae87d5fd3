package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/huzarta/piano-transcription-service/internal/adapters/primary/http/handlers"
	"github.com/huzarta/piano-transcription-service/internal/adapters/primary/http/middleware"
	"github.com/huzarta/piano-transcription-service/internal/adapters/secondary/postgres"
	"github.com/huzarta/piano-transcription-service/internal/adapters/secondary/rediscache"
	"github.com/huzarta/piano-transcription-service/internal/adapters/secondary/runner"
	"github.com/huzarta/piano-transcription-service/internal/adapters/secondary/supabase"
	"github.com/huzarta/piano-transcription-service/internal/config"
	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
	"github.com/huzarta/piano-transcription-service/internal/core/services"
	"github.com/huzarta/piano-transcription-service/internal/midi"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	if cfg.Server.MemoryLimitMB > 0 {
		debug.SetMemoryLimit(int64(cfg.Server.MemoryLimitMB) << 20)
		log.Infof("memory limit set to %d MiB", cfg.Server.MemoryLimitMB)
	}

	// Create database pool
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	log.Info("database connection established")

	// Secondary adapters
	repo := postgres.NewTranscriptionRepository(pool)
	store := supabase.NewClient(cfg.Storage.Timeout)
	transcriber := runner.NewClient(&cfg.Runner, cfg.Server.NumericThreads)

	var cache ports.ResultCache
	if cfg.Redis.Enabled {
		c, err := rediscache.New(cfg.Redis.URL)
		if err != nil {
			log.Warnf("redis cache init failed (continuing without result cache): %v", err)
		} else {
			cache = c
			defer c.Close()
			log.Info("result cache initialized")
		}
	} else {
		log.Info("result cache disabled")
	}

	// Core services
	artifactSvc := services.NewArtifactService(cfg.Model, transcriber)
	transcriptionSvc := services.NewTranscriptionService(
		repo, store, transcriber, cache,
		midi.NewEncoder(cfg.MIDI.Tempo),
		cfg.Server.MaxConcurrency,
		cfg.Redis.ResultTTL,
	)

	// Model provisioning happens before the listener opens so the first
	// request never races the checkpoint download.
	provisionCtx, cancelProvision := context.WithTimeout(context.Background(), cfg.Model.DownloadTimeout)
	if err := artifactSvc.EnsureLocal(provisionCtx); err != nil {
		cancelProvision()
		log.Fatalf("provision model: %v", err)
	}
	cancelProvision()

	if cfg.Model.WarmupOnStart {
		warmupCtx, cancelWarmup := context.WithTimeout(context.Background(), cfg.Runner.Timeout)
		if err := artifactSvc.Warmup(warmupCtx); err != nil {
			log.Warnf("model warmup failed (first request will be cold): %v", err)
		}
		cancelWarmup()
	}

	// Primary adapter
	h := handlers.New(transcriptionSvc, artifactSvc)

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), middleware.CORS(), gin.Recovery())
	h.RegisterRoutes(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check with DB ping, runner reachability, and warmup state
	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		if err := transcriber.Healthy(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		if err := artifactSvc.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.KeepAliveTimeout,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"github.com/pricewatch/search-service/config"
	_ "github.com/pricewatch/search-service/docs"
	"github.com/pricewatch/search-service/internal/adapters"
	"github.com/pricewatch/search-service/internal/cache"
	"github.com/pricewatch/search-service/internal/database"
	"github.com/pricewatch/search-service/internal/handlers"
	"github.com/pricewatch/search-service/internal/jobs"
	"github.com/pricewatch/search-service/internal/metrics"
	"github.com/pricewatch/search-service/internal/middleware"
	"github.com/pricewatch/search-service/internal/search"
	"github.com/pricewatch/search-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := initLogger(cfg.Logging)
	logger.Info().Msg("Starting search service...")

	telemetryCfg := telemetry.GetConfigFromEnv()
	shutdownTelemetry := telemetry.MustInit(context.Background(), telemetryCfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to cleanly shut down telemetry")
		}
	}()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()
	logger.Info().Msg("Database connected")

	var cacheClient *cache.Client
	if cfg.Cache.URL != "" {
		cacheClient, err = cache.New(ctx, cfg.Cache.URL, cfg.Cache.TTL())
		if err != nil {
			logger.Warn().Err(err).Msg("Result cache unavailable, degrading to store-only reads")
			cacheClient = nil
		} else {
			defer cacheClient.Close()
			logger.Info().Msg("Result cache connected")
		}
	}

	registry := adapters.NewRegistry()
	if err := registerSources(ctx, registry, cfg.Scraper, logger); err != nil {
		logger.Warn().Err(err).Msg("failed to provision adapters for existing sources")
	}

	rec := metrics.NewRecorder()

	coordCfg := search.DefaultConfig()
	coordCfg.StalenessThreshold = cfg.Staleness.Threshold()
	coordCfg.CacheTTL = cfg.Cache.TTL()
	coordinator := search.New(cacheClient, registry, coordCfg, &logger, rec)

	sweeper := jobs.NewStaleSweeper(&logger, cfg.JobSweep.Interval(), cfg.JobSweep.MaxAge())
	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go sweeper.Start(sweepCtx)
	defer func() {
		sweeper.Stop()
		cancelSweep()
	}()

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, &logger)

	if origins := cfg.CORS.Origins(); len(origins) > 0 {
		logger.Info().Strs("origins", origins).Msg("configuring CORS")
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		logger.Warn().Msg("CORS origins not configured; cross-origin requests will be blocked by browsers")
	}

	healthDeps := handlers.HealthDeps{Cache: cacheClient}
	router.GET("/health", handlers.HealthCheck(healthDeps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/v1/search", middleware.RateLimitMiddleware(), handlers.SearchHandler(coordinator))
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(50, 100))
	{
		internal.GET("/health", handlers.HealthCheck(healthDeps))
		internal.GET("/jobs/:jobId", handlers.GetJob)

		admin := internal.Group("/admin")
		{
			admin.GET("/sources", handlers.ListSources)
			admin.POST("/sources", handlers.CreateSource(&handlers.SourceAdapterProvisioner{
				Registry:              registry,
				ScraperTimeoutSeconds: cfg.Scraper.TimeoutSeconds,
				RequestsPerSecond:     cfg.Scraper.RequestsPerSecond,
				Logger:                logger,
			}))
			admin.DELETE("/sources/:id", handlers.DeactivateSource(registry))
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("waiting for in-flight refreshes to finish")
	coordinator.Wait()

	logger.Info().Msg("Server exited")
}

// registerSources provisions a default adapter for every active source
// already in the store, so a freshly-started process doesn't lose the
// ability to refresh results for sources registered before the restart.
// Sources created through the admin API after startup are provisioned
// directly by the CreateSource handler.
func registerSources(ctx context.Context, registry *adapters.Registry, scraperCfg config.ScraperConfig, logger zerolog.Logger) error {
	sources, err := database.ListActiveSources(ctx)
	if err != nil {
		return fmt.Errorf("list active sources: %w", err)
	}

	timeout := scraperCfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := scraperCfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	for _, s := range sources {
		registry.Register(s.Name, adapters.NewJSONAPIAdapter(timeout, rps, logger))
	}
	return nil
}

func initLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}

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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/chainwatch/price-compare/config"
	"github.com/chainwatch/price-compare/internal/adapters/registry"
	"github.com/chainwatch/price-compare/internal/api"
	"github.com/chainwatch/price-compare/internal/auth"
	"github.com/chainwatch/price-compare/internal/cart"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
	"github.com/chainwatch/price-compare/internal/importer"
	"github.com/chainwatch/price-compare/internal/savedcart"
	"github.com/chainwatch/price-compare/internal/search"
	"github.com/chainwatch/price-compare/internal/startup"
	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/store/pgstore"
	"github.com/chainwatch/price-compare/internal/store/sqlitestore"
	"github.com/chainwatch/price-compare/internal/sweepers"
	"github.com/chainwatch/price-compare/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := initLogger(cfg.Logging)
	logger.Info().Msg("starting price-compare")

	ctx := context.Background()
	shutdownTelemetry := telemetry.Init(ctx)
	defer shutdownTelemetry(ctx)

	s, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open data store")
	}
	defer s.Close()
	logger.Info().Bool("use_oracle", cfg.Database.UseOracle).Msg("data store connected")

	if err := registry.InitializeDefaults(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize chain adapters")
	}

	client := fetch.NewClient(ratelimit.Config{
		RequestsPerSecond: int(cfg.RateLimit.RequestsPerSecond),
		MaxRetries:        cfg.RateLimit.MaxRetries,
		InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
		MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
	}, 30*time.Second)

	im := importer.New(s, client, importer.Config{
		PreferLongerNames: cfg.Ingestion.PreferLongerNames,
		FileConcurrency:   4,
		PriceFileLimit:    cfg.Ingestion.ImportLimit,
	})

	startupMgr := startup.New(s, registry.DefaultRegistry.Snapshot(), im, startup.Config{
		AutoImport: cfg.Ingestion.AutoImport,
		Testing:    cfg.Ingestion.Testing,
	})
	if err := startupMgr.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("startup sequence failed")
	}

	timer := sweepers.NewIngestionTimer(im, registry.DefaultRegistry.Snapshot(), logger, 6*time.Hour)
	timerCtx, cancelTimer := context.WithCancel(ctx)
	go timer.Start(timerCtx)
	defer cancelTimer()

	issuer := auth.NewTokenIssuer(cfg.Auth.SecretKey, 24*time.Hour)

	router := api.NewRouter(api.Deps{
		Store:     s,
		Search:    search.New(s),
		Cart:      cart.New(s),
		SavedCart: savedcart.New(s),
		Issuer:    issuer,
		Importer:  im,
		Adapters:  registry.DefaultRegistry.Snapshot(),
		Logger:    logger,
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.UseOracle {
		pgCfg := pgstore.Config{
			MaxConns:        int32(cfg.Database.MaxConnections),
			MinConns:        int32(cfg.Database.MinConnections),
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DateStyle:       "ISO, MDY",
		}
		return pgstore.Open(ctx, cfg.Database.URL, pgCfg)
	}
	return sqlitestore.Open(cfg.Database.URL)
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
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

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &logger
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/nurpe/listing-carts/internal/auth"
	"github.com/nurpe/listing-carts/internal/config"
	"github.com/nurpe/listing-carts/internal/db"
	"github.com/nurpe/listing-carts/internal/excel"
	httphandler "github.com/nurpe/listing-carts/internal/http"
	"github.com/nurpe/listing-carts/internal/http/middleware"
	"github.com/nurpe/listing-carts/internal/identifier"
	"github.com/nurpe/listing-carts/internal/logger"
	"github.com/nurpe/listing-carts/internal/metrics"
	"github.com/nurpe/listing-carts/internal/notification"
	"github.com/nurpe/listing-carts/internal/pdf"
	"github.com/nurpe/listing-carts/internal/repository"
	"github.com/nurpe/listing-carts/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var sequence identifier.Counter
	if cfg.Carts.SequenceBackend == config.SequenceBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect redis")
		}
		sequence = identifier.NewRedisCounter(client)
	}

	store := repository.NewStore(database)
	composer := notification.NewComposer(cfg.Carts.PublicBaseURL, cfg.Carts.Currency)

	cartService := service.NewCartService(store, composer, sequence, metrics.NewCartMetrics(registry), log, cfg.Carts.DefaultCommission)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = cartService.SeedSequence(seedCtx)
	cancelSeed()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed cart sequence")
	}
	vendorService := service.NewVendorService(store)
	settingsService := service.NewSettingsService(store, cfg.Carts.DefaultCommission)
	reportService := service.NewReportService(store, composer, pdf.NewGenerator(cfg.Carts.Currency), excel.NewGenerator())

	var tokenParser middleware.TokenParser
	if cfg.Auth.AccessSecret != "" {
		tokenParser = auth.NewParser(cfg.Auth.AccessSecret)
	} else {
		log.Warn().Msg("JWT_ACCESS_SECRET is empty, bearer tokens are ignored")
	}

	handler := httphandler.NewHandler(cartService, vendorService, settingsService, reportService, composer, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), httphandler.RouterConfig{
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Gatherer:       registry,
		Health:         store,
		Log:            log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", addr).Str("sequence_backend", cfg.Carts.SequenceBackend).Msg("starting listing cart service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("listing cart service stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/config"
	"github.com/harunnryd/strum/pkg/httpapi"
	"github.com/harunnryd/strum/pkg/ledger"
	"github.com/harunnryd/strum/pkg/logging"
	"github.com/harunnryd/strum/pkg/observers"
	"github.com/harunnryd/strum/pkg/runner"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateFulfillment(); err != nil {
		panic(err)
	}

	log := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(log)
	obs, closeObs := observers.BuildStack(observers.StackConfig{
		MetricsPath: cfg.Observe.MetricsPath,
		SampleRate:  cfg.Observe.SampleRate,
		RedactPII:   cfg.Observe.RedactPII,
	}, log)

	products := catalog.Default()

	var store ledger.Store
	if cfg.Fulfillment.DatabasePath != "" {
		store, err = ledger.NewSQLiteStore(cfg.Fulfillment.DatabasePath)
		if err != nil {
			log.Error("sqlite open failed", slog.String("error", err.Error()))
			panic(err)
		}
		log.Info("sqlite store initialized", slog.String("path", cfg.Fulfillment.DatabasePath))
	} else {
		store = ledger.NewMemoryStore()
		log.Info("in-memory store initialized")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ledger.Seed(ctx, store, products, cfg.Fulfillment.SeedFixtures); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		panic(err)
	}

	svc := ledger.NewService(store, products,
		ledger.WithLogger(log),
		ledger.WithObserver(obs),
	)
	router := httpapi.NewFulfillmentRouter(httpapi.NewFulfillmentHandler(svc, log), log)

	srv := &http.Server{
		Addr:         cfg.Fulfillment.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	drain := runner.DrainFunc(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if closeErr := store.Close(); err == nil {
			err = closeErr
		}
		if closeErr := closeObs(); err == nil {
			err = closeErr
		}
		return err
	})
	lr := runner.NewLifecycleRunner("fulfillment", drain, runner.Hooks{
		OnStart: func() {
			go func() {
				log.Info("fulfillment listening", slog.String("addr", cfg.Fulfillment.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.String("error", err.Error()))
					stop()
				}
			}()
		},
		OnStop: func() { log.Info("fulfillment stopped") },
	}, 15*time.Second)

	if err := lr.Run(ctx); err != nil {
		log.Error("shutdown incomplete", slog.String("error", err.Error()))
	}
}

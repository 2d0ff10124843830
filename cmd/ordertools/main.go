package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harunnryd/strum/pkg/logging"
	"github.com/harunnryd/strum/pkg/ordertools"
	"github.com/harunnryd/strum/pkg/runner"
	"github.com/harunnryd/strum/pkg/toolserve"
)

func main() {
	mode := flag.String("mode", "stdio", "transport to serve: stdio or sse")
	addr := flag.String("addr", ":8081", "listen address for sse mode")
	fulfillmentURL := flag.String("fulfillment", "", "fulfillment base URL (defaults to $FULFILLMENT_URL or http://localhost:8090)")
	logLevel := flag.String("log_level", "info", "")
	flag.Parse()
	_ = godotenv.Load()

	base := *fulfillmentURL
	if base == "" {
		base = os.Getenv("FULFILLMENT_URL")
	}
	if base == "" {
		base = "http://localhost:8090"
	}

	// In stdio mode stdout carries the protocol, so logs go to stderr.
	log := logging.InitLoggerTo(os.Stderr, logging.ParseLevel(*logLevel), "text")
	slog.SetDefault(log)

	srv := toolserve.New("strum-order-tools", runner.Version, log)
	ordertools.Register(srv, ordertools.NewClient(base))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "stdio":
		log.Info("serving order tools on stdio", slog.String("fulfillment", base))
		if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil {
			log.Error("stdio loop failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case "sse":
		httpSrv := &http.Server{
			Addr:        *addr,
			Handler:     srv.SSEHandler(),
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			log.Info("serving order tools over sse",
				slog.String("addr", *addr),
				slog.String("fulfillment", base),
			)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("server failed", slog.String("error", err.Error()))
				stop()
			}
		}()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	default:
		log.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(2)
	}
}

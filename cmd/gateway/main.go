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
	"github.com/openai/openai-go/option"

	"github.com/harunnryd/strum/pkg/assistant"
	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/config"
	"github.com/harunnryd/strum/pkg/httpapi"
	"github.com/harunnryd/strum/pkg/llm"
	"github.com/harunnryd/strum/pkg/logging"
	"github.com/harunnryd/strum/pkg/metrics"
	"github.com/harunnryd/strum/pkg/observers"
	"github.com/harunnryd/strum/pkg/providers/openai"
	"github.com/harunnryd/strum/pkg/registry"
	"github.com/harunnryd/strum/pkg/runner"
	"github.com/harunnryd/strum/pkg/toolchan"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		panic(err)
	}

	log := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(log)
	obs, closeObs := observers.BuildStack(observers.StackConfig{
		MetricsPath: cfg.Observe.MetricsPath,
		TimelineDir: cfg.Observe.TimelineDir,
		CostDir:     cfg.Observe.CostDir,
		SampleRate:  cfg.Observe.SampleRate,
		RedactPII:   cfg.Observe.RedactPII,
	}, log)

	model, err := buildModel(cfg, obs)
	if err != nil {
		log.Error("model setup failed", slog.String("error", err.Error()))
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	channel, err := toolchan.Dial(ctx, cfg.Tools.Transport, toolchan.DialConfig{
		CallTimeout:      time.Duration(cfg.Tools.CallTimeoutMS) * time.Millisecond,
		HandshakeTimeout: time.Duration(cfg.Tools.HandshakeTimeoutMS) * time.Millisecond,
		Logger:           log,
	})
	if err != nil {
		log.Error("tool channel dial failed",
			slog.String("transport", cfg.Tools.Transport),
			slog.String("error", err.Error()),
		)
		panic(err)
	}

	tools, err := registry.Build(ctx, channel, registry.DefaultLocalTools())
	if err != nil {
		_ = channel.Close()
		log.Error("tool discovery failed", slog.String("error", err.Error()))
		panic(err)
	}
	log.Info("tool registry ready", slog.Int("tools", len(tools.List())))

	orch := assistant.New(model, tools, channel, assistant.Config{
		SystemPrompt: cfg.Assistant.SystemPrompt,
		MaxSteps:     cfg.Assistant.MaxSteps,
	}, assistant.WithLogger(log), assistant.WithObserver(obs))

	chatHandler := httpapi.NewChatHandler(orch, catalog.NewClient(cfg.Gateway.CatalogURL), log)
	wsHandler := httpapi.NewWSHandler(orch, log)
	router := httpapi.NewGatewayRouter(chatHandler, wsHandler, log)

	srv := &http.Server{
		Addr:        cfg.Gateway.Addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	drain := runner.DrainFunc(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if closeErr := channel.Close(); err == nil {
			err = closeErr
		}
		if closeErr := closeObs(); err == nil {
			err = closeErr
		}
		return err
	})
	lr := runner.NewLifecycleRunner("gateway", drain, runner.Hooks{
		OnStart: func() {
			go func() {
				log.Info("gateway listening", slog.String("addr", cfg.Gateway.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.String("error", err.Error()))
					stop()
				}
			}()
		},
		OnStop: func() { log.Info("gateway stopped") },
	}, 15*time.Second)

	if err := lr.Run(ctx); err != nil {
		log.Error("shutdown incomplete", slog.String("error", err.Error()))
	}
}

func buildModel(cfg config.Config, obs metrics.Observer) (llm.ModelAdapter, error) {
	switch cfg.Model.Provider {
	case "openai":
		settings, err := cfg.Model.DecodeOpenAI()
		if err != nil {
			return nil, err
		}
		var opts []option.RequestOption
		if settings.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(settings.BaseURL))
		}
		adapter := openai.NewAdapter(settings.APIKey, settings.Model, opts...)
		breaker := llm.NewCircuitBreakerAdapter(adapter, nil)
		breaker.SetObserver(obs)
		return breaker, nil
	default:
		return nil, errors.New("unknown model provider: " + cfg.Model.Provider)
	}
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebeam-labs/epirun/internal/action"
	"github.com/ebeam-labs/epirun/internal/action/builtin"
	"github.com/ebeam-labs/epirun/internal/api"
	"github.com/ebeam-labs/epirun/internal/config"
	"github.com/ebeam-labs/epirun/internal/hardware"
	"github.com/ebeam-labs/epirun/internal/recipe"
	"github.com/ebeam-labs/epirun/internal/runner"
)

func main() {
	cfgPath := flag.String("config", "configs/epirun.yaml", "Path to app YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}

	// ── Simulated rig ─────────────────────────────────────────────────────────
	channels := make([]hardware.Channel, len(cfg.Hardware.Channels))
	for i, ch := range cfg.Hardware.Channels {
		channels[i] = hardware.Channel{
			Name:    ch.Name,
			Initial: ch.Initial,
			Follows: ch.Follows,
			Rate:    ch.Rate,
		}
	}
	rig := hardware.NewSim(channels)
	slog.Info("simulated rig built", "channels", len(channels))

	// ── Action registry ───────────────────────────────────────────────────────
	reg := action.NewRegistry()
	if err := builtin.Register(reg, builtin.Options{FailureBudget: cfg.Engine.FailureBudget}); err != nil {
		slog.Error("failed to register actions", "err", err)
		os.Exit(1)
	}
	slog.Info("action registry populated", "types", reg.Types())

	// ── Recipe library ────────────────────────────────────────────────────────
	lib, err := recipe.NewLibrary(cfg.Recipes.Dir)
	if err != nil {
		slog.Error("failed to load recipe library", "err", err)
		os.Exit(1)
	}
	slog.Info("recipe library loaded", "dir", cfg.Recipes.Dir, "recipes", lib.Names())

	stopWatch, err := lib.Watch(logger)
	if err != nil {
		slog.Warn("recipe watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Runner ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run := runner.New(ctx, reg, rig, logger, runner.Config{
		Watchdog:   time.Duration(cfg.Engine.WatchdogSeconds) * time.Second,
		AckTimeout: time.Duration(cfg.Engine.AbortAckSeconds) * time.Second,
	})
	run.OnProgress(func(p runner.Progress) {
		slog.Debug("progress", "recipe", p.Recipe, "step", p.Step,
			"of", p.StepCount, "type", p.StepType, "state", p.State.String())
	})

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(run, reg, lib)
	srv := &http.Server{
		Addr:         listen,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	cancel() // ends any in-flight action
	if done := run.Done(); done != nil {
		select {
		case <-done:
		case <-shutCtx.Done():
		}
	}
	slog.Info("goodbye")
}

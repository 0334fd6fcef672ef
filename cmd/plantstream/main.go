// Package main implements the entry point for the plantstream daemon:
// a simulated plant-telemetry backend exposing a REST/WebSocket gateway
// and an optional upstream channel link.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/plantstream/config"
	"github.com/c360/plantstream/engine"
	"github.com/c360/plantstream/gateway"
	"github.com/c360/plantstream/metric"
	"github.com/c360/plantstream/pkg/timestamp"
	"github.com/c360/plantstream/pubsub"
	"github.com/c360/plantstream/service"
	"github.com/c360/plantstream/store"
	"github.com/c360/plantstream/wsclient"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "plantstream"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := loadConfiguration(cliCfg.ConfigPath)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting plantstream",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	manager, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	return runWithSignalHandling(manager, cliCfg.ShutdownTimeout)
}

// loadConfiguration reads the config file, or uses defaults when no
// path was given.
func loadConfiguration(path string) (config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildServices wires the store, hub, engine, channel client, and
// gateway into a service manager.
func buildServices(cfg config.Config, logger *slog.Logger) (*service.Manager, error) {
	metricsRegistry := metric.NewRegistry()

	seed, err := store.EmbeddedSeed()
	if err != nil {
		return nil, fmt.Errorf("load seed data: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	st := store.New(seed, timestamp.Now(), rng)
	hub := pubsub.New(logger)

	eng := engine.New(st, hub, cfg.Engine, logger, metricsRegistry, engine.WithRand(rng))

	manager := service.NewManager(logger)
	manager.Register(eng)

	if cfg.Channel.URL != "" {
		manager.Register(wsclient.New(cfg.Channel, logger, metricsRegistry))
	} else {
		logger.Info("Channel client disabled, no URL configured")
	}

	if cfg.Gateway.Addr != "" {
		manager.Register(gateway.NewServer(cfg.Gateway, eng, hub, metricsRegistry, logger))
	} else {
		logger.Info("Gateway disabled, no listen address configured")
	}

	return manager, nil
}

// runWithSignalHandling starts the services and blocks until SIGINT or
// SIGTERM, then stops them within the shutdown timeout.
func runWithSignalHandling(manager *service.Manager, shutdownTimeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := manager.Start(signalCtx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	slog.Info("plantstream started")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := manager.Stop(shutdownTimeout); err != nil {
		return fmt.Errorf("stop services: %w", err)
	}
	slog.Info("plantstream stopped")
	return nil
}

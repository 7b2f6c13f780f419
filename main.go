// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/rankvote/cliparse"
	"github.com/danielhkuo/rankvote/db"
	"github.com/danielhkuo/rankvote/metrics"
	"github.com/danielhkuo/rankvote/middleware"
	"github.com/danielhkuo/rankvote/router"
)

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Command {
	case cliparse.CommandValidate:
		err = runValidate(cfg)
	case cliparse.CommandSmall, cliparse.CommandFull:
		err = runSimulation(ctx, cfg)
	case cliparse.CommandPost:
		err = runPost(ctx, cfg)
	case cliparse.CommandServe:
		err = runServe(ctx, cfg)
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("interrupted", "command", cfg.Command)
		os.Exit(130)
	}
	if err != nil {
		slog.Error("command failed", "command", cfg.Command, "error", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, cfg cliparse.Config) error {
	dbConn, err := db.Open(cfg.DBType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()
	slog.Info("Database schema ready", "type", cfg.DBType)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Create router
	mux := router.NewRouter(dbConn, cfg, m, reg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for SIGINT or SIGTERM
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// Package main runs the chunk ring demo workload: concurrent producers fill
// fixed-size chunks, consumers drain them, and a run report is printed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aradilov/chunkring"
	"github.com/aradilov/chunkring/internal/demo"
)

const (
	Version = "0.1.0"
	appName = "chunkring-demo"
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
		slog.Error("Demo failed", "error", err, "exit_code", 1)
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

	cfg := cliCfg.Demo
	cfg.RunID = uuid.NewString()

	runner, err := demo.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cliCfg.MetricsAddr != "" {
		srv, err := startMetricsServer(cliCfg.MetricsAddr, runner.Ring())
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	report, err := runner.Run(ctx)
	if report != nil {
		if werr := report.Write(os.Stdout, cliCfg.ReportFormat); werr != nil {
			slog.Error("Write report", "error", werr)
		}
	}
	if err != nil {
		return fmt.Errorf("run demo: %w", err)
	}
	if !report.Balanced() {
		return fmt.Errorf("produced %d items but consumed %d", report.Produced, report.Consumed)
	}
	if report.DigestFailures > 0 {
		return fmt.Errorf("%d payloads failed digest verification", report.DigestFailures)
	}

	if cliCfg.Linger > 0 && cliCfg.MetricsAddr != "" {
		slog.Info("Serving final metrics", "addr", cliCfg.MetricsAddr, "linger", cliCfg.Linger)
		select {
		case <-time.After(cliCfg.Linger):
		case <-ctx.Done():
		}
	}
	return nil
}

// startMetricsServer serves the ring's collector on /metrics of addr.
func startMetricsServer(addr string, ring *chunkring.Ring[demo.Signal]) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(chunkring.NewCollector(ring, ring.Name())); err != nil {
		return nil, fmt.Errorf("register ring collector: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
	slog.Info("Metrics server started", "addr", addr)
	return srv, nil
}

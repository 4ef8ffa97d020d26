// Command cruxd serves CRUX Finance pricing tools over MCP stdio.
//
// The server speaks newline-delimited JSON-RPC 2.0 on stdin/stdout, so all
// logging goes to stderr. Configuration comes from the environment; see the
// config package for the full variable list. The main knobs:
//
//	CRUX_API_BASE_URL  upstream API (default https://api.cruxfinance.io)
//	CRUX_API_KEY       optional bearer token
//	CACHE_MAX_SIZE     cache capacity in entries (default 1000)
//	LOG_LEVEL          debug, info, warn or error (default info)
//	METRICS_ADDR       when set, serves Prometheus metrics at /metrics
//
// Run with: go run ./cmd/cruxd
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	promadapter "github.com/codewandler/crux-go/adapters/prometheus"
	"github.com/codewandler/crux-go/core/app"
	"github.com/codewandler/crux-go/internal/config"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cruxd:", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cruxd:", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cruxd failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Settings, log *slog.Logger) error {
	appCfg := app.Config{
		Settings: cfg,
		Log:      log,
		Version:  version,
	}

	if cfg.Server.MetricsAddr != "" {
		appCfg.Metrics = promadapter.NewCacheMetrics(prometheus.DefaultRegisterer)

		promMux := http.NewServeMux()
		promMux.Handle("/metrics", promhttp.Handler())
		promServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: promMux}
		go func() {
			log.Info("metrics server starting", slog.String("addr", cfg.Server.MetricsAddr))
			if err := promServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", slog.Any("error", err))
			}
		}()
		defer promServer.Shutdown(context.Background())
	}

	a, err := app.New(appCfg)
	if err != nil {
		return err
	}
	return a.Serve(ctx, os.Stdin, os.Stdout)
}

// newLogger builds the process logger. Logs always go to stderr because
// stdout carries the wire protocol.
func newLogger(cfg config.LogSettings) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}

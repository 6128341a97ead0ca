// Command lss-broker runs the local pub/sub and request-dispatch broker:
// a UDS HTTP server dispatching to registered handlers, and a publish
// pipeline fanning out to subscriber sockets, alongside an admin HTTP
// surface exposing health and Prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aace/lssbroker/internal/common/health"
	"github.com/aace/lssbroker/internal/common/lifecycle"
	"github.com/aace/lssbroker/internal/config"
	"github.com/aace/lssbroker/internal/executor"
	"github.com/aace/lssbroker/internal/lss"
	"github.com/aace/lssbroker/internal/storage"
	"github.com/aace/lssbroker/internal/transport"
	"github.com/aace/lssbroker/internal/udsserver"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the broker configuration document")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("lss-broker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	app, cleanup, err := lifecycle.Initialize(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cleanup()
	cfg := app.Config

	slog.SetLogLoggerLevel(cfg.SlogLevel())

	kv, err := openStorage(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	app.AddCleanup(kv.Close)
	store := lss.NewSubscriptionStore(kv)

	handlerPool := executor.New("handler", 1, 256)
	publishPool := executor.New("publish", 1, 1024)

	tr := transport.New(transport.DefaultConfig())
	broker := lss.New(store, tr, handlerPool, publishPool)

	handlerPool.Start()
	publishPool.Start()

	broker.Start(context.Background())

	server := udsserver.New(cfg.LocalSkillService.LSSSocketPath, broker.Dispatcher())

	services := []lifecycle.Service{
		lifecycle.NewServiceFunc("handler-pool",
			func(ctx context.Context) error { <-ctx.Done(); return nil },
			func(ctx context.Context) error { return handlerPool.Shutdown(ctx) },
		),
		lifecycle.NewServiceFunc("publish-pool",
			func(ctx context.Context) error { <-ctx.Done(); return nil },
			func(ctx context.Context) error { return publishPool.Shutdown(ctx) },
		),
		server,
	}

	if cfg.MetricsAddr != "" {
		services = append(services, newAdminService(cfg, kv, server))
	}

	return lifecycle.Run(context.Background(), services...)
}

func openStorage(cfg *config.Config) (storage.KV, error) {
	path := cfg.LocalSkillService.LSSSocketPath + ".db"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	kv, err := storage.OpenBolt(path)
	if err != nil {
		return nil, err
	}
	return storage.NewInstrumented(kv), nil
}

func newAdminService(cfg *config.Config, kv storage.KV, server *udsserver.Server) *lifecycle.HTTPService {
	checker := health.NewChecker()
	checker.AddReadinessCheck(health.StorageCheck(func() error {
		_, _, err := kv.Get(context.Background(), lss.ConfigTable, lss.SubscriptionsKey)
		return err
	}))
	checker.AddReadinessCheck(health.SocketCheck(func() bool {
		return server.Health() == nil
	}))

	mux := chi.NewRouter()
	mux.Get("/healthz", checker.HandleLive)
	mux.Get("/readyz", checker.HandleReady)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	return lifecycle.NewHTTPService("admin-http", httpServer)
}

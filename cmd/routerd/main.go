// Command routerd is an example composition root that exercises
// internal/router and internal/routecache against a concrete, HTTP-shaped
// Handler. It is not the sidecar proxy itself — service discovery, TLS
// termination, the accept loop and the controller client live outside
// this repository — but it wires config, logging, metrics, and two
// independently configured routers for the inbound and outbound legs of
// a mesh sidecar.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FairForge/meshrouter/internal/clock"
	"github.com/FairForge/meshrouter/internal/config"
	"github.com/FairForge/meshrouter/internal/routecache"
	"github.com/FairForge/meshrouter/internal/router"
	routermetrics "github.com/FairForge/meshrouter/internal/router/metrics"
)

func main() {
	logger := mustLogger()
	defer func() { _ = logger.Sync() }()

	configPath := config.GetEnvOrDefault("MESHROUTER_CONFIG", "routerd.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("main: no config file, using defaults", zap.String("path", configPath), zap.Error(err))
		defaults := config.DefaultRouterConfig()
		cfg = &defaults
	}
	config.LoadFromEnv(cfg)

	clk := clock.SystemClock{}

	inbound, err := newDirectionRouter(cfg, clk, logger.With(zap.String("direction", "inbound")), "inbound")
	if err != nil {
		logger.Fatal("main: build inbound router", zap.Error(err))
	}
	outbound, err := newDirectionRouter(cfg, clk, logger.With(zap.String("direction", "outbound")), "outbound")
	if err != nil {
		logger.Fatal("main: build outbound router", zap.Error(err))
	}

	watcher, err := watchConfig(configPath, logger, func(reloaded *config.RouterConfig) {
		policy := routecache.RetainWhileActive[router.Handler]().Or(routecache.MaxAccessAge[router.Handler](reloaded.MaxIdle, clk))
		inbound.SetPolicy(policy)
		outbound.SetPolicy(policy)
	})
	if err != nil {
		logger.Warn("main: config hot-reload disabled", zap.Error(err))
	} else {
		defer func() { _ = watcher.Close() }()
	}

	inboundSrv := &http.Server{Addr: ":8080", Handler: withRequestID(logger, &proxyHandler{router: inbound, logger: logger})}
	outboundSrv := &http.Server{Addr: ":8081", Handler: withRequestID(logger, &proxyHandler{router: outbound, logger: logger})}
	adminSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: adminRouter(logger)}

	for _, s := range []*http.Server{inboundSrv, outboundSrv, adminSrv} {
		s := s
		go func() {
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("main: server stopped", zap.String("addr", s.Addr), zap.Error(err))
			}
		}()
	}

	logger.Info("routerd started",
		zap.String("inbound", inboundSrv.Addr),
		zap.String("outbound", outboundSrv.Addr),
		zap.String("admin", adminSrv.Addr),
		zap.Int("capacity", cfg.Capacity),
		zap.Duration("max_idle", cfg.MaxIdle),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("routerd shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, s := range []*http.Server{inboundSrv, outboundSrv, adminSrv} {
		_ = s.Shutdown(ctx)
	}
}

func mustLogger() *zap.Logger {
	if config.GetEnvOrDefault("MESHROUTER_LOG_LEVEL", "info") == "debug" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}

func newDirectionRouter(cfg *config.RouterConfig, clk clock.Clock, logger *zap.Logger, name string) (*router.Router[string], error) {
	policy := routecache.RetainWhileActive[router.Handler]().Or(routecache.MaxAccessAge[router.Handler](cfg.MaxIdle, clk))

	cache, err := routecache.New[string, router.Handler](cfg.Capacity, policy, clk, routecache.WithLogger[string, router.Handler](logger))
	if err != nil {
		return nil, err
	}

	factory := newHostFactory(cfg.Backends, logger)
	collector := routermetrics.NewCollector(name)

	return router.New[string](factory, cache, router.WithLogger[string](logger), router.WithMetrics[string](collector)), nil
}

func adminRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

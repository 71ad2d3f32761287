// Command gwsyncer runs the discovery-to-gateway synchronizer: it loads the
// configured targets, drives one scheduled reconciliation cycle per target,
// and serves the HTTP façade for manual registration control, health and
// the APISIX export/restore/migrate path.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/masallsome/gwsyncer/pkg/discovery/eureka"
	_ "github.com/masallsome/gwsyncer/pkg/discovery/nacos"
	_ "github.com/masallsome/gwsyncer/pkg/gateway/apisix"
	_ "github.com/masallsome/gwsyncer/pkg/gateway/kong"

	"github.com/masallsome/gwsyncer/internal/server"
	"github.com/masallsome/gwsyncer/pkg/config"
	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/healthcheck"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/metrics"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
	"github.com/masallsome/gwsyncer/pkg/store"
	"github.com/masallsome/gwsyncer/pkg/syncer"
)

func main() {
	log := logging.NewDefault("main")

	configPath := os.Getenv("GWSYNCER_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	discoveryRegistry := discovery.NewRegistry()
	gatewayRegistry := gateway.NewRegistry()
	st := store.NewMemory()
	m := metrics.New()

	prober := healthcheck.NewProber(st)
	prober.Metrics = m

	engine := syncer.NewEngine(discoveryRegistry, gatewayRegistry, st, prober)
	engine.Metrics = m

	sched := scheduler.New()
	healthJob := healthcheck.NewJob(discoveryRegistry, prober, sched.InstanceQueue)

	reloader := &config.Reloader{
		Discovery: discoveryRegistry,
		Gateway:   gatewayRegistry,
		Scheduler: sched,
		Store:     st,
		CycleFor: func(target model.Target) scheduler.Task {
			return func(ctx context.Context) error { return engine.Cycle(target) }
		},
		HealthCheckFor: func(target model.Target) scheduler.Task {
			return func(ctx context.Context) error { return healthJob.Run(ctx, target) }
		},
	}

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		log.Fatalf("failed to create config watcher: %v", err)
	}

	initial, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", configPath, err)
	}
	if err := reloader.Reload(initial); err != nil {
		log.Fatalf("failed initial reload: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched.Start(ctx)
	go func() {
		if err := watcher.Start(); err != nil {
			log.Warnf("config watcher stopped: %v", err)
		}
	}()
	go config.RunOnReload(ctx, watcher, reloader)

	srv := server.New(discoveryRegistry, gatewayRegistry, st, sched, initial.APIKey)
	srv.Metrics = m
	srv.Reload = func(ctx context.Context) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		return reloader.Reload(cfg)
	}

	httpServer := &http.Server{Addr: ":" + port, Handler: srv.Router()}

	go func() {
		log.Infof("gwsyncer listening on :%s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()
	sched.Stop()
	_ = httpServer.Shutdown(context.Background())
}

package config

import (
	"context"
	"fmt"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
	"github.com/masallsome/gwsyncer/pkg/store"
)

// Reloader owns the live discovery/gateway registries and the scheduler; it
// generalizes the original reload() routine: clear driver caches and job
// rows, rebuild drivers from the freshly parsed Config, then re-register
// every enabled target's schedule.
type Reloader struct {
	Discovery *discovery.Registry
	Gateway   *gateway.Registry
	Scheduler *scheduler.Scheduler
	Store     store.Store
	// CycleFor returns the reconciliation task to run when target's schedule
	// fires; it is submitted onto Scheduler.SyncerQueue.
	CycleFor func(target model.Target) scheduler.Task
	// HealthCheckFor returns the health-check task to run when target's
	// schedule fires, for targets with a configured healthcheck block; it is
	// submitted onto Scheduler.HealthCheckQueue. A nil value (or a target
	// with no healthcheck block) registers no health-check entry for it.
	HealthCheckFor func(target model.Target) scheduler.Task
}

// healthCheckEntrySuffix distinguishes a target's health-check cron entry
// from its reconciliation entry, both keyed by the same target.ID otherwise.
const healthCheckEntrySuffix = ":health"

// Reload rebuilds the discovery/gateway driver registries from cfg and
// re-registers one scheduled task per enabled target, replacing whatever
// was previously scheduled for that target.ID.
func (r *Reloader) Reload(cfg *Config) error {
	if err := r.Store.ClearJobs(); err != nil {
		return err
	}
	r.Scheduler.ClearAll()

	discoveries := make(map[string]discovery.Discovery, len(cfg.DiscoveryServers))
	for name, dc := range cfg.DiscoveryServers {
		d, err := discovery.Build(dc.Type, dc.Config)
		if err != nil {
			return fmt.Errorf("discovery %q: %w", name, err)
		}
		discoveries[name] = d
	}
	r.Discovery.Swap(discoveries)

	gateways := make(map[string]gateway.Gateway, len(cfg.GatewayServers))
	for name, gc := range cfg.GatewayServers {
		g, err := gateway.Build(gc.Type, gc.Config)
		if err != nil {
			return fmt.Errorf("gateway %q: %w", name, err)
		}
		gateways[name] = g
	}
	r.Gateway.Swap(gateways)

	for _, t := range cfg.Targets {
		if !t.Enabled {
			continue
		}
		task := r.CycleFor(t)
		if err := r.Scheduler.Schedule(t.ID, t.FetchInterval, r.Scheduler.SyncerQueue, task); err != nil {
			return err
		}

		if t.Config.HealthCheck == nil || r.HealthCheckFor == nil {
			continue
		}
		hcTask := r.HealthCheckFor(t)
		if err := r.Scheduler.Schedule(t.ID+healthCheckEntrySuffix, t.FetchInterval, r.Scheduler.HealthCheckQueue, hcTask); err != nil {
			return err
		}
	}
	return nil
}

// RunOnReload wires a Watcher's Updates() channel to Reload, so subsequent
// file changes hot-reload the running process. Blocks until ctx is done.
func RunOnReload(ctx context.Context, w *Watcher, reloader *Reloader) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-w.Updates():
			if !ok {
				return
			}
			if err := reloader.Reload(cfg); err != nil {
				w.log.Warnf("reload failed: %v", err)
			}
		}
	}
}

package syncer

import (
	"regexp"
	"time"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/healthcheck"
	"github.com/masallsome/gwsyncer/pkg/logging"
	"github.com/masallsome/gwsyncer/pkg/metrics"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/store"
)

// Engine runs one reconciliation cycle per target: fetch, diff, apply,
// persist. It depends only on the Discovery/Gateway capability sets, never
// on concrete drivers.
type Engine struct {
	Discovery *discovery.Registry
	Gateway   *gateway.Registry
	Store     store.Store
	Prober    *healthcheck.Prober
	Log       *logging.Logger
	// Metrics is optional; a nil value disables instrumentation.
	Metrics *metrics.Metrics
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(d *discovery.Registry, g *gateway.Registry, st store.Store, prober *healthcheck.Prober) *Engine {
	return &Engine{Discovery: d, Gateway: g, Store: st, Prober: prober, Log: logging.NewDefault("syncer")}
}

// Cycle runs one pass of target T: resolve drivers, fetch services, diff
// each against the gateway's current members, push the delta, then upsert
// the Job row. A missing driver or empty service list is a logged no-op,
// not an error — other targets' cycles must keep running.
func (e *Engine) Cycle(target model.Target) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if e.Metrics == nil {
			return
		}
		e.Metrics.CycleDuration.WithLabelValues(target.ID).Observe(time.Since(start).Seconds())
		e.Metrics.CyclesTotal.WithLabelValues(target.ID, outcome).Inc()
	}()

	d, ok := e.Discovery.Get(target.Discovery)
	if !ok {
		e.Log.Warnf("no discovery driver named %q for target %s", target.Discovery, target.ID)
		outcome = "no_driver"
		return nil
	}
	g, ok := e.Gateway.Get(target.Gateway)
	if !ok {
		e.Log.Warnf("no gateway driver named %q for target %s", target.Gateway, target.ID)
		outcome = "no_driver"
		return nil
	}

	services, err := d.GetAllService(target.Config.Extra, true)
	if err != nil {
		e.Log.Warnf("target %s: failed to list services: %v", target.ID, err)
		outcome = "error"
		return nil
	}
	if len(services) == 0 {
		e.Log.Warnf("target %s: discovery returned no services", target.ID)
		outcome = "empty"
		return nil
	}

	exclude := compileExcludes(target.ExcludeService)

	for _, service := range services {
		if matchesAny(exclude, service.Name) {
			continue
		}
		e.reconcileService(target, d, g, service)
	}

	job := model.Job{
		TargetID:           target.ID,
		Description:        target.Name,
		Discovery:          target.Discovery,
		Gateway:            target.Gateway,
		MaximumIntervalSec: target.MaximumIntervalSec,
		Enabled:            target.Enabled,
		LastTime:           time.Now().Unix(),
	}
	return e.Store.UpsertJob(job)
}

func (e *Engine) reconcileService(target model.Target, d discovery.Discovery, g gateway.Gateway, service model.Service) {
	discoveryInstances := service.Instances
	if len(discoveryInstances) == 0 {
		instances, _, err := d.GetServiceAllInstances(service.Name, target.Config.Extra, true)
		if err != nil {
			e.Log.Warnf("target %s service %s: failed to fetch instances: %v", target.ID, service.Name, err)
			return
		}
		discoveryInstances = instances
	}

	if target.Config.HealthCheck != nil {
		discoveryInstances = e.applyHealthCheck(target, d, service.Name, discoveryInstances)
	}

	gatewayInstances, err := g.GetServiceAllInstances(target, service.Name)
	if err != nil {
		e.Log.Warnf("target %s service %s: failed to fetch gateway instances: %v", target.ID, service.Name, err)
		return
	}

	diff := Diff(discoveryInstances, gatewayInstances)
	if e.Metrics != nil {
		e.Metrics.DiffSize.WithLabelValues(target.ID, service.Name).Observe(float64(len(diff)))
	}
	if len(diff) == 0 {
		e.Log.Debugf("target %s service %s: no drift", target.ID, service.Name)
		return
	}

	if err := g.SyncInstances(target, service.Name, diff, discoveryInstances); err != nil {
		e.Log.Warnf("target %s service %s: sync failed: %v", target.ID, service.Name, err)
	}
}

// applyHealthCheck removes instances the counter table currently marks
// unhealthy from the set the gateway will see, and pushes a DOWN
// registration to the discovery registry for them — but only when doing so
// would not drop the alive count below healthcheck.min-hosts (default 1).
// Any failure here is logged and never aborts the cycle.
func (e *Engine) applyHealthCheck(target model.Target, d discovery.Discovery, service string, instances []model.Instance) []model.Instance {
	cfg := *target.Config.HealthCheck
	minHosts := cfg.MinHosts
	if minHosts <= 0 {
		minHosts = 1
	}

	var unhealthy []model.Instance
	var alive []model.Instance
	for _, inst := range instances {
		row, found := e.Store.GetInstance(target.ID, service, inst.Key())
		if found && row.Status == model.HealthUnhealthy {
			unhealthy = append(unhealthy, inst)
			continue
		}
		alive = append(alive, inst)
	}

	if len(unhealthy) == 0 {
		return instances
	}
	if len(alive) < minHosts {
		e.Log.Warnf("target %s service %s: skipping take-down, would leave %d < min-hosts %d", target.ID, service, len(alive), minHosts)
		return instances
	}

	takedown := make([]model.Instance, 0, len(unhealthy))
	for _, inst := range unhealthy {
		c := inst.Clone()
		c.Change = true
		c.Enabled = false
		takedown = append(takedown, c)
	}
	reg := model.Registration{ServiceName: service, Status: model.StatusDOWN}
	if err := d.ModifyRegistration(reg, takedown); err != nil {
		e.Log.Warnf("target %s service %s: failed to push DOWN registration: %v", target.ID, service, err)
	}
	return alive
}

func compileExcludes(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// matchesAny reports whether name prefix-matches any pattern — the observed
// (if undocumented) source semantics: a match anchored at position 0, not a
// full-string match.
func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if loc := re.FindStringIndex(name); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

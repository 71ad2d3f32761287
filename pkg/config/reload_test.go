package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/model"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
	"github.com/masallsome/gwsyncer/pkg/store"
)

type stubDiscovery struct{}

func (stubDiscovery) GetAllService(map[string]any, bool) ([]model.Service, error) { return nil, nil }
func (stubDiscovery) GetServiceAllInstances(string, map[string]any, bool) ([]model.Instance, int64, error) {
	return nil, -1, nil
}
func (stubDiscovery) ModifyRegistration(model.Registration, []model.Instance) error { return nil }

type stubGateway struct{}

func (stubGateway) GetServiceAllInstances(model.Target, string) ([]model.Instance, error) {
	return nil, nil
}
func (stubGateway) SyncInstances(model.Target, string, []model.Instance, []model.Instance) error {
	return nil
}
func (stubGateway) FetchAdminAPIToFile(string) (string, string, error) { return "", "", nil }
func (stubGateway) MigrateTo(gateway.Gateway) error                    { return nil }
func (stubGateway) RestoreGateway([]byte) error                        { return nil }

func init() {
	discovery.Register("stub-discovery", func(map[string]any) (discovery.Discovery, error) {
		return stubDiscovery{}, nil
	})
	gateway.Register("stub-gateway", func(map[string]any) (gateway.Gateway, error) {
		return stubGateway{}, nil
	})
}

func TestReloaderReloadWiresDriversAndSchedules(t *testing.T) {
	cfg := &Config{
		APIKey: "a-long-enough-key",
		DiscoveryServers: map[string]DriverConfig{
			"d1": {Type: "stub-discovery"},
		},
		GatewayServers: map[string]DriverConfig{
			"g1": {Type: "stub-gateway"},
		},
		Targets: []model.Target{
			{ID: "t1", Discovery: "d1", Gateway: "g1", Enabled: true, FetchInterval: "@every 1h"},
			{ID: "t2", Discovery: "d1", Gateway: "g1", Enabled: false, FetchInterval: "@every 1h"},
		},
	}

	sched := scheduler.New()
	r := &Reloader{
		Discovery: discovery.NewRegistry(),
		Gateway:   gateway.NewRegistry(),
		Scheduler: sched,
		Store:     store.NewMemory(),
		CycleFor: func(target model.Target) scheduler.Task {
			return func(ctx context.Context) error { return nil }
		},
	}

	require.NoError(t, r.Reload(cfg))

	_, ok := r.Discovery.Get("d1")
	assert.True(t, ok)
	_, ok = r.Gateway.Get("g1")
	assert.True(t, ok)
}

func TestReloaderReloadFailsOnUnknownDriverKind(t *testing.T) {
	cfg := &Config{
		DiscoveryServers: map[string]DriverConfig{"d1": {Type: "does-not-exist"}},
		GatewayServers:   map[string]DriverConfig{},
	}
	r := &Reloader{
		Discovery: discovery.NewRegistry(),
		Gateway:   gateway.NewRegistry(),
		Scheduler: scheduler.New(),
		Store:     store.NewMemory(),
		CycleFor:  func(model.Target) scheduler.Task { return func(context.Context) error { return nil } },
	}
	assert.Error(t, r.Reload(cfg))
}

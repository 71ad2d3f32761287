// Package gateway defines the Gateway driver contract and its name-keyed
// registry, mirroring pkg/discovery's atomic-swap-on-reload design.
package gateway

import (
	"sync"
	"sync/atomic"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/model"
)

// Gateway is the narrow interface the reconciliation engine and the HTTP
// façade depend on; concrete drivers (APISIX, Kong) are never referenced by
// name outside of registration.
type Gateway interface {
	// GetServiceAllInstances returns the members of the upstream identified
	// by target.UpstreamPrefix-upstreamName.
	GetServiceAllInstances(target model.Target, upstreamName string) ([]model.Instance, error)
	// SyncInstances applies diff (or full, per-driver) to the gateway.
	SyncInstances(target model.Target, upstreamName string, diff, full []model.Instance) error
	// FetchAdminAPIToFile serializes the gateway's current runtime into a
	// declarative file; returns (content, path).
	FetchAdminAPIToFile(fileName string) (string, string, error)
	// MigrateTo copies configuration objects into a compatible gateway.
	MigrateTo(target Gateway) error
	// RestoreGateway loads a declarative file into a running gateway.
	RestoreGateway(body []byte) error
}

// Constructor builds a Gateway driver from its named configuration block.
type Constructor func(config map[string]any) (Gateway, error)

var (
	ctorMu sync.RWMutex
	ctors  = map[string]Constructor{}
)

// Register associates a driver kind (e.g. "apisix") with its constructor.
func Register(kind string, ctor Constructor) {
	ctorMu.Lock()
	defer ctorMu.Unlock()
	ctors[kind] = ctor
}

func lookup(kind string) (Constructor, bool) {
	ctorMu.RLock()
	defer ctorMu.RUnlock()
	c, ok := ctors[kind]
	return c, ok
}

// Build constructs a Gateway instance for the given kind.
func Build(kind string, config map[string]any) (Gateway, error) {
	ctor, ok := lookup(kind)
	if !ok {
		return nil, gwerrors.DriverNotFound("gateway", kind)
	}
	return ctor(config)
}

// Registry holds the current set of named Gateway instances, atomically
// swapped wholesale on reload.
type Registry struct {
	instances atomic.Pointer[map[string]Gateway]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]Gateway{}
	r.instances.Store(&empty)
	return r
}

func (r *Registry) Swap(named map[string]Gateway) {
	r.instances.Store(&named)
}

func (r *Registry) Get(name string) (Gateway, bool) {
	m := *r.instances.Load()
	g, ok := m[name]
	return g, ok
}

// UpstreamName joins target.UpstreamPrefix and the service name with a
// hyphen, dropping either token if empty.
func UpstreamName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if name == "" {
		return prefix
	}
	return prefix + "-" + name
}

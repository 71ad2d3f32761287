// Package discovery defines the Discovery driver contract and a
// name-keyed registry of live driver instances, atomically swapped on
// every configuration reload.
package discovery

import (
	"sync"
	"sync/atomic"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
	"github.com/masallsome/gwsyncer/pkg/model"
)

// Discovery is the narrow interface the reconciliation engine depends on;
// concrete drivers (Nacos, Eureka) are never referenced by name in engine code.
type Discovery interface {
	// GetAllService returns every service within the configured scope.
	// enabledOnly filters out disabled/unhealthy hosts when true.
	GetAllService(config map[string]any, enabledOnly bool) ([]model.Service, error)
	// GetServiceAllInstances does a full fetch for one service; lastTime is
	// a registry hint in epoch seconds, -1 when unavailable.
	GetServiceAllInstances(serviceName string, extData map[string]any, enabledOnly bool) ([]model.Instance, int64, error)
	// ModifyRegistration idempotently applies the registration's desired
	// state to every instance whose Change flag is set.
	ModifyRegistration(reg model.Registration, instances []model.Instance) error
}

// Constructor builds a Discovery driver from its named configuration block.
type Constructor func(config map[string]any) (Discovery, error)

// registry is the process-wide map of driver kind -> constructor, populated
// by each driver package's init().
var (
	ctorMu sync.RWMutex
	ctors  = map[string]Constructor{}
)

// Register associates a driver kind (e.g. "nacos") with its constructor.
// Driver packages call this from init().
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

// Build constructs a Discovery instance for the given kind, looking up the
// constructor registered via Register.
func Build(kind string, config map[string]any) (Discovery, error) {
	ctor, ok := lookup(kind)
	if !ok {
		return nil, gwerrors.DriverNotFound("discovery", kind)
	}
	return ctor(config)
}

// Registry holds the current set of named Discovery instances. It is
// rebuilt wholesale on reload and swapped atomically so in-flight
// reconciliation cycles keep their own snapshot.
type Registry struct {
	instances atomic.Pointer[map[string]Discovery]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]Discovery{}
	r.instances.Store(&empty)
	return r
}

// Swap atomically replaces the entire named-instance set.
func (r *Registry) Swap(named map[string]Discovery) {
	r.instances.Store(&named)
}

// Get returns the named driver, or (nil, false) if unknown.
func (r *Registry) Get(name string) (Discovery, bool) {
	m := *r.instances.Load()
	d, ok := m[name]
	return d, ok
}

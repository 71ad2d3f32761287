// Package store defines the persistence contract for Job rows and
// per-instance health counters, plus an in-memory reference implementation.
// A real storage engine is explicitly out of scope (spec §1); this is
// sufficient for the engine's own tests and for a single-process deployment.
package store

import (
	"sort"
	"sync"

	"github.com/masallsome/gwsyncer/pkg/model"
)

// Store is the persistence contract the syncer and health-check subsystem
// depend on.
type Store interface {
	UpsertJob(job model.Job) error
	GetJob(targetID string) (model.Job, bool)
	ListJobs() []model.Job
	ClearJobs() error

	UpsertInstance(inst model.DiscoveryInstance) error
	GetInstance(targetID, service, instance string) (model.DiscoveryInstance, bool)
	// ListInstances returns every counter row for (targetID, service),
	// ordered per the original's SQL_SELECT_INSTANCES: unhealthy last, then
	// ascending failures+timeouts, then descending successes.
	ListInstances(targetID, service string) []model.DiscoveryInstance
}

// Memory is an in-memory Store, safe for concurrent use.
type Memory struct {
	mu        sync.RWMutex
	jobs      map[string]model.Job
	instances map[string]model.DiscoveryInstance // key: targetID|service|instance
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:      make(map[string]model.Job),
		instances: make(map[string]model.DiscoveryInstance),
	}
}

func instanceKey(targetID, service, instance string) string {
	return targetID + "|" + service + "|" + instance
}

func (m *Memory) UpsertJob(job model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.TargetID] = job
	return nil
}

func (m *Memory) GetJob(targetID string) (model.Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[targetID]
	return j, ok
}

func (m *Memory) ListJobs() []model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out
}

func (m *Memory) ClearJobs() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = make(map[string]model.Job)
	return nil
}

func (m *Memory) UpsertInstance(inst model.DiscoveryInstance) error {
	inst.ClampCounters()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[instanceKey(inst.TargetID, inst.Service, inst.Instance)] = inst
	return nil
}

func (m *Memory) GetInstance(targetID, service, instance string) (model.DiscoveryInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.instances[instanceKey(targetID, service, instance)]
	return i, ok
}

func (m *Memory) ListInstances(targetID, service string) []model.DiscoveryInstance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.DiscoveryInstance
	for _, i := range m.instances {
		if i.TargetID == targetID && i.Service == service {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ia, ib := out[a], out[b]
		unhealthyA, unhealthyB := 0, 0
		if ia.Status == model.HealthUnhealthy {
			unhealthyA = 1
		}
		if ib.Status == model.HealthUnhealthy {
			unhealthyB = 1
		}
		if unhealthyA != unhealthyB {
			return unhealthyA < unhealthyB
		}
		flakyA, flakyB := ia.Failures+ia.Timeouts, ib.Failures+ib.Timeouts
		if flakyA != flakyB {
			return flakyA < flakyB
		}
		return ia.Successes > ib.Successes
	})
	return out
}

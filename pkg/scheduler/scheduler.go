// Package scheduler dispatches cron-triggered reconciliation and
// health-check tasks onto named, rate-capped worker queues, and coordinates
// configuration reloads.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/masallsome/gwsyncer/pkg/logging"
)

// Scheduler owns the cron engine and the named queues; it is an explicit
// component constructed by the process entry point, not a package-level
// singleton.
type Scheduler struct {
	cron *cron.Cron
	log  *logging.Logger

	SyncerQueue      *Queue
	HealthCheckQueue *Queue
	InstanceQueue    *Queue
	ReloadQueue      *Queue

	mu      sync.Mutex
	entries map[string]cron.EntryID // entry key -> cron entry, for replace_existing
	reboots map[string]reboot       // entry key -> one-shot task run once at Start
}

// reboot pairs a one-shot task with the queue it must be submitted to.
type reboot struct {
	queue *Queue
	task  Task
}

// New builds a Scheduler with the four named queues at their spec'd rate
// caps: syncer 50/s, health-check-job 50/s, instance-probe 100/s, reload 1/s.
func New() *Scheduler {
	return &Scheduler{
		cron:             cron.New(cron.WithParser(parser)),
		log:              logging.NewDefault("scheduler"),
		SyncerQueue:      NewQueue(QueueSyncerJob, 50, 8, 4),
		HealthCheckQueue: NewQueue(QueueHealthCheckJob, 50, 8, 4),
		InstanceQueue:    NewQueue(QueueInstanceHealthCheck, 100, 16, 4),
		ReloadQueue:      NewQueue(QueueReloadJob, 1, 1, 4),
		entries:          map[string]cron.EntryID{},
		reboots:          map[string]reboot{},
	}
}

// Start launches every queue's workers and the cron engine, then fires every
// registered @reboot one-shot exactly once.
func (s *Scheduler) Start(ctx context.Context) {
	s.SyncerQueue.Start(ctx)
	s.HealthCheckQueue.Start(ctx)
	s.InstanceQueue.Start(ctx)
	s.ReloadQueue.Start(ctx)
	s.cron.Start()

	s.mu.Lock()
	reboots := make([]reboot, 0, len(s.reboots))
	for _, r := range s.reboots {
		reboots = append(reboots, r)
	}
	s.mu.Unlock()
	for _, r := range reboots {
		r.queue.Submit("reboot", r.task)
	}
}

// Stop stops the cron engine and waits for any running cron job to return.
// Queue workers exit when the context passed to Start is done; Stop does not
// wait for them or for their in-flight tasks.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}

// Schedule binds entryID's expr to submit task onto queue on every firing,
// honoring replace_existing semantics: a prior entry for the same entryID is
// removed first. "@reboot" is recorded as a one-shot and is not re-armed on
// subsequent reloads unless Start is called again. Dispatching through queue
// (rather than running task inline in the cron goroutine) is what enforces
// that queue's rate cap on this entry's triggered work.
func (s *Scheduler) Schedule(entryID, expr string, queue *Queue, task Task) error {
	sched, isReboot, err := ParseSchedule(expr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[entryID]; ok {
		s.cron.Remove(prev)
		delete(s.entries, entryID)
	}
	delete(s.reboots, entryID)

	if isReboot {
		s.reboots[entryID] = reboot{queue: queue, task: task}
		return nil
	}

	id := s.cron.Schedule(sched, cron.FuncJob(func() {
		queue.Submit(entryID, task)
	}))
	s.entries[entryID] = id
	return nil
}

// ClearAll removes every scheduled entry and one-shot, used by reload before
// re-registering from the freshly parsed configuration.
func (s *Scheduler) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.entries {
		s.cron.Remove(id)
	}
	s.entries = map[string]cron.EntryID{}
	s.reboots = map[string]reboot{}
}

package scheduler

import (
	"container/ring"
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/masallsome/gwsyncer/pkg/logging"
)

// Queue names, each bound to its own worker pool and rate cap per §5.
const (
	QueueSyncerJob           = "queue_syncer_job"
	QueueHealthCheckJob      = "queue_health_check_job"
	QueueInstanceHealthCheck = "queue_instance_health_check"
	QueueReloadJob           = "queue_reload_job"
)

// Task is one unit of work dispatched onto a Queue.
type Task func(ctx context.Context) error

// Queue is a bounded worker pool gated by a rate.Limiter; tasks that exhaust
// MaxRetries land in the dead-letter ring buffer.
type Queue struct {
	name       string
	limiter    *rate.Limiter
	workers    int
	maxRetries int
	backoff    func(attempt int) int // seconds, overridable in tests

	tasks      chan namedTask
	deadLetter *ring.Ring
	dlMu       sync.Mutex
	log        *logging.Logger

	wg sync.WaitGroup
}

type namedTask struct {
	task    Task
	label   string
	attempt int
}

// NewQueue builds a Queue with workers concurrent workers that share one
// limiter of ratePerSec tasks/sec for the whole queue (burst = workers),
// retrying up to maxRetries times before the task is recorded in the
// dead-letter ring (capacity 256).
func NewQueue(name string, ratePerSec float64, workers, maxRetries int) *Queue {
	return &Queue{
		name:       name,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), workers),
		workers:    workers,
		maxRetries: maxRetries,
		backoff:    func(attempt int) int { return 30 },
		tasks:      make(chan namedTask, 256),
		deadLetter: ring.New(256),
		log:        logging.NewDefault("scheduler.queue." + name),
	}
}

// Start launches the queue's worker goroutines; they exit when ctx is done.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Wait blocks until every worker goroutine has returned (after ctx is done).
func (q *Queue) Wait() { q.wg.Wait() }

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case nt, ok := <-q.tasks:
			if !ok {
				return
			}
			q.run(ctx, nt)
		}
	}
}

func (q *Queue) run(ctx context.Context, nt namedTask) {
	if err := q.limiter.Wait(ctx); err != nil {
		return
	}
	if err := nt.task(ctx); err != nil {
		q.log.Warnf("task %s failed (attempt %d): %v", nt.label, nt.attempt, err)
		if nt.attempt < q.maxRetries {
			nt.attempt++
			delay := time.Duration(q.backoff(nt.attempt)) * time.Second
			time.AfterFunc(delay, func() {
				select {
				case q.tasks <- nt:
				default:
					q.deadLetterAdd(nt.label, err)
				}
			})
			return
		}
		q.deadLetterAdd(nt.label, err)
	}
}

// Submit enqueues task for eventual (possibly retried) execution.
func (q *Queue) Submit(label string, task Task) {
	select {
	case q.tasks <- namedTask{task: task, label: label}:
	default:
		q.log.Warnf("queue %s full, dropping task %s", q.name, label)
	}
}

func (q *Queue) deadLetterAdd(label string, err error) {
	q.dlMu.Lock()
	defer q.dlMu.Unlock()
	q.deadLetter.Value = label + ": " + err.Error()
	q.deadLetter = q.deadLetter.Next()
}

// DeadLetters returns a read-only snapshot of the dead-letter ring buffer.
// The façade's /health does not include these entries; its details[] lists
// job status only.
func (q *Queue) DeadLetters() []string {
	q.dlMu.Lock()
	defer q.dlMu.Unlock()
	var out []string
	q.deadLetter.Do(func(v any) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	})
	return out
}

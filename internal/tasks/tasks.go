package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	ReasonQueueFull = "queue full"
	ReasonClosed    = "queue closed"
	ReasonShutdown  = "shutdown before delivery"
)

// ErrQueueClosed is returned by [Queue.Close] when called twice.
var ErrQueueClosed = errors.New("queue closed")

// Job is one unit of best-effort work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
	// OnDrop is called at most once when the job is not delivered: dropped on submit,
	// abandoned at shutdown, or failed.
	OnDrop func(reason string)
}

func (j Job) drop(reason string) {
	if j.OnDrop != nil {
		j.OnDrop(reason)
	}
}

// Stats counts job outcomes.
type Stats struct {
	Submitted int
	Delivered int
	Failed    int
	Dropped   int
}

// QueueOpts configures a [Queue].
type QueueOpts struct {
	Size    int           // buffered jobs, default 64
	Workers int           // default 1
	Rate    float64       // jobs per second, 0 for unlimited
	Timeout time.Duration // per job, default 15s
	Updates chan<- Update
	Logger  *log.Logger
}

// Queue is a bounded, rate limited, at-most-once job queue.
type Queue struct {
	jobs    chan Job
	limiter *rate.Limiter
	timeout time.Duration
	updates chan<- Update
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	mu     sync.Mutex
	closed bool
	stats  Stats
}

// NewQueue creates a [Queue] and starts its workers.
func NewQueue(opts QueueOpts) *Queue {
	if opts.Size <= 0 {
		opts.Size = 64
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:    make(chan Job, opts.Size),
		limiter: rate.NewLimiter(limit, 1),
		timeout: opts.Timeout,
		updates: opts.Updates,
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		group:   &errgroup.Group{},
	}
	for range opts.Workers {
		q.group.Go(q.work)
	}
	return q
}

// Submit enqueues job without blocking. It reports false when the job was dropped.
func (q *Queue) Submit(job Job) bool {
	q.mu.Lock()
	if q.closed {
		q.stats.Dropped++
		q.mu.Unlock()
		q.dropped(job, ReasonClosed)
		return false
	}

	select {
	case q.jobs <- job:
		q.stats.Submitted++
		q.mu.Unlock()
		q.send(submittedUpdate(job.Name))
		return true
	default:
		q.stats.Dropped++
		q.mu.Unlock()
		q.dropped(job, ReasonQueueFull)
		return false
	}
}

// Stats returns a snapshot of the counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Close stops accepting jobs and waits for queued jobs to finish. When ctx ends first,
// jobs still waiting are dropped with [ReasonShutdown].
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = q.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *Queue) work() error {
	for job := range q.jobs {
		if q.ctx.Err() != nil {
			q.count(func(s *Stats) { s.Dropped++ })
			q.dropped(job, ReasonShutdown)
			continue
		}
		if err := q.limiter.Wait(q.ctx); err != nil {
			q.count(func(s *Stats) { s.Dropped++ })
			q.dropped(job, ReasonShutdown)
			continue
		}
		q.run(job)
	}
	return nil
}

func (q *Queue) run(job Job) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	q.send(startedUpdate(job.Name))
	if err := safeRun(ctx, job); err != nil {
		q.count(func(s *Stats) { s.Failed++ })
		q.logger.Warn("best-effort job failed", "job", job.Name, "error", err)
		q.send(failedUpdate(job.Name, err))
		job.drop(err.Error())
		return
	}
	q.count(func(s *Stats) { s.Delivered++ })
	q.send(deliveredUpdate(job.Name))
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	if job.Run == nil {
		return nil
	}
	return job.Run(ctx)
}

func (q *Queue) dropped(job Job, reason string) {
	q.logger.Warn("dropping best-effort job", "job", job.Name, "reason", reason)
	q.send(droppedUpdate(job.Name, reason))
	job.drop(reason)
}

func (q *Queue) count(fn func(*Stats)) {
	q.mu.Lock()
	fn(&q.stats)
	q.mu.Unlock()
}

// send delivers an update without blocking; updates are skipped when the reader is behind.
func (q *Queue) send(u Update) {
	if q.updates == nil {
		return
	}
	select {
	case q.updates <- u:
	default:
	}
}

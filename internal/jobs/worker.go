package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const pollInterval = 500 * time.Millisecond

// WorkerPool drains the jobs table. Each worker claims one job at a time;
// failed jobs are rescheduled with backoff until MaxAttempts is reached, then
// moved to the dead-letter table.
type WorkerPool struct {
	repo     *Repository
	handlers map[string]Handler
	logger   *slog.Logger
	size     int
	quit     chan struct{}
	wg       sync.WaitGroup
}

func NewWorkerPool(repo *Repository, handlers map[string]Handler, logger *slog.Logger, size int) *WorkerPool {
	if size <= 0 {
		size = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkerPool{repo: repo, handlers: handlers, logger: logger, size: size, quit: make(chan struct{})}
}

func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}
}

// Stop signals the workers and waits until all of them return.
func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *WorkerPool) run(ctx context.Context, id int) {
	for {
		select {
		case <-p.quit:
			return
		case <-ctx.Done():
			p.logger.Info("worker context canceled", "worker", id)
			return
		default:
		}

		job, err := p.repo.FetchNext(ctx)
		if err != nil {
			p.logger.Error("fetch job", "worker", id, "err", err)
			p.idle(time.Second)
			continue
		}
		if job == nil {
			p.idle(pollInterval)
			continue
		}
		p.dispatch(ctx, job)
	}
}

// idle waits without delaying shutdown.
func (p *WorkerPool) idle(d time.Duration) {
	select {
	case <-p.quit:
	case <-time.After(d):
	}
}

func (p *WorkerPool) dispatch(ctx context.Context, job *Job) {
	h, ok := p.handlers[job.Type]
	if !ok {
		job.Status = "failed"
		job.LastError = "no handler for " + job.Type
		if err := p.repo.MoveToDeadLetter(ctx, job); err != nil {
			p.logger.Error("dead-letter unknown type", "job_id", job.ID, "err", err)
		}
		return
	}

	if err := h(ctx, job); err != nil {
		p.retryOrBury(ctx, job, err)
		return
	}
	job.Status = "done"
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		p.logger.Error("mark job done", "job_id", job.ID, "err", err)
	}
}

func (p *WorkerPool) retryOrBury(ctx context.Context, job *Job, cause error) {
	job.Attempts++
	job.LastError = cause.Error()

	if job.Attempts >= job.MaxAttempts {
		job.Status = "failed"
		if err := p.repo.MoveToDeadLetter(ctx, job); err != nil {
			p.logger.Error("dead-letter job", "job_id", job.ID, "err", err)
		}
		return
	}

	next := time.Now().Add(BackoffDuration(job.Attempts))
	job.Status = "retry"
	job.NextTryAt = &next
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		p.logger.Error("reschedule job", "job_id", job.ID, "err", err)
	}
	p.logger.Warn("job failed, rescheduled", "job_id", job.ID, "attempt", job.Attempts, "err", cause)
}

// Enqueue marshals payload and persists a new pending job.
func (p *WorkerPool) Enqueue(ctx context.Context, typ string, payload any, priority, maxAttempts int) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return p.repo.Enqueue(ctx, &Job{
		Type:        typ,
		Payload:     body,
		Priority:    priority,
		MaxAttempts: maxAttempts,
		ScheduledAt: time.Now(),
	})
}

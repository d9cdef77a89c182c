package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loanintel/pkg/core/store"
	"loanintel/pkg/models"
)

// Pool runs N workers polling the job table. The table is the contract:
// pools can run in-process with the API or as separate worker binaries.
type Pool struct {
	jobs *store.JobRepo
	docs *store.DocumentRepo
	proc *Processor

	Workers      int
	PollInterval time.Duration
}

// NewPool creates a worker pool over the shared job queue.
func NewPool(proc *Processor, workers int, pollInterval time.Duration) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Pool{
		jobs:         store.NewJobRepo(),
		docs:         store.NewDocumentRepo(),
		proc:         proc,
		Workers:      workers,
		PollInterval: pollInterval,
	}
}

// Run blocks until ctx is cancelled and every worker has drained.
func (p *Pool) Run(ctx context.Context) {
	fmt.Printf("[queue] Starting %d workers (poll %s)\n", p.Workers, p.PollInterval)

	var wg sync.WaitGroup
	for i := 0; i < p.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workersActive.Inc()
			defer workersActive.Dec()
			p.workLoop(ctx, id)
		}(i)
	}
	wg.Wait()
	fmt.Println("[queue] All workers stopped")
}

func (p *Pool) workLoop(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.jobs.Lease(ctx)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				fmt.Printf("[queue] worker %d: lease error: %v\n", id, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.PollInterval):
			}
			continue
		}

		p.runJob(ctx, id, job)
	}
}

func (p *Pool) runJob(ctx context.Context, workerID int, job *models.ProcessingJob) {
	start := time.Now()
	err := p.proc.Process(ctx, job)
	jobDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		if err := p.jobs.MarkDone(ctx, job.ID); err != nil {
			fmt.Printf("[queue] worker %d: mark done %s: %v\n", workerID, job.ID, err)
			return
		}
		jobsProcessed.WithLabelValues("done").Inc()
		return
	}

	fmt.Printf("[queue] worker %d: job %s attempt %d/%d failed: %v\n",
		workerID, job.ID, job.Attempts, job.MaxAttempts, err)

	requeued, markErr := p.jobs.MarkFailed(ctx, job, err)
	if markErr != nil {
		fmt.Printf("[queue] worker %d: mark failed %s: %v\n", workerID, job.ID, markErr)
		return
	}
	if requeued {
		jobsProcessed.WithLabelValues("requeued").Inc()
		return
	}
	jobsProcessed.WithLabelValues("failed").Inc()

	// Terminal failure: the document stays in the case with the reason recorded.
	if err := p.docs.MarkFailed(ctx, job.DocumentID, err.Error()); err != nil {
		fmt.Printf("[queue] worker %d: mark document %d failed: %v\n", workerID, job.DocumentID, err)
	}
}

package plagiarism

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrPoolClosed = errors.New("worker pool closed")

type Job interface {
	Execute(ctx context.Context) error
}

type WorkerPool struct {
	workers  int
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewWorkerPool starts size workers. A size <= 0 falls back to CPU-based
// sizing with a quarter of the cores left for the rest of the system.
func NewWorkerPool(ctx context.Context, size int) *WorkerPool {
	if size <= 0 {
		totalCPU := runtime.NumCPU()
		systemReserve := max(1, totalCPU/4)
		size = max(1, totalCPU-systemReserve)
	}
	log.Info().
		Int("workers", size).
		Msg("Worker pool initialized")

	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		workers:  size,
		jobQueue: make(chan Job, size*2),
		ctx:      poolCtx,
		cancel:   cancel,
	}
	pool.start()

	return pool
}

func (p *WorkerPool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			if err := job.Execute(p.ctx); err != nil {
				log.Error().Err(err).Msg("Worker failed to execute job")
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full
func (p *WorkerPool) Submit(job Job) error {
	if p.ctx.Err() != nil {
		return ErrPoolClosed
	}
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	case p.jobQueue <- job:
		return nil
	}
}

// Done is closed once the pool stops accepting and running jobs
func (p *WorkerPool) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Close stops the workers and waits for them to exit
func (p *WorkerPool) Close() {
	p.cancel()
	p.wg.Wait()
}

func (p *WorkerPool) Size() int {
	return p.workers
}

// ComputationJob runs one pure computation and delivers its output to the
// batch slot Index.
type ComputationJob[T any] struct {
	Index   int
	Compute func() T
	Results chan<- JobResult[T]
}

type JobResult[T any] struct {
	Index int
	Value T
}

// Execute never blocks on delivery: the results channel is sized to the batch.
func (j *ComputationJob[T]) Execute(ctx context.Context) error {
	j.Results <- JobResult[T]{Index: j.Index, Value: j.Compute()}
	return nil
}

// RunBatch runs every computation on the pool and returns their outputs in
// input order once all of them have finished. It is the join point between
// batches. If the pool shuts down part way, the computations that did not
// report back are run on the calling goroutine, so a started batch always
// completes.
func RunBatch[T any](pool *WorkerPool, computations []func() T) []T {
	out := make([]T, len(computations))
	if len(computations) == 0 {
		return out
	}

	results := make(chan JobResult[T], len(computations))
	done := make([]bool, len(computations))
	pending := len(computations)

	for i, compute := range computations {
		job := &ComputationJob[T]{Index: i, Compute: compute, Results: results}
		if err := pool.Submit(job); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Running job inline")
			out[i] = compute()
			done[i] = true
			pending--
		}
	}

	for pending > 0 {
		select {
		case res := <-results:
			if !done[res.Index] {
				out[res.Index] = res.Value
				done[res.Index] = true
				pending--
			}
		case <-pool.Done():
			for i, compute := range computations {
				if !done[i] {
					out[i] = compute()
					done[i] = true
				}
			}
			pending = 0
		}
	}

	return out
}

package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull  = errors.New("notification queue full")
	ErrPoolClosed = errors.New("notification pool closed")
)

type Job struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

// Start registers the worker with the pool after every job until its
// JobChannel is closed.
func (w *Worker) Start(wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			job, ok := <-w.JobChannel
			if !ok {
				w.Logger.Debug("notification worker shutting down", "worker_id", w.ID)
				return
			}
			w.Logger.Debug("worker processing job", "worker_id", w.ID, "kind", job.Kind)
			processFunc(job)
		}
	}()
}

type PoolConfig struct {
	MaxWorkers int
	QueueSize  int
}

// Pool runs mail jobs on a fixed set of workers behind a bounded queue.
// Shutdown stops intake and lets queued jobs finish.
type Pool struct {
	logger  *slog.Logger
	process func(Job)

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

func NewPool(config PoolConfig, process func(Job), logger *slog.Logger) *Pool {
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}

	p := &Pool{
		logger:     logger,
		process:    process,
		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, queueSize),
		workerPool: make(chan chan Job, maxWorkers),
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(&p.wg, p.process)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("notification worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for job := range p.jobQueue {
		jobChannel := <-p.workerPool
		jobChannel <- job
	}

	// queue drained: each worker parks its channel once more, close them all
	for i := 0; i < p.maxWorkers; i++ {
		jobChannel := <-p.workerPool
		close(jobChannel)
	}
	p.logger.Info("notification dispatcher stopped")
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobQueue <- job:
		p.logger.Debug("notification job queued", "kind", job.Kind, "queue_length", len(p.jobQueue))
		return nil
	default:
		p.logger.Warn("notification queue full, dropping job",
			"kind", job.Kind,
			"queue_capacity", cap(p.jobQueue))
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	p.mu.Unlock()

	p.logger.Info("shutting down notification worker pool", "pending_jobs", len(p.jobQueue))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("notification worker pool shutdown complete")
		return nil
	case <-ctx.Done():
		p.logger.Warn("notification worker pool shutdown timed out", "pending_jobs", len(p.jobQueue))
		return ctx.Err()
	}
}

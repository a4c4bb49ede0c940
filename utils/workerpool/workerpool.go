package workerpool

import (
	"sync"

	"go.uber.org/zap"
)

// Pool is a fixed-size goroutine pool with a buffered job queue.
// Submit blocks when the queue is full, so bursts queue up instead of
// spawning unbounded goroutines.
type Pool struct {
	jobs    chan func()
	workers int
	logger  *zap.Logger

	wg   sync.WaitGroup
	quit chan struct{}
}

func New(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		jobs:    make(chan func(), queueSize),
		workers: workers,
		logger:  logger,
		quit:    make(chan struct{}),
	}
}

// Start launches the workers. A panicking job is recovered and logged so
// one bad job cannot take a worker down.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.jobs:
					p.run(workerID, job)
				case <-p.quit:
					return
				}
			}
		}(i)
	}
}

func (p *Pool) run(workerID int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker recovered from panic",
				zap.Int("worker_id", workerID),
				zap.Any("panic", r),
			)
		}
	}()
	job()
}

// Submit enqueues a job, blocking while the queue is full.
func (p *Pool) Submit(job func()) {
	p.jobs <- job
}

// Stop signals the workers and waits for them to exit. Jobs still queued
// are dropped.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

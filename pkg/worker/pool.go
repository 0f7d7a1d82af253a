// Package worker provides the bounded I/O worker pool and the access-log
// worker, decoupling disk and DNS latency from request handlers.
package worker

import (
	"sync"

	"github.com/marmos91/bytedrop/internal/logger"
)

// Pool runs blocking jobs (store loads and saves) on a fixed set of
// workers fed from a bounded queue. Request handlers submit jobs and never
// touch the disk inline. Sweep passes do not go through the pool; the
// sweeper runs them on its own goroutine.
type Pool struct {
	queue chan func()

	workers int
	wg      sync.WaitGroup

	// mu guards started/stopped and holds off Stop while a Submit is
	// sending, so the queue is never closed under a sender.
	mu      sync.RWMutex
	started bool
	stopped bool
}

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	// Workers is the number of concurrent I/O workers.
	// Default: 16
	Workers int

	// QueueSize is the maximum number of queued jobs.
	// Default: 1024
	QueueSize int
}

// NewPool creates a worker pool. Call Start to launch the workers.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	return &Pool{
		queue:   make(chan func(), cfg.QueueSize),
		workers: cfg.Workers,
	}
}

// Start launches the workers. It is a no-op if already started.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	logger.Debug("I/O worker pool started", "workers", p.workers)
}

// Submit enqueues a job. It blocks while the queue is full and reports
// false only after the pool has been stopped.
func (p *Pool) Submit(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}

	p.queue <- job
	return true
}

// Stop drains the queue and waits for in-flight jobs to finish. A save
// scheduled before shutdown still reaches disk.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	logger.Debug("I/O worker pool stopped")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		job()
	}
}

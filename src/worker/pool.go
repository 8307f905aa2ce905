package worker

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Job is a unit of work. It runs on a worker goroutine.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded input queue. Submit never
// blocks; a full queue drops the job.
type Pool struct {
	jobs chan queued
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type queued struct {
	ctx context.Context
	run Job
}

const DefaultQueueSize = 4

// New creates a worker pool. Size defaults to NumCPU when size<=0 and the
// queue to DefaultQueueSize when queueSize<0.
func New(size, queueSize int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queueSize < 0 {
		queueSize = DefaultQueueSize
	}
	p := &Pool{jobs: make(chan queued, queueSize)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for j := range p.jobs {
				p.run(id, j)
			}
		}(i)
	}
}

func (p *Pool) run(id int, j queued) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorf("worker %d: job panicked: %v", id, r)
		}
	}()
	if err := j.ctx.Err(); err != nil {
		zap.S().Debugf("worker %d: skipping job, context done: %v", id, err)
		return
	}
	j.run(j.ctx)
}

// Submit enqueues a job if the queue has room. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, job Job) bool {
	if job == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- queued{ctx: ctx, run: job}:
		return true
	default:
		return false
	}
}

// Close stops accepting work and waits for queued and running jobs.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

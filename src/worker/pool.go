package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"
)

// Task is one unit of blocking work (a backend call, a page render). It runs
// on a worker goroutine and must post its result back into the event loop
// itself.
type Task func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded input queue. Submit never
// blocks the caller.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	fn   Task
}

// New creates a worker pool. Size defaults to NumCPU when size<=0 and the
// queue holds at least one job.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queue < 1 {
		queue = 1
	}
	p := &Pool{jobs: make(chan job, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				if err := j.ctx.Err(); err != nil {
					log.Printf("Worker: skipping %s: %v", j.name, err)
					continue
				}
				start := time.Now()
				log.Printf("Worker: starting %s", j.name)
				j.fn(j.ctx)
				log.Printf("Worker: %s finished in %v", j.name, time.Since(start))
			}
		}()
	}
}

// Submit enqueues a task if the queue has room. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, fn Task) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, fn: fn}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining queued work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

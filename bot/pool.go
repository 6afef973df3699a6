package bot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolStopped is returned when an interaction arrives after shutdown began
var ErrPoolStopped = errors.New("handler pool is stopped")

// handlerPool runs interaction handlers on a fixed set of workers so slow
// upstream calls never block the gateway event loop.
type handlerPool struct {
	tasks    chan func()
	stopOnce sync.Once
	stopped  atomic.Bool
	wg       sync.WaitGroup
}

func newHandlerPool(workers int) *handlerPool {
	if workers <= 0 {
		workers = 1
	}

	pool := &handlerPool{
		tasks: make(chan func(), workers*2),
	}

	for i := 0; i < workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (p *handlerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		if task != nil {
			task()
		}
	}
}

// Submit queues a handler for execution, blocking when all workers are busy
// and the backlog is full
func (p *handlerPool) Submit(task func()) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	p.tasks <- task
	return nil
}

// Stop drains the pool, waiting for in-flight handlers until ctx expires
func (p *handlerPool) Stop(ctx context.Context) error {
	var err error

	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.tasks)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})

	return err
}

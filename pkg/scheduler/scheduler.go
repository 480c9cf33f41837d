// Package scheduler is a small bounded worker pool. Report artifact writers
// and serve-mode collections run through it so a slow writer never blocks
// the caller.
package scheduler

import (
	"context"
	"fmt"
	"sync"
)

type Scheduler struct {
	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewScheduler(nbWorkers int) *Scheduler {
	if nbWorkers < 1 {
		nbWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sem:    make(chan struct{}, nbWorkers),
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddWork dispatches one unit and returns its future. Work queued after
// Close delivers context.Canceled.
func (s *Scheduler) AddWork(w Work[any]) *Future[any] {
	c := make(chan Result[any], 1)
	ctx, cancel := context.WithCancel(s.ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c <- Result[any]{Err: fmt.Errorf("worker panicked: %v", rec)}
			}
		}()

		select {
		case <-ctx.Done():
			c <- Result[any]{Err: ctx.Err()}
			return
		case s.sem <- struct{}{}:
		}
		defer func() { <-s.sem }()

		v, err := w(ctx)
		c <- Result[any]{Data: v, Err: err}
	}()

	return &Future[any]{c: c, cancel: cancel}
}

// Close cancels outstanding work and waits for every worker to finish.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

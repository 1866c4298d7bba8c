package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a collection of goroutines sharing one cancellable context.
type StoppableWorkers struct {
	mu                      sync.Mutex
	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewStoppableWorkers runs the functions in separate goroutines. They can be stopped later.
func NewStoppableWorkers(funcs ...func(context.Context)) *StoppableWorkers {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	sw := &StoppableWorkers{cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	sw.Add(funcs...)
	return sw
}

// Add starts one goroutine per function. Calling Add after Stop is a no-op.
func (sw *StoppableWorkers) Add(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.cancelCtx.Err() != nil {
		return
	}

	sw.activeBackgroundWorkers.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.activeBackgroundWorkers.Done()
			f(sw.cancelCtx)
		})
	}
}

// Stop cancels the shared context and waits for every worker to return.
func (sw *StoppableWorkers) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancelFunc()
	sw.activeBackgroundWorkers.Wait()
}

// Context returns the context the workers observe.
func (sw *StoppableWorkers) Context() context.Context {
	return sw.cancelCtx
}

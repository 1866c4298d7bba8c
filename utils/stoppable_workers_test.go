package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var stopped atomic.Int32
	started := make(chan struct{}, 2)
	worker := func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		stopped.Inc()
	}
	sw := NewStoppableWorkers(worker, worker)
	<-started
	<-started
	test.That(t, sw.Context().Err(), test.ShouldBeNil)

	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(2))
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// no new workers once stopped
	sw.Add(worker)
	sw.Stop()
	test.That(t, stopped.Load(), test.ShouldEqual, int32(2))
}

package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type testResult struct {
	value int
	err   error
}

func (r *testResult) GetError() error { return r.err }

type testJob struct {
	value   int
	counter *int64
}

func (j *testJob) Execute(ctx context.Context) Result {
	atomic.AddInt64(j.counter, 1)
	return &testResult{value: j.value}
}

func TestPool_AllJobsComplete(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	pool.Start()

	var counter int64
	const jobs = 20
	for i := 0; i < jobs; i++ {
		pool.Submit(&testJob{value: i, counter: &counter})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Errorf("expected %d results, got %d", jobs, len(results))
	}
	if atomic.LoadInt64(&counter) != jobs {
		t.Errorf("expected %d executions, got %d", jobs, counter)
	}
}

func TestPool_ResultsCarryValues(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	var counter int64
	seen := make(map[int]bool)
	for i := 0; i < 5; i++ {
		pool.Submit(&testJob{value: i, counter: &counter})
	}

	for _, r := range pool.Wait() {
		seen[r.(*testResult).value] = true
	}
	for i := 0; i < 5; i++ {
		if !seen[i] {
			t.Errorf("missing result for job %d", i)
		}
	}
}

type slowJob struct{}

func (j *slowJob) Execute(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return &testResult{err: ctx.Err()}
	case <-time.After(5 * time.Second):
		return &testResult{}
	}
}

func TestPool_ShutdownCancelsWork(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	for i := 0; i < 4; i++ {
		pool.Submit(&slowJob{})
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return promptly")
	}
}

func TestPool_ParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()

	cancel()

	// Submissions after cancellation are dropped; Wait must still
	// return without hanging.
	var counter int64
	pool.Submit(&testJob{value: 1, counter: &counter})

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after parent cancellation")
	}
}

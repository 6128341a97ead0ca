package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	p := New("test", 2, 16)
	p.Start()
	defer p.Shutdown(context.Background())

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		ok := p.Submit(func() {
			count.Add(1)
			wg.Done()
		})
		if !ok {
			t.Fatalf("expected task %d to be accepted", i)
		}
	}

	waitOrTimeout(t, &wg, time.Second)

	if got := count.Load(); got != 10 {
		t.Errorf("count = %d, want 10", got)
	}
}

func TestPoolSubmitFailsWhenNotRunning(t *testing.T) {
	p := New("idle", 1, 4)
	if p.Submit(func() {}) {
		t.Error("expected Submit on unstarted pool to fail")
	}
}

func TestPoolSubmitFailsWhenQueueFull(t *testing.T) {
	p := New("full", 1, 1)
	p.Start()
	defer p.Shutdown(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	if !p.Submit(func() { close(started); <-block }) {
		t.Fatal("expected first submit to succeed")
	}
	<-started
	if !p.Submit(func() {}) {
		t.Fatal("expected second submit to fill the one-slot queue")
	}

	ok := p.Submit(func() {})
	close(block)
	if ok {
		t.Error("expected third submit to be rejected while queue is full")
	}
}

func TestPoolShutdownDrainsInFlightTask(t *testing.T) {
	p := New("drain", 1, 4)
	p.Start()

	started := make(chan struct{})
	finished := make(chan struct{})
	p.Submit(func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		close(finished)
	})

	<-started
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case <-finished:
	default:
		t.Error("expected in-flight task to have completed before Shutdown returned")
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for tasks")
	}
}

// Package executor provides a generic FIFO worker pool used by both the
// broker's handler executor and its publish executor.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aace/lssbroker/internal/common/metrics"
)

// Task is a unit of work submitted to a Pool.
type Task func()

// Pool is a FIFO task queue drained by a fixed number of worker goroutines.
// With concurrency 1 it behaves as a single-threaded sequential executor,
// matching the broker's default; widening concurrency is safe because a
// single shared channel preserves fair FIFO delivery to workers regardless
// of how many are pulling from it, so retries resubmitted onto the pool
// are never starved by newer work.
type Pool struct {
	name          string
	queueCapacity int
	concurrency   int32

	queue   chan Task
	queued  atomic.Int32
	running atomic.Bool

	// submitMu guards the race between Submit sending on queue and
	// Shutdown closing it: Submit holds the read lock for the
	// check-then-send, Shutdown holds the write lock around close, so a
	// submit can never land on an already-closed channel.
	submitMu sync.RWMutex
	wg       sync.WaitGroup

	gaugeCtx    context.Context
	gaugeCancel context.CancelFunc
	gaugeWg     sync.WaitGroup

	active atomic.Int32
}

// New creates a Pool named name with the given worker concurrency and
// queue capacity. concurrency must be >= 1.
func New(name string, concurrency, queueCapacity int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	gaugeCtx, gaugeCancel := context.WithCancel(context.Background())

	return &Pool{
		name:          name,
		queueCapacity: queueCapacity,
		concurrency:   int32(concurrency),
		queue:         make(chan Task, queueCapacity),
		gaugeCtx:      gaugeCtx,
		gaugeCancel:   gaugeCancel,
	}
}

// Start launches the worker goroutines and the gauge updater.
func (p *Pool) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	for i := 0; i < int(p.concurrency); i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.gaugeWg.Add(1)
	go p.runGaugeUpdater()

	slog.Info("executor pool started", "pool", p.name, "concurrency", p.concurrency)
}

// Submit enqueues a task. It returns false if the pool is not running or
// the queue is at capacity; the caller decides how to react (the publish
// pipeline logs and drops, the dispatcher responds 500).
func (p *Pool) Submit(task Task) bool {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if !p.running.Load() {
		return false
	}

	select {
	case p.queue <- task:
		p.queued.Add(1)
		return true
	default:
		slog.Warn("executor pool at capacity, rejecting task", "pool", p.name, "capacity", p.queueCapacity)
		return false
	}
}

// worker ranges over queue until Shutdown closes and drains it, so every
// task already queued at shutdown time still runs before the worker
// exits.
func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.queued.Add(-1)
		p.active.Add(1)
		p.runTask(task)
		p.active.Add(-1)
	}
}

func (p *Pool) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in executor task", "pool", p.name, "panic", r)
		}
	}()
	task()
}

// QueueDepth returns the number of tasks currently queued.
func (p *Pool) QueueDepth() int {
	return int(p.queued.Load())
}

// ActiveWorkers returns the number of workers currently running a task.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// Shutdown stops accepting new tasks and waits for in-flight and already
// queued tasks to drain, up to the context deadline.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.submitMu.Lock()
	p.running.Store(false)
	close(p.queue)
	p.submitMu.Unlock()

	p.gaugeCancel()
	p.gaugeWg.Wait()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("executor pool shutdown complete", "pool", p.name)
		return nil
	case <-ctx.Done():
		slog.Warn("executor pool shutdown timed out", "pool", p.name)
		return ctx.Err()
	}
}

func (p *Pool) runGaugeUpdater() {
	defer p.gaugeWg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	p.updateGauges()
	for {
		select {
		case <-p.gaugeCtx.Done():
			return
		case <-ticker.C:
			p.updateGauges()
		}
	}
}

func (p *Pool) updateGauges() {
	metrics.ExecutorQueueDepth.WithLabelValues(p.name).Set(float64(p.QueueDepth()))
	metrics.ExecutorActiveWorkers.WithLabelValues(p.name).Set(float64(p.ActiveWorkers()))
}

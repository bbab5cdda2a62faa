package http

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sys/cpu"
)

// Task is one unit of work for the pool.
type Task interface {
	Run(ctx context.Context) error
}

// WorkerPool runs tasks on a fixed set of goroutines. Tasks wait in a bounded
// ring buffer; Execute blocks while it is full.
type WorkerPool struct {
	queue *RingBuffer[Task]

	// slots holds one token per occupied queue cell, pending one token per
	// published task that no worker has claimed yet.
	slots   chan struct{}
	pending chan struct{}

	quit    chan struct{} // closed when Close starts
	stopped chan struct{} // closed once no Execute can publish anymore

	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
	wg       sync.WaitGroup

	logger *slog.Logger
}

// NewWorkerPool starts workers goroutines. queueSize is rounded up to a power
// of two; values below one default to the worker count.
func NewWorkerPool(workers, queueSize int, logger *slog.Logger) (*WorkerPool, error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if queueSize < 1 {
		queueSize = workers
	}
	if logger == nil {
		logger = slog.Default()
	}

	queue := NewRingBuffer[Task](queueSize)
	wp := &WorkerPool{
		queue:   queue,
		slots:   make(chan struct{}, queue.Cap()),
		pending: make(chan struct{}, queue.Cap()),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logger,
	}

	wp.wg.Add(workers)
	for i := range workers {
		go wp.work(i)
	}

	return wp, nil
}

// Execute queues task for exactly one worker. It returns ErrPoolClosed once
// Close has been called, including for callers blocked on a full queue.
func (wp *WorkerPool) Execute(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	select {
	case wp.slots <- struct{}{}:
	case <-wp.quit:
		return ErrPoolClosed
	}

	// Holding a slot guarantees a free cell; a failed attempt only means a
	// dequeue of that cell is still finishing.
	for wp.queue.Enqueue(task) != nil {
		runtime.Gosched()
	}
	queueDepth.Add(context.Background(), 1)
	wp.pending <- struct{}{}

	return nil
}

// Close stops accepting tasks, lets the workers drain what is already queued
// and waits for them to exit. It is safe to call more than once.
func (wp *WorkerPool) Close() {
	wp.stopOnce.Do(func() {
		close(wp.quit)

		// Wait out every Execute that got past the closed check.
		wp.mu.Lock()
		wp.closed = true
		wp.mu.Unlock()

		close(wp.stopped)
	})

	wp.wg.Wait()
}

func (wp *WorkerPool) work(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.pending:
			if task, ok := wp.next(); ok {
				wp.run(id, task)
			}
		case <-wp.stopped:
			for {
				task, err := wp.queue.Dequeue()
				if err != nil {
					return
				}
				wp.release()
				wp.run(id, task)
			}
		}
	}
}

// next dequeues the task behind a claimed pending token. It only gives up
// when the pool stopped and another worker drained the task first.
func (wp *WorkerPool) next() (Task, bool) {
	for {
		task, err := wp.queue.Dequeue()
		if err == nil {
			wp.release()
			return task, true
		}

		select {
		case <-wp.stopped:
			return nil, false
		default:
			runtime.Gosched()
		}
	}
}

func (wp *WorkerPool) release() {
	<-wp.slots
	queueDepth.Add(context.Background(), -1)
}

func (wp *WorkerPool) run(id int, task Task) {
	ctx := context.Background()
	outcome := "ok"

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = "panic"
			wp.logger.Error("task panicked", "worker", id, "panic", recovered, "stack", string(debug.Stack()))
		}
		taskCount.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	if err := task.Run(ctx); err != nil {
		outcome = "error"
		wp.logger.Warn("task failed", "worker", id, "error", err)
	}
}

var (
	ErrFull  = errors.New("ring buffer is full")
	ErrEmpty = errors.New("ring buffer is empty")
)

// RingBuffer is a bounded lock-free multi-producer multi-consumer FIFO queue.
// The cursors sit on separate cache lines so producers and consumers do not
// contend on the same line.
type RingBuffer[T any] struct {
	buffer []slot[T]
	mask   uint64
	_      cpu.CacheLinePad
	enqPos uint64
	_      cpu.CacheLinePad
	deqPos uint64
	_      cpu.CacheLinePad
}

type slot[T any] struct {
	sequence uint64
	value    T
}

// NewRingBuffer creates a ring buffer holding at least size items. The
// capacity is rounded up to a power of two.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	capacity := 1
	for capacity < size {
		capacity <<= 1
	}

	buf := make([]slot[T], capacity)
	for i := range buf {
		buf[i].sequence = uint64(i)
	}
	return &RingBuffer[T]{
		buffer: buf,
		mask:   uint64(capacity - 1),
	}
}

func (q *RingBuffer[T]) Cap() int {
	return len(q.buffer)
}

// Enqueue adds an item to the ring buffer
func (q *RingBuffer[T]) Enqueue(val T) error {
	for {
		pos := atomic.LoadUint64(&q.enqPos)
		slot := &q.buffer[pos&q.mask]

		seq := atomic.LoadUint64(&slot.sequence)
		delta := int64(seq) - int64(pos)

		if delta == 0 {
			if atomic.CompareAndSwapUint64(&q.enqPos, pos, pos+1) {
				slot.value = val
				atomic.StoreUint64(&slot.sequence, pos+1)
				return nil
			}
		} else if delta < 0 {
			return ErrFull
		} else {
			runtime.Gosched()
		}
	}
}

// Dequeue removes and returns the oldest item
func (q *RingBuffer[T]) Dequeue() (T, error) {
	var zero T
	for {
		pos := atomic.LoadUint64(&q.deqPos)
		slot := &q.buffer[pos&q.mask]

		seq := atomic.LoadUint64(&slot.sequence)
		delta := int64(seq) - int64(pos+1)

		if delta == 0 {
			if atomic.CompareAndSwapUint64(&q.deqPos, pos, pos+1) {
				val := slot.value
				slot.value = zero
				atomic.StoreUint64(&slot.sequence, pos+q.mask+1)
				return val, nil
			}
		} else if delta < 0 {
			return zero, ErrEmpty
		} else {
			runtime.Gosched()
		}
	}
}

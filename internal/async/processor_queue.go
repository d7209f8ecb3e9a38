package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/common"
	"github.com/ateeqhurrehman/OCR-EXTRACTOR/internal/entity"
)

type ProcessorQueue struct {
	proc       Processor
	logger     *slog.Logger
	workers    int
	timeout    time.Duration
	onComplete func(Job, entity.DocumentResult)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnComplete registers a callback run by the worker after each document.
func WithOnComplete(fn func(Job, entity.DocumentResult)) Option {
	return func(q *ProcessorQueue) { q.onComplete = fn }
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 2,
		timeout: 30 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.process(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	start := time.Now()
	ctx := context.Background()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	ctx, cancel := common.WithTimeout(ctx, q.timeout)
	res := q.proc.Run(ctx, job.DocumentID, job.Path)
	cancel()

	if !res.Success {
		q.logger.Error("processing failed",
			"worker_id", workerID,
			"document_id", job.DocumentID,
			"error", res.Error,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	} else {
		q.logger.Info("processed document successfully",
			"worker_id", workerID,
			"document_id", job.DocumentID,
			"pages", res.PagesProcessed,
			"wait_ms", start.Sub(job.SubmittedAt).Milliseconds(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	if q.onComplete != nil {
		q.onComplete(job, res)
	}
}

// Enqueue hands a job to the workers. When the buffer is full it blocks until a slot frees
// up or ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "document_id", job.DocumentID)
		return common.ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "document_id", job.DocumentID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "document_id", job.DocumentID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for ctx.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

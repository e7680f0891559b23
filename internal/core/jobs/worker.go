package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoJobsAvailable is returned when the queue had nothing due
var ErrNoJobsAvailable = errors.New("no jobs available")

// Worker polls one queue with a fixed number of goroutines
type Worker struct {
	store    Store
	config   WorkerConfig
	mu       sync.RWMutex
	handlers map[string]JobHandler
	started  bool
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorker creates a new job worker
func NewWorker(store Store, config WorkerConfig) *Worker {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	return &Worker{
		store:    store,
		config:   config,
		handlers: make(map[string]JobHandler),
		stop:     make(chan struct{}),
	}
}

// RegisterHandler routes jobs of handler.GetType() to handler
func (w *Worker) RegisterHandler(handler JobHandler) {
	w.mu.Lock()
	w.handlers[handler.GetType()] = handler
	w.mu.Unlock()
	log.Info().Str("type", handler.GetType()).Str("queue", w.config.Queue).Msg("✅ Registered job handler")
}

// Start launches the polling goroutines. A worker starts once.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stop:
		return fmt.Errorf("worker is stopped, cannot restart")
	default:
	}
	if w.started {
		return fmt.Errorf("worker already started")
	}
	w.started = true

	log.Info().Str("queue", w.config.Queue).Int("concurrency", w.config.Concurrency).Msg("🚀 Starting job worker")
	for i := 1; i <= w.config.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
	return nil
}

// Stop signals the goroutines and waits for in-flight jobs
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	log.Info().Str("queue", w.config.Queue).Msg("🛑 Stopping job worker...")
	w.wg.Wait()
	log.Info().Str("queue", w.config.Queue).Msg("✅ Job worker stopped")
}

// loop drains the queue back to back and sleeps PollInterval once it is empty
func (w *Worker) loop(ctx context.Context, workerID int) {
	defer w.wg.Done()

	timer := time.NewTimer(w.config.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-timer.C:
		}

		wait := w.config.PollInterval
		err := w.processNextJob(ctx, workerID)
		switch {
		case err == nil:
			wait = 0
		case !errors.Is(err, ErrNoJobsAvailable):
			log.Warn().Err(err).Int("worker", workerID).Msg("⚠️ Worker error")
		}
		timer.Reset(wait)
	}
}

func (w *Worker) processNextJob(ctx context.Context, workerID int) error {
	job, err := w.store.Dequeue(ctx, w.config.Queue)
	if err != nil {
		return fmt.Errorf("failed to dequeue job: %w", err)
	}
	if job == nil {
		return ErrNoJobsAvailable
	}

	logger := log.With().Int("worker", workerID).Str("job", job.ID.String()).Str("reference", job.Reference).Logger()
	logger.Info().Str("type", job.Type).Int("attempt", job.Attempts).Msg("🔨 Processing job")

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("no handler registered for job type: %s", job.Type)
	} else {
		jobCtx, cancel := ctx, context.CancelFunc(func() {})
		if w.config.Timeout > 0 {
			jobCtx, cancel = context.WithTimeout(ctx, w.config.Timeout)
		}
		start := time.Now()
		err = runHandler(jobCtx, handler, job)
		cancel()
		logger = logger.With().Dur("duration", time.Since(start)).Logger()
	}

	// results are recorded even when the worker context is gone
	bookCtx := context.WithoutCancel(ctx)
	if err != nil {
		logger.Error().Err(err).Bool("final", job.Final()).Msg("❌ Job failed")
		if markErr := w.store.MarkFailed(bookCtx, job.ID, err); markErr != nil {
			logger.Warn().Err(markErr).Msg("⚠️ Failed to mark job as failed")
		}
		return nil
	}

	logger.Info().Msg("✅ Job completed")
	if err := w.store.MarkCompleted(bookCtx, job.ID, nil); err != nil {
		logger.Warn().Err(err).Msg("⚠️ Failed to mark job as completed")
	}
	return nil
}

// runHandler converts a handler panic into a job failure
func runHandler(ctx context.Context, handler JobHandler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return handler.Handle(ctx, job)
}

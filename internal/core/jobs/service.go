package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service owns the queue and the workers draining it
type Service struct {
	queue   *Queue
	mu      sync.Mutex
	workers []*Worker
}

// NewService creates a new job service
func NewService(db *gorm.DB) *Service {
	return &Service{queue: NewQueue(db)}
}

// EnqueueGeneration queues a deck generation. Generation jobs run once.
func (s *Service) EnqueueGeneration(ctx context.Context, generationID string, payload any) (*Job, error) {
	return s.queue.Enqueue(ctx, generationID, TypeGenerateDeck, payload, EnqueueOptions{
		Queue:      QueueGenerations,
		MaxRetries: 1,
		Metadata:   map[string]any{"generation_id": generationID},
	})
}

// RegisterWorker creates a worker for config.Queue with the given handlers
func (s *Service) RegisterWorker(config WorkerConfig, handlers ...JobHandler) *Worker {
	worker := NewWorker(s.queue, config)
	for _, h := range handlers {
		worker.RegisterHandler(h)
	}
	s.mu.Lock()
	s.workers = append(s.workers, worker)
	s.mu.Unlock()
	return worker
}

// StartWorkers releases jobs orphaned by a previous process, then starts
// every registered worker
func (s *Service) StartWorkers(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.workers {
		if w.config.Timeout > 0 {
			cutoff := time.Now().Add(-2 * w.config.Timeout)
			n, err := s.queue.RecoverStale(ctx, w.config.Queue, cutoff)
			if err != nil {
				log.Warn().Err(err).Str("queue", w.config.Queue).Msg("⚠️ Failed to recover stale jobs")
			} else if n > 0 {
				log.Info().Int("jobs", n).Str("queue", w.config.Queue).Msg("♻️ Released interrupted jobs")
			}
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}
	}
	return nil
}

// StopWorkers stops all workers in parallel and waits for running jobs
func (s *Service) StopWorkers() {
	s.mu.Lock()
	workers := append([]*Worker(nil), s.workers...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Stop()
		}()
	}
	wg.Wait()
}

// Cleanup deletes finished jobs older than olderThan
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.queue.DeleteOldJobs(ctx, olderThan)
}

package maintenance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Task removes one kind of record older than cutoff and reports how many went
type Task struct {
	Name string
	Run  func(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs retention tasks on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	retention time.Duration
	tasks     []Task
	now       func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
}

// NewScheduler creates a new retention scheduler. retentionDays <= 0 keeps 30 days.
func NewScheduler(retentionDays int, tasks ...Task) *Scheduler {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		tasks:     tasks,
		now:       time.Now,
	}
}

// Schedule registers the cleanup under a six-field cron expression, replacing any previous one
func (s *Scheduler) Schedule(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		s.entryID = 0
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	log.Info().Str("schedule", spec).Int("tasks", len(s.tasks)).Msg("   ✅ Scheduled retention cleanup")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	log.Info().Msg("⏰ Starting maintenance scheduler...")
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running cleanup to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("⏰ Stopping maintenance scheduler...")
	<-s.cron.Stop().Done()
	log.Info().Msg("✅ Maintenance scheduler stopped")
}

// RunOnce runs every task with the current cutoff. A failing task does not
// stop the others; the returned map holds the deleted count per task name.
func (s *Scheduler) RunOnce(ctx context.Context) map[string]int64 {
	cutoff := s.now().Add(-s.retention)
	results := make(map[string]int64, len(s.tasks))

	for _, task := range s.tasks {
		n, err := task.Run(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Str("task", task.Name).Msg("❌ Retention cleanup failed")
			continue
		}
		results[task.Name] = n
		if n > 0 {
			log.Info().Str("task", task.Name).Int64("deleted", n).Time("cutoff", cutoff).Msg("🧹 Retention cleanup")
		}
	}
	return results
}

package maintenance

import (
	"context"
	"time"
)

// ProgressPruner deletes progress records older than a cutoff
type ProgressPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobCleaner deletes finished background jobs older than a duration
type JobCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CallPruner deletes generation-call audit rows older than a cutoff
type CallPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func ProgressTask(p ProgressPruner) Task {
	return Task{Name: "progress", Run: p.Prune}
}

func JobsTask(c JobCleaner) Task {
	return Task{Name: "jobs", Run: func(ctx context.Context, cutoff time.Time) (int64, error) {
		return c.Cleanup(ctx, time.Since(cutoff))
	}}
}

func AuditTask(c CallPruner) Task {
	return Task{Name: "generation_calls", Run: c.DeleteBefore}
}

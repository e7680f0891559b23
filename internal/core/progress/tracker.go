package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 16

// Tracker appends progress records and fans them out to live subscribers
type Tracker struct {
	store Store

	mu     sync.Mutex // guards subs, locks and nextID
	subs   map[string]map[int]chan Record
	locks  map[string]*jobLock
	nextID int
	now    func() time.Time
}

// jobLock serializes publishes for one job id
type jobLock struct {
	mu   sync.Mutex
	refs int
}

// NewTracker creates a new progress tracker
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		subs:  make(map[string]map[int]chan Record),
		locks: make(map[string]*jobLock),
		now:   time.Now,
	}
}

// Publish records a step for a job. Steps only move forward within a run;
// error is always accepted and analyzing starts a new run after a terminal
// step.
func (t *Tracker) Publish(ctx context.Context, jobID string, step Step, message string, metadata map[string]any) error {
	if !step.Valid() {
		return fmt.Errorf("unknown progress step %q", step)
	}

	unlock := t.lockJob(jobID)
	defer unlock()

	latest, err := t.store.Latest(ctx, jobID)
	if err != nil && !errors.Is(err, ErrNoProgress) {
		return err
	}
	if latest != nil && !allowed(latest.Step, step) {
		return fmt.Errorf("%w: %s after %s", ErrStepRegression, step, latest.Step)
	}

	rec := Record{
		JobID:     jobID,
		Step:      step,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: t.now().UTC(),
	}
	if err := t.store.Append(ctx, &rec); err != nil {
		return err
	}

	t.fanOut(rec)
	log.Debug().Str("job_id", jobID).Str("step", string(step)).Msg(message)
	return nil
}

// lockJob takes the publish lock of one job; other jobs are not blocked
func (t *Tracker) lockJob(jobID string) func() {
	t.mu.Lock()
	l := t.locks[jobID]
	if l == nil {
		l = &jobLock{}
		t.locks[jobID] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, jobID)
		}
		t.mu.Unlock()
	}
}

// fanOut delivers rec to every subscriber of its job. A full subscriber
// loses its oldest record instead, so the newest step, terminal ones
// included, always arrives. Callers hold the job lock, which makes this the
// only sender on these channels.
func (t *Tracker) fanOut(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, ch := range t.subs[rec.JobID] {
		select {
		case ch <- rec:
			continue
		default:
		}
		select {
		case <-ch:
			log.Warn().Str("job_id", rec.JobID).Str("step", string(rec.Step)).Msg("⚠️ Progress subscriber is full, dropped its oldest record")
		default:
		}
		select {
		case ch <- rec:
		default:
		}
	}
}

func allowed(prev, next Step) bool {
	switch {
	case next == StepError:
		return true
	case prev.Terminal():
		return next == StepAnalyzing
	default:
		return stepOrder[next] >= stepOrder[prev]
	}
}

// Latest returns the most recent record for a job
func (t *Tracker) Latest(ctx context.Context, jobID string) (*Record, error) {
	return t.store.Latest(ctx, jobID)
}

// History returns every record for a job in publish order
func (t *Tracker) History(ctx context.Context, jobID string) ([]Record, error) {
	return t.store.List(ctx, jobID)
}

// Subscribe returns a channel of records published after the call and a
// function that releases it.
func (t *Tracker) Subscribe(jobID string) (<-chan Record, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Record, subscriberBuffer)
	id := t.nextID
	t.nextID++
	if t.subs[jobID] == nil {
		t.subs[jobID] = make(map[int]chan Record)
	}
	t.subs[jobID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs[jobID], id)
			if len(t.subs[jobID]) == 0 {
				delete(t.subs, jobID)
			}
		})
	}
}

// Prune deletes records older than cutoff
func (t *Tracker) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return t.store.DeleteBefore(ctx, cutoff)
}

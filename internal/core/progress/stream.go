package progress

import (
	"context"
	"errors"
	"time"
)

const DefaultStreamTimeout = 5 * time.Minute

// Event types sent on a progress stream
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventTimeout   = "timeout"
)

// Event is one message on a progress stream
type Event struct {
	Type      string         `json:"type"`
	JobID     string         `json:"jobId"`
	Step      Step           `json:"step,omitempty"`
	Message   string         `json:"message,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func eventFrom(rec Record) Event {
	return Event{
		Type:      EventProgress,
		JobID:     rec.JobID,
		Step:      rec.Step,
		Message:   rec.Message,
		Metadata:  rec.Metadata,
		Timestamp: rec.CreatedAt,
	}
}

// Stream emits a connected event, the latest record and then live records
// until the job reaches done or error, the timeout elapses, ctx is
// cancelled or emit fails.
func Stream(ctx context.Context, t *Tracker, jobID string, timeout time.Duration, emit func(Event) error) error {
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}

	// subscribe before reading latest so nothing published in between is lost
	live, cancel := t.Subscribe(jobID)
	defer cancel()

	if err := emit(Event{Type: EventConnected, JobID: jobID, Timestamp: t.now().UTC()}); err != nil {
		return err
	}

	var lastID int64
	latest, err := t.Latest(ctx, jobID)
	switch {
	case err == nil:
		if err := emit(eventFrom(*latest)); err != nil {
			return err
		}
		if latest.Step.Terminal() {
			return nil
		}
		lastID = latest.ID
	case !errors.Is(err, ErrNoProgress):
		return err
	}

	watchdog := time.NewTimer(timeout)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-watchdog.C:
			return emit(Event{
				Type:      EventTimeout,
				JobID:     jobID,
				Message:   "progress stream timed out",
				Timestamp: t.now().UTC(),
			})
		case rec := <-live:
			if rec.ID <= lastID {
				continue
			}
			lastID = rec.ID
			if err := emit(eventFrom(rec)); err != nil {
				return err
			}
			if rec.Step.Terminal() {
				return nil
			}
		}
	}
}

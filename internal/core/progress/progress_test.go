package progress

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func publishAll(t *testing.T, tr *Tracker, jobID string, steps ...Step) {
	t.Helper()
	for _, s := range steps {
		if err := tr.Publish(context.Background(), jobID, s, string(s), nil); err != nil {
			t.Fatalf("Publish(%s) returned error: %v", s, err)
		}
	}
}

func TestTrackerMonotonicSteps(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	ctx := context.Background()

	publishAll(t, tr, "job-1", StepAnalyzing, StepPlanning, StepPlanning, StepChartBuilding)

	if err := tr.Publish(ctx, "job-1", StepAnalyzing, "again", nil); !errors.Is(err, ErrStepRegression) {
		t.Fatalf("expected ErrStepRegression, got %v", err)
	}
	if err := tr.Publish(ctx, "job-1", StepError, "boom", map[string]any{"stage": "composing"}); err != nil {
		t.Fatalf("error must always be accepted: %v", err)
	}
	if err := tr.Publish(ctx, "job-1", StepComposing, "late", nil); !errors.Is(err, ErrStepRegression) {
		t.Fatalf("expected regression after terminal step, got %v", err)
	}

	// a terminal step may be followed by a fresh run
	publishAll(t, tr, "job-1", StepAnalyzing)

	latest, err := tr.Latest(ctx, "job-1")
	if err != nil || latest.Step != StepAnalyzing {
		t.Fatalf("unexpected latest %+v, %v", latest, err)
	}

	history, _ := tr.History(ctx, "job-1")
	if len(history) != 6 {
		t.Fatalf("expected 6 records, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if history[i].ID <= history[i-1].ID {
			t.Fatalf("history not ordered by id: %+v", history)
		}
	}
}

func TestTrackerLatestUnknownJob(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	if _, err := tr.Latest(context.Background(), "missing"); !errors.Is(err, ErrNoProgress) {
		t.Fatalf("expected ErrNoProgress, got %v", err)
	}
}

func TestTrackerSubscribe(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	ch, cancel := tr.Subscribe("job-1")

	publishAll(t, tr, "job-1", StepAnalyzing)
	publishAll(t, tr, "job-2", StepAnalyzing)

	select {
	case rec := <-ch:
		if rec.JobID != "job-1" || rec.Step != StepAnalyzing {
			t.Fatalf("unexpected record %+v", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("no record delivered")
	}

	cancel()
	cancel()
	publishAll(t, tr, "job-1", StepPlanning)
	select {
	case rec := <-ch:
		t.Fatalf("unexpected record after cancel: %+v", rec)
	default:
	}
}

func TestStreamSendsConnectedLatestAndLive(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	publishAll(t, tr, "job-1", StepAnalyzing)

	var (
		mu     sync.Mutex
		events []Event
	)
	connected := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- Stream(context.Background(), tr, "job-1", time.Minute, func(e Event) error {
			mu.Lock()
			events = append(events, e)
			n := len(events)
			mu.Unlock()
			if n == 2 {
				close(connected)
			}
			return nil
		})
	}()

	<-connected
	publishAll(t, tr, "job-1", StepPlanning, StepChartBuilding, StepComposing, StepDone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Stream returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close on done")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []Step{"", StepAnalyzing, StepPlanning, StepChartBuilding, StepComposing, StepDone}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	if events[0].Type != EventConnected {
		t.Fatalf("first event must be connected, got %s", events[0].Type)
	}
	for i, step := range want[1:] {
		if events[i+1].Step != step {
			t.Errorf("event %d: expected %s, got %s", i+1, step, events[i+1].Step)
		}
	}
}

func TestStreamClosesImmediatelyOnTerminalLatest(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	publishAll(t, tr, "job-1", StepAnalyzing, StepError)

	var events []Event
	err := Stream(context.Background(), tr, "job-1", time.Minute, func(e Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Step != StepError {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestStreamTimeout(t *testing.T) {
	tr := NewTracker(NewMemoryStore())

	var events []Event
	err := Stream(context.Background(), tr, "job-1", 50*time.Millisecond, func(e Event) error {
		events = append(events, e)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Type != EventTimeout {
		t.Fatalf("expected connected then timeout, got %+v", events)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer store.Close()

	tr := NewTracker(store)
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return old }
	publishAll(t, tr, "job-1", StepAnalyzing)

	tr.now = time.Now
	if err := tr.Publish(context.Background(), "job-1", StepPlanning, "planning", map[string]any{"slides": 5.0}); err != nil {
		t.Fatal(err)
	}

	latest, err := store.Latest(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.Step != StepPlanning || latest.Metadata["slides"] != 5.0 {
		t.Fatalf("unexpected latest %+v", latest)
	}

	deleted, err := tr.Prune(context.Background(), time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || deleted != 1 {
		t.Fatalf("expected 1 pruned record, got %d (%v)", deleted, err)
	}

	list, _ := store.List(context.Background(), "job-1")
	if len(list) != 1 || list[0].Step != StepPlanning {
		t.Fatalf("unexpected remaining records %+v", list)
	}

	if _, err := store.Latest(context.Background(), "missing"); !errors.Is(err, ErrNoProgress) {
		t.Fatalf("expected ErrNoProgress, got %v", err)
	}
}

// slowStore blocks Append for one job until released
type slowStore struct {
	*MemoryStore
	slowJob string
	entered chan struct{}
	release chan struct{}
}

func (s *slowStore) Append(ctx context.Context, rec *Record) error {
	if rec.JobID == s.slowJob {
		close(s.entered)
		<-s.release
	}
	return s.MemoryStore.Append(ctx, rec)
}

func TestTrackerPublishesJobsIndependently(t *testing.T) {
	store := &slowStore{
		MemoryStore: NewMemoryStore(),
		slowJob:     "slow",
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	tr := NewTracker(store)

	slowDone := make(chan error, 1)
	go func() {
		slowDone <- tr.Publish(context.Background(), "slow", StepAnalyzing, "analyzing", nil)
	}()
	<-store.entered

	fastDone := make(chan error, 1)
	go func() {
		fastDone <- tr.Publish(context.Background(), "fast", StepAnalyzing, "analyzing", nil)
	}()
	select {
	case err := <-fastDone:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("a slow store write for one job blocked another job")
	}

	close(store.release)
	if err := <-slowDone; err != nil {
		t.Fatal(err)
	}
	if len(tr.locks) != 0 {
		t.Fatalf("job locks leaked: %d", len(tr.locks))
	}
}

func TestTrackerFullSubscriberKeepsTerminalStep(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	ch, cancel := tr.Subscribe("job-1")
	defer cancel()

	publishAll(t, tr, "job-1", StepAnalyzing)
	for i := 0; i < subscriberBuffer+4; i++ {
		publishAll(t, tr, "job-1", StepPlanning)
	}
	publishAll(t, tr, "job-1", StepDone)

	var got []Record
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	if len(got) != subscriberBuffer {
		t.Fatalf("expected a full buffer of %d records, got %d", subscriberBuffer, len(got))
	}
	if last := got[len(got)-1]; last.Step != StepDone {
		t.Fatalf("terminal step was dropped, last record is %s", last.Step)
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatal("records delivered out of order")
		}
	}
}

func TestStreamEndsOnTerminalStepAfterOverflow(t *testing.T) {
	tr := NewTracker(NewMemoryStore())
	publishAll(t, tr, "job-1", StepAnalyzing)

	var mu sync.Mutex
	var events []Event
	started := make(chan struct{})
	finished := make(chan error, 1)
	go func() {
		first := true
		finished <- Stream(context.Background(), tr, "job-1", time.Minute, func(e Event) error {
			if first {
				first = false
				close(started)
			}
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		})
	}()
	<-started

	for i := 0; i < subscriberBuffer*2; i++ {
		publishAll(t, tr, "job-1", StepPlanning)
	}
	publishAll(t, tr, "job-1", StepDone)

	select {
	case err := <-finished:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not close after the done step")
	}

	mu.Lock()
	defer mu.Unlock()
	if last := events[len(events)-1]; last.Step != StepDone {
		t.Fatalf("expected done as the last event, got %+v", last)
	}
}

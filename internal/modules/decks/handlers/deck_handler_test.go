package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/composer"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/jobs"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/pipeline"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/progress"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/storage"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/models"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/repositories"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/modules/decks/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type memGenerations struct {
	mu    sync.Mutex
	rows  map[string]*models.Generation
	decks map[string]*deck.FinalDeck
}

func newMemGenerations() *memGenerations {
	return &memGenerations{rows: map[string]*models.Generation{}, decks: map[string]*deck.FinalDeck{}}
}

func (m *memGenerations) Create(ctx context.Context, g *models.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	m.rows[g.ID.String()] = g
	return nil
}

func (m *memGenerations) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repositories.ErrGenerationNotFound, id)
	}
	return g, nil
}

func (m *memGenerations) MarkRunning(ctx context.Context, id string) error { return nil }

func (m *memGenerations) MarkCompleted(ctx context.Context, id string, score int) error { return nil }

func (m *memGenerations) LoadDeck(ctx context.Context, jobID string) (*deck.FinalDeck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decks[jobID]
	if !ok {
		return nil, pipeline.ErrDeckNotFound
	}
	return d, nil
}

func (m *memGenerations) SaveDeck(ctx context.Context, jobID string, d *deck.FinalDeck, a *analysis.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decks[jobID] = d
	return nil
}

func (m *memGenerations) MarkFailed(ctx context.Context, jobID string, cause error) error { return nil }

type memDatasets struct {
	mu   sync.Mutex
	rows map[string]*models.Dataset
}

func (m *memDatasets) Create(ctx context.Context, d *models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.rows[d.ID.String()] = d
	return nil
}

func (m *memDatasets) GetByID(ctx context.Context, id string) (*models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", analysis.ErrDatasetNotFound, id)
	}
	return d, nil
}

func (m *memDatasets) LoadDataset(ctx context.Context, id string) (*analysis.Dataset, error) {
	d, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &analysis.Dataset{ID: id, Name: d.Name, Columns: d.Columns}, nil
}

type fakeQueue struct {
	payloads []any
}

func (q *fakeQueue) EnqueueGeneration(ctx context.Context, generationID string, payload any) (*jobs.Job, error) {
	q.payloads = append(q.payloads, payload)
	return &jobs.Job{ID: uuid.New(), Reference: generationID}, nil
}

type testEnv struct {
	app         *fiber.App
	generations *memGenerations
	datasets    *memDatasets
	queue       *fakeQueue
	cache       *composer.MemoryCache
	tracker     *progress.Tracker
	artifactDir string
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		generations: newMemGenerations(),
		datasets:    &memDatasets{rows: map[string]*models.Dataset{}},
		queue:       &fakeQueue{},
		cache:       composer.NewMemoryCache(time.Hour),
		tracker:     progress.NewTracker(progress.NewMemoryStore()),
		artifactDir: t.TempDir(),
	}
	local, err := storage.NewLocalProvider(env.artifactDir, "https://decks.example.com/artifacts")
	if err != nil {
		t.Fatal(err)
	}
	svc := services.NewDeckService(env.generations, env.datasets, env.queue, env.cache, env.tracker, nil, storage.NewService(local), "https://decks.example.com/")

	env.app = fiber.New()
	env.app.Get("/health", NewHealthHandler(nil, nil).GetHealth)
	NewDeckHandler(svc).Register(env.app)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := env.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func sampleDeck(id string) *deck.FinalDeck {
	return &deck.FinalDeck{
		ID:    id,
		Title: "Q4 Review",
		Slides: []deck.DeckSlide{{
			StyledSlide: deck.StyledSlide{ID: "s1", Title: "Revenue", Layout: deck.LayoutTitleBullets, KeyTakeaways: []string{"Up 15%"}},
			Number:      1,
			SlideNumber: 1,
		}},
	}
}

func TestCreateDatasetAndGeneration(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, "POST", "/datasets",
		strings.NewReader(`{"name":"sales","rows":[{"region":"North","revenue":100},{"region":"South","revenue":80}]}`),
		fiber.MIMEApplicationJSON)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var ds models.Dataset
	if err := json.Unmarshal(body, &ds); err != nil {
		t.Fatal(err)
	}
	if ds.RowCount != 2 || strings.Join(ds.Columns, ",") != "region,revenue" {
		t.Fatalf("unexpected dataset %+v", ds)
	}

	req := fmt.Sprintf(`{"dataset_id":%q,"business_context":{"targetAudience":"executives"},"options":{"maxSlides":6}}`, ds.ID)
	status, body = env.do(t, "POST", "/generations", strings.NewReader(req), fiber.MIMEApplicationJSON)
	if status != fiber.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", status, body)
	}
	var resp models.CreateGenerationResponse
	json.Unmarshal(body, &resp)
	if resp.JobID == "" || resp.Status != models.StatusPending {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(env.queue.payloads) != 1 {
		t.Fatalf("expected one queued job, got %d", len(env.queue.payloads))
	}
	payload := env.queue.payloads[0].(models.GenerationPayload)
	if payload.Options.MaxSlides != 6 || payload.BusinessContext.TargetAudience != "executives" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	status, _ = env.do(t, "GET", "/generations/"+resp.JobID, nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for generation status, got %d", status)
	}
}

func TestCreateDatasetFromCSV(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "sales.csv")
	fw.Write([]byte("month,revenue\nJan,100\nFeb,120\n"))
	mw.Close()

	status, body := env.do(t, "POST", "/datasets", &buf, mw.FormDataContentType())
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var ds models.Dataset
	json.Unmarshal(body, &ds)
	if ds.RowCount != 2 || ds.Name != "sales.csv" {
		t.Fatalf("unexpected dataset %+v", ds)
	}
	if ds.SourceKey != "datasets/"+ds.ID.String()+".csv" {
		t.Fatalf("upload was not archived: %q", ds.SourceKey)
	}
	raw, err := os.ReadFile(filepath.Join(env.artifactDir, filepath.FromSlash(ds.SourceKey)))
	if err != nil || !strings.HasPrefix(string(raw), "month,revenue") {
		t.Fatalf("archived file mismatch: %v %q", err, raw)
	}
}

func TestCreateGenerationValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]string{
		"missing dataset": `{"options":{}}`,
		"unknown dataset": fmt.Sprintf(`{"dataset_id":%q}`, uuid.New()),
		"bad threshold":   `{"dataset_id":"x","options":{"qualityThreshold":101}}`,
		"bad email":       `{"dataset_id":"x","notify_email":"not-an-address"}`,
		"malformed":       `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			status, resp := env.do(t, "POST", "/generations", strings.NewReader(body), fiber.MIMEApplicationJSON)
			if status != fiber.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", status, resp)
			}
		})
	}
	if len(env.queue.payloads) != 0 {
		t.Fatal("invalid requests must not be queued")
	}
}

func TestGetDeckFromStoreThenCache(t *testing.T) {
	env := newTestEnv(t)

	if status, _ := env.do(t, "GET", "/decks/missing", nil, ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}

	env.generations.decks["stored"] = sampleDeck("stored")
	env.cache.Put(context.Background(), "demo", sampleDeck("demo"))

	for _, id := range []string{"stored", "demo"} {
		status, body := env.do(t, "GET", "/decks/"+id, nil, "")
		if status != fiber.StatusOK {
			t.Fatalf("%s: expected 200, got %d", id, status)
		}
		var d deck.FinalDeck
		json.Unmarshal(body, &d)
		if d.ID != id {
			t.Fatalf("expected deck %s, got %s", id, d.ID)
		}
	}
}

func TestExportDeck(t *testing.T) {
	env := newTestEnv(t)
	env.generations.decks["job-1"] = sampleDeck("job-1")

	status, body := env.do(t, "GET", "/decks/job-1/export?format=xlsx", nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	f, err := excelize.OpenReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("export is not a workbook: %v", err)
	}
	f.Close()

	status, body = env.do(t, "GET", "/decks/job-1/export", nil, "")
	if status != fiber.StatusOK || !bytes.HasPrefix(body, []byte("%PDF")) {
		t.Fatalf("expected default pdf export, got %d", status)
	}

	if status, _ := env.do(t, "GET", "/decks/job-1/export?format=pptx", nil, ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", status)
	}
}

func TestPublishExport(t *testing.T) {
	env := newTestEnv(t)
	env.generations.decks["job-1"] = sampleDeck("job-1")

	status, body := env.do(t, "POST", "/decks/job-1/exports?format=xlsx", nil, "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var obj storage.Object
	if err := json.Unmarshal(body, &obj); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(obj.Key, "exports/job-1/") || !strings.HasSuffix(obj.Key, ".xlsx") || obj.Size == 0 {
		t.Fatalf("unexpected object %+v", obj)
	}
	if obj.URL != "https://decks.example.com/artifacts/"+obj.Key {
		t.Fatalf("unexpected url %s", obj.URL)
	}
	if _, err := os.Stat(filepath.Join(env.artifactDir, filepath.FromSlash(obj.Key))); err != nil {
		t.Fatalf("export not stored: %v", err)
	}

	if status, _ := env.do(t, "POST", "/decks/missing/exports", nil, ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown deck, got %d", status)
	}
}

func TestDeckQR(t *testing.T) {
	env := newTestEnv(t)
	env.generations.decks["job-1"] = sampleDeck("job-1")

	status, body := env.do(t, "GET", "/decks/job-1/qr", nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatal("expected PNG output")
	}

	if status, _ := env.do(t, "GET", "/decks/missing/qr", nil, ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestProgressEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if status, _ := env.do(t, "GET", "/generations/job-1/progress", nil, ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 before any progress, got %d", status)
	}

	env.tracker.Publish(ctx, "job-1", progress.StepAnalyzing, "Analyzing dataset", nil)
	env.tracker.Publish(ctx, "job-1", progress.StepDone, "Deck ready", nil)

	status, body := env.do(t, "GET", "/generations/job-1/progress", nil, "")
	if status != fiber.StatusOK || !strings.Contains(string(body), `"step":"done"`) {
		t.Fatalf("unexpected progress response %d: %s", status, body)
	}

	status, body = env.do(t, "GET", "/generations/job-1/stream", nil, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	events := strings.Split(strings.TrimSpace(string(body)), "\n\n")
	if len(events) != 2 {
		t.Fatalf("expected connected and done events, got %q", body)
	}
	if !strings.Contains(events[0], `"type":"connected"`) || !strings.Contains(events[1], `"step":"done"`) {
		t.Fatalf("unexpected stream %q", body)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.do(t, "GET", "/health", nil, "")
	if status != fiber.StatusOK || !strings.Contains(string(body), `"provider":"none"`) {
		t.Fatalf("unexpected health %d: %s", status, body)
	}
}

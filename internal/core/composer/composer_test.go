package composer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/layout"
)

func fixture() (*deck.PresentationStructure, []deck.StyledSlide) {
	structure := &deck.PresentationStructure{
		Title:             "Growth Review",
		KeyMessage:        "Revenue grew 15%",
		EstimatedDuration: 10,
		NarrativeArc:      deck.ArcGrowthStory,
	}
	layouts := []deck.Layout{deck.LayoutTitle, deck.LayoutChartFocus, deck.LayoutSplitChart, deck.LayoutTitleBullets, deck.LayoutConclusion}
	for i, l := range layouts {
		structure.Slides = append(structure.Slides, deck.SlideOutline{
			ID:           string(rune('a' + i)),
			SlideNumber:  i + 1,
			Title:        "Slide",
			Bullets:      []string{"first", "second"},
			ChartType:    deck.ChartBar,
			Layout:       l,
			Priority:     deck.PriorityHigh,
			SpeakerNotes: "notes",
		})
	}
	structure.TotalSlides = len(structure.Slides)

	charts := []deck.ChartConfig{
		{ID: "c1", SlideID: "b", Type: deck.ChartLine, Data: []map[string]any{{"m": "Jan", "v": 1.0}}, Metadata: deck.ChartMetadata{XKey: "m", YKey: "v", Insight: "Up"}},
		{ID: "c2", SlideID: "c", Type: deck.ChartBar, Data: []map[string]any{{"m": "Jan", "v": 1.0}}, Metadata: deck.ChartMetadata{XKey: "m", YKey: "v"}},
	}
	return structure, layout.Style(structure.Slides, charts)
}

func TestComposeAssemblesDeck(t *testing.T) {
	structure, slides := fixture()
	slides[0].ID = "renamed"

	cache := NewMemoryCache(time.Minute)
	c := NewComposer(cache)
	d, err := c.Compose(context.Background(), "job-1", structure, slides)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	if d.ID != "job-1" || d.Title != "Growth Review" || d.Description != "Revenue grew 15%" {
		t.Errorf("unexpected deck header %+v", d)
	}
	for i, s := range d.Slides {
		if s.Number != i+1 || s.SlideNumber != i+1 {
			t.Errorf("slide %d numbered %d/%d", i, s.Number, s.SlideNumber)
		}
		if len(s.Content) != len(s.Elements) {
			t.Errorf("slide %d content alias mismatch", i)
		}
	}
	if d.Metadata.TotalCharts != 2 {
		t.Errorf("expected 2 charts, got %d", d.Metadata.TotalCharts)
	}
	if d.Metadata.LayoutIssues != 0 {
		t.Errorf("expected no layout issues, got %d", d.Metadata.LayoutIssues)
	}
	if d.Metadata.QualityScore < 0 || d.Metadata.QualityScore > 100 {
		t.Errorf("score out of range: %d", d.Metadata.QualityScore)
	}
	if d.Settings.Width != deck.CanvasWidth || d.Theme.Name == "" {
		t.Errorf("expected fixed theme and settings")
	}

	if _, ok, _ := cache.Get(context.Background(), "job-1"); ok {
		t.Fatal("Compose must not cache; only demo decks are stashed")
	}
	c.Stash(context.Background(), "job-1", d)
	cached, ok, err := cache.Get(context.Background(), "job-1")
	if err != nil || !ok || cached != d {
		t.Fatalf("expected stashed deck in cache, got ok=%v err=%v", ok, err)
	}
	NewComposer(nil).Stash(context.Background(), "job-1", d)
}

func TestComposeToleratesLayoutIssues(t *testing.T) {
	structure, slides := fixture()
	clean, err := NewComposer(nil).Compose(context.Background(), "job-1", structure, slides)
	if err != nil {
		t.Fatal(err)
	}

	overlap := slides[3].Elements[0]
	overlap.ID = "synthetic"
	slides[3].Elements = append(slides[3].Elements, overlap)

	dirty, err := NewComposer(nil).Compose(context.Background(), "job-1", structure, slides)
	if err != nil {
		t.Fatalf("layout issues must not fail composition: %v", err)
	}
	if dirty.Metadata.LayoutIssues == 0 {
		t.Fatal("expected the synthetic overlap to be reported")
	}
	if dirty.Metadata.QualityScore > clean.Metadata.QualityScore {
		t.Fatalf("score increased with an extra issue: %d > %d", dirty.Metadata.QualityScore, clean.Metadata.QualityScore)
	}
}

func TestQualityScoreMonotonicInIssues(t *testing.T) {
	_, slides := fixture()
	prev := QualityScore(slides, 0)
	for issues := 1; issues <= 15; issues++ {
		score := QualityScore(slides, issues)
		if score > prev {
			t.Fatalf("score rose from %d to %d at %d issues", prev, score, issues)
		}
		if score < 0 || score > 100 {
			t.Fatalf("score %d out of range", score)
		}
		prev = score
	}
}

func TestQualityScoreComponents(t *testing.T) {
	text := deck.SlideElement{Type: deck.ElementText}
	chart := deck.SlideElement{Type: deck.ElementChart}

	// 3 slides (-15), no charts, avg 1 element, no notes or takeaways
	bare := []deck.StyledSlide{
		{Elements: []deck.SlideElement{text}},
		{Elements: []deck.SlideElement{text}},
		{Elements: []deck.SlideElement{text}},
	}
	if got := QualityScore(bare, 0); got != 85 {
		t.Errorf("expected 85, got %d", got)
	}

	// 4 slides, 2 chart slides (+10), avg 2 (+10), half notes (+5), all takeaways (+10)
	rich := make([]deck.StyledSlide, 4)
	for i := range rich {
		rich[i].Elements = []deck.SlideElement{text, text}
		rich[i].KeyTakeaways = []string{"x"}
	}
	rich[0].Elements[1] = chart
	rich[1].Elements = []deck.SlideElement{text, chart}
	rich[0].SpeakerNotes = "n"
	rich[1].SpeakerNotes = "n"
	if got := QualityScore(rich, 3); got != 100 {
		t.Errorf("expected clamp at 100 (135-30), got %d", got)
	}
	if got := QualityScore(rich, 5); got != 85 {
		t.Errorf("expected 85, got %d", got)
	}
}

func TestComposeFailures(t *testing.T) {
	_, slides := fixture()
	_, err := NewComposer(nil).Compose(context.Background(), "job-1", nil, slides)
	if !errors.Is(err, ErrComposition) {
		t.Fatalf("expected ErrComposition for missing structure, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	structure, _ := fixture()
	_, err = NewComposer(nil).Compose(ctx, "job-1", structure, slides)
	if !errors.Is(err, ErrComposition) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrComposition wrapping context.Canceled, got %v", err)
	}
}

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Minute)
	cache.now = func() time.Time { return now }

	_ = cache.Put(context.Background(), "job-1", &deck.FinalDeck{ID: "job-1"})
	if _, ok, _ := cache.Get(context.Background(), "job-1"); !ok {
		t.Fatal("expected fresh entry")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := cache.Get(context.Background(), "job-1"); ok {
		t.Fatal("expected entry to expire")
	}
}

package layout

import (
	"reflect"
	"strings"
	"testing"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

func slide(id string, layout deck.Layout, bullets ...string) deck.SlideOutline {
	return deck.SlideOutline{
		ID:        id,
		Title:     "Title " + id,
		Subtitle:  "Subtitle " + id,
		Bullets:   bullets,
		ChartType: deck.ChartBar,
		Layout:    layout,
		Priority:  deck.PriorityMedium,
	}
}

func chartFor(slideID string) deck.ChartConfig {
	return deck.ChartConfig{
		ID:      "chart-" + slideID,
		SlideID: slideID,
		Type:    deck.ChartBar,
		Title:   "Revenue by region",
		Data:    []map[string]any{{"region": "North", "revenue": 42.0}},
		Metadata: deck.ChartMetadata{
			XKey:    "region",
			YKey:    "revenue",
			Insight: "North leads with 42%",
		},
	}
}

func find(s deck.StyledSlide, suffix string) *deck.SlideElement {
	for i := range s.Elements {
		if strings.HasSuffix(s.Elements[i].ID, suffix) {
			return &s.Elements[i]
		}
	}
	return nil
}

func TestTemplatesCoverEveryLayout(t *testing.T) {
	for _, layout := range deck.Layouts {
		if _, ok := Templates().Templates[layout]; !ok {
			t.Errorf("missing template for %s", layout)
		}
	}
}

func TestStyleStaysOnCanvasWithoutIssues(t *testing.T) {
	outline := []deck.SlideOutline{
		slide("s1", deck.LayoutTitle, "Opening"),
		slide("s2", deck.LayoutTitleBullets, "a", "b", "c"),
		slide("s3", deck.LayoutChartFocus, "a"),
		slide("s4", deck.LayoutSplitChart, "a", "b"),
		slide("s5", deck.LayoutMetricsGrid, "a"),
		slide("s6", deck.LayoutSection, "a"),
		slide("s7", deck.LayoutConclusion, "a", "b", "c", "d"),
	}
	charts := []deck.ChartConfig{chartFor("s3"), chartFor("s4"), chartFor("s5")}

	for _, s := range Style(outline, charts) {
		for _, el := range s.Elements {
			if el.X < 0 || el.Y < 0 || el.X+el.Width > deck.CanvasWidth || el.Y+el.Height > deck.CanvasHeight {
				t.Errorf("%s element %s off canvas: %+v", s.ID, el.ID, el)
			}
		}
		if issues := ValidateSlideLayout(s); len(issues) != 0 {
			t.Errorf("%s (%s) has issues: %+v", s.ID, s.Layout, issues)
		}
	}
}

func TestStyleBulletsAndTakeaways(t *testing.T) {
	styled := Style([]deck.SlideOutline{slide("s1", deck.LayoutTitleBullets, "one", "two", "three", "four", "five", "six")}, nil)[0]

	bullets := find(styled, "-bullets")
	if bullets == nil {
		t.Fatal("expected bullets element")
	}
	lines := strings.Split(bullets.Text.Text, "\n")
	if len(lines) != MaxBullets {
		t.Fatalf("expected %d bullet lines, got %d", MaxBullets, len(lines))
	}
	if lines[0] != "• one" {
		t.Errorf("unexpected first bullet %q", lines[0])
	}
	if !reflect.DeepEqual(styled.KeyTakeaways, []string{"one", "two", "three"}) {
		t.Errorf("unexpected takeaways %v", styled.KeyTakeaways)
	}
}

func TestStyleChartFocusRendersInsight(t *testing.T) {
	styled := Style([]deck.SlideOutline{slide("s1", deck.LayoutChartFocus, "a")}, []deck.ChartConfig{chartFor("s1")})[0]

	sub := find(styled, "-subtitle")
	if sub == nil || sub.Text.Text != "North leads with 42%" || sub.Text.Role != "insight" {
		t.Fatalf("expected insight in subtitle region, got %+v", sub)
	}
	chart := find(styled, "-chart")
	if chart == nil || chart.Type != deck.ElementChart || chart.Width != 1160 || chart.Height != 500 {
		t.Fatalf("expected chart sized to chart-focus region, got %+v", chart)
	}
	if find(styled, "-bullets") != nil {
		t.Error("chart-focus has no bullets region")
	}
}

func TestStyleLayoutResolution(t *testing.T) {
	outline := []deck.SlideOutline{
		slide("s1", deck.LayoutTitleBullets, "a"),
		slide("s2", deck.LayoutTitle),
		slide("s3", deck.LayoutMetricsGrid, "a"),
		slide("s4", "hero", "a"),
	}
	charts := []deck.ChartConfig{chartFor("s1"), chartFor("s2")}

	got := Style(outline, charts)
	want := []deck.Layout{deck.LayoutSplitChart, deck.LayoutChartFocus, deck.LayoutTitleBullets, deck.LayoutTitleBullets}
	for i, s := range got {
		if s.Layout != want[i] {
			t.Errorf("slide %s: expected %s, got %s", s.ID, want[i], s.Layout)
		}
	}
	if find(got[0], "-chart") == nil || find(got[1], "-chart") == nil {
		t.Error("upgraded slides should carry their chart")
	}
}

func TestStyleFirstChartWinsAndIsDeterministic(t *testing.T) {
	second := chartFor("s1")
	second.ID = "other"
	outline := []deck.SlideOutline{slide("s1", deck.LayoutSplitChart, "a")}
	charts := []deck.ChartConfig{chartFor("s1"), second}

	a := Style(outline, charts)
	b := Style(outline, charts)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("Style is not deterministic")
	}
	if got := find(a[0], "-chart").Chart.ChartID; got != "chart-s1" {
		t.Errorf("expected first chart to win, got %s", got)
	}
}

func TestValidateSlideLayoutFindsProblems(t *testing.T) {
	s := deck.StyledSlide{
		ID: "s1",
		Elements: []deck.SlideElement{
			{ID: "a", X: 0, Y: 0, Width: 200, Height: 100},
			{ID: "b", X: 100, Y: 50, Width: 200, Height: 100},
			{ID: "c", X: 1200, Y: 600, Width: 200, Height: 200},
			{ID: "d", X: 500, Y: 300, Width: 20, Height: 10},
		},
	}
	before := append([]deck.SlideElement(nil), s.Elements...)

	counts := map[string]int{}
	for _, issue := range ValidateSlideLayout(s) {
		counts[issue.Type]++
	}
	if counts[IssueOverlap] != 1 || counts[IssueOutOfBounds] != 1 || counts[IssueTooSmall] != 1 {
		t.Fatalf("unexpected issue counts %v", counts)
	}
	if !reflect.DeepEqual(before, s.Elements) {
		t.Error("ValidateSlideLayout modified the slide")
	}
}

func TestEnforceMinimumSpacing(t *testing.T) {
	in := []deck.SlideElement{
		{ID: "low", X: 0, Y: 650, Width: 100, Height: 80},
		{ID: "top", X: 0, Y: 0, Width: 100, Height: 640},
	}
	out := EnforceMinimumSpacing(in)

	if out[0].ID != "top" || out[1].ID != "low" {
		t.Fatalf("expected elements ordered by y, got %s,%s", out[0].ID, out[1].ID)
	}
	if out[1].Y != 656 {
		t.Errorf("expected low pushed to 656, got %v", out[1].Y)
	}
	if out[1].Y+out[1].Height != deck.CanvasHeight {
		t.Errorf("expected low shrunk to canvas edge, got height %v", out[1].Height)
	}
	if in[0].Y != 650 {
		t.Error("input was modified")
	}
}

func TestAdjustForAspectRatio(t *testing.T) {
	in := []deck.SlideElement{{ID: "a", X: 640, Y: 360, Width: 128, Height: 72}}
	out := AdjustForAspectRatio(in, 1920, 1080)

	if out[0].X != 960 || out[0].Y != 540 || out[0].Width != 192 || out[0].Height != 108 {
		t.Fatalf("unexpected scaling %+v", out[0])
	}
	if in[0].X != 640 {
		t.Error("input was modified")
	}
}

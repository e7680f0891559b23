package composer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/charts"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/layout"
	"github.com/rs/zerolog/log"
)

// ErrComposition wraps unexpected failures while assembling a deck
var ErrComposition = errors.New("deck composition failed")

const DeckVersion = "1.0"

// DefaultTheme is applied to every composed deck
func DefaultTheme() deck.Theme {
	return deck.Theme{
		Name:            "corporate-blue",
		PrimaryColor:    "#2563EB",
		SecondaryColor:  "#10B981",
		BackgroundColor: "#FFFFFF",
		TextColor:       "#0F172A",
		FontFamily:      "Inter, sans-serif",
		ChartPalette:    append([]string(nil), charts.Palette...),
	}
}

// DefaultSettings is applied to every composed deck
func DefaultSettings() deck.Settings {
	return deck.Settings{
		AspectRatio:      "16:9",
		Width:            deck.CanvasWidth,
		Height:           deck.CanvasHeight,
		Transition:       "fade",
		ShowSlideNumbers: true,
	}
}

// Composer validates styled slides, scores them and assembles the final deck
type Composer struct {
	cache DeckCache
	now   func() time.Time
}

// NewComposer creates a new composer. cache holds demo decks and may be nil.
func NewComposer(cache DeckCache) *Composer {
	return &Composer{cache: cache, now: time.Now}
}

// Compose assembles the final deck. Layout issues only lower the score.
func (c *Composer) Compose(ctx context.Context, jobID string, structure *deck.PresentationStructure, slides []deck.StyledSlide) (result *deck.FinalDeck, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrComposition, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComposition, err)
	}
	if structure == nil {
		return nil, fmt.Errorf("%w: missing presentation structure", ErrComposition)
	}

	issues := 0
	for _, s := range slides {
		found := layout.ValidateSlideLayout(s)
		for _, issue := range found {
			log.Warn().Str("job_id", jobID).Str("slide_id", s.ID).Str("issue", issue.Type).Msg("⚠️ " + issue.Message)
		}
		issues += len(found)
	}

	totalElements, totalCharts := countElements(slides)

	out := &deck.FinalDeck{
		ID:          jobID,
		Title:       structure.Title,
		Description: description(structure),
		Slides:      make([]deck.DeckSlide, len(slides)),
		Theme:       DefaultTheme(),
		Settings:    DefaultSettings(),
		Metadata: deck.DeckMetadata{
			AIGenerated:       true,
			GeneratedAt:       c.now().UTC(),
			QualityScore:      QualityScore(slides, issues),
			TotalElements:     totalElements,
			TotalCharts:       totalCharts,
			EstimatedDuration: structure.EstimatedDuration,
			NarrativeArc:      structure.NarrativeArc,
			LayoutIssues:      issues,
			Version:           DeckVersion,
		},
	}

	for i, s := range slides {
		out.Slides[i] = deck.DeckSlide{
			StyledSlide: s,
			Number:      i + 1,
			SlideNumber: i + 1,
			Content:     s.Elements,
		}
	}

	log.Info().
		Str("job_id", jobID).
		Int("slides", len(out.Slides)).
		Int("quality_score", out.Metadata.QualityScore).
		Int("layout_issues", issues).
		Msg("🧩 Deck composed")

	return out, nil
}

// Stash keeps a deck that is not persisted (demo runs) readable for the
// cache lifetime. Persisted decks are never stashed.
func (c *Composer) Stash(ctx context.Context, jobID string, d *deck.FinalDeck) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Put(ctx, jobID, d); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("⚠️ Failed to cache demo deck")
	}
}

// QualityScore rates a slide set from 0 to 100. It never increases when
// issues grows.
func QualityScore(slides []deck.StyledSlide, issues int) int {
	score := 100.0 - 10*float64(issues)

	n := len(slides)
	chartSlides, withNotes, withTakeaways := 0, 0, 0
	for _, s := range slides {
		if hasChart(s) {
			chartSlides++
		}
		if s.SpeakerNotes != "" {
			withNotes++
		}
		if len(s.KeyTakeaways) > 0 {
			withTakeaways++
		}
	}

	score += math.Min(float64(5*chartSlides), 20)

	switch {
	case n < 4:
		score -= 15
	case n > 8:
		score -= 10
	}

	if n > 0 {
		total, _ := countElements(slides)
		avg := float64(total) / float64(n)
		if avg >= 2 && avg <= 4 {
			score += 10
		}
		score += 10 * float64(withNotes) / float64(n)
		score += 10 * float64(withTakeaways) / float64(n)
	}

	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func countElements(slides []deck.StyledSlide) (elements, chartCount int) {
	for _, s := range slides {
		elements += len(s.Elements)
		for _, el := range s.Elements {
			if el.Type == deck.ElementChart {
				chartCount++
			}
		}
	}
	return elements, chartCount
}

func hasChart(s deck.StyledSlide) bool {
	for _, el := range s.Elements {
		if el.Type == deck.ElementChart {
			return true
		}
	}
	return false
}

func description(s *deck.PresentationStructure) string {
	if s.Subtitle != "" {
		return s.Subtitle
	}
	return s.KeyMessage
}

package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/llm"
	"github.com/rs/zerolog/log"
)

// Outline limits
const (
	MinSlides         = 3
	MaxSlides         = 8
	MaxBullets        = 5
	MaxTitleLength    = 60
	MaxSubtitleLength = 100
	MaxBulletLength   = 120
)

const StageName = "planning"

// Generator performs one schema-constrained generation call
type Generator interface {
	Generate(ctx context.Context, req *llm.StructuredRequest) (json.RawMessage, error)
}

// Planner turns an analysis into a presentation outline
type Planner struct {
	gen Generator
}

// NewPlanner creates a new presentation planner
func NewPlanner(gen Generator) *Planner {
	return &Planner{gen: gen}
}

// Plan requests an outline and validates it. There is no retry: generation
// failures wrap llm.ErrGenerationService and contract violations wrap
// deck.ErrStructureValidation.
func (p *Planner) Plan(ctx context.Context, jobID string, a *analysis.Result, bc deck.BusinessContext) (*deck.PresentationStructure, error) {
	raw, err := p.gen.Generate(ctx, &llm.StructuredRequest{
		JobID:        jobID,
		Stage:        StageName,
		SystemPrompt: BuildSystemPrompt(),
		UserPrompt:   BuildBrief(a, bc),
		SchemaName:   "slide_structure",
		Schema:       SlideStructureSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("outline generation failed: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}")) {
		return nil, fmt.Errorf("%w: empty outline payload", llm.ErrGenerationService)
	}

	var structure deck.PresentationStructure
	if err := json.Unmarshal(trimmed, &structure); err != nil {
		return nil, fmt.Errorf("%w: outline does not match schema: %v", deck.ErrStructureValidation, err)
	}

	if err := Validate(&structure); err != nil {
		return nil, err
	}
	for _, w := range Warnings(&structure) {
		log.Warn().Str("job_id", jobID).Msg("⚠️ Outline " + w)
	}
	if structure.TargetAudience == "" {
		structure.TargetAudience = bc.TargetAudience
	}

	log.Info().
		Str("job_id", jobID).
		Int("slides", structure.TotalSlides).
		Str("narrative_arc", string(structure.NarrativeArc)).
		Msg("🧭 Outline planned")

	return &structure, nil
}

// Validate rejects structural violations and fills missing slide ids.
func Validate(s *deck.PresentationStructure) error {
	var problems []string

	if strings.TrimSpace(s.Title) == "" {
		problems = append(problems, "missing deck title")
	}
	if s.TotalSlides < MinSlides || s.TotalSlides > MaxSlides {
		problems = append(problems, fmt.Sprintf("totalSlides %d outside %d-%d", s.TotalSlides, MinSlides, MaxSlides))
	}
	if len(s.Slides) != s.TotalSlides {
		problems = append(problems, fmt.Sprintf("slide count %d does not match totalSlides %d", len(s.Slides), s.TotalSlides))
	}
	if !s.NarrativeArc.Valid() {
		problems = append(problems, fmt.Sprintf("unknown narrativeArc %q", s.NarrativeArc))
	}

	seen := make(map[string]bool, len(s.Slides))
	for i := range s.Slides {
		slide := &s.Slides[i]
		if slide.ID == "" {
			slide.ID = fmt.Sprintf("slide-%d", i+1)
		}
		if seen[slide.ID] {
			problems = append(problems, fmt.Sprintf("duplicate slide id %q", slide.ID))
		}
		seen[slide.ID] = true

		if slide.SlideNumber != i+1 {
			problems = append(problems, fmt.Sprintf("slide %d has slideNumber %d", i+1, slide.SlideNumber))
		}
		if strings.TrimSpace(slide.Title) == "" {
			problems = append(problems, fmt.Sprintf("slide %d has no title", i+1))
		}
		if n := len(slide.Bullets); n < 1 || n > MaxBullets {
			problems = append(problems, fmt.Sprintf("slide %d has %d bullets", i+1, n))
		}
		if !slide.ChartType.Valid() {
			problems = append(problems, fmt.Sprintf("slide %d has unknown chartType %q", i+1, slide.ChartType))
		}
		if !slide.Layout.Valid() {
			problems = append(problems, fmt.Sprintf("slide %d has unknown layout %q", i+1, slide.Layout))
		}
		if !slide.Priority.Valid() {
			problems = append(problems, fmt.Sprintf("slide %d has unknown priority %q", i+1, slide.Priority))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", deck.ErrStructureValidation, strings.Join(problems, "; "))
	}
	return nil
}

// Warnings lists length violations that are tolerated.
func Warnings(s *deck.PresentationStructure) []string {
	var warnings []string
	if n := utf8.RuneCountInString(s.Title); n > MaxTitleLength {
		warnings = append(warnings, fmt.Sprintf("deck title is %d characters (max %d)", n, MaxTitleLength))
	}
	for _, slide := range s.Slides {
		if n := utf8.RuneCountInString(slide.Title); n > MaxTitleLength {
			warnings = append(warnings, fmt.Sprintf("slide %d title is %d characters", slide.SlideNumber, n))
		}
		if n := utf8.RuneCountInString(slide.Subtitle); n > MaxSubtitleLength {
			warnings = append(warnings, fmt.Sprintf("slide %d subtitle is %d characters", slide.SlideNumber, n))
		}
		for j, b := range slide.Bullets {
			if n := utf8.RuneCountInString(b); n > MaxBulletLength {
				warnings = append(warnings, fmt.Sprintf("slide %d bullet %d is %d characters", slide.SlideNumber, j+1, n))
			}
		}
	}
	return warnings
}

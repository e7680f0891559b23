package planner

import (
	"fmt"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const maxBriefInsights = 5

// BuildSystemPrompt returns the fixed instructions for outline generation
func BuildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a presentation strategist who turns data analysis into executive-ready slide outlines.\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString(fmt.Sprintf("- Plan between %d and %d slides; totalSlides must equal the number of slides.\n", MinSlides, MaxSlides))
	sb.WriteString("- Number slides with slideNumber starting at 1, without gaps.\n")
	sb.WriteString(fmt.Sprintf("- The deck title is at most %d characters.\n", MaxTitleLength))
	sb.WriteString(fmt.Sprintf("- Every slide has 1 to %d bullets of at most %d characters each.\n", MaxBullets, MaxBulletLength))
	sb.WriteString("- Start with a title slide and end with a conclusion slide.\n")
	sb.WriteString("- Use a chart-bearing layout (chart-focus, split-chart, metrics-grid) when a slide presents numbers.\n")
	sb.WriteString("- Mark the slides carrying the key message as priority high.\n")
	sb.WriteString("- Only use figures that appear in the analysis; never invent data.\n")
	sb.WriteString("- Add short speakerNotes for every slide.\n")

	return sb.String()
}

// BuildBrief summarizes the analysis and business context for the planner
func BuildBrief(a *analysis.Result, bc deck.BusinessContext) string {
	var sb strings.Builder

	sb.WriteString("BUSINESS CONTEXT:\n")
	sb.WriteString(fmt.Sprintf("- Target audience: %s\n", orDefault(bc.TargetAudience, "business stakeholders")))
	sb.WriteString(fmt.Sprintf("- Presentation goal: %s\n", orDefault(bc.PresentationGoal, "summarize the data")))
	if bc.TimeLimit > 0 {
		sb.WriteString(fmt.Sprintf("- Time budget: %d minutes\n", bc.TimeLimit))
	}
	if bc.Industry != "" {
		sb.WriteString(fmt.Sprintf("- Industry: %s\n", bc.Industry))
	}
	if bc.BusinessContext != "" {
		sb.WriteString(fmt.Sprintf("- Additional context: %s\n", bc.BusinessContext))
	}

	sb.WriteString("\nDATA ANALYSIS:\n")
	sb.WriteString(fmt.Sprintf("- Data quality score: %.0f/100\n", a.DataQualityScore))
	sb.WriteString(fmt.Sprintf("- Rows: %d, columns: %d\n", a.BasicStatistics.RowCount, a.BasicStatistics.ColumnCount))

	if len(a.KeyInsights) > 0 {
		sb.WriteString("\nTOP INSIGHTS:\n")
		for i, in := range a.KeyInsights {
			if i >= maxBriefInsights {
				break
			}
			sb.WriteString(fmt.Sprintf("%d. %s: %s (impact: %s)\n", i+1, in.Title, in.Description, in.BusinessImpact))
		}
	}

	if len(a.Trends) > 0 {
		sb.WriteString("\nTRENDS:\n")
		for _, t := range a.Trends {
			sb.WriteString(fmt.Sprintf("- %s: %s of %.1f%% over %s (latest period %.1f%%)\n",
				t.Metric, t.Direction, t.OverallChangePct, t.Timeframe, t.LatestPeriodChangePct))
		}
	}

	if len(a.Correlations) > 0 {
		sb.WriteString("\nCORRELATIONS:\n")
		for _, c := range a.Correlations {
			sb.WriteString(fmt.Sprintf("- %s vs %s: %.2f (%s %s)\n", c.VariableX, c.VariableY, c.Correlation, c.Strength, c.Direction))
		}
	}

	for _, seg := range a.Segments {
		if seg.Type != analysis.SegmentCategorical || len(seg.Segments) == 0 {
			continue
		}
		parts := make([]string, 0, len(seg.Segments))
		for _, s := range seg.Segments {
			parts = append(parts, fmt.Sprintf("%s %.0f%%", s.Name, s.Percentage))
		}
		sb.WriteString(fmt.Sprintf("\nSEGMENTS BY %s: %s\n", strings.ToUpper(seg.SegmentBy), strings.Join(parts, ", ")))
	}

	rec := a.SlideRecommendations
	sb.WriteString("\nRECOMMENDATIONS:\n")
	if rec.NarrativeArc != "" {
		sb.WriteString(fmt.Sprintf("- Narrative arc: %s\n", rec.NarrativeArc))
	}
	if rec.TotalSlidesSuggested > 0 {
		sb.WriteString(fmt.Sprintf("- Suggested slides: %d\n", rec.TotalSlidesSuggested))
	}
	if len(rec.ChartTypesRecommended) > 0 {
		sb.WriteString(fmt.Sprintf("- Chart types: %s\n", strings.Join(rec.ChartTypesRecommended, ", ")))
	}

	sb.WriteString("\nReturn the slide outline as JSON.")
	return sb.String()
}

// SlideStructureSchema is the response schema for outline generation
func SlideStructureSchema() *jsonschema.Definition {
	slide := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"id":          {Type: jsonschema.String, Description: "Stable slide id such as slide-1"},
			"slideNumber": {Type: jsonschema.Integer, Description: "1-based position"},
			"title":       {Type: jsonschema.String, Description: fmt.Sprintf("At most %d characters", MaxTitleLength)},
			"subtitle":    {Type: jsonschema.String},
			"bullets": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("1 to %d bullets", MaxBullets),
				Items:       &jsonschema.Definition{Type: jsonschema.String},
			},
			"chartType":        {Type: jsonschema.String, Enum: enumStrings(deck.ChartTypes)},
			"layout":           {Type: jsonschema.String, Enum: enumStrings(deck.Layouts)},
			"priority":         {Type: jsonschema.String, Enum: enumStrings(deck.Priorities)},
			"estimatedSeconds": {Type: jsonschema.Integer},
			"speakerNotes":     {Type: jsonschema.String},
		},
		Required: []string{"slideNumber", "title", "bullets", "chartType", "layout", "priority"},
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"title":             {Type: jsonschema.String, Description: fmt.Sprintf("At most %d characters", MaxTitleLength)},
			"subtitle":          {Type: jsonschema.String},
			"totalSlides":       {Type: jsonschema.Integer, Description: fmt.Sprintf("Between %d and %d", MinSlides, MaxSlides)},
			"estimatedDuration": {Type: jsonschema.Integer, Description: "Minutes"},
			"narrativeArc":      {Type: jsonschema.String, Enum: enumStrings(deck.NarrativeArcs)},
			"targetAudience":    {Type: jsonschema.String},
			"keyMessage":        {Type: jsonschema.String},
			"slides": {
				Type:        jsonschema.Array,
				Description: fmt.Sprintf("Between %d and %d slides", MinSlides, MaxSlides),
				Items:       &slide,
			},
		},
		Required: []string{"title", "totalSlides", "narrativeArc", "keyMessage", "slides"},
	}
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

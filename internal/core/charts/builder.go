package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/llm"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	MaxCharts = 4
	StageName = "chart_building"
)

// Palette is applied to every accepted chart
var Palette = []string{"#2563EB", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#14B8A6"}

// Generator performs one schema-constrained generation call
type Generator interface {
	Generate(ctx context.Context, req *llm.StructuredRequest) (json.RawMessage, error)
}

// Builder attaches chart configs to outline slides
type Builder struct {
	gen Generator
}

// NewBuilder creates a new chart config builder
func NewBuilder(gen Generator) *Builder {
	return &Builder{gen: gen}
}

// SelectCandidates returns up to MaxCharts slides that should carry a chart:
// chart-bearing layouts or high priority, in outline order. Slides whose
// chartType is none never get a chart.
func SelectCandidates(slides []deck.SlideOutline) []deck.SlideOutline {
	var out []deck.SlideOutline
	for _, s := range slides {
		if len(out) == MaxCharts {
			break
		}
		if s.ChartType == deck.ChartNone {
			continue
		}
		if s.Layout.HasChartRegion() || s.Priority == deck.PriorityHigh {
			out = append(out, s)
		}
	}
	return out
}

// Build requests chart configs for the candidate slides. It returns an empty
// list without calling the generator when no slide needs a chart.
func (b *Builder) Build(ctx context.Context, jobID string, structure *deck.PresentationStructure, a *analysis.Result, datasetID string) ([]deck.ChartConfig, error) {
	candidates := SelectCandidates(structure.Slides)
	if len(candidates) == 0 {
		log.Info().Str("job_id", jobID).Msg("📉 No slide needs a chart")
		return []deck.ChartConfig{}, nil
	}

	raw, err := b.gen.Generate(ctx, &llm.StructuredRequest{
		JobID:        jobID,
		Stage:        StageName,
		SystemPrompt: buildSystemPrompt(),
		UserPrompt:   buildPrompt(candidates, a, datasetID),
		SchemaName:   "chart_configs",
		Schema:       ChartConfigsSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("chart generation failed: %w", err)
	}

	var payload struct {
		Charts []deck.ChartConfig `json:"charts"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: chart configs do not match schema: %v", deck.ErrStructureValidation, err)
	}

	byID := make(map[string]deck.SlideOutline, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	charts := make([]deck.ChartConfig, 0, len(payload.Charts))
	used := make(map[string]bool)
	for i := range payload.Charts {
		chart := payload.Charts[i]
		slide, ok := byID[chart.SlideID]
		if !ok {
			return nil, fmt.Errorf("%w: chart %d targets unknown slide %q", deck.ErrStructureValidation, i+1, chart.SlideID)
		}
		if chart.Type == "" {
			chart.Type = slide.ChartType
		}
		if err := ValidateChart(&chart); err != nil {
			return nil, fmt.Errorf("%w: chart %d: %v", deck.ErrStructureValidation, i+1, err)
		}
		if used[chart.SlideID] || len(charts) == MaxCharts {
			continue
		}
		used[chart.SlideID] = true
		ApplyDefaults(&chart)
		charts = append(charts, chart)
	}

	log.Info().Str("job_id", jobID).Int("candidates", len(candidates)).Int("charts", len(charts)).Msg("📈 Charts built")
	return charts, nil
}

// ValidateChart checks the structural chart contract
func ValidateChart(c *deck.ChartConfig) error {
	if !c.Type.Valid() || c.Type == deck.ChartNone {
		return fmt.Errorf("unsupported chart type %q", c.Type)
	}
	if len(c.Data) == 0 {
		return fmt.Errorf("data is empty")
	}
	if c.Type == deck.ChartMetrics {
		return nil
	}
	if c.Metadata.XKey == "" || c.Metadata.YKey == "" {
		return fmt.Errorf("xKey and yKey are required for %s charts", c.Type)
	}
	first := c.Data[0]
	if _, ok := first[c.Metadata.XKey]; !ok {
		return fmt.Errorf("xKey %q missing from first data row", c.Metadata.XKey)
	}
	if _, ok := first[c.Metadata.YKey]; !ok {
		return fmt.Errorf("yKey %q missing from first data row", c.Metadata.YKey)
	}
	return nil
}

// ApplyDefaults fills id, palette, grid/legend visibility and animation
func ApplyDefaults(c *deck.ChartConfig) {
	if c.ID == "" {
		c.ID = "chart-" + c.SlideID
	}
	if len(c.Metadata.Colors) == 0 {
		c.Metadata.Colors = append([]string(nil), Palette...)
	}

	switch c.Type {
	case deck.ChartBar, deck.ChartLine, deck.ChartArea, deck.ChartScatter:
		c.Metadata.ShowGrid = true
	default:
		c.Metadata.ShowGrid = false
	}

	switch c.Type {
	case deck.ChartPie, deck.ChartDonut:
		c.Metadata.ShowLegend = true
	case deck.ChartMetrics, deck.ChartTable:
		c.Metadata.ShowLegend = false
	default:
		c.Metadata.ShowLegend = numericSeries(c.Data[0], c.Metadata.XKey) > 1
	}

	c.Metadata.Animate = true
}

// ChartConfigsSchema is the response schema for chart generation
func ChartConfigsSchema() *jsonschema.Definition {
	types := make([]string, 0, len(deck.ChartTypes))
	for _, t := range deck.ChartTypes {
		if t != deck.ChartNone {
			types = append(types, string(t))
		}
	}

	chart := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"slideId": {Type: jsonschema.String, Description: "id of the outline slide this chart belongs to"},
			"type":    {Type: jsonschema.String, Enum: types},
			"title":   {Type: jsonschema.String},
			"data": {
				Type:        jsonschema.Array,
				Description: "Non-empty list of rows; every row has the xKey and yKey fields",
				Items:       &jsonschema.Definition{Type: jsonschema.Object},
			},
			"metadata": {
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"xKey":        {Type: jsonschema.String},
					"yKey":        {Type: jsonschema.String},
					"xLabel":      {Type: jsonschema.String},
					"yLabel":      {Type: jsonschema.String},
					"insight":     {Type: jsonschema.String, Description: "One sentence takeaway"},
					"dataCallout": {Type: jsonschema.String},
				},
				Required: []string{"xKey", "yKey", "insight"},
			},
		},
		Required: []string{"slideId", "type", "title", "data", "metadata"},
	}

	return &jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"charts": {Type: jsonschema.Array, Items: &chart},
		},
		Required: []string{"charts"},
	}
}

func buildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a data visualization specialist preparing charts for business slides.\n\n")
	sb.WriteString("RULES:\n")
	sb.WriteString(fmt.Sprintf("- Produce at most one chart per listed slide and at most %d charts.\n", MaxCharts))
	sb.WriteString("- Use only the figures in AVAILABLE DATA.\n")
	sb.WriteString("- Every data row must contain the xKey and yKey fields (metrics charts use label/value rows).\n")
	sb.WriteString("- Keep data to at most 12 rows.\n")
	sb.WriteString("- Write a one-sentence insight for each chart.\n")
	return sb.String()
}

func buildPrompt(candidates []deck.SlideOutline, a *analysis.Result, datasetID string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("DATASET: %s\n\nSLIDES NEEDING CHARTS:\n", datasetID))
	for _, s := range candidates {
		sb.WriteString(fmt.Sprintf("- id=%s | title=%q | requested chart=%s | layout=%s\n", s.ID, s.Title, s.ChartType, s.Layout))
		for _, b := range s.Bullets {
			sb.WriteString(fmt.Sprintf("    • %s\n", b))
		}
	}

	sb.WriteString("\nAVAILABLE DATA:\n")
	for _, series := range SeedData(a) {
		rows, err := json.Marshal(series.Rows)
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s (suggested %s, xKey=%s, yKey=%s): %s\n", series.Name, series.Suggested, series.XKey, series.YKey, rows))
	}

	sb.WriteString("\nReturn {\"charts\": [...]} as JSON.")
	return sb.String()
}

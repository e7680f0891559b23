package layout

import (
	"strings"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

const (
	MaxBullets   = 5
	MaxTakeaways = 3
	BulletGlyph  = "• "
)

// Style converts outline slides and their charts into positioned elements.
// It is pure: same inputs, same pixels.
func Style(outline []deck.SlideOutline, charts []deck.ChartConfig) []deck.StyledSlide {
	return library.Style(outline, charts)
}

// Style places every outline slide using this library
func (l *Library) Style(outline []deck.SlideOutline, charts []deck.ChartConfig) []deck.StyledSlide {
	chartBySlide := make(map[string]*deck.ChartConfig, len(charts))
	for i := range charts {
		if _, ok := chartBySlide[charts[i].SlideID]; !ok {
			chartBySlide[charts[i].SlideID] = &charts[i]
		}
	}

	slides := make([]deck.StyledSlide, 0, len(outline))
	for _, s := range outline {
		slides = append(slides, l.styleSlide(s, chartBySlide[s.ID]))
	}
	return slides
}

// ResolveLayout picks the template a slide is rendered with. Unknown layouts
// become title-bullets. A chart on a layout without a chart region upgrades
// the slide to split-chart (with bullets) or chart-focus; a chart layout
// without a chart falls back to title-bullets.
func ResolveLayout(layout deck.Layout, hasChart, hasBullets bool) deck.Layout {
	if !layout.Valid() {
		layout = deck.LayoutTitleBullets
	}
	switch {
	case hasChart && !layout.HasChartRegion():
		if hasBullets {
			return deck.LayoutSplitChart
		}
		return deck.LayoutChartFocus
	case !hasChart && layout.HasChartRegion():
		return deck.LayoutTitleBullets
	}
	return layout
}

func (l *Library) styleSlide(s deck.SlideOutline, chart *deck.ChartConfig) deck.StyledSlide {
	bullets := nonEmpty(s.Bullets)
	layout, tmpl := l.Template(ResolveLayout(s.Layout, chart != nil, len(bullets) > 0))

	background := l.Colors.Background
	if tmpl.Background != "" {
		background = tmpl.Background
	}

	out := deck.StyledSlide{
		ID:           s.ID,
		Title:        s.Title,
		Subtitle:     s.Subtitle,
		Background:   deck.Background{Type: "solid", Color: background},
		Layout:       layout,
		KeyTakeaways: takeaways(bullets),
		SpeakerNotes: s.SpeakerNotes,
		Elements:     []deck.SlideElement{},
	}

	if r, ok := tmpl.region("title"); ok {
		out.Elements = append(out.Elements, l.textElement(s.ID+"-title", r, s.Title, "title", l.Colors.Title, 2))
	}

	subtitle, role := s.Subtitle, "subtitle"
	if layout == deck.LayoutChartFocus && chart != nil && chart.Metadata.Insight != "" {
		subtitle, role = chart.Metadata.Insight, "insight"
	}
	if r, ok := tmpl.region("subtitle"); ok && subtitle != "" {
		out.Elements = append(out.Elements, l.textElement(s.ID+"-subtitle", r, subtitle, role, l.Colors.Subtitle, 2))
	}

	if r, ok := tmpl.region("bullets"); ok && len(bullets) > 0 {
		out.Elements = append(out.Elements, l.textElement(s.ID+"-bullets", r, joinBullets(bullets), "bullets", l.Colors.Body, 1))
	}

	if r, ok := tmpl.region("chart"); ok && chart != nil {
		out.Elements = append(out.Elements, deck.SlideElement{
			ID:     s.ID + "-chart",
			Type:   deck.ElementChart,
			X:      r.X,
			Y:      r.Y,
			Width:  r.Width,
			Height: r.Height,
			ZIndex: 1,
			Chart: &deck.ChartContent{
				ChartID:  chart.ID,
				Type:     chart.Type,
				Title:    chart.Title,
				Data:     chart.Data,
				Metadata: chart.Metadata,
			},
		})
	}

	return out
}

func (l *Library) textElement(id string, r *Region, text, role, color string, z int) deck.SlideElement {
	if r.Color != "" {
		color = r.Color
	}
	return deck.SlideElement{
		ID:     id,
		Type:   deck.ElementText,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
		ZIndex: z,
		Text: &deck.TextContent{
			Text:       text,
			Role:       role,
			FontSize:   r.FontSize,
			FontWeight: r.FontWeight,
			Color:      color,
			Align:      r.Align,
		},
	}
}

func joinBullets(bullets []string) string {
	if len(bullets) > MaxBullets {
		bullets = bullets[:MaxBullets]
	}
	lines := make([]string, len(bullets))
	for i, b := range bullets {
		lines[i] = BulletGlyph + b
	}
	return strings.Join(lines, "\n")
}

func takeaways(bullets []string) []string {
	n := len(bullets)
	if n > MaxTakeaways {
		n = MaxTakeaways
	}
	return append([]string{}, bullets[:n]...)
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package deck

import (
	"errors"
	"time"
)

// ErrStructureValidation is returned when generated content violates the outline or chart contract.
var ErrStructureValidation = errors.New("structure validation failed")

// Canvas dimensions every element is positioned against.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
)

// NarrativeArc describes the storyline of a deck
type NarrativeArc string

const (
	ArcGrowthStory          NarrativeArc = "growth_story"
	ArcProblemSolution      NarrativeArc = "problem_solution"
	ArcRelationshipAnalysis NarrativeArc = "relationship_analysis"
	ArcSegmentation         NarrativeArc = "segmentation_insights"
	ArcPerformanceReview    NarrativeArc = "performance_review"
	ArcDataSummary          NarrativeArc = "data_summary"
)

// ChartType is the visual form of a chart
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartArea    ChartType = "area"
	ChartPie     ChartType = "pie"
	ChartDonut   ChartType = "donut"
	ChartScatter ChartType = "scatter"
	ChartMetrics ChartType = "metrics"
	ChartTable   ChartType = "table"
	ChartNone    ChartType = "none"
)

// Layout names a slide template
type Layout string

const (
	LayoutTitle        Layout = "title"
	LayoutTitleBullets Layout = "title-bullets"
	LayoutChartFocus   Layout = "chart-focus"
	LayoutSplitChart   Layout = "split-chart"
	LayoutMetricsGrid  Layout = "metrics-grid"
	LayoutSection      Layout = "section"
	LayoutConclusion   Layout = "conclusion"
)

// Priority ranks outline slides for truncation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

var (
	NarrativeArcs = []NarrativeArc{ArcGrowthStory, ArcProblemSolution, ArcRelationshipAnalysis, ArcSegmentation, ArcPerformanceReview, ArcDataSummary}
	ChartTypes    = []ChartType{ChartBar, ChartLine, ChartArea, ChartPie, ChartDonut, ChartScatter, ChartMetrics, ChartTable, ChartNone}
	Layouts       = []Layout{LayoutTitle, LayoutTitleBullets, LayoutChartFocus, LayoutSplitChart, LayoutMetricsGrid, LayoutSection, LayoutConclusion}
	Priorities    = []Priority{PriorityHigh, PriorityMedium, PriorityLow}
)

func (a NarrativeArc) Valid() bool { return contains(NarrativeArcs, a) }
func (t ChartType) Valid() bool    { return contains(ChartTypes, t) }
func (l Layout) Valid() bool       { return contains(Layouts, l) }
func (p Priority) Valid() bool     { return contains(Priorities, p) }

// Rank orders priorities, lower is more important.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// HasChartRegion reports whether the layout is built around a chart.
func (l Layout) HasChartRegion() bool {
	return l == LayoutChartFocus || l == LayoutSplitChart || l == LayoutMetricsGrid
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// BusinessContext is the caller-supplied framing for a deck
type BusinessContext struct {
	TargetAudience   string `json:"targetAudience"`
	PresentationGoal string `json:"presentationGoal"`
	TimeLimit        int    `json:"timeLimit"` // minutes
	Industry         string `json:"industry,omitempty"`
	BusinessContext  string `json:"businessContext,omitempty"`
}

// SlideOutline is one planned slide
type SlideOutline struct {
	ID               string    `json:"id"`
	SlideNumber      int       `json:"slideNumber"`
	Title            string    `json:"title"`
	Subtitle         string    `json:"subtitle,omitempty"`
	Bullets          []string  `json:"bullets"`
	ChartType        ChartType `json:"chartType"`
	Layout           Layout    `json:"layout"`
	Priority         Priority  `json:"priority"`
	EstimatedSeconds int       `json:"estimatedSeconds"`
	SpeakerNotes     string    `json:"speakerNotes,omitempty"`
}

// PresentationStructure is the planner output
type PresentationStructure struct {
	Title             string         `json:"title"`
	Subtitle          string         `json:"subtitle,omitempty"`
	TotalSlides       int            `json:"totalSlides"`
	EstimatedDuration int            `json:"estimatedDuration"` // minutes
	NarrativeArc      NarrativeArc   `json:"narrativeArc"`
	TargetAudience    string         `json:"targetAudience"`
	KeyMessage        string         `json:"keyMessage"`
	Slides            []SlideOutline `json:"slides"`
}

// ChartMetadata carries rendering hints for a chart
type ChartMetadata struct {
	XKey        string   `json:"xKey"`
	YKey        string   `json:"yKey"`
	XLabel      string   `json:"xLabel,omitempty"`
	YLabel      string   `json:"yLabel,omitempty"`
	Colors      []string `json:"colors"`
	Insight     string   `json:"insight"`
	DataCallout string   `json:"dataCallout,omitempty"`
	ShowGrid    bool     `json:"showGrid"`
	ShowLegend  bool     `json:"showLegend"`
	Animate     bool     `json:"animate"`
}

// ChartConfig is a chart attached to one outline slide
type ChartConfig struct {
	ID       string           `json:"id"`
	SlideID  string           `json:"slideId"`
	Type     ChartType        `json:"type"`
	Title    string           `json:"title"`
	Data     []map[string]any `json:"data"`
	Metadata ChartMetadata    `json:"metadata"`
}

// ElementType is the kind of a positioned element
type ElementType string

const (
	ElementText  ElementType = "text"
	ElementChart ElementType = "chart"
	ElementImage ElementType = "image"
	ElementShape ElementType = "shape"
)

// TextContent is the payload of a text element
type TextContent struct {
	Text       string `json:"text"`
	Role       string `json:"role"` // title, subtitle, bullets, insight
	FontSize   int    `json:"fontSize"`
	FontWeight string `json:"fontWeight"`
	Color      string `json:"color"`
	Align      string `json:"align"`
}

// ChartContent is the payload of a chart element
type ChartContent struct {
	ChartID  string           `json:"chartId"`
	Type     ChartType        `json:"type"`
	Title    string           `json:"title"`
	Data     []map[string]any `json:"data"`
	Metadata ChartMetadata    `json:"metadata"`
}

// SlideElement is an absolutely positioned item on the canvas
type SlideElement struct {
	ID       string        `json:"id"`
	Type     ElementType   `json:"type"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Width    float64       `json:"width"`
	Height   float64       `json:"height"`
	Rotation float64       `json:"rotation"`
	ZIndex   int           `json:"zIndex"`
	Text     *TextContent  `json:"text,omitempty"`
	Chart    *ChartContent `json:"chart,omitempty"`
}

// Background of a styled slide
type Background struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

// StyledSlide is a slide with concrete element placement
type StyledSlide struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Subtitle     string         `json:"subtitle,omitempty"`
	Elements     []SlideElement `json:"elements"`
	Background   Background     `json:"background"`
	Layout       Layout         `json:"layout"`
	KeyTakeaways []string       `json:"keyTakeaways"`
	SpeakerNotes string         `json:"speakerNotes,omitempty"`
}

// DeckSlide is a styled slide as stored in a final deck, with the aliases
// renderers read.
type DeckSlide struct {
	StyledSlide
	Number      int            `json:"number"`
	SlideNumber int            `json:"slideNumber"`
	Content     []SlideElement `json:"content"`
}

// Theme is the fixed visual theme
type Theme struct {
	Name            string   `json:"name"`
	PrimaryColor    string   `json:"primaryColor"`
	SecondaryColor  string   `json:"secondaryColor"`
	BackgroundColor string   `json:"backgroundColor"`
	TextColor       string   `json:"textColor"`
	FontFamily      string   `json:"fontFamily"`
	ChartPalette    []string `json:"chartPalette"`
}

// Settings is the fixed deck configuration
type Settings struct {
	AspectRatio      string `json:"aspectRatio"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Transition       string `json:"transition"`
	ShowSlideNumbers bool   `json:"showSlideNumbers"`
}

// DeckMetadata summarizes a composed deck
type DeckMetadata struct {
	AIGenerated       bool         `json:"aiGenerated"`
	GeneratedAt       time.Time    `json:"generatedAt"`
	QualityScore      int          `json:"qualityScore"`
	TotalElements     int          `json:"totalElements"`
	TotalCharts       int          `json:"totalCharts"`
	EstimatedDuration int          `json:"estimatedDuration"`
	NarrativeArc      NarrativeArc `json:"narrativeArc"`
	LayoutIssues      int          `json:"layoutIssues"`
	Version           string       `json:"version"`
}

// FinalDeck is the persisted presentation document
type FinalDeck struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Slides      []DeckSlide  `json:"slides"`
	Theme       Theme        `json:"theme"`
	Settings    Settings     `json:"settings"`
	Metadata    DeckMetadata `json:"metadata"`
}

package analysis

// Result is the statistical profile printed by the analysis subprocess.
// Field names follow the subprocess wire format.
type Result struct {
	BasicStatistics      BasicStatistics      `json:"basic_statistics"`
	DataQualityScore     float64              `json:"data_quality_score"`
	Trends               []Trend              `json:"trends"`
	Outliers             []Outlier            `json:"outliers"`
	Correlations         []Correlation        `json:"correlations"`
	Segments             []Segmentation       `json:"segments"`
	KeyInsights          []KeyInsight         `json:"key_insights"`
	SlideRecommendations SlideRecommendations `json:"slide_recommendations"`
	Metadata             map[string]any       `json:"metadata,omitempty"`
}

type BasicStatistics struct {
	RowCount           int      `json:"row_count"`
	ColumnCount        int      `json:"column_count"`
	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
	MissingValuesTotal int      `json:"missing_values_total"`
	MissingPercentage  float64  `json:"missing_percentage"`
}

// Trend direction values
const (
	DirectionGrowth  = "growth"
	DirectionDecline = "decline"
	DirectionStable  = "stable"
)

type Trend struct {
	Metric                string  `json:"metric"`
	Timeframe             string  `json:"timeframe"`
	Direction             string  `json:"direction"`
	OverallChangePct      float64 `json:"overall_change_pct"`
	LatestPeriodChangePct float64 `json:"latest_period_change_pct"`
	Confidence            float64 `json:"confidence"`
}

type Outlier struct {
	Column            string          `json:"column"`
	OutlierCount      int             `json:"outlier_count"`
	OutlierPercentage float64         `json:"outlier_percentage"`
	ExtremeValues     ExtremeValues   `json:"extreme_values"`
	ThresholdBounds   ThresholdBounds `json:"threshold_bounds"`
}

type ExtremeValues struct {
	Highest *float64 `json:"highest"`
	Lowest  *float64 `json:"lowest"`
}

type ThresholdBounds struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

type Correlation struct {
	VariableX       string  `json:"variable_x"`
	VariableY       string  `json:"variable_y"`
	Correlation     float64 `json:"correlation"`
	Strength        string  `json:"strength"`
	Direction       string  `json:"direction"`
	BusinessInsight string  `json:"business_insight"`
}

// Segmentation types
const (
	SegmentCategorical    = "categorical"
	SegmentNumericCluster = "numeric_clusters"
)

// Segmentation is either a categorical breakdown or a set of numeric clusters.
type Segmentation struct {
	Type          string    `json:"type"`
	SegmentBy     string    `json:"segment_by,omitempty"`
	Segments      []Segment `json:"segments,omitempty"`
	ClusterMethod string    `json:"cluster_method,omitempty"`
	FeaturesUsed  []string  `json:"features_used,omitempty"`
	Clusters      []Cluster `json:"clusters,omitempty"`
}

type Segment struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type Cluster struct {
	ClusterID       int                           `json:"cluster_id"`
	Size            int                           `json:"size"`
	Percentage      float64                       `json:"percentage"`
	Characteristics map[string]ClusterFeatureStat `json:"characteristics,omitempty"`
}

type ClusterFeatureStat struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type KeyInsight struct {
	Type                string `json:"type"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	BusinessImpact      string `json:"business_impact"`
	SlideRecommendation string `json:"slide_recommendation"`
}

type SlideRecommendations struct {
	TotalSlidesSuggested  int      `json:"total_slides_suggested"`
	NarrativeArc          string   `json:"narrative_arc"`
	ChartTypesRecommended []string `json:"chart_types_recommended"`
}

// errorEnvelope is what the subprocess prints for an application-level failure.
type errorEnvelope struct {
	Error         *string `json:"error"`
	QualityIssues any     `json:"quality_issues,omitempty"`
}

package analysis

// FallbackQualityScore is the quality score carried by Fallback.
const FallbackQualityScore = 80

// Fallback returns the fixed analysis used when the subprocess is disabled or
// fails. Every call returns a fresh value with identical contents.
func Fallback() *Result {
	return &Result{
		BasicStatistics: BasicStatistics{
			RowCount:           100,
			ColumnCount:        6,
			NumericColumns:     []string{"Revenue", "Marketing Spend", "Customers"},
			CategoricalColumns: []string{"Region", "Product", "Month"},
			MissingValuesTotal: 0,
			MissingPercentage:  0,
		},
		DataQualityScore: FallbackQualityScore,
		Trends: []Trend{
			{
				Metric:                "Revenue",
				Timeframe:             "2024-01 to 2024-12",
				Direction:             DirectionGrowth,
				OverallChangePct:      15.0,
				LatestPeriodChangePct: 3.2,
				Confidence:            85,
			},
		},
		Outliers: []Outlier{},
		Correlations: []Correlation{
			{
				VariableX:       "Marketing Spend",
				VariableY:       "Revenue",
				Correlation:     0.78,
				Strength:        "strong",
				Direction:       "positive",
				BusinessInsight: "Higher marketing spend is strongly associated with higher revenue",
			},
		},
		Segments: []Segmentation{
			{
				Type:      SegmentCategorical,
				SegmentBy: "Region",
				Segments: []Segment{
					{Name: "North", Count: 42, Percentage: 42.0},
					{Name: "South", Count: 33, Percentage: 33.0},
					{Name: "West", Count: 25, Percentage: 25.0},
				},
			},
		},
		KeyInsights: []KeyInsight{
			{
				Type:                "trend",
				Title:               "Revenue Growth",
				Description:         "Revenue increased 15.0% over 2024-01 to 2024-12",
				BusinessImpact:      "high",
				SlideRecommendation: "Lead with the growth trend as the headline result",
			},
			{
				Type:                "correlation",
				Title:               "Marketing Drives Revenue",
				Description:         "Marketing Spend and Revenue are strongly positively correlated (0.78)",
				BusinessImpact:      "medium",
				SlideRecommendation: "Show the relationship on a scatter chart",
			},
			{
				Type:                "segmentation",
				Title:               "North Region Leads",
				Description:         "North accounts for 42% of records, ahead of South (33%) and West (25%)",
				BusinessImpact:      "medium",
				SlideRecommendation: "Break down performance by region",
			},
		},
		SlideRecommendations: SlideRecommendations{
			TotalSlidesSuggested:  6,
			NarrativeArc:          "growth_story",
			ChartTypesRecommended: []string{"line", "scatter", "bar", "metrics_cards"},
		},
		Metadata: map[string]any{
			"source": "fallback",
		},
	}
}

// IsFallback reports whether r was produced by Fallback.
func IsFallback(r *Result) bool {
	if r == nil || r.Metadata == nil {
		return false
	}
	src, _ := r.Metadata["source"].(string)
	return src == "fallback"
}

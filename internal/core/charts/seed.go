package charts

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/analysis"
)

// SeedSeries is a ready-to-chart data series derived from the analysis
type SeedSeries struct {
	Name      string           `json:"name"`
	Suggested string           `json:"suggestedType"`
	XKey      string           `json:"xKey"`
	YKey      string           `json:"yKey"`
	Rows      []map[string]any `json:"rows"`
}

// SeedData converts the analysis into chartable series so generated charts
// use real figures instead of invented ones.
func SeedData(a *analysis.Result) []SeedSeries {
	var series []SeedSeries

	for _, t := range a.Trends {
		start := 100.0
		series = append(series, SeedSeries{
			Name:      fmt.Sprintf("%s trend (%s, indexed to 100)", t.Metric, t.Timeframe),
			Suggested: "line",
			XKey:      "period",
			YKey:      t.Metric,
			Rows: []map[string]any{
				{"period": "start", t.Metric: start},
				{"period": "previous", t.Metric: round1(start * (1 + (t.OverallChangePct-t.LatestPeriodChangePct)/100))},
				{"period": "latest", t.Metric: round1(start * (1 + t.OverallChangePct/100))},
			},
		})
	}

	for _, seg := range a.Segments {
		switch seg.Type {
		case analysis.SegmentCategorical:
			rows := make([]map[string]any, 0, len(seg.Segments))
			for _, s := range seg.Segments {
				rows = append(rows, map[string]any{seg.SegmentBy: s.Name, "count": s.Count, "percentage": s.Percentage})
			}
			series = append(series, SeedSeries{
				Name:      "Breakdown by " + seg.SegmentBy,
				Suggested: "bar",
				XKey:      seg.SegmentBy,
				YKey:      "percentage",
				Rows:      rows,
			})
		case analysis.SegmentNumericCluster:
			rows := make([]map[string]any, 0, len(seg.Clusters))
			for _, c := range seg.Clusters {
				rows = append(rows, map[string]any{"cluster": "Cluster " + strconv.Itoa(c.ClusterID+1), "size": c.Size, "percentage": c.Percentage})
			}
			series = append(series, SeedSeries{
				Name:      "Customer clusters",
				Suggested: "donut",
				XKey:      "cluster",
				YKey:      "percentage",
				Rows:      rows,
			})
		}
	}

	if len(a.Correlations) > 0 {
		rows := make([]map[string]any, 0, len(a.Correlations))
		for _, c := range a.Correlations {
			rows = append(rows, map[string]any{"pair": c.VariableX + " / " + c.VariableY, "correlation": c.Correlation})
		}
		series = append(series, SeedSeries{
			Name:      "Correlation strength",
			Suggested: "bar",
			XKey:      "pair",
			YKey:      "correlation",
			Rows:      rows,
		})
	}

	series = append(series, SeedSeries{
		Name:      "Headline metrics",
		Suggested: "metrics",
		XKey:      "label",
		YKey:      "value",
		Rows:      statCards(a),
	})

	return series
}

// statCards builds label/value rows for a metrics chart
func statCards(a *analysis.Result) []map[string]any {
	cards := []map[string]any{
		{"label": "Rows analyzed", "value": formatStatValue(a.BasicStatistics.RowCount, "number")},
		{"label": "Data quality", "value": formatStatValue(a.DataQualityScore, "score")},
	}
	for _, t := range a.Trends {
		cards = append(cards, map[string]any{"label": t.Metric + " change", "value": formatStatValue(t.OverallChangePct, "percentage")})
	}
	return cards
}

// numericSeries counts the numeric fields of a row other than xKey
func numericSeries(row map[string]any, xKey string) int {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := 0
	for _, k := range keys {
		if k == xKey {
			continue
		}
		if _, ok := toFloat64(row[k]); ok {
			n++
		}
	}
	return n
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func formatLabel(value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02")
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatStatValue(value any, format string) string {
	num, _ := toFloat64(value)

	switch format {
	case "percentage":
		return fmt.Sprintf("%+.1f%%", num)
	case "score":
		return fmt.Sprintf("%.0f/100", num)
	case "number":
		return fmt.Sprintf("%.0f", num)
	default:
		return formatLabel(value)
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+sign(v)*0.5)) / 10
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

package detection

import (
	"fmt"
	"math"
	"strconv"
)

// Placeholder texts shown by display surfaces when a list has no rows.
const (
	NoObjectsMessage     = "No objects detected"
	NoPredictionsMessage = "No predictions available"
)

// barLabelMinPct is the bar width above which the percentage is printed
// inside the confidence bar.
const barLabelMinPct = 20

// Row is one renderable {label, value} summary line.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ConfidenceRow is one line of the ranked confidence view.
type ConfidenceRow struct {
	Label string `json:"label"`

	// Percent is the confidence in percent rounded to one decimal. Surfaces
	// use it as the bar width.
	Percent float64 `json:"percent"`

	// Value is Percent formatted with one decimal and a percent sign.
	Value string `json:"value"`

	// BarLabel repeats Value when the bar is wide enough to hold it, and is
	// empty otherwise.
	BarLabel string `json:"bar_label"`
}

// ObjectRows renders the grouped object counts, one row per label in
// first-occurrence order.
func ObjectRows(s Summary) []Row {
	rows := make([]Row, 0, len(s.ObjectCounts))
	for _, c := range s.ObjectCounts {
		rows = append(rows, Row{Label: c.Label, Value: fmt.Sprintf("%d detected", c.Count)})
	}
	return rows
}

// StatisticRows renders the aggregate statistics followed by the image size.
func StatisticRows(s Summary, width, height int) []Row {
	avg := "0%"
	if s.Stats.Total > 0 {
		avg = strconv.FormatFloat(s.Stats.AvgConfidencePct, 'f', 2, 64) + "%"
	}

	return []Row{
		{Label: "Total Objects", Value: strconv.Itoa(s.Stats.Total)},
		{Label: "Avg Confidence", Value: avg},
		{Label: "High Confidence (>80%)", Value: strconv.Itoa(s.Stats.HighConfidenceCount)},
		{Label: "Image Size", Value: fmt.Sprintf("%dx%dpx", width, height)},
	}
}

// ConfidenceRows renders the top-ranked detections.
func ConfidenceRows(s Summary) []ConfidenceRow {
	rows := make([]ConfidenceRow, 0, len(s.TopRanked))
	for _, d := range s.TopRanked {
		pct := math.Round(d.ConfidencePct()*10) / 10
		value := strconv.FormatFloat(pct, 'f', 1, 64) + "%"

		row := ConfidenceRow{Label: d.Label, Percent: pct, Value: value}
		if pct > barLabelMinPct {
			row.BarLabel = value
		}
		rows = append(rows, row)
	}
	return rows
}

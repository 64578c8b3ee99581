package detection

import (
	"math"
	"sort"
)

const (
	// HighConfidenceThreshold is the exclusive lower bound for a
	// high-confidence detection. A confidence of exactly 0.8 does not count.
	HighConfidenceThreshold = 0.8

	// TopRankedLimit is the maximum length of the ranked confidence view.
	TopRankedLimit = 5
)

// LabelCount is the number of detections sharing a label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Stats holds the aggregate statistics of one detection list.
type Stats struct {
	Total               int     `json:"total"`
	AvgConfidencePct    float64 `json:"avg_confidence_pct"`
	HighConfidenceCount int     `json:"high_confidence_count"`
}

// Summary is the derived view of one analysis pass.
//
// Invariants:
//   - the sum of ObjectCounts equals len(Detections)
//   - TopRanked is a subsequence of Detections, at most TopRankedLimit long,
//     sorted by confidence descending with ties kept in input order
type Summary struct {
	Detections   []Detection  `json:"detections"`
	ObjectCounts []LabelCount `json:"object_counts"`
	Stats        Stats        `json:"stats"`
	TopRanked    []Detection  `json:"top_ranked"`
}

// Aggregate computes the full summary of a detection list.
//
// The input slice is not modified. An empty or nil list is valid and yields
// zero statistics with empty (non-nil) slices.
func Aggregate(dets []Detection) Summary {
	own := make([]Detection, len(dets))
	copy(own, dets)

	return Summary{
		Detections:   own,
		ObjectCounts: CountByLabel(own),
		Stats:        ComputeStats(own),
		TopRanked:    TopRanked(own, TopRankedLimit),
	}
}

// CountByLabel groups detections by label in a single pass. The result is
// ordered by the first occurrence of each label.
func CountByLabel(dets []Detection) []LabelCount {
	counts := make([]LabelCount, 0)
	index := make(map[string]int)

	for _, d := range dets {
		if i, ok := index[d.Label]; ok {
			counts[i].Count++
			continue
		}
		index[d.Label] = len(counts)
		counts = append(counts, LabelCount{Label: d.Label, Count: 1})
	}

	return counts
}

// ComputeStats returns the total, average confidence percentage (rounded to
// two decimals), and high-confidence count of a detection list.
func ComputeStats(dets []Detection) Stats {
	if len(dets) == 0 {
		return Stats{}
	}

	var sum float64
	high := 0
	for _, d := range dets {
		sum += d.Confidence
		if d.IsHighConfidence() {
			high++
		}
	}

	return Stats{
		Total:               len(dets),
		AvgConfidencePct:    Round2(sum / float64(len(dets)) * 100),
		HighConfidenceCount: high,
	}
}

// TopRanked returns up to n detections sorted by confidence descending.
// Equal confidences keep their input order. The input is not reordered.
func TopRanked(dets []Detection, n int) []Detection {
	ranked := make([]Detection, len(dets))
	copy(ranked, dets)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

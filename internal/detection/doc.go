// Package detection defines detection records and the aggregation that turns a
// detection list into display-ready summaries.
//
// A Detection is one object found by a detection model: a label, a confidence
// in [0, 1], and a bounding box in image pixel coordinates. Detections are
// produced by a provider once per analyzed image and are only read here.
//
// # Aggregation
//
// Aggregate computes, in one call and without side effects:
//
//   - ObjectCounts: detections grouped by label, in first-occurrence order
//   - Stats: total count, mean confidence as a percentage rounded to two
//     decimals, and the number of detections above HighConfidenceThreshold
//   - TopRanked: the TopRankedLimit most confident detections, stable on ties
//
// An empty detection list is a valid input and yields zero statistics.
//
// # Display Rows
//
// ObjectRows, StatisticRows, and ConfidenceRows render a Summary as ordered
// {label, value} rows. They carry no layout; surfaces decide how to show them.
//
// # Coordinate System
//
// Boxes use the standard image convention: origin at the top-left corner,
// X increasing rightward, Y increasing downward. A box is (x, y, width, height).
package detection

package detection

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// BoundingBox is an axis-aligned rectangle in image pixel coordinates.
//
// On the wire a box is the array [x, y, width, height], the layout produced by
// most detection models. The object form {"x":..,"y":..,"width":..,"height":..}
// is accepted on input as well.
type BoundingBox struct {
	X      float64 // Left edge
	Y      float64 // Top edge
	Width  float64 // Horizontal extent
	Height float64 // Vertical extent
}

// MarshalJSON encodes the box as [x, y, width, height].
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X, b.Y, b.Width, b.Height})
}

// UnmarshalJSON accepts either the array or the object form of a box.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 4 {
			return errors.Errorf("bbox must have 4 elements, got %d", len(arr))
		}
		*b = BoundingBox{X: arr[0], Y: arr[1], Width: arr[2], Height: arr[3]}
		return nil
	}

	var obj struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrap(err, "invalid bbox")
	}
	*b = BoundingBox(obj)
	return nil
}

// Detection is one object instance found in an image.
//
// Detections are values: the renderer and aggregator only read them.
type Detection struct {
	// Label is the category name reported by the model (e.g. "cat").
	Label string `json:"label"`

	// Confidence is the model-reported probability in [0, 1].
	Confidence float64 `json:"confidence"`

	// Box locates the object in the analyzed image.
	Box BoundingBox `json:"bbox"`
}

// ConfidencePct returns the confidence as a percentage (0-100).
func (d Detection) ConfidencePct() float64 {
	return d.Confidence * 100
}

// IsHighConfidence reports whether the confidence is strictly above
// HighConfidenceThreshold.
func (d Detection) IsHighConfidence() bool {
	return d.Confidence > HighConfidenceThreshold
}

// Validate checks that a detection coming from a provider is well-formed.
// Box coordinates are not range-checked: out-of-bounds boxes are drawn as given.
func (d Detection) Validate() error {
	if d.Label == "" {
		return errors.New("detection has empty label")
	}
	if math.IsNaN(d.Confidence) || d.Confidence < 0 || d.Confidence > 1 {
		return errors.Errorf("detection %q has confidence %v outside [0,1]", d.Label, d.Confidence)
	}
	for _, v := range []float64{d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("detection %q has non-finite bbox", d.Label)
		}
	}
	return nil
}

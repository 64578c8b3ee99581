package imaging

import (
	"fmt"
	"strconv"
	"time"

	"github.com/akshita317/object-detection/internal/detection"
)

// Metadata describes the dimensions of an analyzed image.
type Metadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// AspectRatio is Width/Height rounded to two decimals.
	AspectRatio float64 `json:"aspect_ratio"`
}

// InvalidImageError reports an image whose dimensions cannot be summarized.
type InvalidImageError struct {
	Width  int
	Height int
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image %dx%d: %s", e.Width, e.Height, e.Reason)
}

// Summarize computes the image metadata shown alongside an analysis.
//
// A zero or negative dimension yields an *InvalidImageError.
func Summarize(desc *Descriptor) (Metadata, error) {
	if desc == nil {
		return Metadata{}, &InvalidImageError{Reason: "no image"}
	}
	if desc.Width <= 0 {
		return Metadata{}, &InvalidImageError{Width: desc.Width, Height: desc.Height, Reason: "width must be positive"}
	}
	if desc.Height <= 0 {
		return Metadata{}, &InvalidImageError{Width: desc.Width, Height: desc.Height, Reason: "height must be positive"}
	}

	return Metadata{
		Width:       desc.Width,
		Height:      desc.Height,
		AspectRatio: detection.Round2(float64(desc.Width) / float64(desc.Height)),
	}, nil
}

// Rows renders the image info lines. elapsed is the measured analysis time.
func (m Metadata) Rows(elapsed time.Duration) []detection.Row {
	return []detection.Row{
		{Label: "Width", Value: strconv.Itoa(m.Width) + "px"},
		{Label: "Height", Value: strconv.Itoa(m.Height) + "px"},
		{Label: "Aspect Ratio", Value: strconv.FormatFloat(m.AspectRatio, 'f', 2, 64)},
		{Label: "Processing Time", Value: FormatDuration(elapsed)},
	}
}

// FormatDuration formats an analysis duration for display, e.g. "1.25s" or
// "340ms".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
}

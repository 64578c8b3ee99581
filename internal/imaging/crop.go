package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/akshita317/object-detection/internal/detection"
)

// MaxCropScale bounds the magnification accepted by CropDetection.
const MaxCropScale = 8.0

// CropDetection extracts the region under a detection's bounding box.
//
// The box is clipped to the image bounds first; a box lying entirely outside
// the image is an error. A scale other than 1 resizes the crop with Lanczos
// resampling.
func CropDetection(desc *Descriptor, d detection.Detection, scale float64) (*image.NRGBA, error) {
	if scale <= 0 || scale > MaxCropScale || math.IsNaN(scale) {
		return nil, errors.Errorf("scale %v outside (0, %v]", scale, MaxCropScale)
	}

	bounds := desc.Image.Bounds()
	region := image.Rect(
		bounds.Min.X+int(math.Floor(d.Box.X)),
		bounds.Min.Y+int(math.Floor(d.Box.Y)),
		bounds.Min.X+int(math.Ceil(d.Box.X+d.Box.Width)),
		bounds.Min.Y+int(math.Ceil(d.Box.Y+d.Box.Height)),
	).Intersect(bounds)
	if region.Empty() {
		return nil, errors.Errorf("detection %q box lies outside the %dx%d image",
			d.Label, bounds.Dx(), bounds.Dy())
	}

	cropped := imaging.Crop(desc.Image, region)

	if scale != 1.0 {
		newWidth := int(math.Max(1, math.Round(float64(cropped.Bounds().Dx())*scale)))
		newHeight := int(math.Max(1, math.Round(float64(cropped.Bounds().Dy())*scale)))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}

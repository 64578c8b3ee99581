package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/akshita317/object-detection/internal/detection"
)

// Style controls how detections are drawn over the base image.
type Style struct {
	// Stroke is the bounding box outline colour.
	Stroke color.NRGBA

	// Accent fills the label tag above each box.
	Accent color.NRGBA

	// Text is the label text colour.
	Text color.NRGBA

	// LineWidth is the outline thickness in pixels, centred on the box edge.
	LineWidth int

	// TagHeight is the label tag height in pixels.
	TagHeight int

	// TagPadding is added to the measured text width to size the tag.
	TagPadding int

	// TagOffset is how far above the box top the tag starts.
	TagOffset int

	// TextInset is the horizontal distance from the box left edge to the text.
	TextInset int

	// TextBaseline is how far above the box top the text baseline sits.
	TextBaseline int

	// Face is the label font. Nil selects basicfont.Face7x13.
	Face font.Face
}

// DefaultStyle returns the blue box and tag look used by the web page.
func DefaultStyle() Style {
	blue := color.NRGBA{R: 0x25, G: 0x63, B: 0xeb, A: 0xff}
	return Style{
		Stroke:       blue,
		Accent:       blue,
		Text:         color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		LineWidth:    3,
		TagHeight:    25,
		TagPadding:   10,
		TagOffset:    30,
		TextInset:    5,
		TextBaseline: 10,
	}
}

func (s Style) face() font.Face {
	if s.Face != nil {
		return s.Face
	}
	return basicfont.Face7x13
}

// LabelText is the caption drawn in a detection's tag, e.g. "cat (95.00%)".
func LabelText(d detection.Detection) string {
	return fmt.Sprintf("%s (%.2f%%)", d.Label, d.ConfidencePct())
}

// Render draws every detection over a copy of the base image.
//
// Detections are drawn in input order, so later boxes and tags cover earlier
// ones where they overlap. Boxes partly or fully outside the image are drawn
// as given and clipped by the raster bounds. desc.Image is not modified.
func Render(desc *Descriptor, dets []detection.Detection, style Style) *image.NRGBA {
	dst := imaging.Clone(desc.Image)
	face := style.face()

	for _, d := range dets {
		x0, y0 := roundPx(d.Box.X), roundPx(d.Box.Y)
		x1, y1 := roundPx(d.Box.X+d.Box.Width), roundPx(d.Box.Y+d.Box.Height)

		strokeRect(dst, x0, y0, x1, y1, style.LineWidth, style.Stroke)

		text := LabelText(d)
		drawer := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(style.Text),
			Face: face,
			Dot:  fixed.P(x0+style.TextInset, y0-style.TextBaseline),
		}
		textWidth := drawer.MeasureString(text).Ceil()

		tagTop := y0 - style.TagOffset
		fillRect(dst, image.Rect(x0, tagTop, x0+textWidth+style.TagPadding, tagTop+style.TagHeight), style.Accent)

		drawer.DrawString(text)
	}

	return dst
}

// strokeRect outlines (x0,y0)-(x1,y1) with a band of width lw centred on each
// edge.
func strokeRect(dst draw.Image, x0, y0, x1, y1, lw int, c color.NRGBA) {
	if lw <= 0 {
		return
	}
	half := lw / 2
	left, top := x0-half, y0-half
	right, bottom := x1-half+lw, y1-half+lw

	fillRect(dst, image.Rect(left, top, right, top+lw), c)
	fillRect(dst, image.Rect(left, y1-half, right, bottom), c)
	fillRect(dst, image.Rect(left, top, left+lw, bottom), c)
	fillRect(dst, image.Rect(x1-half, top, right, bottom), c)
}

// fillRect paints r over dst. draw.Draw clips r to the destination bounds.
func fillRect(dst draw.Image, r image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func roundPx(v float64) int {
	return int(math.Round(v))
}

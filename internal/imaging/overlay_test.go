package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita317/object-detection/internal/detection"
)

var (
	white = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	blue  = color.NRGBA{0x25, 0x63, 0xeb, 0xff}
)

func whiteDescriptor(w, h int) *Descriptor {
	return NewDescriptor(createInMemoryImage(w, h, color.White))
}

func box(label string, conf, x, y, w, h float64) detection.Detection {
	return detection.Detection{
		Label:      label,
		Confidence: conf,
		Box:        detection.BoundingBox{X: x, Y: y, Width: w, Height: h},
	}
}

func TestLabelText(t *testing.T) {
	assert.Equal(t, "cat (95.00%)", LabelText(box("cat", 0.95, 0, 0, 1, 1)))
	assert.Equal(t, "person (50.00%)", LabelText(box("person", 0.5, 0, 0, 1, 1)))
	assert.Equal(t, "dog (100.00%)", LabelText(box("dog", 1, 0, 0, 1, 1)))
}

func TestRender_BoxTagAndText(t *testing.T) {
	desc := whiteDescriptor(200, 100)

	out := Render(desc, []detection.Detection{box("cat", 0.95, 20, 40, 30, 30)}, DefaultStyle())
	require.Equal(t, desc.Image.Bounds(), out.Bounds())

	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"left edge outer", 19, 55, blue},
		{"left edge inner", 21, 55, blue},
		{"inside box", 22, 55, white},
		{"outside left", 18, 55, white},
		{"right edge", 51, 55, blue},
		{"outside right", 52, 55, white},
		{"bottom edge", 35, 71, blue},
		{"below box", 35, 72, white},
		{"tag top left", 20, 10, blue},
		{"above tag", 20, 9, white},
		// "cat (95.00%)" is 12 glyphs of 7px, plus 10px padding.
		{"tag right end", 113, 11, blue},
		{"past tag", 114, 11, white},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, out.NRGBAAt(tt.x, tt.y))
		})
	}

	textPixels := 0
	for y := 19; y < 32; y++ {
		for x := 25; x < 109; x++ {
			if out.NRGBAAt(x, y) == white {
				textPixels++
			}
		}
	}
	assert.Positive(t, textPixels, "label text should be drawn in white over the tag")
}

func TestRender_SourceUntouched(t *testing.T) {
	desc := whiteDescriptor(100, 100)

	Render(desc, []detection.Detection{box("cat", 0.9, 10, 40, 50, 50)}, DefaultStyle())

	r, g, b, a := desc.Image.At(10, 40).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0xffff, 0xffff, 0xffff}, [4]uint32{r, g, b, a})
}

func TestRender_NoDetections(t *testing.T) {
	out := Render(whiteDescriptor(20, 10), nil, DefaultStyle())

	for _, v := range out.Pix {
		if v != 0xff {
			t.Fatal("empty detection list should leave a plain copy")
		}
	}
}

func TestRender_OutOfBoundsBoxes(t *testing.T) {
	desc := whiteDescriptor(50, 50)
	dets := []detection.Detection{
		box("kite", 0.7, -30, -30, 40, 40),
		box("bus", 0.6, 45, 45, 100, 100),
		box("car", 0.5, 500, 500, 10, 10),
	}

	out := Render(desc, dets, DefaultStyle())

	assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
	assert.Equal(t, blue, out.NRGBAAt(9, 5), "right edge of the clipped kite box")
	assert.Equal(t, blue, out.NRGBAAt(45, 48), "left edge of the clipped bus box")
}

func TestRender_LaterDetectionsDrawOnTop(t *testing.T) {
	style := DefaultStyle()
	style.Stroke = color.NRGBA{0xff, 0, 0, 0xff}
	style.Accent = color.NRGBA{0, 0x80, 0, 0xff}

	a := box("cat", 0.9, 20, 40, 30, 30)
	// b's top edge runs through a's tag at y=20.
	b := box("dog", 0.8, 10, 20, 100, 5)

	out := Render(whiteDescriptor(200, 100), []detection.Detection{a, b}, style)
	assert.Equal(t, style.Stroke, out.NRGBAAt(21, 20))

	out = Render(whiteDescriptor(200, 100), []detection.Detection{b, a}, style)
	assert.Equal(t, style.Accent, out.NRGBAAt(21, 20))
}

func TestRender_NonZeroOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 60, 60))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	out := Render(NewDescriptor(src), []detection.Detection{box("cup", 0.9, 5, 30, 10, 10)}, DefaultStyle())

	assert.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
	assert.Equal(t, blue, out.NRGBAAt(5, 35))
}

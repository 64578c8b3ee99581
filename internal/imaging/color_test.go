package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#2563eb", color.NRGBA{0x25, 0x63, 0xeb, 0xff}, false},
		{"2563EB", color.NRGBA{0x25, 0x63, 0xeb, 0xff}, false},
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}, false},
		{"#FF000080", color.NRGBA{0xff, 0, 0, 0x80}, false},
		{" #000000 ", color.NRGBA{0, 0, 0, 0xff}, false},
		{"", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
		{"#112233zz", color.NRGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatColor(t *testing.T) {
	assert.Equal(t, "#2563eb", FormatColor(color.NRGBA{0x25, 0x63, 0xeb, 0xff}))
	assert.Equal(t, "#ff000080", FormatColor(color.NRGBA{0xff, 0, 0, 0x80}))
	assert.Equal(t, "#00000000", FormatColor(color.NRGBA{}))
}

func TestFormatColor_RoundTrip(t *testing.T) {
	for _, hex := range []string{"#2563eb", "#ffffff", "#0a0b0c7f"} {
		c, err := ParseColor(hex)
		require.NoError(t, err)
		assert.Equal(t, hex, FormatColor(c))
	}
}

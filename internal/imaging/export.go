package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/pkg/errors"
)

// Format selects the encoding of an output image.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// jpegQuality is used for JPEG output.
const jpegQuality = 90

// MimeType returns the media type for f.
func (f Format) MimeType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (f Format) encoder() (imgio.Encoder, error) {
	switch f {
	case PNG, "":
		return imgio.PNGEncoder(), nil
	case JPEG:
		return imgio.JPEGEncoder(jpegQuality), nil
	default:
		return nil, errors.Errorf("unsupported output format %q", string(f))
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	enc, err := f.encoder()
	if err != nil {
		return err
	}
	if err := enc(w, img); err != nil {
		return errors.Wrap(err, "failed to encode image")
	}
	return nil
}

// EncodedImage is an image ready to hand to a display surface.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// DataURL returns the image as a "data:<mime>;base64," URL.
func (e *EncodedImage) DataURL() string {
	return "data:" + e.MimeType + ";base64," + e.ImageBase64
}

// EncodeBase64 encodes img as base64 in the given format.
func EncodeBase64(img image.Image, f Format) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    f.MimeType(),
	}, nil
}

// ExportFilename is the download name for an annotated image exported at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("object-detection-%d.png", t.UnixMilli())
}

// Export writes img as PNG into dir, named after t. It returns the written path.
func Export(dir string, img image.Image, t time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create export directory")
	}

	path := filepath.Join(dir, ExportFilename(t))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create export file")
	}

	if err := Encode(f, img, PNG); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "failed to write export file")
	}
	return path, nil
}

package provider

import (
	"bytes"
	"context"
	"strings"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
)

// defaultLanguage is the Tesseract language used when none is configured.
const defaultLanguage = "eng"

// word is one OCR hit in image pixel coordinates. Confidence is in [0, 1].
type word struct {
	Text       string
	Confidence float64
	X1, Y1     int
	X2, Y2     int
}

// TextDetector treats every word Tesseract recognizes as a detected object
// labelled with the lower-cased word. It is available only in cgo builds on
// Linux; elsewhere it reports ErrModelUnavailable.
type TextDetector struct {
	language       string
	tessdataPrefix string
	minConfidence  float64
}

// NewTextDetector creates a Tesseract-backed detector.
func NewTextDetector(cfg Config) *TextDetector {
	lang := cfg.Language
	if lang == "" {
		lang = defaultLanguage
	}
	return &TextDetector{
		language:       lang,
		tessdataPrefix: cfg.TessdataPrefix,
		minConfidence:  cfg.MinConfidence,
	}
}

func (d *TextDetector) Name() string { return KindText }

func (d *TextDetector) Ready(context.Context) error {
	return tesseractReady()
}

// Detect runs word-level OCR over the image.
//
// Tesseract cannot be interrupted, so ctx is only checked before and after
// recognition.
func (d *TextDetector) Detect(ctx context.Context, desc *imaging.Descriptor) ([]detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, desc.Image, imaging.PNG); err != nil {
		return nil, err
	}

	words, err := recognizeWords(buf.Bytes(), d.language, d.tessdataPrefix)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return finalize(KindText, wordDetections(words), d.minConfidence)
}

func wordDetections(words []word) []detection.Detection {
	dets := make([]detection.Detection, 0, len(words))
	for _, w := range words {
		label := strings.ToLower(strings.TrimSpace(w.Text))
		if label == "" {
			continue
		}
		dets = append(dets, detection.Detection{
			Label:      label,
			Confidence: w.Confidence,
			Box: detection.BoundingBox{
				X:      float64(w.X1),
				Y:      float64(w.Y1),
				Width:  float64(w.X2 - w.X1),
				Height: float64(w.Y2 - w.Y1),
			},
		})
	}
	return dets
}

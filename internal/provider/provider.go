// Package provider adapts detection models to the Detector interface used by
// the analysis session.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
)

// Detector runs object detection on one image.
//
// Detect blocks until the model answers or ctx is done. Implementations
// return ErrModelUnavailable when the model cannot be reached or is not
// loaded, and a *DetectionFailureError when the model ran but failed.
// The returned slice is owned by the caller.
type Detector interface {
	Detect(ctx context.Context, desc *imaging.Descriptor) ([]detection.Detection, error)

	// Ready reports whether the model can currently serve requests.
	Ready(ctx context.Context) error

	// Name identifies the provider in logs and reports.
	Name() string
}

// ErrModelUnavailable is returned when the detection model is not ready.
var ErrModelUnavailable = errors.New("detection model is not available")

// DetectionFailureError reports a fault raised by a detection provider.
// No partial results accompany it.
type DetectionFailureError struct {
	Provider string
	Err      error
}

func (e *DetectionFailureError) Error() string {
	return fmt.Sprintf("%s detection failed: %v", e.Provider, e.Err)
}

func (e *DetectionFailureError) Unwrap() error {
	return e.Err
}

func failure(provider string, err error) error {
	return &DetectionFailureError{Provider: provider, Err: err}
}

// Kinds of provider selectable by configuration.
const (
	KindHTTP   = "http"
	KindText   = "ocr"
	KindStatic = "static"
)

// Config selects and tunes a provider.
type Config struct {
	// Kind is one of KindHTTP, KindText or KindStatic.
	Kind string

	// InferenceURL is the endpoint of the remote model (KindHTTP).
	InferenceURL string

	// HealthURL overrides the readiness endpoint (KindHTTP). Defaults to
	// /health on the inference host.
	HealthURL string

	// Fixture is the YAML file replayed by KindStatic.
	Fixture string

	// Language and TessdataPrefix configure Tesseract (KindText).
	Language       string
	TessdataPrefix string

	// MaxDimension caps the longest side of images sent to a remote model.
	// Zero disables downscaling.
	MaxDimension int

	// MinConfidence drops detections scoring below it. Zero keeps all.
	MinConfidence float64

	// Timeout bounds a single detection call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// New builds the provider named by cfg.Kind.
func New(cfg Config, log logrus.FieldLogger) (Detector, error) {
	switch cfg.Kind {
	case KindHTTP, "":
		if cfg.InferenceURL == "" {
			return nil, errors.New("http provider requires an inference URL")
		}
		return NewHTTPDetector(cfg, log), nil
	case KindText:
		return NewTextDetector(cfg), nil
	case KindStatic:
		if cfg.Fixture == "" {
			return nil, errors.New("static provider requires a fixture file")
		}
		return LoadStaticDetector(cfg.Fixture, cfg.MinConfidence)
	default:
		return nil, errors.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

// finalize validates provider output and applies the confidence floor.
// One malformed detection fails the whole call.
func finalize(provider string, dets []detection.Detection, minConfidence float64) ([]detection.Detection, error) {
	out := make([]detection.Detection, 0, len(dets))
	for _, d := range dets {
		if err := d.Validate(); err != nil {
			return nil, failure(provider, err)
		}
		if d.Confidence < minConfidence {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

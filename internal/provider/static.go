package provider

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
)

// Fixture is a recorded detection result replayed by StaticDetector.
//
//	delay: 150ms
//	detections:
//	  - label: cat
//	    confidence: 0.95
//	    bbox: [10, 10, 50, 50]
type Fixture struct {
	Delay       time.Duration      `yaml:"delay"`
	Unavailable bool               `yaml:"unavailable"`
	Failure     string             `yaml:"failure"`
	Detections  []FixtureDetection `yaml:"detections"`
}

// FixtureDetection is one detection in a fixture file.
type FixtureDetection struct {
	Label      string     `yaml:"label"`
	Confidence float64    `yaml:"confidence"`
	BBox       [4]float64 `yaml:"bbox"`
}

// StaticDetector returns the same detections for every image. It backs demos
// and tests where no model is available.
type StaticDetector struct {
	fixture       Fixture
	minConfidence float64
}

// NewStaticDetector replays fixture.
func NewStaticDetector(fixture Fixture, minConfidence float64) *StaticDetector {
	return &StaticDetector{fixture: fixture, minConfidence: minConfidence}
}

// LoadStaticDetector reads a YAML fixture from path.
func LoadStaticDetector(path string, minConfidence float64) (*StaticDetector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixture")
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse fixture %s", path)
	}
	return NewStaticDetector(f, minConfidence), nil
}

func (d *StaticDetector) Name() string { return KindStatic }

func (d *StaticDetector) Ready(context.Context) error {
	if d.fixture.Unavailable {
		return ErrModelUnavailable
	}
	return nil
}

// Detect waits for the fixture delay, then returns a fresh copy of its
// detections.
func (d *StaticDetector) Detect(ctx context.Context, _ *imaging.Descriptor) ([]detection.Detection, error) {
	if d.fixture.Unavailable {
		return nil, ErrModelUnavailable
	}

	if d.fixture.Delay > 0 {
		timer := time.NewTimer(d.fixture.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if d.fixture.Failure != "" {
		return nil, failure(KindStatic, errors.New(d.fixture.Failure))
	}

	dets := make([]detection.Detection, 0, len(d.fixture.Detections))
	for _, fd := range d.fixture.Detections {
		dets = append(dets, detection.Detection{
			Label:      fd.Label,
			Confidence: fd.Confidence,
			Box:        detection.BoundingBox{X: fd.BBox[0], Y: fd.BBox[1], Width: fd.BBox[2], Height: fd.BBox[3]},
		})
	}
	return finalize(KindStatic, dets, d.minConfidence)
}

// Package session owns the current image and analysis result of one user and
// serializes analyses over them.
//
// Only the most recently started analysis may become current. Starting a new
// analysis, or resetting, cancels the detection still in flight; its caller
// receives ErrSuperseded once the provider returns.
package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
	"github.com/akshita317/object-detection/internal/provider"
)

var (
	// ErrSuperseded is returned by an analysis that was replaced by a newer
	// one, or cancelled by Reset, before it completed.
	ErrSuperseded = errors.New("analysis superseded by a newer request")

	// ErrNoAnalysis is returned when an operation needs a current result and
	// there is none.
	ErrNoAnalysis = errors.New("no analysis available")

	// ErrDetectionIndex is returned for a detection index outside the
	// current result.
	ErrDetectionIndex = errors.New("detection index out of range")
)

// Analysis is one completed detection run.
type Analysis struct {
	ID             string
	Provider       string
	Image          *imaging.Descriptor
	Summary        detection.Summary
	Metadata       imaging.Metadata
	Annotated      *image.NRGBA
	ProcessingTime time.Duration
	CompletedAt    time.Time
}

// Config tunes a Session.
type Config struct {
	// Style is used to draw the annotated image.
	Style imaging.Style

	// DetectTimeout bounds each provider call. Zero means no limit.
	DetectTimeout time.Duration

	// OnComplete, if set, is called with every analysis that becomes current
	// and is still current when its turn to publish comes. It runs on the
	// analyzing goroutine after the session lock is released.
	OnComplete func(*Analysis)

	// OnReset, if set, is called after Reset clears the current analysis.
	OnReset func()
}

// Session is safe for concurrent use.
type Session struct {
	detector provider.Detector
	cfg      Config
	log      logrus.FieldLogger
	now      func() time.Time

	// publishMu orders OnComplete and OnReset calls. It is taken after mu
	// is released, never while holding it.
	publishMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	current    *Analysis
}

// New creates a session that detects with d.
func New(d provider.Detector, cfg Config, log logrus.FieldLogger) *Session {
	return &Session{
		detector: d,
		cfg:      cfg,
		log:      log.WithField("provider", d.Name()),
		now:      time.Now,
	}
}

// Analyze runs detection on desc and, if no newer analysis started
// meanwhile, makes the result current.
//
// The image is validated before the provider is called. On any error the
// previous current result is left untouched.
func (s *Session) Analyze(ctx context.Context, desc *imaging.Descriptor) (*Analysis, error) {
	meta, err := imaging.Summarize(desc)
	if err != nil {
		s.log.WithError(err).Warn("Rejected image")
		return nil, err
	}

	gen, dctx, cancel := s.begin(ctx)
	defer cancel()

	start := s.now()
	dets, err := s.detector.Detect(dctx, desc)
	elapsed := s.now().Sub(start)

	if err != nil {
		if s.superseded(gen) {
			s.log.WithField("duration", elapsed).Debug("Discarded failed analysis superseded by a newer request")
			return nil, ErrSuperseded
		}
		s.finish(gen)
		err = s.classify(ctx, err)
		s.log.WithError(err).WithField("duration", elapsed).Error("Detection failed")
		return nil, err
	}

	a := &Analysis{
		ID:             uuid.NewString(),
		Provider:       s.detector.Name(),
		Image:          desc,
		Summary:        detection.Aggregate(dets),
		Metadata:       meta,
		Annotated:      imaging.Render(desc, dets, s.cfg.Style),
		ProcessingTime: elapsed,
		CompletedAt:    s.now(),
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.WithField("analysis", a.ID).Debug("Discarded analysis superseded by a newer request")
		return nil, ErrSuperseded
	}
	s.current = a
	s.cancel = nil
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"analysis":   a.ID,
		"detections": a.Summary.Stats.Total,
		"duration":   elapsed,
	}).Info("Analysis complete")

	s.publish(a)
	return a, nil
}

// publish hands a to OnComplete unless a newer analysis or a reset has
// replaced it in the meantime. Callbacks never run out of order.
func (s *Session) publish(a *Analysis) {
	if s.cfg.OnComplete == nil {
		return
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if !s.isCurrent(a) {
		s.log.WithField("analysis", a.ID).Debug("Skipped publishing superseded analysis")
		return
	}
	s.cfg.OnComplete(a)
}

// begin registers a new analysis generation and cancels the previous one.
func (s *Session) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc) {
	var dctx context.Context
	var cancel context.CancelFunc
	if s.cfg.DetectTimeout > 0 {
		dctx, cancel = context.WithTimeout(ctx, s.cfg.DetectTimeout)
	} else {
		dctx, cancel = context.WithCancel(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel
	return s.generation, dctx, cancel
}

func (s *Session) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

func (s *Session) isCurrent(a *Analysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == a
}

func (s *Session) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.cancel = nil
	}
}

// classify turns a detection timeout into a provider failure; a cancelled
// caller context is passed through.
func (s *Session) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &provider.DetectionFailureError{
			Provider: s.detector.Name(),
			Err:      errors.Errorf("no answer within %s", s.cfg.DetectTimeout),
		}
	}
	return errors.Wrap(err, "detect objects")
}

// Current returns the current analysis.
func (s *Session) Current() (*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoAnalysis
	}
	return s.current, nil
}

// Reset clears the current result and cancels any analysis in flight.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	s.current = nil
	s.mu.Unlock()

	s.log.Info("Analysis reset")

	if s.cfg.OnReset != nil {
		s.publishMu.Lock()
		s.cfg.OnReset()
		s.publishMu.Unlock()
	}
}

// Export writes the current annotated image into dir and returns its path.
func (s *Session) Export(dir string) (string, error) {
	a, err := s.Current()
	if err != nil {
		return "", err
	}

	path, err := imaging.Export(dir, a.Annotated, s.now())
	if err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"analysis": a.ID, "path": path}).Info("Exported annotated image")
	return path, nil
}

// ExportName is the download file name for an export made now.
func (s *Session) ExportName() string {
	return imaging.ExportFilename(s.now())
}

// Crop cuts detection index of the current analysis out of the original
// image.
func (s *Session) Crop(index int, scale float64) (*image.NRGBA, detection.Detection, error) {
	a, err := s.Current()
	if err != nil {
		return nil, detection.Detection{}, err
	}

	dets := a.Summary.Detections
	if index < 0 || index >= len(dets) {
		return nil, detection.Detection{}, errors.Wrapf(ErrDetectionIndex, "index %d, have %d detections", index, len(dets))
	}

	img, err := imaging.CropDetection(a.Image, dets[index], scale)
	if err != nil {
		return nil, detection.Detection{}, err
	}
	return img, dets[index], nil
}

// Ready reports whether the detection provider can serve requests.
func (s *Session) Ready(ctx context.Context) error {
	return s.detector.Ready(ctx)
}

// ProviderName names the detection provider.
func (s *Session) ProviderName() string {
	return s.detector.Name()
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
)

// maxResponseBytes caps the inference response body.
const maxResponseBytes = 8 << 20

// HTTPDetector sends images to a remote inference service as a multipart
// upload and reads back a detection list.
//
// The service answers either {"detections": [...]} or a bare array. Each
// entry carries a label ("label" or "class"), a score ("confidence" or
// "score") and a "bbox" in the pixel space of the uploaded image.
type HTTPDetector struct {
	url           string
	healthURL     string
	maxDimension  int
	minConfidence float64
	client        *http.Client
	log           logrus.FieldLogger
}

// NewHTTPDetector creates a detector for cfg.InferenceURL.
func NewHTTPDetector(cfg Config, log logrus.FieldLogger) *HTTPDetector {
	health := cfg.HealthURL
	if health == "" {
		health = defaultHealthURL(cfg.InferenceURL)
	}
	return &HTTPDetector{
		url:           cfg.InferenceURL,
		healthURL:     health,
		maxDimension:  cfg.MaxDimension,
		minConfidence: cfg.MinConfidence,
		client:        &http.Client{Timeout: cfg.Timeout},
		log:           log.WithField("provider", KindHTTP),
	}
}

func defaultHealthURL(inference string) string {
	u, err := url.Parse(inference)
	if err != nil || u.Host == "" {
		return inference
	}
	u.Path = "/health"
	u.RawQuery = ""
	return u.String()
}

func (d *HTTPDetector) Name() string { return KindHTTP }

// Ready checks the service health endpoint.
func (d *HTTPDetector) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.healthURL, nil)
	if err != nil {
		return errors.Wrap(ErrModelUnavailable, err.Error())
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrModelUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(ErrModelUnavailable, "health check returned %d", resp.StatusCode)
	}
	return nil
}

// Detect uploads the image, downscaled to maxDimension if needed, and maps
// the returned boxes back to the original image size.
func (d *HTTPDetector) Detect(ctx context.Context, desc *imaging.Descriptor) ([]detection.Detection, error) {
	img := desc.Image
	scaleX, scaleY := 1.0, 1.0
	if d.maxDimension > 0 && (desc.Width > d.maxDimension || desc.Height > d.maxDimension) {
		img = resize.Thumbnail(uint(d.maxDimension), uint(d.maxDimension), img, resize.Lanczos3)
		b := img.Bounds()
		scaleX = float64(desc.Width) / float64(b.Dx())
		scaleY = float64(desc.Height) / float64(b.Dy())
		d.log.WithFields(logrus.Fields{
			"from": [2]int{desc.Width, desc.Height},
			"to":   [2]int{b.Dx(), b.Dy()},
		}).Debug("Downscaled image for inference")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if err := imaging.Encode(part, img, imaging.JPEG); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrModelUnavailable, err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, errors.Wrap(ErrModelUnavailable, "inference service is loading")
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, failure(KindHTTP, errors.Errorf("inference returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, failure(KindHTTP, errors.Wrap(err, "read response"))
	}
	wire, err := decodeDetections(raw)
	if err != nil {
		return nil, failure(KindHTTP, err)
	}

	dets := make([]detection.Detection, 0, len(wire))
	for i, w := range wire {
		det, err := w.detection()
		if err != nil {
			return nil, failure(KindHTTP, errors.Wrapf(err, "detection %d", i))
		}
		det.Box.X *= scaleX
		det.Box.Width *= scaleX
		det.Box.Y *= scaleY
		det.Box.Height *= scaleY
		dets = append(dets, det)
	}
	return finalize(KindHTTP, dets, d.minConfidence)
}

// wireDetection accepts the field spellings of common detection services.
type wireDetection struct {
	Label      string                 `json:"label"`
	Class      string                 `json:"class"`
	Confidence *float64               `json:"confidence"`
	Score      *float64               `json:"score"`
	Box        *detection.BoundingBox `json:"bbox"`
}

func (w wireDetection) detection() (detection.Detection, error) {
	if w.Box == nil {
		return detection.Detection{}, errors.New("missing bbox")
	}
	d := detection.Detection{Label: w.Label, Box: *w.Box}
	if d.Label == "" {
		d.Label = w.Class
	}
	switch {
	case w.Confidence != nil:
		d.Confidence = *w.Confidence
	case w.Score != nil:
		d.Confidence = *w.Score
	default:
		return detection.Detection{}, errors.Errorf("%q has no confidence or score", d.Label)
	}
	return d, nil
}

func decodeDetections(raw []byte) ([]wireDetection, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []wireDetection
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, errors.Wrap(err, "decode response")
		}
		return list, nil
	}

	var result struct {
		Detections []wireDetection `json:"detections"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return result.Detections, nil
}

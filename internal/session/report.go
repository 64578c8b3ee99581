package session

import (
	"time"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
)

// Report is the display form of an analysis shared by the MCP and HTTP
// surfaces.
type Report struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	CompletedAt time.Time `json:"completed_at"`

	Detections []detection.Detection `json:"detections"`
	Stats      detection.Stats       `json:"stats"`
	Metadata   imaging.Metadata      `json:"metadata"`

	Objects    []detection.Row           `json:"objects"`
	Statistics []detection.Row           `json:"statistics"`
	Confidence []detection.ConfidenceRow `json:"confidence"`
	ImageInfo  []detection.Row           `json:"image_info"`

	// ObjectsMessage and ConfidenceMessage hold the placeholder text shown
	// instead of an empty list.
	ObjectsMessage    string `json:"objects_message,omitempty"`
	ConfidenceMessage string `json:"confidence_message,omitempty"`

	// Image is the annotated raster, present when requested.
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

// Report builds the display rows for a. With includeImage the annotated
// image is attached as base64 PNG.
func (a *Analysis) Report(includeImage bool) (*Report, error) {
	s := a.Summary
	r := &Report{
		ID:          a.ID,
		Provider:    a.Provider,
		CompletedAt: a.CompletedAt,
		Detections:  s.Detections,
		Stats:       s.Stats,
		Metadata:    a.Metadata,
		Objects:     detection.ObjectRows(s),
		Statistics:  detection.StatisticRows(s, a.Metadata.Width, a.Metadata.Height),
		Confidence:  detection.ConfidenceRows(s),
		ImageInfo:   a.Metadata.Rows(a.ProcessingTime),
	}
	if r.Detections == nil {
		r.Detections = []detection.Detection{}
	}
	if len(r.Objects) == 0 {
		r.ObjectsMessage = detection.NoObjectsMessage
	}
	if len(r.Confidence) == 0 {
		r.ConfidenceMessage = detection.NoPredictionsMessage
	}

	if includeImage {
		img, err := imaging.EncodeBase64(a.Annotated, imaging.PNG)
		if err != nil {
			return nil, err
		}
		r.Image = img
	}
	return r, nil
}

package session

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita317/object-detection/internal/detection"
)

func TestReport(t *testing.T) {
	s := newTestSession(returning(scenario(), nil), Config{})
	a, err := s.Analyze(context.Background(), testImage())
	require.NoError(t, err)

	r, err := a.Report(false)
	require.NoError(t, err)

	assert.Equal(t, a.ID, r.ID)
	assert.Equal(t, []detection.Row{
		{Label: "cat", Value: "2 detected"},
		{Label: "dog", Value: "1 detected"},
	}, r.Objects)
	assert.Equal(t, "76.67%", r.Statistics[1].Value)
	assert.Equal(t, "160x120px", r.Statistics[3].Value)
	require.Len(t, r.Confidence, 3)
	assert.Equal(t, "95.0%", r.Confidence[0].Value)
	assert.Equal(t, "Aspect Ratio", r.ImageInfo[2].Label)
	assert.Empty(t, r.ObjectsMessage)
	assert.Empty(t, r.ConfidenceMessage)
	assert.Nil(t, r.Image)
}

func TestReport_Empty(t *testing.T) {
	s := newTestSession(returning(nil, nil), Config{})
	a, err := s.Analyze(context.Background(), testImage())
	require.NoError(t, err)

	r, err := a.Report(true)
	require.NoError(t, err)

	assert.Equal(t, detection.NoObjectsMessage, r.ObjectsMessage)
	assert.Equal(t, detection.NoPredictionsMessage, r.ConfidenceMessage)
	assert.Equal(t, "0%", r.Statistics[1].Value)
	require.NotNil(t, r.Image)
	assert.Equal(t, "image/png", r.Image.MimeType)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"detections":[]`))
}

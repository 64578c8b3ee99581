package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita317/object-detection/internal/imaging"
	"github.com/akshita317/object-detection/internal/provider"
	"github.com/akshita317/object-detection/internal/session"
)

func catDog() provider.Fixture {
	return provider.Fixture{Detections: []provider.FixtureDetection{
		{Label: "cat", Confidence: 0.95, BBox: [4]float64{10, 10, 50, 50}},
		{Label: "dog", Confidence: 0.95, BBox: [4]float64{70, 70, 40, 40}},
		{Label: "cat", Confidence: 0.4, BBox: [4]float64{0, 0, 20, 20}},
	}}
}

func newTestServer(t *testing.T, fixture provider.Fixture) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	sess := session.New(provider.NewStaticDetector(fixture, 0), session.Config{Style: imaging.DefaultStyle()}, log)
	return New(sess, Options{ExportDir: t.TempDir(), Version: "test"}, log)
}

func TestNew(t *testing.T) {
	s := newTestServer(t, catDog())
	require.NotNil(t, s)
	assert.NotNil(t, s.cache)
	assert.Equal(t, "test", s.version)
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
			if req.JSONRPC != "2.0" {
				t.Errorf("JSONRPC: got %s, want 2.0", req.JSONRPC)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t, catDog())

	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "object-detect", info["name"])
	assert.Equal(t, "test", info["version"])
}

func TestHandleRequest_Routing(t *testing.T) {
	s := newTestServer(t, catDog())
	ctx := context.Background()

	assert.Nil(t, s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"}))

	ping := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 2, Method: "ping"})
	require.NotNil(t, ping)
	assert.Nil(t, ping.Error)
	assert.Equal(t, 2, ping.ID)

	unknown := s.handleRequest(ctx, &MCPRequest{JSONRPC: "2.0", ID: 3, Method: "unknown/method"})
	require.NotNil(t, unknown.Error)
	assert.Equal(t, -32601, unknown.Error.Code)
	assert.Contains(t, unknown.Error.Message, "unknown/method")
}

func TestServe(t *testing.T) {
	s := newTestServer(t, catDog())

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	}, "\n")
	var out strings.Builder

	require.NoError(t, s.Serve(context.Background(), strings.NewReader(in), &out))

	var responses []MCPResponse
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp MCPResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}

	require.Len(t, responses, 3)
	assert.Equal(t, float64(1), responses[0].ID)
	assert.Nil(t, responses[1].ID)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, -32700, responses[1].Error.Code)
	assert.Equal(t, float64(2), responses[2].ID)
}

func TestServe_CancelledContext(t *testing.T) {
	s := newTestServer(t, catDog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

func TestMCPResponse_WithError(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32601,
			Message: "Method not found",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response should omit result: %s", data)
	}
	if !strings.Contains(string(data), `"code":-32601`) {
		t.Errorf("error code missing: %s", data)
	}
}

func TestServe_ReturnsOnCancelWhileReading(t *testing.T) {
	s := newTestServer(t, catDog())

	// A reader that never produces a line, like an idle stdin.
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(ctx, pr, io.Discard)
	}()

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestServe_ReaderError(t *testing.T) {
	s := newTestServer(t, catDog())

	pr, pw := io.Pipe()
	pw.CloseWithError(errors.New("stdin broken"))

	err := s.Serve(context.Background(), pr, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "stdin broken") {
		t.Errorf("Serve error: got %v, want the reader's error", err)
	}
}

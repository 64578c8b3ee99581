// Package web serves a detection session over HTTP and pushes each completed
// analysis to websocket viewers.
package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/akshita317/object-detection/internal/detection"
	"github.com/akshita317/object-detection/internal/imaging"
	"github.com/akshita317/object-detection/internal/provider"
	"github.com/akshita317/object-detection/internal/session"
)

// Handler holds the HTTP endpoints.
type Handler struct {
	session   *session.Session
	hub       *Hub
	maxUpload int64
	log       logrus.FieldLogger
}

// NewHandler creates the endpoints for sess. Uploads larger than maxUpload
// bytes are refused.
func NewHandler(sess *session.Session, hub *Hub, maxUpload int64, log logrus.FieldLogger) *Handler {
	return &Handler{
		session:   sess,
		hub:       hub,
		maxUpload: maxUpload,
		log:       log.WithField("surface", "http"),
	}
}

// Routes returns the router with CORS applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", h.Analyze)
	mux.HandleFunc("GET /api/result", h.Result)
	mux.HandleFunc("GET /api/result/image", h.ResultImage)
	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/reset", h.Reset)
	mux.HandleFunc("GET /api/categories", h.Categories)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ws", h.hub.ServeWS)
	return corsMiddleware(mux)
}

type analyzeRequest struct {
	// Image is a data URL or bare base64, e.g. a camera capture.
	Image string `json:"image"`
}

// Analyze handles POST /api/analyze. The image comes either as the
// multipart field "file" or as JSON {"image": "data:image/...;base64,..."}.
// The annotated image is included unless include_image=false.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	desc, err := h.readImage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Image exceeds the upload limit", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	a, err := h.session.Analyze(r.Context(), desc)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondReport(w, r, a, true)
}

func (h *Handler) readImage(r *http.Request) (*imaging.Descriptor, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return nil, errors.Wrap(err, "failed to parse form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.Wrap(err, "no file uploaded")
		}
		defer file.Close()
		return imaging.Decode(file)
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.Wrap(err, "invalid request body")
	}
	if req.Image == "" {
		return nil, errors.New("image is required")
	}
	return imaging.DecodeBase64(req.Image)
}

// Result handles GET /api/result.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	a, err := h.session.Current()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondReport(w, r, a, false)
}

// ResultImage handles GET /api/result/image, the annotated image as PNG.
func (h *Handler) ResultImage(w http.ResponseWriter, r *http.Request) {
	h.writeAnnotated(w, "")
}

// Export handles GET /api/export, the annotated image as a PNG download.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	h.writeAnnotated(w, h.session.ExportName())
}

func (h *Handler) writeAnnotated(w http.ResponseWriter, filename string) {
	a, err := h.session.Current()
	if err != nil {
		h.fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, a.Annotated, imaging.PNG); err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", imaging.PNG.MimeType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		h.log.WithFields(logrus.Fields{"analysis": a.ID, "file": filename}).Info("Exported annotated image")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Reset handles POST /api/reset. Viewers hear about it through the
// session's OnReset hook.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	respondJSON(w, map[string]string{"status": "reset"}, http.StatusOK)
}

// Categories handles GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories := detection.Categories()
	respondJSON(w, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	}, http.StatusOK)
}

// Health handles GET /health. It fails while the provider is not ready.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"provider": h.session.ProviderName(),
		"viewers":  h.hub.ClientCount(),
	}
	if err := h.session.Ready(r.Context()); err != nil {
		body["status"] = "unavailable"
		body["error"] = err.Error()
		respondJSON(w, body, http.StatusServiceUnavailable)
		return
	}
	body["status"] = "ok"
	respondJSON(w, body, http.StatusOK)
}

func (h *Handler) respondReport(w http.ResponseWriter, r *http.Request, a *session.Analysis, defaultImage bool) {
	include := defaultImage
	if v := r.URL.Query().Get("include_image"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			include = b
		}
	}

	report, err := a.Report(include)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, report, http.StatusOK)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("status", status).Error("Request failed")
	}
	respondError(w, err.Error(), status)
}

// statusFor maps an analysis error to its HTTP status.
func statusFor(err error) int {
	var failure *provider.DetectionFailureError
	var invalid *imaging.InvalidImageError
	switch {
	case errors.Is(err, provider.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &failure):
		return http.StatusBadGateway
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoAnalysis):
		return http.StatusNotFound
	case errors.Is(err, session.ErrDetectionIndex):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

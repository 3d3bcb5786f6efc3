package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/modelgraph/pkg/buildinfo"
	"github.com/matzehuels/modelgraph/pkg/diagram"
	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/layout"
	"github.com/matzehuels/modelgraph/pkg/model"
	"github.com/matzehuels/modelgraph/pkg/pipeline"
)

// =============================================================================
// Request and response bodies
// =============================================================================

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	Models             []model.SemanticModel `json:"models"`
	Visual             *model.VisualModel    `json:"visual,omitempty"`
	Config             *layout.Config        `json:"config,omitempty"`
	CreateNewGraph     bool                  `json:"create_new_graph,omitempty"`
	Group              bool                  `json:"group,omitempty"`
	GeneralizationOnly bool                  `json:"generalization_only,omitempty"`
}

// LayoutResponse is the body answered by POST /v1/layout.
type LayoutResponse struct {
	Entities map[string]model.VisualEntity `json:"entities"`
	Metrics  map[string]float64            `json:"metrics"`
	Stats    pipeline.Stats                `json:"stats"`
	Dangling []diagram.DanglingReference   `json:"dangling,omitempty"`
	Cached   bool                          `json:"cached"`
}

// MetricsRequest is the body of POST /v1/metrics.
type MetricsRequest struct {
	Models []model.SemanticModel `json:"models"`
	Visual *model.VisualModel    `json:"visual"`
}

// MetricsResponse is the body answered by POST /v1/metrics.
type MetricsResponse struct {
	Metrics map[string]float64 `json:"metrics"`
	Cached  bool               `json:"cached"`
}

// HealthResponse is the body answered by GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), pipeline.Options{
		Models:             req.Models,
		Visual:             req.Visual,
		Config:             req.Config,
		CreateNewGraph:     req.CreateNewGraph,
		Group:              req.Group,
		GeneralizationOnly: req.GeneralizationOnly,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutResponse{
		Entities: res.Visual.Entities,
		Metrics:  res.Metrics.Map(),
		Stats:    res.Stats,
		Dangling: res.Dangling,
		Cached:   res.CacheInfo.LayoutHit,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Visual == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "visual model is required"))
		return
	}

	res, err := s.runner.Evaluate(r.Context(), pipeline.Options{
		Models: req.Models,
		Visual: req.Visual,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MetricsResponse{
		Metrics: res.Metrics.Map(),
		Cached:  res.CacheInfo.MetricsHit,
	})
}

// =============================================================================
// Encoding
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "code", code, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusOf maps an error code to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.IsInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrCodeTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, errors.ErrCodeLayoutFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

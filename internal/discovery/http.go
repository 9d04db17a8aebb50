package discovery

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/jatinkaushik/devprep/pkg/http/errors"
)

// metaStore lists the filter vocabulary for browse UIs.
type metaStore interface {
	ListAllTopics(ctx context.Context) ([]string, error)
	ListAllTimePeriods(ctx context.Context) ([]string, error)
}

// ViewerFunc resolves the optional authenticated viewer from a request. The
// discovery layer never parses credentials itself.
type ViewerFunc func(r *http.Request) *uuid.UUID

// HTTPHandler exposes the question browsing endpoints.
type HTTPHandler struct {
	svc    *Service
	meta   metaStore
	viewer ViewerFunc
	logger zerolog.Logger
}

// NewHTTPHandler constructs the discovery HTTP handler.
func NewHTTPHandler(svc *Service, meta metaStore, viewer ViewerFunc, logger zerolog.Logger) *HTTPHandler {
	if viewer == nil {
		viewer = func(*http.Request) *uuid.UUID { return nil }
	}
	return &HTTPHandler{
		svc:    svc,
		meta:   meta,
		viewer: viewer,
		logger: logger.With().Str("component", "discovery_http").Logger(),
	}
}

type listResponse struct {
	Page
	Stats FilterStats `json:"stats"`
}

// HandleList serves GET /v1/questions: query params map 1:1 onto the filter
// spec, the viewer comes from the auth middleware when present.
func (h *HTTPHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	spec := ParseFilterSpec(r.URL.Query())

	page, stats, err := h.svc.Discover(r.Context(), spec, h.viewer(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("discover failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeDiscoveryFailed, "question discovery failed")
		return
	}

	writeJSON(w, listResponse{Page: page, Stats: stats})
}

// HandleTopics serves GET /v1/meta/topics.
func (h *HTTPHandler) HandleTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.meta.ListAllTopics(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("topic listing failed")
		httperrors.RespondInternalError(w, "could not list topics")
		return
	}
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, map[string]interface{}{"topics": topics})
}

// HandleTimePeriods serves GET /v1/meta/time-periods.
func (h *HTTPHandler) HandleTimePeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.meta.ListAllTimePeriods(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("time period listing failed")
		httperrors.RespondInternalError(w, "could not list time periods")
		return
	}
	if periods == nil {
		periods = []string{}
	}
	writeJSON(w, map[string]interface{}{"time_periods": periods})
}

// HandleDifficulties serves GET /v1/meta/difficulties.
func (h *HTTPHandler) HandleDifficulties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"difficulties": []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard},
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

package contribution

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jatinkaushik/devprep/internal/auth"
	"github.com/jatinkaushik/devprep/internal/discovery"
	httperrors "github.com/jatinkaushik/devprep/pkg/http/errors"
)

// FavoriteItem is a bookmark projected into the global identity space.
type FavoriteItem struct {
	QuestionID int64            `json:"question_id"`
	Source     discovery.Source `json:"source"`
	CreatedAt  time.Time        `json:"created_at"`
}

// HTTPHandlers exposes the user-contribution endpoints. All mutating routes
// sit behind auth.RequireAuth in the router.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates contribution HTTP handlers.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

type questionPayload struct {
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Topics      []string `json:"topics"`
	Description string   `json:"description"`
	Solution    *string  `json:"solution"`
	Link        *string  `json:"link"`
	Public      bool     `json:"is_public"`
}

func (p questionPayload) input() CreateQuestionInput {
	return CreateQuestionInput{
		Title:       p.Title,
		Difficulty:  p.Difficulty,
		Topics:      p.Topics,
		Description: p.Description,
		Solution:    p.Solution,
		Link:        p.Link,
		Public:      p.Public,
	}
}

type questionResponse struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Difficulty  string   `json:"difficulty"`
	Topics      []string `json:"topics"`
	Description string   `json:"description"`
	Solution    *string  `json:"solution,omitempty"`
	Link        *string  `json:"link,omitempty"`
	Approved    bool     `json:"is_approved"`
	Public      bool     `json:"is_public"`
	CreatedAt   string   `json:"created_at"`
}

func toResponse(q discovery.UserQuestion) questionResponse {
	topics := q.Topics
	if topics == nil {
		topics = []string{}
	}
	return questionResponse{
		ID:          q.ID + discovery.UserIDOffset,
		Title:       q.Title,
		Difficulty:  string(q.Difficulty),
		Topics:      topics,
		Description: q.Description,
		Solution:    q.Solution,
		Link:        q.Link,
		Approved:    q.Approved,
		Public:      q.Public,
		CreatedAt:   q.CreatedAt.Format(time.RFC3339),
	}
}

// CreateQuestion handles POST /v1/user-questions
func (h *HTTPHandlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var payload questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	q, err := h.svc.Create(r.Context(), claims.UserID, payload.input())
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeQuestionCreateFailed)
		return
	}

	h.respondJSON(w, http.StatusCreated, toResponse(q))
}

// GetQuestion handles GET /v1/user-questions/{id}
func (h *HTTPHandlers) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := questionPathID(w, r)
	if !ok {
		return
	}

	q, err := h.svc.Get(r.Context(), id, auth.ViewerFromRequest(r))
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeQuestionNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, toResponse(q))
}

// ListOwnQuestions handles GET /v1/user-questions
func (h *HTTPHandlers) ListOwnQuestions(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	questions, total, err := h.svc.ListOwn(r.Context(), claims.UserID, page, pageSize)
	if err != nil {
		h.logger.Error().Err(err).Msg("list own questions failed")
		httperrors.RespondInternalError(w, "could not list questions")
		return
	}

	items := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		items = append(items, toResponse(q))
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": items,
		"total":     total,
	})
}

// UpdateQuestion handles PUT /v1/user-questions/{id}
func (h *HTTPHandlers) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	id, ok := questionPathID(w, r)
	if !ok {
		return
	}

	var payload questionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	q, err := h.svc.Update(r.Context(), id, claims.UserID, payload.input())
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeQuestionUpdateFailed)
		return
	}

	h.respondJSON(w, http.StatusOK, toResponse(q))
}

// DeleteQuestion handles DELETE /v1/user-questions/{id}
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	id, ok := questionPathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id, claims.UserID); err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeQuestionDeleteFailed)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddAssociation handles POST /v1/user-questions/{id}/companies
func (h *HTTPHandlers) AddAssociation(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	id, ok := questionPathID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Company    string  `json:"company"`
		TimePeriod string  `json:"time_period"`
		Frequency  float64 `json:"frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	err := h.svc.AddCompanyAssociation(r.Context(), id, claims.UserID, AssociationInput{
		Company:    payload.Company,
		TimePeriod: payload.TimePeriod,
		Frequency:  payload.Frequency,
	})
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeAssociationFailed)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RequestApproval handles POST /v1/user-questions/{id}/approval-requests
func (h *HTTPHandlers) RequestApproval(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	id, ok := questionPathID(w, r)
	if !ok {
		return
	}

	created, err := h.svc.RequestPublicApproval(r.Context(), id, claims.UserID)
	if err != nil {
		h.respondServiceError(w, err, httperrors.ErrCodeApprovalRequestFailed)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respondJSON(w, status, map[string]interface{}{
		"question_id": id + discovery.UserIDOffset,
		"created":     created,
	})
}

// AddFavorite handles POST /v1/favorites
func (h *HTTPHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var payload struct {
		QuestionID int64 `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if payload.QuestionID <= 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "question_id required", "question_id")
		return
	}

	created, err := h.svc.AddFavorite(r.Context(), claims.UserID, payload.QuestionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("add favorite failed")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeFavoriteFailed, "could not add favorite")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.respondJSON(w, status, map[string]interface{}{
		"question_id": payload.QuestionID,
		"created":     created,
	})
}

// RemoveFavorite handles DELETE /v1/favorites/{id}
func (h *HTTPHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveFavorite(r.Context(), claims.UserID, id); err != nil {
		h.logger.Error().Err(err).Msg("remove favorite failed")
		httperrors.RespondBadRequest(w, httperrors.ErrCodeFavoriteFailed, "could not remove favorite")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /v1/favorites
func (h *HTTPHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	items, err := h.svc.ListFavorites(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list favorites failed")
		httperrors.RespondInternalError(w, "could not list favorites")
		return
	}
	if items == nil {
		items = []FavoriteItem{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"favorites": items})
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error, fallbackCode string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Question not found")
	case errors.Is(err, ErrForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Not the question owner")
	default:
		h.logger.Error().Err(err).Msg("contribution operation failed")
		httperrors.RespondError(w, http.StatusInternalServerError, fallbackCode, "operation failed")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// pathID parses the {id} path segment as-is.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid question id")
		return 0, false
	}
	return id, true
}

// questionPathID parses the {id} path segment of a user-question route.
// Clients may send either the local identity or the namespaced one.
func questionPathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := questionPathID(w, r)
	if !ok {
		return 0, false
	}
	if id >= discovery.UserIDOffset {
		id -= discovery.UserIDOffset
	}
	return id, true
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/db"
	"github.com/urbanbyte/ouvidoria/internal/review"
)

// SubmitComplaintReview registra avaliação de reclamação resolvida.
func (h *Handler) SubmitComplaintReview(w http.ResponseWriter, r *http.Request) {
	userID, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	complaintID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Rating   int    `json:"rating"`
		Titulo   string `json:"titulo"`
		Feedback string `json:"feedback"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rev, err := h.reviews.SubmitComplaintReview(r.Context(), complaintID, userID, payload.Rating, payload.Titulo, payload.Feedback)
	if err != nil {
		h.handleReviewError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"review": rev})
}

// ListComplaintReviews lista avaliações de uma reclamação.
func (h *Handler) ListComplaintReviews(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadComplaintForViewer(w, r)
	if !ok {
		return
	}

	reviews, err := h.reviews.ListForComplaint(r.Context(), c.ID)
	if err != nil {
		h.handleReviewError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// CreateSystemReview registra avaliação geral do sistema.
func (h *Handler) CreateSystemReview(w http.ResponseWriter, r *http.Request) {
	userID, err := h.subjectUUID(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Rating    int    `json:"rating"`
		Titulo    string `json:"titulo"`
		Conteudo  string `json:"conteudo"`
		Categoria string `json:"categoria"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	rev, err := h.reviews.CreateSystemReview(r.Context(), userID, payload.Rating, payload.Titulo, payload.Conteudo, payload.Categoria)
	if err != nil {
		h.handleReviewError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"review": rev})
}

// ListSystemReviews lista avaliações gerais, mais recentes primeiro.
func (h *Handler) ListSystemReviews(w http.ResponseWriter, r *http.Request) {
	limit, offset := 0, 0
	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			limit = v
		}
	}
	if offsetStr := strings.TrimSpace(r.URL.Query().Get("offset")); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil {
			offset = v
		}
	}

	reviews, err := h.reviews.ListSystem(r.Context(), limit, offset)
	if err != nil {
		h.handleReviewError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *Handler) handleReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "reclamação não encontrada", nil)
	case errors.Is(err, review.ErrInvalidRating):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "nota deve estar entre 1 e 5", nil)
	case errors.Is(err, review.ErrNotResolved):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", "reclamação ainda não resolvida", nil)
	case errors.Is(err, review.ErrNotOwner):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "apenas quem abriu a reclamação pode avaliar", nil)
	case errors.Is(err, review.ErrDuplicate):
		WriteError(w, http.StatusConflict, "CONFLICT", "reclamação já avaliada por este usuário", nil)
	case errors.Is(err, review.ErrEmptyContent):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "conteúdo obrigatório", nil)
	case db.IsUnavailable(err):
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco de dados indisponível", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível registrar avaliação", nil)
	}
}

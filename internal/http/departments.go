package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
	"github.com/urbanbyte/ouvidoria/internal/db"
	"github.com/urbanbyte/ouvidoria/internal/department"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

// ListDepartments lista departamentos; ?ativos=true restringe aos ativos.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("ativos") == "true"

	departments, err := h.departments.List(r.Context(), activeOnly)
	if err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"departments": departments})
}

// GetDepartment devolve detalhes do departamento.
func (h *Handler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	dept, err := h.departments.Get(r.Context(), id)
	if err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"department": dept})
}

// CreateDepartment cria departamento novo.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Codigo          string   `json:"codigo"`
		Nome            string   `json:"nome"`
		Categorias      []string `json:"categorias"`
		ContatoEmail    string   `json:"contato_email"`
		ContatoTelefone string   `json:"contato_telefone"`
		HorarioInicio   string   `json:"horario_inicio"`
		HorarioFim      string   `json:"horario_fim"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	dept, err := h.departments.Create(r.Context(), department.CreateInput{
		Codigo:          payload.Codigo,
		Nome:            payload.Nome,
		Categorias:      payload.Categorias,
		ContatoEmail:    payload.ContatoEmail,
		ContatoTelefone: payload.ContatoTelefone,
		HorarioInicio:   payload.HorarioInicio,
		HorarioFim:      payload.HorarioFim,
	})
	if err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"department": dept})
}

// UpdateDepartment edita campos do departamento.
func (h *Handler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	var payload struct {
		Nome            *string  `json:"nome"`
		Categorias      []string `json:"categorias"`
		ContatoEmail    *string  `json:"contato_email"`
		ContatoTelefone *string  `json:"contato_telefone"`
		HorarioInicio   *string  `json:"horario_inicio"`
		HorarioFim      *string  `json:"horario_fim"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	dept, err := h.departments.Update(r.Context(), department.UpdateInput{
		ID:              id,
		Nome:            payload.Nome,
		Categorias:      payload.Categorias,
		ContatoEmail:    payload.ContatoEmail,
		ContatoTelefone: payload.ContatoTelefone,
		HorarioInicio:   payload.HorarioInicio,
		HorarioFim:      payload.HorarioFim,
	})
	if err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"department": dept})
}

// ActivateDepartment reativa o departamento.
func (h *Handler) ActivateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	if err := h.departments.Activate(r.Context(), id); err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": true})
}

// DeactivateDepartment desativa o departamento, se não houver reclamações abertas.
func (h *Handler) DeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	if err := h.departments.Deactivate(r.Context(), id); err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ativo": false})
}

// SetDepartmentHead define (ou remove) o responsável pelo departamento.
func (h *Handler) SetDepartmentHead(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	var payload struct {
		UserID *string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	var userID *uuid.UUID
	if payload.UserID != nil && strings.TrimSpace(*payload.UserID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(*payload.UserID))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "user_id inválido", nil)
			return
		}
		userID = &parsed
	}

	if err := h.departments.SetHead(r.Context(), id, userID); err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListDepartmentStaff lista a equipe do departamento.
func (h *Handler) ListDepartmentStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	staff, err := h.departments.ListStaff(r.Context(), id)
	if err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"staff": staff})
}

// AddDepartmentStaff vincula usuário à equipe; cidadão vira prestador.
func (h *Handler) AddDepartmentStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	var payload struct {
		UserID string `json:"user_id"`
		Cargo  string `json:"cargo"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(payload.UserID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "user_id inválido", nil)
		return
	}

	if err := h.departments.AddStaff(r.Context(), id, userID, strings.TrimSpace(payload.Cargo)); err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// RemoveDepartmentStaff desfaz vínculo de equipe.
func (h *Handler) RemoveDepartmentStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := h.departmentID(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "userID")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "userID inválido", nil)
		return
	}

	if err := h.departments.RemoveStaff(r.Context(), id, userID); err != nil {
		h.handleDepartmentError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) departmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleDepartmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, department.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "departamento não encontrado", nil)
	case errors.Is(err, department.ErrCodigoTaken):
		WriteError(w, http.StatusConflict, "CONFLICT", "código de departamento já existe", nil)
	case errors.Is(err, department.ErrHasOpenComplaints):
		WriteError(w, http.StatusConflict, "CONFLICT", "departamento possui reclamações em aberto", nil)
	case errors.Is(err, department.ErrStaffNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "vínculo de equipe não encontrado", nil)
	case errors.Is(err, repo.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
	case errors.Is(err, complaint.ErrInvalidCategory):
		WriteError(w, http.StatusBadRequest, "VALIDATION", "categoria inválida", nil)
	case db.IsUnavailable(err):
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco de dados indisponível", nil)
	default:
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
}

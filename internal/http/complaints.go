package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
	"github.com/urbanbyte/ouvidoria/internal/db"
	"github.com/urbanbyte/ouvidoria/internal/department"
	"github.com/urbanbyte/ouvidoria/internal/repo"
	"github.com/urbanbyte/ouvidoria/internal/storage"
	"github.com/urbanbyte/ouvidoria/internal/util"
)

const maxAttachmentSize = 10 << 20 // 10 MiB

// CreateComplaint abre reclamação em nome do usuário autenticado.
func (h *Handler) CreateComplaint(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload struct {
		Titulo     string             `json:"titulo"`
		Descricao  string             `json:"descricao"`
		Categoria  string             `json:"categoria"`
		Prioridade string             `json:"prioridade"`
		Emergencia bool               `json:"emergencia"`
		Location   complaint.Location `json:"location"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	c, err := h.complaints.Create(r.Context(), complaint.CreateInput{
		Titulo:      payload.Titulo,
		Descricao:   payload.Descricao,
		Categoria:   payload.Categoria,
		Prioridade:  payload.Prioridade,
		Emergencia:  payload.Emergencia,
		SubmittedBy: actor.ID,
		Location:    payload.Location,
	})
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"complaint": c})
}

// ListComplaints lista reclamações com filtros. Cidadãos enxergam apenas as
// próprias; prestadores e admins veem tudo.
func (h *Handler) ListComplaints(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var filter complaint.Filter

	if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
		parts := strings.Split(statusParam, ",")
		filter.Status = make([]string, 0, len(parts))
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				filter.Status = append(filter.Status, part)
			}
		}
	}

	filter.Categoria = strings.TrimSpace(r.URL.Query().Get("categoria"))

	if deptStr := strings.TrimSpace(r.URL.Query().Get("department_id")); deptStr != "" {
		deptID, err := uuid.Parse(deptStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "department_id inválido", nil)
			return
		}
		filter.DepartmentID = &deptID
	}

	if assignedStr := strings.TrimSpace(r.URL.Query().Get("assigned_to")); assignedStr != "" {
		assignedID, err := uuid.Parse(assignedStr)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "assigned_to inválido", nil)
			return
		}
		filter.AssignedTo = &assignedID
	}

	if desde := strings.TrimSpace(r.URL.Query().Get("desde")); desde != "" {
		t, err := time.Parse(time.RFC3339, desde)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "desde inválido (RFC3339)", nil)
			return
		}
		filter.CriadoDesde = &t
	}
	if ate := strings.TrimSpace(r.URL.Query().Get("ate")); ate != "" {
		t, err := time.Parse(time.RFC3339, ate)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "ate inválido (RFC3339)", nil)
			return
		}
		filter.CriadoAte = &t
	}

	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = v
		}
	}
	if offsetStr := strings.TrimSpace(r.URL.Query().Get("offset")); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = v
		}
	}

	switch actor.Role {
	case repo.RoleCitizen:
		filter.SubmittedBy = &actor.ID
		filter.IncludeArchived = false
	case repo.RoleAdmin:
		filter.IncludeArchived = r.URL.Query().Get("archived") == "true"
	}

	complaints, err := h.complaints.List(r.Context(), filter)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"complaints": complaints})
}

// GetComplaint devolve detalhes de uma reclamação.
func (h *Handler) GetComplaint(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadComplaintForViewer(w, r)
	if !ok {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"complaint": c})
}

// ListComplaintUpdates devolve histórico de andamentos.
func (h *Handler) ListComplaintUpdates(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadComplaintForViewer(w, r)
	if !ok {
		return
	}

	updates, err := h.complaints.ListUpdates(r.Context(), c.ID)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"updates": updates})
}

// TransitionComplaint muda o status da reclamação.
func (h *Handler) TransitionComplaint(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Status   string `json:"status"`
		Mensagem string `json:"mensagem"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	c, err := h.complaints.Transition(r.Context(), id, payload.Status, actor, payload.Mensagem)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"complaint": c})
}

// AssignComplaint define prestador responsável.
func (h *Handler) AssignComplaint(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		ProviderID string `json:"provider_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	providerID, err := uuid.Parse(strings.TrimSpace(payload.ProviderID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "provider_id inválido", nil)
		return
	}

	c, err := h.complaints.Assign(r.Context(), id, providerID, actor)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"complaint": c})
}

// AddComplaintUpdate registra andamento em texto livre.
func (h *Handler) AddComplaintUpdate(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	var payload struct {
		Mensagem string `json:"mensagem"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	upd, err := h.complaints.AddProgressUpdate(r.Context(), id, actor, payload.Mensagem)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"update": upd})
}

// UploadComplaintAttachment recebe arquivo multipart, envia ao storage e
// grava a referência.
func (h *Handler) UploadComplaintAttachment(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadComplaintForViewer(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo file obrigatório", nil)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "não foi possível ler arquivo", nil)
		return
	}
	if len(body) > maxAttachmentSize {
		WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "arquivo excede 10MB", nil)
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := h.storage.Upload(r.Context(), storage.UploadInput{
		Key:         util.NewObjectKey(c.ID, header.Filename),
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "armazenamento indisponível", nil)
		return
	}

	att, err := h.complaints.AttachFile(r.Context(), c.ID, result.URL, contentType, int64(len(body)))
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"attachment": att})
}

// ListComplaintAttachments lista anexos da reclamação.
func (h *Handler) ListComplaintAttachments(w http.ResponseWriter, r *http.Request) {
	_, c, ok := h.loadComplaintForViewer(w, r)
	if !ok {
		return
	}

	attachments, err := h.complaints.ListAttachments(r.Context(), c.ID)
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"attachments": attachments})
}

// ArchiveComplaint arquiva a reclamação (soft delete).
func (h *Handler) ArchiveComplaint(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.complaints.Archive(r.Context(), id); err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"archived": true})
}

// ComplaintStats consolida números para o painel administrativo.
func (h *Handler) ComplaintStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.complaints.Stats(r.Context())
	if err != nil {
		h.handleComplaintError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// loadComplaintForViewer resolve ator, carrega a reclamação e aplica a regra
// de visibilidade: cidadão só enxerga as próprias.
func (h *Handler) loadComplaintForViewer(w http.ResponseWriter, r *http.Request) (complaint.Actor, *complaint.Complaint, bool) {
	actor, err := h.actor(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return complaint.Actor{}, nil, false
	}

	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return actor, nil, false
	}

	c, err := h.complaints.Get(r.Context(), id)
	if err != nil {
		h.handleComplaintError(w, err)
		return actor, nil, false
	}

	if actor.Role == repo.RoleCitizen && c.SubmittedBy != actor.ID {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "reclamação não encontrada", nil)
		return actor, nil, false
	}

	return actor, c, true
}

func (h *Handler) handleComplaintError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, complaint.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "reclamação não encontrada", nil)
	case errors.Is(err, complaint.ErrInvalidTransition):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error(), nil)
	case errors.Is(err, complaint.ErrStatusConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "status alterado por outra operação", nil)
	case errors.Is(err, complaint.ErrInvalidStatus),
		errors.Is(err, complaint.ErrInvalidPriority),
		errors.Is(err, complaint.ErrInvalidCategory),
		errors.Is(err, complaint.ErrInvalidProvider):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, department.ErrNoneForCategory):
		WriteError(w, http.StatusUnprocessableEntity, "VALIDATION", "nenhum departamento atende a categoria", nil)
	case db.IsUnavailable(err):
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco de dados indisponível", nil)
	default:
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
}

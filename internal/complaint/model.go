package complaint

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("reclamação não encontrada")
	ErrInvalidStatus     = errors.New("status inválido")
	ErrInvalidTransition = errors.New("transição de status não permitida")
	ErrInvalidPriority   = errors.New("prioridade inválida")
	ErrInvalidCategory   = errors.New("categoria inválida")
	ErrInvalidProvider   = errors.New("responsável deve ser um prestador ativo")
	ErrStatusConflict    = errors.New("status alterado por outra operação")
)

// Ciclo de vida de uma reclamação. Transições avançam um passo por vez na
// ordem declarada; apenas administradores podem forçar escrita fora da ordem.
const (
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusInProgress  = "in_progress"
	StatusResolved    = "resolved"
	StatusClosed      = "closed"

	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"

	CategoryElectricity     = "electricity"
	CategoryWater           = "water"
	CategoryRoads           = "roads"
	CategorySanitation      = "sanitation"
	CategoryStreetLights    = "street_lights"
	CategoryDrainage        = "drainage"
	CategoryPublicTransport = "public_transport"
	CategoryOther           = "other"

	UpdateStatusChange = "status_change"
	UpdateProgress     = "progress"
	UpdateAssignment   = "assignment"
)

var statusOrder = map[string]int{
	StatusSubmitted:   0,
	StatusUnderReview: 1,
	StatusInProgress:  2,
	StatusResolved:    3,
	StatusClosed:      4,
}

var validPriorities = map[string]struct{}{
	PriorityLow:      {},
	PriorityMedium:   {},
	PriorityHigh:     {},
	PriorityCritical: {},
}

var validCategories = map[string]struct{}{
	CategoryElectricity:     {},
	CategoryWater:           {},
	CategoryRoads:           {},
	CategorySanitation:      {},
	CategoryStreetLights:    {},
	CategoryDrainage:        {},
	CategoryPublicTransport: {},
	CategoryOther:           {},
}

// IsValidStatus indica se o status pertence à enumeração.
func IsValidStatus(status string) bool {
	_, ok := statusOrder[status]
	return ok
}

// IsValidPriority indica se a prioridade é aceita.
func IsValidPriority(priority string) bool {
	_, ok := validPriorities[priority]
	return ok
}

// IsValidCategory indica se a categoria pertence à enumeração fixa.
func IsValidCategory(category string) bool {
	_, ok := validCategories[category]
	return ok
}

// IsTerminal indica status que encerram o acompanhamento ativo.
func IsTerminal(status string) bool {
	return status == StatusResolved || status == StatusClosed
}

// CanTransition aceita apenas o próximo passo na ordem do ciclo de vida.
// Saltos e retrocessos exigem força de administrador.
func CanTransition(from, to string) bool {
	fromIdx, okFrom := statusOrder[from]
	toIdx, okTo := statusOrder[to]
	return okFrom && okTo && toIdx == fromIdx+1
}

// NormalizeStatus padroniza entrada de status.
func NormalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// NormalizePriority padroniza prioridade, com default medium.
func NormalizePriority(priority string) string {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		return PriorityMedium
	}
	return priority
}

// Location agrupa coordenadas e endereço informados pelo cidadão.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Endereco  string   `json:"endereco"`
	Bairro    string   `json:"bairro,omitempty"`
	Cidade    string   `json:"cidade,omitempty"`
}

// Complaint representa uma reclamação de serviço público.
type Complaint struct {
	ID              uuid.UUID  `json:"id"`
	Titulo          string     `json:"titulo"`
	Descricao       string     `json:"descricao"`
	Categoria       string     `json:"categoria"`
	Prioridade      string     `json:"prioridade"`
	Status          string     `json:"status"`
	Emergencia      bool       `json:"emergencia"`
	SubmittedBy     uuid.UUID  `json:"submitted_by"`
	DepartmentID    uuid.UUID  `json:"department_id"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`
	Location        Location   `json:"location"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionHours *int       `json:"resolution_hours,omitempty"`
	Rating          *int       `json:"rating,omitempty"`
	Feedback        *string    `json:"feedback,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	CriadoEm        time.Time  `json:"criado_em"`
	AtualizadoEm    time.Time  `json:"atualizado_em"`
}

// Update representa um registro de andamento da reclamação.
type Update struct {
	ID          uuid.UUID `json:"id"`
	ComplaintID uuid.UUID `json:"complaint_id"`
	Tipo        string    `json:"tipo"`
	Mensagem    string    `json:"mensagem"`
	CreatedBy   uuid.UUID `json:"created_by"`
	CriadoEm    time.Time `json:"criado_em"`
}

// Attachment referencia um blob já armazenado externamente.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	ComplaintID uuid.UUID `json:"complaint_id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Tamanho     int64     `json:"tamanho"`
	CriadoEm    time.Time `json:"criado_em"`
}

// CreateInput encapsula campos para abertura de reclamação.
type CreateInput struct {
	Titulo      string
	Descricao   string
	Categoria   string
	Prioridade  string
	Emergencia  bool
	SubmittedBy uuid.UUID
	Location    Location
}

// Filter limita listagens de reclamações.
type Filter struct {
	Status          []string
	Categoria       string
	DepartmentID    *uuid.UUID
	SubmittedBy     *uuid.UUID
	AssignedTo      *uuid.UUID
	CriadoDesde     *time.Time
	CriadoAte       *time.Time
	IncludeArchived bool
	Limit           int
	Offset          int
}

// Stats agrega números para o painel administrativo.
type Stats struct {
	Total              int64            `json:"total"`
	PorStatus          map[string]int64 `json:"por_status"`
	PorCategoria       map[string]int64 `json:"por_categoria"`
	PorPrioridade      map[string]int64 `json:"por_prioridade"`
	PorDepartamento    map[string]int64 `json:"por_departamento"`
	Emergencias        int64            `json:"emergencias"`
	MediaResolucaoHora *float64         `json:"media_resolucao_horas,omitempty"`
}

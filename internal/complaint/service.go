package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ouvidoria/internal/notify"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

// Store é o subconjunto do repositório consumido pelo serviço.
type Store interface {
	Create(ctx context.Context, input CreateInput, departmentID uuid.UUID) (*Complaint, error)
	Get(ctx context.Context, id uuid.UUID) (*Complaint, error)
	List(ctx context.Context, filter Filter) ([]Complaint, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, oldStatus, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error)
	ForceStatus(ctx context.Context, id uuid.UUID, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error)
	Assign(ctx context.Context, id uuid.UUID, providerID uuid.UUID, advance bool, updates []UpdateInput) (*Complaint, error)
	AddUpdate(ctx context.Context, input UpdateInput) (*Update, error)
	ListUpdates(ctx context.Context, complaintID uuid.UUID) ([]Update, error)
	AddAttachment(ctx context.Context, complaintID uuid.UUID, url, contentType string, tamanho int64) (*Attachment, error)
	ListAttachments(ctx context.Context, complaintID uuid.UUID) ([]Attachment, error)
	Archive(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

// DepartmentResolver decide o departamento responsável por uma categoria.
// A dica de localização fica como ponto de extensão documentado; a resolução
// atual usa apenas a categoria.
type DepartmentResolver interface {
	ResolveDepartment(ctx context.Context, category string, loc *Location) (uuid.UUID, error)
}

// UserDirectory consulta usuários para validação de responsável.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
}

// Actor identifica quem executa a operação (já autenticado pela camada HTTP).
type Actor struct {
	ID   uuid.UUID
	Role string
}

// IsAdmin indica papel de administrador.
func (a Actor) IsAdmin() bool {
	return a.Role == repo.RoleAdmin
}

// Service reúne as regras de ciclo de vida, roteamento e atribuição.
type Service struct {
	store       Store
	departments DepartmentResolver
	users       UserDirectory
	publisher   notify.Publisher
	alerter     notify.Alerter
	logger      zerolog.Logger
}

// NewService cria o serviço de reclamações. alerter pode ser nil.
func NewService(store Store, departments DepartmentResolver, users UserDirectory, publisher notify.Publisher, alerter notify.Alerter, logger zerolog.Logger) *Service {
	return &Service{
		store:       store,
		departments: departments,
		users:       users,
		publisher:   publisher,
		alerter:     alerter,
		logger:      logger,
	}
}

// Create roteia, valida e persiste uma nova reclamação. Falha de roteamento
// aborta a criação inteira: nenhuma reclamação fica sem departamento.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Complaint, error) {
	input.Titulo = strings.TrimSpace(input.Titulo)
	input.Descricao = strings.TrimSpace(input.Descricao)
	input.Categoria = strings.ToLower(strings.TrimSpace(input.Categoria))
	input.Prioridade = NormalizePriority(input.Prioridade)

	if input.Titulo == "" {
		return nil, errors.New("título obrigatório")
	}
	if input.Descricao == "" {
		return nil, errors.New("descrição obrigatória")
	}
	if !IsValidCategory(input.Categoria) {
		return nil, ErrInvalidCategory
	}
	if !IsValidPriority(input.Prioridade) {
		return nil, ErrInvalidPriority
	}
	if strings.TrimSpace(input.Location.Endereco) == "" && (input.Location.Latitude == nil || input.Location.Longitude == nil) {
		return nil, errors.New("localização obrigatória (endereço ou coordenadas)")
	}

	// Emergência força prioridade crítica apenas na criação.
	if input.Emergencia {
		input.Prioridade = PriorityCritical
	}

	departmentID, err := s.departments.ResolveDepartment(ctx, input.Categoria, &input.Location)
	if err != nil {
		return nil, err
	}

	c, err := s.store.Create(ctx, input, departmentID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(notify.ComplaintCreated{
		ComplaintID: c.ID,
		Categoria:   c.Categoria,
		Prioridade:  c.Prioridade,
		Emergencia:  c.Emergencia,
	})

	if c.Emergencia && s.alerter != nil {
		go s.alertEmergency(c)
	}

	return c, nil
}

func (s *Service) alertEmergency(c *Complaint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.alerter.Alert(ctx, notify.AlertMessage{
		Title:    "Reclamação de emergência",
		Text:     fmt.Sprintf("%s (%s) — %s", c.Titulo, c.Categoria, c.ID),
		Severity: "critical",
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("complaint_id", c.ID.String()).Msg("falha ao enviar alerta de emergência")
	}
}

// Transition aplica mudança de status seguindo a política de avanço único.
// Administradores podem forçar qualquer status; a força fica registrada.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, newStatus string, actor Actor, message string) (*Complaint, error) {
	newStatus = NormalizeStatus(newStatus)
	if !IsValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := c.Status
	forced := false
	if !CanTransition(oldStatus, newStatus) {
		if !actor.IsAdmin() {
			return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, oldStatus, newStatus)
		}
		forced = true
	}

	message = strings.TrimSpace(message)
	if message == "" {
		message = fmt.Sprintf("status alterado de %s para %s", oldStatus, newStatus)
	}
	upd := UpdateInput{
		ComplaintID: id,
		Tipo:        UpdateStatusChange,
		Mensagem:    message,
		CreatedBy:   actor.ID,
	}

	var updated *Complaint
	if forced {
		resolvedAt, hours := forcedResolutionFields(c, newStatus)
		s.logger.Warn().
			Str("complaint_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Str("old_status", oldStatus).
			Str("new_status", newStatus).
			Msg("transição forçada por administrador")
		updated, err = s.store.ForceStatus(ctx, id, newStatus, resolvedAt, hours, upd)
	} else {
		var resolvedAt *time.Time
		var hours *int
		if newStatus == StatusResolved && c.ResolvedAt == nil {
			now := time.Now().UTC()
			h := int(now.Sub(c.CriadoEm).Hours())
			resolvedAt = &now
			hours = &h
		}
		updated, err = s.store.UpdateStatus(ctx, id, oldStatus, newStatus, resolvedAt, hours, upd)
	}
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(notify.StatusChanged{
		ComplaintID: id,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
	})

	return updated, nil
}

// forcedResolutionFields mantém o invariante resolved_at ⇔ resolution_hours
// em escritas forçadas: status aquém de resolved limpa os campos.
func forcedResolutionFields(c *Complaint, newStatus string) (*time.Time, *int) {
	if statusOrder[newStatus] < statusOrder[StatusResolved] {
		return nil, nil
	}
	if c.ResolvedAt != nil {
		return c.ResolvedAt, c.ResolutionHours
	}
	now := time.Now().UTC()
	h := int(now.Sub(c.CriadoEm).Hours())
	return &now, &h
}

// Assign vincula um prestador à reclamação. Reatribuição sobrescreve;
// repetir o mesmo prestador é idempotente e não emite evento.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, providerID uuid.UUID, actor Actor) (*Complaint, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.AssignedTo != nil && *c.AssignedTo == providerID {
		return c, nil
	}

	provider, err := s.users.GetUserByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidProvider
		}
		return nil, err
	}
	if provider.Role != repo.RoleProvider || !provider.Ativo {
		return nil, ErrInvalidProvider
	}

	// Atribuição implica ao menos análise em andamento.
	advance := c.Status == StatusSubmitted

	updates := []UpdateInput{{
		ComplaintID: id,
		Tipo:        UpdateAssignment,
		Mensagem:    fmt.Sprintf("responsável definido: %s", provider.Nome),
		CreatedBy:   actor.ID,
	}}
	if advance {
		updates = append(updates, UpdateInput{
			ComplaintID: id,
			Tipo:        UpdateStatusChange,
			Mensagem:    fmt.Sprintf("status alterado de %s para %s", StatusSubmitted, StatusUnderReview),
			CreatedBy:   actor.ID,
		})
	}

	updated, err := s.store.Assign(ctx, id, providerID, advance, updates)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(notify.AssignmentChanged{
		ComplaintID: id,
		ProviderID:  providerID,
	})
	if advance {
		s.publisher.Publish(notify.StatusChanged{
			ComplaintID: id,
			OldStatus:   StatusSubmitted,
			NewStatus:   StatusUnderReview,
		})
	}

	return updated, nil
}

// AddProgressUpdate registra andamento em texto livre.
func (s *Service) AddProgressUpdate(ctx context.Context, id uuid.UUID, actor Actor, message string) (*Update, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("mensagem obrigatória")
	}

	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}

	upd, err := s.store.AddUpdate(ctx, UpdateInput{
		ComplaintID: id,
		Tipo:        UpdateProgress,
		Mensagem:    message,
		CreatedBy:   actor.ID,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(notify.UpdateAdded{
		ComplaintID: id,
		UpdateID:    upd.ID,
		Mensagem:    upd.Mensagem,
	})

	return upd, nil
}

// AttachFile grava referência de blob já armazenado.
func (s *Service) AttachFile(ctx context.Context, id uuid.UUID, url, contentType string, tamanho int64) (*Attachment, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.AddAttachment(ctx, id, url, contentType, tamanho)
}

// Get recupera uma reclamação.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	return s.store.Get(ctx, id)
}

// List lista reclamações normalizando filtros de status.
func (s *Service) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	if len(filter.Status) > 0 {
		normalized := make([]string, 0, len(filter.Status))
		for _, status := range filter.Status {
			status = NormalizeStatus(status)
			if IsValidStatus(status) {
				normalized = append(normalized, status)
			}
		}
		filter.Status = normalized
	}
	return s.store.List(ctx, filter)
}

// ListUpdates lista andamentos da reclamação.
func (s *Service) ListUpdates(ctx context.Context, id uuid.UUID) ([]Update, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListUpdates(ctx, id)
}

// ListAttachments lista anexos da reclamação.
func (s *Service) ListAttachments(ctx context.Context, id uuid.UUID) ([]Attachment, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAttachments(ctx, id)
}

// Archive arquiva a reclamação (soft delete).
func (s *Service) Archive(ctx context.Context, id uuid.UUID) error {
	return s.store.Archive(ctx, id)
}

// Stats consolida números do painel administrativo.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// CanWatch decide se o usuário pode acompanhar o canal da reclamação.
// Equipe interna acompanha qualquer uma; cidadão apenas as próprias.
func (s *Service) CanWatch(ctx context.Context, complaintID, userID uuid.UUID, role string) (bool, error) {
	if role == repo.RoleAdmin || role == repo.RoleProvider {
		return true, nil
	}
	c, err := s.store.Get(ctx, complaintID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return c.SubmittedBy == userID, nil
}

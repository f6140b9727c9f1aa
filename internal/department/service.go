package department

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

// Store é o subconjunto do repositório consumido pelo serviço.
type Store interface {
	Create(ctx context.Context, input CreateInput) (*Department, error)
	Get(ctx context.Context, id uuid.UUID) (*Department, error)
	List(ctx context.Context, activeOnly bool) ([]Department, error)
	FirstActiveByCategory(ctx context.Context, category string) (*Department, error)
	Update(ctx context.Context, input UpdateInput) (*Department, error)
	SetActive(ctx context.Context, id uuid.UUID, ativo bool) error
	SetHead(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
	CountOpenComplaints(ctx context.Context, id uuid.UUID) (int64, error)
	UpsertStaff(ctx context.Context, departmentID, userID uuid.UUID, cargo string) error
	RemoveStaff(ctx context.Context, departmentID, userID uuid.UUID) error
	ListStaff(ctx context.Context, departmentID uuid.UUID) ([]StaffMember, error)
	CountActiveMemberships(ctx context.Context, userID uuid.UUID) (int64, error)
	IsHeadAnywhere(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Users consulta e ajusta papéis de usuários conforme vínculos de equipe.
type Users interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error
}

// Service reúne regras de negócio de departamentos e roteamento.
type Service struct {
	store Store
	users Users
}

// NewService cria o serviço de departamentos.
func NewService(store Store, users Users) *Service {
	return &Service{store: store, users: users}
}

// Create valida e cria departamento novo.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Department, error) {
	input.Codigo = strings.ToUpper(strings.TrimSpace(input.Codigo))
	input.Nome = strings.TrimSpace(input.Nome)

	if input.Codigo == "" {
		return nil, errors.New("código obrigatório")
	}
	if input.Nome == "" {
		return nil, errors.New("nome obrigatório")
	}
	categorias, err := normalizeCategories(input.Categorias)
	if err != nil {
		return nil, err
	}
	input.Categorias = categorias

	return s.store.Create(ctx, input)
}

// Update edita departamento existente.
func (s *Service) Update(ctx context.Context, input UpdateInput) (*Department, error) {
	if input.Categorias != nil {
		categorias, err := normalizeCategories(input.Categorias)
		if err != nil {
			return nil, err
		}
		input.Categorias = categorias
	}
	return s.store.Update(ctx, input)
}

// Get recupera departamento.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	return s.store.Get(ctx, id)
}

// List lista departamentos.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Department, error) {
	return s.store.List(ctx, activeOnly)
}

// ResolveByCategory escolhe deterministicamente o departamento responsável
// pela categoria: primeiro ativo na ordem de criação. A localização coletada
// na reclamação não participa da escolha hoje.
func (s *Service) ResolveByCategory(ctx context.Context, category string) (*Department, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if !complaint.IsValidCategory(category) {
		return nil, complaint.ErrInvalidCategory
	}
	return s.store.FirstActiveByCategory(ctx, category)
}

// ResolveDepartment implementa o contrato de roteamento consumido pelo
// serviço de reclamações.
func (s *Service) ResolveDepartment(ctx context.Context, category string, _ *complaint.Location) (uuid.UUID, error) {
	dept, err := s.ResolveByCategory(ctx, category)
	if err != nil {
		return uuid.Nil, err
	}
	return dept.ID, nil
}

// Deactivate desativa o departamento. Bloqueado enquanto houver reclamações
// não terminais vinculadas; departamentos nunca são removidos fisicamente.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	open, err := s.store.CountOpenComplaints(ctx, id)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrHasOpenComplaints
	}
	return s.store.SetActive(ctx, id, false)
}

// Activate reativa o departamento.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.store.SetActive(ctx, id, true)
}

// AddStaff vincula usuário à equipe do departamento. Cidadãos viram
// prestadores ao entrar na equipe.
func (s *Service) AddStaff(ctx context.Context, departmentID, userID uuid.UUID, cargo string) error {
	if _, err := s.store.Get(ctx, departmentID); err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.store.UpsertStaff(ctx, departmentID, userID, cargo); err != nil {
		return err
	}

	if user.Role == repo.RoleCitizen {
		return s.users.UpdateUserRole(ctx, userID, repo.RoleProvider)
	}
	return nil
}

// RemoveStaff desfaz o vínculo. Prestador sem nenhum vínculo ativo e que não
// responde por departamento algum volta a ser cidadão.
func (s *Service) RemoveStaff(ctx context.Context, departmentID, userID uuid.UUID) error {
	if err := s.store.RemoveStaff(ctx, departmentID, userID); err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role != repo.RoleProvider {
		return nil
	}

	memberships, err := s.store.CountActiveMemberships(ctx, userID)
	if err != nil {
		return err
	}
	if memberships > 0 {
		return nil
	}

	head, err := s.store.IsHeadAnywhere(ctx, userID)
	if err != nil {
		return err
	}
	if head {
		return nil
	}

	return s.users.UpdateUserRole(ctx, userID, repo.RoleCitizen)
}

// ListStaff lista equipe do departamento.
func (s *Service) ListStaff(ctx context.Context, departmentID uuid.UUID) ([]StaffMember, error) {
	if _, err := s.store.Get(ctx, departmentID); err != nil {
		return nil, err
	}
	return s.store.ListStaff(ctx, departmentID)
}

// SetHead define responsável pelo departamento, promovendo cidadão a prestador.
func (s *Service) SetHead(ctx context.Context, departmentID uuid.UUID, userID *uuid.UUID) error {
	if _, err := s.store.Get(ctx, departmentID); err != nil {
		return err
	}

	if userID != nil {
		user, err := s.users.GetUserByID(ctx, *userID)
		if err != nil {
			return err
		}
		if user.Role == repo.RoleCitizen {
			if err := s.users.UpdateUserRole(ctx, *userID, repo.RoleProvider); err != nil {
				return err
			}
		}
	}

	return s.store.SetHead(ctx, departmentID, userID)
}

func normalizeCategories(categorias []string) ([]string, error) {
	if len(categorias) == 0 {
		return nil, errors.New("pelo menos uma categoria obrigatória")
	}

	seen := make(map[string]struct{}, len(categorias))
	normalized := make([]string, 0, len(categorias))
	for _, categoria := range categorias {
		categoria = strings.ToLower(strings.TrimSpace(categoria))
		if !complaint.IsValidCategory(categoria) {
			return nil, complaint.ErrInvalidCategory
		}
		if _, ok := seen[categoria]; ok {
			continue
		}
		seen[categoria] = struct{}{}
		normalized = append(normalized, categoria)
	}
	return normalized, nil
}

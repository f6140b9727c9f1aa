package department

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

type stubStore struct {
	departments    map[uuid.UUID]*Department
	firstActive    *Department
	firstActiveErr error
	openCount      int64
	deactivated    bool
	upserted       []string
	removed        bool
	removeErr      error
	memberships    int64
	isHead         bool
	created        *CreateInput
}

func (s *stubStore) Create(ctx context.Context, input CreateInput) (*Department, error) {
	s.created = &input
	return &Department{ID: uuid.New(), Codigo: input.Codigo, Nome: input.Nome, Categorias: input.Categorias, Ativo: true}, nil
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, ok := s.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *stubStore) List(ctx context.Context, activeOnly bool) ([]Department, error) {
	return nil, nil
}

func (s *stubStore) FirstActiveByCategory(ctx context.Context, category string) (*Department, error) {
	if s.firstActiveErr != nil {
		return nil, s.firstActiveErr
	}
	return s.firstActive, nil
}

func (s *stubStore) Update(ctx context.Context, input UpdateInput) (*Department, error) {
	return s.Get(ctx, input.ID)
}

func (s *stubStore) SetActive(ctx context.Context, id uuid.UUID, ativo bool) error {
	if !ativo {
		s.deactivated = true
	}
	return nil
}

func (s *stubStore) SetHead(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	return nil
}

func (s *stubStore) CountOpenComplaints(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.openCount, nil
}

func (s *stubStore) UpsertStaff(ctx context.Context, departmentID, userID uuid.UUID, cargo string) error {
	s.upserted = append(s.upserted, userID.String())
	return nil
}

func (s *stubStore) RemoveStaff(ctx context.Context, departmentID, userID uuid.UUID) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = true
	return nil
}

func (s *stubStore) ListStaff(ctx context.Context, departmentID uuid.UUID) ([]StaffMember, error) {
	return nil, nil
}

func (s *stubStore) CountActiveMemberships(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.memberships, nil
}

func (s *stubStore) IsHeadAnywhere(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.isHead, nil
}

type stubUsers struct {
	users     map[uuid.UUID]repo.User
	roleSwaps map[uuid.UUID]string
}

func newStubUsers() *stubUsers {
	return &stubUsers{users: map[uuid.UUID]repo.User{}, roleSwaps: map[uuid.UUID]string{}}
}

func (u *stubUsers) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	user, ok := u.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return user, nil
}

func (u *stubUsers) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	u.roleSwaps[id] = role
	return nil
}

func TestCreateNormalizesCategories(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, newStubUsers())

	_, err := svc.Create(context.Background(), CreateInput{
		Codigo:     "ilum",
		Nome:       "Iluminação Pública",
		Categorias: []string{" Street_Lights ", "street_lights", "electricity"},
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if len(store.created.Categorias) != 2 {
		t.Fatalf("categorias = %v, esperado dedupe para 2", store.created.Categorias)
	}
	if store.created.Codigo != "ILUM" {
		t.Fatalf("codigo = %s, esperado ILUM", store.created.Codigo)
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := NewService(&stubStore{}, newStubUsers())

	_, err := svc.Create(context.Background(), CreateInput{
		Codigo:     "X",
		Nome:       "Qualquer",
		Categorias: []string{"astrology"},
	})
	if !errors.Is(err, complaint.ErrInvalidCategory) {
		t.Fatalf("err = %v, esperado ErrInvalidCategory", err)
	}
}

func TestResolveByCategory(t *testing.T) {
	dept := &Department{ID: uuid.New(), Codigo: "AGUA", Ativo: true}
	store := &stubStore{firstActive: dept}
	svc := NewService(store, newStubUsers())

	got, err := svc.ResolveByCategory(context.Background(), " Water ")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if got.ID != dept.ID {
		t.Fatal("deveria devolver o primeiro departamento ativo da categoria")
	}
}

func TestResolveByCategoryNoneActive(t *testing.T) {
	store := &stubStore{firstActiveErr: ErrNoneForCategory}
	svc := NewService(store, newStubUsers())

	_, err := svc.ResolveByCategory(context.Background(), "water")
	if !errors.Is(err, ErrNoneForCategory) {
		t.Fatalf("err = %v, esperado ErrNoneForCategory", err)
	}
}

func TestDeactivateBlockedWithOpenComplaints(t *testing.T) {
	store := &stubStore{openCount: 3}
	svc := NewService(store, newStubUsers())

	err := svc.Deactivate(context.Background(), uuid.New())
	if !errors.Is(err, ErrHasOpenComplaints) {
		t.Fatalf("err = %v, esperado ErrHasOpenComplaints", err)
	}
	if store.deactivated {
		t.Fatal("departamento não deveria ter sido desativado")
	}
}

func TestDeactivateWithoutOpenComplaints(t *testing.T) {
	store := &stubStore{openCount: 0}
	svc := NewService(store, newStubUsers())

	if err := svc.Deactivate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !store.deactivated {
		t.Fatal("departamento deveria ter sido desativado")
	}
}

func TestAddStaffPromotesCitizen(t *testing.T) {
	deptID := uuid.New()
	userID := uuid.New()
	store := &stubStore{departments: map[uuid.UUID]*Department{deptID: {ID: deptID}}}
	users := newStubUsers()
	users.users[userID] = repo.User{ID: userID, Role: repo.RoleCitizen, Ativo: true}
	svc := NewService(store, users)

	if err := svc.AddStaff(context.Background(), deptID, userID, "agente"); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if users.roleSwaps[userID] != repo.RoleProvider {
		t.Fatal("cidadão deveria ser promovido a prestador ao entrar na equipe")
	}
}

func TestAddStaffKeepsAdminRole(t *testing.T) {
	deptID := uuid.New()
	userID := uuid.New()
	store := &stubStore{departments: map[uuid.UUID]*Department{deptID: {ID: deptID}}}
	users := newStubUsers()
	users.users[userID] = repo.User{ID: userID, Role: repo.RoleAdmin, Ativo: true}
	svc := NewService(store, users)

	if err := svc.AddStaff(context.Background(), deptID, userID, "coordenador"); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, ok := users.roleSwaps[userID]; ok {
		t.Fatal("admin não deve trocar de papel ao entrar na equipe")
	}
}

func TestRemoveStaffDemotesProviderWithoutMemberships(t *testing.T) {
	deptID := uuid.New()
	userID := uuid.New()
	store := &stubStore{memberships: 0, isHead: false}
	users := newStubUsers()
	users.users[userID] = repo.User{ID: userID, Role: repo.RoleProvider, Ativo: true}
	svc := NewService(store, users)

	if err := svc.RemoveStaff(context.Background(), deptID, userID); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if users.roleSwaps[userID] != repo.RoleCitizen {
		t.Fatal("prestador sem vínculos deveria voltar a cidadão")
	}
}

func TestRemoveStaffKeepsProviderWhenHead(t *testing.T) {
	deptID := uuid.New()
	userID := uuid.New()
	store := &stubStore{memberships: 0, isHead: true}
	users := newStubUsers()
	users.users[userID] = repo.User{ID: userID, Role: repo.RoleProvider, Ativo: true}
	svc := NewService(store, users)

	if err := svc.RemoveStaff(context.Background(), deptID, userID); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, ok := users.roleSwaps[userID]; ok {
		t.Fatal("responsável por departamento deve continuar prestador")
	}
}

func TestRemoveStaffKeepsProviderWithOtherMemberships(t *testing.T) {
	deptID := uuid.New()
	userID := uuid.New()
	store := &stubStore{memberships: 2}
	users := newStubUsers()
	users.users[userID] = repo.User{ID: userID, Role: repo.RoleProvider, Ativo: true}
	svc := NewService(store, users)

	if err := svc.RemoveStaff(context.Background(), deptID, userID); err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if _, ok := users.roleSwaps[userID]; ok {
		t.Fatal("prestador com outros vínculos deve manter o papel")
	}
}

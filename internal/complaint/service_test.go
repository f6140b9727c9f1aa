package complaint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbanbyte/ouvidoria/internal/notify"
	"github.com/urbanbyte/ouvidoria/internal/repo"
)

type stubStore struct {
	complaint     *Complaint
	created       *CreateInput
	createdDept   uuid.UUID
	updateErr     error
	forced        bool
	forcedAt      *time.Time
	forcedHours   *int
	casOld        string
	casNew        string
	casResolvedAt *time.Time
	casHours      *int
	assignedTo    uuid.UUID
	advanced      bool
	assignUpdates []UpdateInput
	updates       []UpdateInput
}

func (s *stubStore) Create(ctx context.Context, input CreateInput, departmentID uuid.UUID) (*Complaint, error) {
	s.created = &input
	s.createdDept = departmentID
	c := &Complaint{
		ID:          uuid.New(),
		Titulo:      input.Titulo,
		Categoria:   input.Categoria,
		Prioridade:  input.Prioridade,
		Status:      StatusSubmitted,
		Emergencia:  input.Emergencia,
		SubmittedBy: input.SubmittedBy,
		CriadoEm:    time.Now(),
	}
	return c, nil
}

func (s *stubStore) Get(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	if s.complaint == nil {
		return nil, ErrNotFound
	}
	c := *s.complaint
	return &c, nil
}

func (s *stubStore) UpdateStatus(ctx context.Context, id uuid.UUID, oldStatus, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	s.casOld, s.casNew = oldStatus, newStatus
	s.casResolvedAt, s.casHours = resolvedAt, resolutionHours
	s.updates = append(s.updates, upd)
	c := *s.complaint
	c.Status = newStatus
	c.ResolvedAt = resolvedAt
	c.ResolutionHours = resolutionHours
	return &c, nil
}

func (s *stubStore) ForceStatus(ctx context.Context, id uuid.UUID, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error) {
	s.forced = true
	s.forcedAt, s.forcedHours = resolvedAt, resolutionHours
	s.updates = append(s.updates, upd)
	c := *s.complaint
	c.Status = newStatus
	c.ResolvedAt = resolvedAt
	c.ResolutionHours = resolutionHours
	return &c, nil
}

func (s *stubStore) Assign(ctx context.Context, id uuid.UUID, providerID uuid.UUID, advance bool, updates []UpdateInput) (*Complaint, error) {
	s.assignedTo = providerID
	s.advanced = advance
	s.assignUpdates = updates
	c := *s.complaint
	c.AssignedTo = &providerID
	if advance {
		c.Status = StatusUnderReview
	}
	return &c, nil
}

func (s *stubStore) AddUpdate(ctx context.Context, input UpdateInput) (*Update, error) {
	s.updates = append(s.updates, input)
	return &Update{ID: uuid.New(), ComplaintID: input.ComplaintID, Tipo: input.Tipo, Mensagem: input.Mensagem}, nil
}

func (s *stubStore) ListUpdates(ctx context.Context, complaintID uuid.UUID) ([]Update, error) {
	return nil, nil
}

func (s *stubStore) AddAttachment(ctx context.Context, complaintID uuid.UUID, url, contentType string, tamanho int64) (*Attachment, error) {
	return &Attachment{ID: uuid.New(), ComplaintID: complaintID, URL: url}, nil
}

func (s *stubStore) ListAttachments(ctx context.Context, complaintID uuid.UUID) ([]Attachment, error) {
	return nil, nil
}

func (s *stubStore) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	return nil, nil
}

func (s *stubStore) Archive(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubStore) Stats(ctx context.Context) (*Stats, error) { return &Stats{}, nil }

type stubResolver struct {
	departmentID uuid.UUID
	err          error
	calls        int
}

func (r *stubResolver) ResolveDepartment(ctx context.Context, category string, loc *Location) (uuid.UUID, error) {
	r.calls++
	if r.err != nil {
		return uuid.Nil, r.err
	}
	return r.departmentID, nil
}

type stubUsers struct {
	users map[uuid.UUID]repo.User
}

func (u *stubUsers) GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error) {
	user, ok := u.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return user, nil
}

type capturePublisher struct {
	events []notify.Event
}

func (p *capturePublisher) Publish(ev notify.Event) {
	p.events = append(p.events, ev)
}

func endereco() Location {
	return Location{Endereco: "Rua das Flores, 100"}
}

func newTestService(store *stubStore, resolver *stubResolver, users *stubUsers, pub notify.Publisher) *Service {
	if resolver == nil {
		resolver = &stubResolver{departmentID: uuid.New()}
	}
	if users == nil {
		users = &stubUsers{users: map[uuid.UUID]repo.User{}}
	}
	if pub == nil {
		pub = notify.NopPublisher{}
	}
	return NewService(store, resolver, users, pub, nil, zerolog.Nop())
}

func TestCreateEmergencyForcesCritical(t *testing.T) {
	store := &stubStore{}
	svc := newTestService(store, nil, nil, nil)

	c, err := svc.Create(context.Background(), CreateInput{
		Titulo:      "Cabo de alta tensão caído",
		Descricao:   "Fio energizado na calçada",
		Categoria:   CategoryElectricity,
		Prioridade:  PriorityLow,
		Emergencia:  true,
		SubmittedBy: uuid.New(),
		Location:    endereco(),
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if c.Prioridade != PriorityCritical {
		t.Fatalf("prioridade = %s, esperado %s", c.Prioridade, PriorityCritical)
	}
}

func TestCreateRoutingFailureAborts(t *testing.T) {
	store := &stubStore{}
	resolver := &stubResolver{err: errors.New("nenhum departamento atende a categoria")}
	svc := newTestService(store, resolver, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Titulo:      "Buraco na via",
		Descricao:   "Cratera na avenida principal",
		Categoria:   CategoryRoads,
		SubmittedBy: uuid.New(),
		Location:    endereco(),
	})
	if err == nil {
		t.Fatal("esperava erro de roteamento")
	}
	if store.created != nil {
		t.Fatal("reclamação não deveria ter sido criada sem departamento")
	}
}

func TestCreateInvalidCategory(t *testing.T) {
	svc := newTestService(&stubStore{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Titulo:      "Teste",
		Descricao:   "Teste",
		Categoria:   "telepathy",
		SubmittedBy: uuid.New(),
		Location:    endereco(),
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("err = %v, esperado ErrInvalidCategory", err)
	}
}

func TestTransitionSingleStep(t *testing.T) {
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, CriadoEm: time.Now()}}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleProvider}

	c, err := svc.Transition(context.Background(), store.complaint.ID, StatusUnderReview, actor, "")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if c.Status != StatusUnderReview {
		t.Fatalf("status = %s, esperado %s", c.Status, StatusUnderReview)
	}
	if store.casOld != StatusSubmitted || store.casNew != StatusUnderReview {
		t.Fatalf("compare-and-swap com %s → %s", store.casOld, store.casNew)
	}
	if len(store.updates) != 1 || store.updates[0].Tipo != UpdateStatusChange {
		t.Fatal("transição deveria registrar andamento de mudança de status")
	}
}

func TestTransitionSkipRejectedForProvider(t *testing.T) {
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, CriadoEm: time.Now()}}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleProvider}

	_, err := svc.Transition(context.Background(), store.complaint.ID, StatusInProgress, actor, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, esperado ErrInvalidTransition", err)
	}
	if store.forced {
		t.Fatal("prestador não pode forçar transição")
	}
}

func TestTransitionSkipForcedByAdmin(t *testing.T) {
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, CriadoEm: time.Now()}}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleAdmin}

	c, err := svc.Transition(context.Background(), store.complaint.ID, StatusInProgress, actor, "")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !store.forced {
		t.Fatal("admin deveria usar escrita forçada")
	}
	if c.Status != StatusInProgress {
		t.Fatalf("status = %s, esperado %s", c.Status, StatusInProgress)
	}
	if store.forcedAt != nil || store.forcedHours != nil {
		t.Fatal("status aquém de resolved não deve carregar campos de resolução")
	}
}

func TestTransitionResolvedComputesHours(t *testing.T) {
	criadoEm := time.Now().Add(-50*time.Hour - 30*time.Minute)
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusInProgress, CriadoEm: criadoEm}}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleProvider}

	_, err := svc.Transition(context.Background(), store.complaint.ID, StatusResolved, actor, "concluído")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if store.casResolvedAt == nil || store.casHours == nil {
		t.Fatal("resolução deveria preencher resolved_at e resolution_hours")
	}
	if *store.casHours != 50 {
		t.Fatalf("resolution_hours = %d, esperado 50 (piso de horas)", *store.casHours)
	}
}

func TestTransitionForcedBackwardClearsResolution(t *testing.T) {
	resolvedAt := time.Now().Add(-time.Hour)
	hours := 10
	store := &stubStore{complaint: &Complaint{
		ID:              uuid.New(),
		Status:          StatusResolved,
		ResolvedAt:      &resolvedAt,
		ResolutionHours: &hours,
		CriadoEm:        time.Now().Add(-24 * time.Hour),
	}}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleAdmin}

	_, err := svc.Transition(context.Background(), store.complaint.ID, StatusInProgress, actor, "reaberto")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if store.forcedAt != nil || store.forcedHours != nil {
		t.Fatal("retrocesso forçado deveria limpar campos de resolução")
	}
}

func TestTransitionConflictPropagates(t *testing.T) {
	store := &stubStore{
		complaint: &Complaint{ID: uuid.New(), Status: StatusInProgress, CriadoEm: time.Now()},
		updateErr: ErrStatusConflict,
	}
	svc := newTestService(store, nil, nil, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleProvider}

	_, err := svc.Transition(context.Background(), store.complaint.ID, StatusResolved, actor, "")
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("err = %v, esperado ErrStatusConflict", err)
	}
}

func TestAssignIdempotent(t *testing.T) {
	providerID := uuid.New()
	store := &stubStore{complaint: &Complaint{
		ID:         uuid.New(),
		Status:     StatusUnderReview,
		AssignedTo: &providerID,
		CriadoEm:   time.Now(),
	}}
	pub := &capturePublisher{}
	svc := newTestService(store, nil, nil, pub)
	actor := Actor{ID: uuid.New(), Role: repo.RoleAdmin}

	c, err := svc.Assign(context.Background(), store.complaint.ID, providerID, actor)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if c.AssignedTo == nil || *c.AssignedTo != providerID {
		t.Fatal("responsável deveria permanecer o mesmo")
	}
	if len(pub.events) != 0 {
		t.Fatal("reatribuição idêntica não deve emitir evento")
	}
}

func TestAssignRejectsNonProvider(t *testing.T) {
	citizenID := uuid.New()
	users := &stubUsers{users: map[uuid.UUID]repo.User{
		citizenID: {ID: citizenID, Role: repo.RoleCitizen, Ativo: true},
	}}
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, CriadoEm: time.Now()}}
	svc := newTestService(store, nil, users, nil)
	actor := Actor{ID: uuid.New(), Role: repo.RoleAdmin}

	_, err := svc.Assign(context.Background(), store.complaint.ID, citizenID, actor)
	if !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("err = %v, esperado ErrInvalidProvider", err)
	}
}

func TestAssignAdvancesSubmitted(t *testing.T) {
	providerID := uuid.New()
	users := &stubUsers{users: map[uuid.UUID]repo.User{
		providerID: {ID: providerID, Nome: "Equipe Luz", Role: repo.RoleProvider, Ativo: true},
	}}
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, CriadoEm: time.Now()}}
	pub := &capturePublisher{}
	svc := newTestService(store, nil, users, pub)
	actor := Actor{ID: uuid.New(), Role: repo.RoleAdmin}

	c, err := svc.Assign(context.Background(), store.complaint.ID, providerID, actor)
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if !store.advanced {
		t.Fatal("atribuição em submitted deveria avançar para under_review")
	}
	if c.Status != StatusUnderReview {
		t.Fatalf("status = %s, esperado %s", c.Status, StatusUnderReview)
	}
	if len(store.assignUpdates) != 2 {
		t.Fatalf("esperava 2 andamentos (atribuição + status), veio %d", len(store.assignUpdates))
	}
	if len(pub.events) != 2 {
		t.Fatalf("esperava eventos de atribuição e status, veio %d", len(pub.events))
	}
}

func TestCanWatch(t *testing.T) {
	ownerID := uuid.New()
	store := &stubStore{complaint: &Complaint{ID: uuid.New(), Status: StatusSubmitted, SubmittedBy: ownerID, CriadoEm: time.Now()}}
	svc := newTestService(store, nil, nil, nil)

	cases := []struct {
		name   string
		userID uuid.UUID
		role   string
		want   bool
	}{
		{"admin sempre pode", uuid.New(), repo.RoleAdmin, true},
		{"prestador sempre pode", uuid.New(), repo.RoleProvider, true},
		{"cidadão dono pode", ownerID, repo.RoleCitizen, true},
		{"cidadão alheio não pode", uuid.New(), repo.RoleCitizen, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.CanWatch(context.Background(), store.complaint.ID, tc.userID, tc.role)
			if err != nil {
				t.Fatalf("erro inesperado: %v", err)
			}
			if got != tc.want {
				t.Fatalf("CanWatch = %v, esperado %v", got, tc.want)
			}
		})
	}
}

func TestCanTransitionMatrix(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusSubmitted, StatusUnderReview, true},
		{StatusUnderReview, StatusInProgress, true},
		{StatusInProgress, StatusResolved, true},
		{StatusResolved, StatusClosed, true},
		{StatusSubmitted, StatusInProgress, false},
		{StatusSubmitted, StatusResolved, false},
		{StatusUnderReview, StatusSubmitted, false},
		{StatusClosed, StatusResolved, false},
		{StatusClosed, StatusClosed, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, esperado %v", tc.from, tc.to, got, tc.want)
		}
	}
}

package review

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
)

type stubStore struct {
	snapshot  *ComplaintSnapshot
	createErr error
	created   *Review
}

func (s *stubStore) GetComplaintSnapshot(ctx context.Context, complaintID uuid.UUID) (*ComplaintSnapshot, error) {
	if s.snapshot == nil {
		return nil, ErrNotFound
	}
	return s.snapshot, nil
}

func (s *stubStore) CreateComplaintReview(ctx context.Context, complaintID, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &Review{
		ID:          uuid.New(),
		UserID:      userID,
		ComplaintID: &complaintID,
		Tipo:        TypeComplaint,
		Rating:      rating,
		Titulo:      titulo,
		Conteudo:    conteudo,
		Categoria:   categoria,
	}
	return s.created, nil
}

func (s *stubStore) CreateSystemReview(ctx context.Context, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error) {
	return &Review{ID: uuid.New(), UserID: userID, Tipo: TypeSystem, Rating: rating, Conteudo: conteudo}, nil
}

func (s *stubStore) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]Review, error) {
	return nil, nil
}

func (s *stubStore) ListByType(ctx context.Context, tipo string, limit, offset int) ([]Review, error) {
	return nil, nil
}

func TestSubmitComplaintReview(t *testing.T) {
	ownerID := uuid.New()
	complaintID := uuid.New()
	store := &stubStore{snapshot: &ComplaintSnapshot{
		ID:          complaintID,
		Status:      complaint.StatusResolved,
		SubmittedBy: ownerID,
		Categoria:   "water",
	}}
	svc := NewService(store)

	rev, err := svc.SubmitComplaintReview(context.Background(), complaintID, ownerID, 4, "Bom atendimento", "resolvido rápido")
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}
	if rev.Rating != 4 {
		t.Fatalf("rating = %d, esperado 4", rev.Rating)
	}
	if rev.Categoria != "water" {
		t.Fatal("categoria da reclamação deveria acompanhar a avaliação")
	}
}

func TestSubmitComplaintReviewRatingBounds(t *testing.T) {
	svc := NewService(&stubStore{})

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.SubmitComplaintReview(context.Background(), uuid.New(), uuid.New(), rating, "", "")
		if !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("rating %d: err = %v, esperado ErrInvalidRating", rating, err)
		}
	}
}

func TestSubmitComplaintReviewNotResolved(t *testing.T) {
	ownerID := uuid.New()
	store := &stubStore{snapshot: &ComplaintSnapshot{
		ID:          uuid.New(),
		Status:      complaint.StatusInProgress,
		SubmittedBy: ownerID,
	}}
	svc := NewService(store)

	_, err := svc.SubmitComplaintReview(context.Background(), store.snapshot.ID, ownerID, 5, "", "")
	if !errors.Is(err, ErrNotResolved) {
		t.Fatalf("err = %v, esperado ErrNotResolved", err)
	}
}

func TestSubmitComplaintReviewNotOwner(t *testing.T) {
	store := &stubStore{snapshot: &ComplaintSnapshot{
		ID:          uuid.New(),
		Status:      complaint.StatusResolved,
		SubmittedBy: uuid.New(),
	}}
	svc := NewService(store)

	_, err := svc.SubmitComplaintReview(context.Background(), store.snapshot.ID, uuid.New(), 5, "", "")
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, esperado ErrNotOwner", err)
	}
}

func TestSubmitComplaintReviewDuplicate(t *testing.T) {
	ownerID := uuid.New()
	store := &stubStore{
		snapshot: &ComplaintSnapshot{
			ID:          uuid.New(),
			Status:      complaint.StatusResolved,
			SubmittedBy: ownerID,
		},
		createErr: ErrDuplicate,
	}
	svc := NewService(store)

	_, err := svc.SubmitComplaintReview(context.Background(), store.snapshot.ID, ownerID, 5, "", "")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, esperado ErrDuplicate", err)
	}
}

func TestCreateSystemReviewRequiresContent(t *testing.T) {
	svc := NewService(&stubStore{})

	_, err := svc.CreateSystemReview(context.Background(), uuid.New(), 5, "Título", "   ", "")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, esperado ErrEmptyContent", err)
	}
}

package review

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/urbanbyte/ouvidoria/internal/complaint"
)

// Store é o subconjunto do repositório consumido pelo serviço.
type Store interface {
	GetComplaintSnapshot(ctx context.Context, complaintID uuid.UUID) (*ComplaintSnapshot, error)
	CreateComplaintReview(ctx context.Context, complaintID, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error)
	CreateSystemReview(ctx context.Context, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error)
	ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]Review, error)
	ListByType(ctx context.Context, tipo string, limit, offset int) ([]Review, error)
}

// Service aplica as precondições de avaliação.
type Service struct {
	store Store
}

// NewService cria o serviço de avaliações.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// SubmitComplaintReview registra a avaliação de uma reclamação resolvida.
// Precondições: reclamação resolvida, avaliador é quem abriu, uma avaliação
// por par (reclamação, usuário).
func (s *Service) SubmitComplaintReview(ctx context.Context, complaintID, userID uuid.UUID, rating int, titulo, feedback string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	snap, err := s.store.GetComplaintSnapshot(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if snap.Status != complaint.StatusResolved {
		return nil, ErrNotResolved
	}
	if snap.SubmittedBy != userID {
		return nil, ErrNotOwner
	}

	return s.store.CreateComplaintReview(ctx, complaintID, userID, rating, titulo, feedback, snap.Categoria)
}

// CreateSystemReview registra avaliação geral (sem reclamação vinculada).
func (s *Service) CreateSystemReview(ctx context.Context, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if strings.TrimSpace(conteudo) == "" {
		return nil, ErrEmptyContent
	}
	return s.store.CreateSystemReview(ctx, userID, rating, titulo, conteudo, categoria)
}

// ListForComplaint lista avaliações de uma reclamação.
func (s *Service) ListForComplaint(ctx context.Context, complaintID uuid.UUID) ([]Review, error) {
	return s.store.ListByComplaint(ctx, complaintID)
}

// ListSystem lista avaliações gerais do sistema.
func (s *Service) ListSystem(ctx context.Context, limit, offset int) ([]Review, error) {
	return s.store.ListByType(ctx, TypeSystem, limit, offset)
}

package review

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("avaliação não encontrada")
	ErrInvalidRating = errors.New("nota deve estar entre 1 e 5")
	// ErrNotResolved bloqueia avaliação de reclamação que ainda não foi resolvida.
	ErrNotResolved = errors.New("reclamação ainda não resolvida")
	// ErrNotOwner bloqueia avaliação por quem não abriu a reclamação.
	ErrNotOwner = errors.New("apenas quem abriu a reclamação pode avaliar")
	// ErrDuplicate bloqueia segunda avaliação do mesmo usuário para a mesma reclamação.
	ErrDuplicate    = errors.New("reclamação já avaliada por este usuário")
	ErrEmptyContent = errors.New("conteúdo obrigatório")
)

// Tipos de avaliação: vinculada a uma reclamação ou sobre o sistema em geral.
const (
	TypeComplaint = "complaint"
	TypeSystem    = "system"
)

// Review representa uma avaliação registrada por um usuário.
type Review struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ComplaintID *uuid.UUID `json:"complaint_id,omitempty"`
	Tipo        string     `json:"tipo"`
	Rating      int        `json:"rating"`
	Titulo      string     `json:"titulo,omitempty"`
	Conteudo    string     `json:"conteudo,omitempty"`
	Categoria   string     `json:"categoria,omitempty"`
	CriadoEm    time.Time  `json:"criado_em"`
}

// ComplaintSnapshot traz o mínimo da reclamação para aplicar as precondições
// de avaliação sem segunda consulta.
type ComplaintSnapshot struct {
	ID          uuid.UUID
	Status      string
	SubmittedBy uuid.UUID
	Categoria   string
}

package repo

import (
	"time"

	"github.com/google/uuid"
)

// Papéis mutuamente exclusivos de um usuário.
const (
	RoleCitizen  = "citizen"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// IsValidRole indica se o papel é aceito.
func IsValidRole(role string) bool {
	switch role {
	case RoleCitizen, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// User representa qualquer usuário do sistema (cidadão, prestador ou admin).
type User struct {
	ID        uuid.UUID `json:"id"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	SenhaHash string    `json:"-"`
	Role      string    `json:"role"`
	Ativo     bool      `json:"ativo"`
	CriadoEm  time.Time `json:"criado_em"`
}

// RefreshToken modela tabela de refresh tokens.
type RefreshToken struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	Expiracao time.Time
	Revogado  bool
	CriadoEm  time.Time
}

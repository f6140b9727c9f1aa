package department

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("departamento não encontrado")
	// ErrNoneForCategory indica que nenhum departamento ativo atende a categoria.
	// A criação da reclamação deve abortar por inteiro nesse caso.
	ErrNoneForCategory = errors.New("nenhum departamento atende a categoria")
	ErrCodigoTaken     = errors.New("código de departamento já existe")
	// ErrHasOpenComplaints bloqueia desativação enquanto houver reclamações
	// não terminais vinculadas.
	ErrHasOpenComplaints = errors.New("departamento possui reclamações em aberto")
	ErrStaffNotFound     = errors.New("vínculo de equipe não encontrado")
)

// Department representa uma unidade responsável por categorias de reclamação.
type Department struct {
	ID              uuid.UUID  `json:"id"`
	Codigo          string     `json:"codigo"`
	Nome            string     `json:"nome"`
	Categorias      []string   `json:"categorias"`
	ContatoEmail    string     `json:"contato_email,omitempty"`
	ContatoTelefone string     `json:"contato_telefone,omitempty"`
	HorarioInicio   string     `json:"horario_inicio,omitempty"`
	HorarioFim      string     `json:"horario_fim,omitempty"`
	ResponsavelID   *uuid.UUID `json:"responsavel_id,omitempty"`
	Ativo           bool       `json:"ativo"`
	CriadoEm        time.Time  `json:"criado_em"`
}

// StaffMember representa vínculo de um usuário com o departamento.
type StaffMember struct {
	DepartmentID uuid.UUID `json:"department_id"`
	UserID       uuid.UUID `json:"user_id"`
	Nome         string    `json:"nome"`
	Cargo        string    `json:"cargo"`
	Ativo        bool      `json:"ativo"`
	CriadoEm     time.Time `json:"criado_em"`
}

// CreateInput encapsula campos para criação de departamento.
type CreateInput struct {
	Codigo          string
	Nome            string
	Categorias      []string
	ContatoEmail    string
	ContatoTelefone string
	HorarioInicio   string
	HorarioFim      string
}

// UpdateInput permite edição parcial pelo administrador.
type UpdateInput struct {
	ID              uuid.UUID
	Nome            *string
	Categorias      []string
	ContatoEmail    *string
	ContatoTelefone *string
	HorarioInicio   *string
	HorarioFim      *string
}

package department

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso às tabelas de departamentos e equipe.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const departmentColumns = `id, codigo, nome, categorias, contato_email, contato_telefone,
        horario_inicio, horario_fim, responsavel_id, ativo, criado_em`

// Create insere departamento novo.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Department, error) {
	const query = `
        INSERT INTO departments (codigo, nome, categorias, contato_email, contato_telefone, horario_inicio, horario_fim)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + departmentColumns

	row := r.pool.QueryRow(ctx, query,
		strings.ToUpper(strings.TrimSpace(input.Codigo)),
		strings.TrimSpace(input.Nome),
		input.Categorias,
		strings.TrimSpace(input.ContatoEmail),
		strings.TrimSpace(input.ContatoTelefone),
		strings.TrimSpace(input.HorarioInicio),
		strings.TrimSpace(input.HorarioFim),
	)

	dept, err := scanDepartment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrCodigoTaken
		}
		return nil, err
	}
	return dept, nil
}

// Get busca departamento por id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Department, error) {
	const query = `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	return scanDepartment(r.pool.QueryRow(ctx, query, id))
}

// List lista departamentos; activeOnly restringe aos ativos.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments`
	if activeOnly {
		query += ` WHERE ativo`
	}
	query += ` ORDER BY criado_em ASC, id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *dept)
	}
	return departments, rows.Err()
}

// FirstActiveByCategory devolve o primeiro departamento ativo que atende a
// categoria, em ordem determinística de criação.
func (r *Repository) FirstActiveByCategory(ctx context.Context, category string) (*Department, error) {
	const query = `
        SELECT ` + departmentColumns + `
        FROM departments
        WHERE ativo AND $1 = ANY(categorias)
        ORDER BY criado_em ASC, id ASC
        LIMIT 1`

	dept, err := scanDepartment(r.pool.QueryRow(ctx, query, category))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoneForCategory
		}
		return nil, err
	}
	return dept, nil
}

// Update edita campos do departamento.
func (r *Repository) Update(ctx context.Context, input UpdateInput) (*Department, error) {
	setParts := []string{}
	args := []any{}
	idx := 1

	if input.Nome != nil {
		setParts = append(setParts, fmt.Sprintf("nome = $%d", idx))
		args = append(args, strings.TrimSpace(*input.Nome))
		idx++
	}
	if input.Categorias != nil {
		setParts = append(setParts, fmt.Sprintf("categorias = $%d", idx))
		args = append(args, input.Categorias)
		idx++
	}
	if input.ContatoEmail != nil {
		setParts = append(setParts, fmt.Sprintf("contato_email = $%d", idx))
		args = append(args, strings.TrimSpace(*input.ContatoEmail))
		idx++
	}
	if input.ContatoTelefone != nil {
		setParts = append(setParts, fmt.Sprintf("contato_telefone = $%d", idx))
		args = append(args, strings.TrimSpace(*input.ContatoTelefone))
		idx++
	}
	if input.HorarioInicio != nil {
		setParts = append(setParts, fmt.Sprintf("horario_inicio = $%d", idx))
		args = append(args, strings.TrimSpace(*input.HorarioInicio))
		idx++
	}
	if input.HorarioFim != nil {
		setParts = append(setParts, fmt.Sprintf("horario_fim = $%d", idx))
		args = append(args, strings.TrimSpace(*input.HorarioFim))
		idx++
	}

	if len(setParts) == 0 {
		return r.Get(ctx, input.ID)
	}

	args = append(args, input.ID)
	query := fmt.Sprintf(`UPDATE departments SET %s WHERE id = $%d RETURNING `+departmentColumns,
		strings.Join(setParts, ", "), idx)

	return scanDepartment(r.pool.QueryRow(ctx, query, args...))
}

// SetActive ativa/desativa departamento.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, ativo bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE departments SET ativo = $2 WHERE id = $1`, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetHead define o responsável pelo departamento.
func (r *Repository) SetHead(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE departments SET responsavel_id = $2 WHERE id = $1`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpenComplaints conta reclamações não terminais vinculadas ao departamento.
func (r *Repository) CountOpenComplaints(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
        SELECT COUNT(*)
        FROM complaints
        WHERE department_id = $1
          AND archived_at IS NULL
          AND status NOT IN ('resolved', 'closed')`

	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// UpsertStaff adiciona ou reativa vínculo de equipe.
func (r *Repository) UpsertStaff(ctx context.Context, departmentID, userID uuid.UUID, cargo string) error {
	const query = `
        INSERT INTO department_staff (department_id, user_id, cargo, ativo)
        VALUES ($1, $2, $3, TRUE)
        ON CONFLICT (department_id, user_id)
        DO UPDATE SET cargo = EXCLUDED.cargo, ativo = TRUE`

	_, err := r.pool.Exec(ctx, query, departmentID, userID, strings.TrimSpace(cargo))
	return err
}

// RemoveStaff desativa vínculo de equipe.
func (r *Repository) RemoveStaff(ctx context.Context, departmentID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE department_staff SET ativo = FALSE WHERE department_id = $1 AND user_id = $2 AND ativo`,
		departmentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}

// ListStaff lista equipe do departamento com nome do usuário.
func (r *Repository) ListStaff(ctx context.Context, departmentID uuid.UUID) ([]StaffMember, error) {
	const query = `
        SELECT ds.department_id, ds.user_id, u.nome, ds.cargo, ds.ativo, ds.criado_em
        FROM department_staff ds
        JOIN users u ON u.id = ds.user_id
        WHERE ds.department_id = $1
        ORDER BY ds.criado_em ASC`

	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []StaffMember
	for rows.Next() {
		var m StaffMember
		if err := rows.Scan(&m.DepartmentID, &m.UserID, &m.Nome, &m.Cargo, &m.Ativo, &m.CriadoEm); err != nil {
			return nil, err
		}
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

// CountActiveMemberships conta vínculos ativos do usuário em qualquer departamento.
func (r *Repository) CountActiveMemberships(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM department_staff WHERE user_id = $1 AND ativo`, userID).Scan(&count)
	return count, err
}

// IsHeadAnywhere indica se o usuário responde por algum departamento.
func (r *Repository) IsHeadAnywhere(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM departments WHERE responsavel_id = $1)`, userID).Scan(&exists)
	return exists, err
}

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Codigo, &d.Nome, &d.Categorias, &d.ContatoEmail, &d.ContatoTelefone,
		&d.HorarioInicio, &d.HorarioFim, &d.ResponsavelID, &d.Ativo, &d.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

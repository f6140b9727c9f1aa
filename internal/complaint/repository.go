package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanbyte/ouvidoria/internal/db"
)

// Repository provê acesso às tabelas de reclamações.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const complaintColumns = `id, titulo, descricao, categoria, prioridade, status, emergencia,
        submitted_by, department_id, assigned_to, latitude, longitude, endereco, bairro, cidade,
        resolved_at, resolution_hours, rating, feedback, archived_at, criado_em, atualizado_em`

// UpdateInput encapsula novo registro de andamento.
type UpdateInput struct {
	ComplaintID uuid.UUID
	Tipo        string
	Mensagem    string
	CreatedBy   uuid.UUID
}

// Create insere reclamação já roteada para um departamento.
func (r *Repository) Create(ctx context.Context, input CreateInput, departmentID uuid.UUID) (*Complaint, error) {
	const query = `
        INSERT INTO complaints (titulo, descricao, categoria, prioridade, emergencia,
            submitted_by, department_id, latitude, longitude, endereco, bairro, cidade)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING ` + complaintColumns

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(input.Titulo),
		strings.TrimSpace(input.Descricao),
		input.Categoria,
		input.Prioridade,
		input.Emergencia,
		input.SubmittedBy,
		departmentID,
		input.Location.Latitude,
		input.Location.Longitude,
		strings.TrimSpace(input.Location.Endereco),
		strings.TrimSpace(input.Location.Bairro),
		strings.TrimSpace(input.Location.Cidade),
	)

	return scanComplaint(row)
}

// Get busca reclamação por id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Complaint, error) {
	const query = `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return scanComplaint(r.pool.QueryRow(ctx, query, id))
}

// List lista reclamações aplicando filtros simples.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Complaint, error) {
	base := `SELECT ` + complaintColumns + ` FROM complaints`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if !filter.IncludeArchived {
		clauses = append(clauses, "archived_at IS NULL")
	}
	if len(filter.Status) > 0 {
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Categoria != "" {
		clauses = append(clauses, fmt.Sprintf("categoria = $%d", idx))
		args = append(args, filter.Categoria)
		idx++
	}
	if filter.DepartmentID != nil {
		clauses = append(clauses, fmt.Sprintf("department_id = $%d", idx))
		args = append(args, *filter.DepartmentID)
		idx++
	}
	if filter.SubmittedBy != nil {
		clauses = append(clauses, fmt.Sprintf("submitted_by = $%d", idx))
		args = append(args, *filter.SubmittedBy)
		idx++
	}
	if filter.AssignedTo != nil {
		clauses = append(clauses, fmt.Sprintf("assigned_to = $%d", idx))
		args = append(args, *filter.AssignedTo)
		idx++
	}
	if filter.CriadoDesde != nil {
		clauses = append(clauses, fmt.Sprintf("criado_em >= $%d", idx))
		args = append(args, *filter.CriadoDesde)
		idx++
	}
	if filter.CriadoAte != nil {
		clauses = append(clauses, fmt.Sprintf("criado_em <= $%d", idx))
		args = append(args, *filter.CriadoAte)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY criado_em DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// UpdateStatus grava transição com compare-and-swap no status de origem,
// registrando o andamento na mesma transação. Retorna ErrStatusConflict
// quando outra operação mudou o status no meio do caminho.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, oldStatus, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error) {
	var updated *Complaint

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const query = `
            UPDATE complaints
            SET status = $3,
                resolved_at = COALESCE(resolved_at, $4),
                resolution_hours = COALESCE(resolution_hours, $5),
                atualizado_em = now()
            WHERE id = $1 AND status = $2
            RETURNING ` + complaintColumns

		c, err := scanComplaint(tx.QueryRow(ctx, query, id, oldStatus, newStatus, resolvedAt, resolutionHours))
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, id).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return ErrStatusConflict
			}
			return ErrNotFound
		}

		if _, err := insertUpdate(ctx, tx, upd); err != nil {
			return err
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ForceStatus grava status sem validar transição (escape de administrador).
// Campos de resolução são escritos exatamente como informados, inclusive NULL.
func (r *Repository) ForceStatus(ctx context.Context, id uuid.UUID, newStatus string, resolvedAt *time.Time, resolutionHours *int, upd UpdateInput) (*Complaint, error) {
	var updated *Complaint

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const query = `
            UPDATE complaints
            SET status = $2,
                resolved_at = $3,
                resolution_hours = $4,
                atualizado_em = now()
            WHERE id = $1
            RETURNING ` + complaintColumns

		c, err := scanComplaint(tx.QueryRow(ctx, query, id, newStatus, resolvedAt, resolutionHours))
		if err != nil {
			return err
		}

		if _, err := insertUpdate(ctx, tx, upd); err != nil {
			return err
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Assign vincula responsável e opcionalmente avança submitted → under_review,
// tudo na mesma transação.
func (r *Repository) Assign(ctx context.Context, id uuid.UUID, providerID uuid.UUID, advance bool, updates []UpdateInput) (*Complaint, error) {
	var updated *Complaint

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		query := `
            UPDATE complaints
            SET assigned_to = $2, atualizado_em = now()
            WHERE id = $1
            RETURNING ` + complaintColumns
		args := []any{id, providerID}

		if advance {
			query = `
                UPDATE complaints
                SET assigned_to = $2,
                    status = CASE WHEN status = $3 THEN $4 ELSE status END,
                    atualizado_em = now()
                WHERE id = $1
                RETURNING ` + complaintColumns
			args = append(args, StatusSubmitted, StatusUnderReview)
		}

		c, err := scanComplaint(tx.QueryRow(ctx, query, args...))
		if err != nil {
			return err
		}

		for _, upd := range updates {
			if _, err := insertUpdate(ctx, tx, upd); err != nil {
				return err
			}
		}

		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddUpdate registra andamento avulso.
func (r *Repository) AddUpdate(ctx context.Context, input UpdateInput) (*Update, error) {
	return insertUpdate(ctx, r.pool, input)
}

// ListUpdates lista andamentos em ordem cronológica.
func (r *Repository) ListUpdates(ctx context.Context, complaintID uuid.UUID) ([]Update, error) {
	const query = `
        SELECT id, complaint_id, tipo, mensagem, created_by, criado_em
        FROM complaint_updates
        WHERE complaint_id = $1
        ORDER BY criado_em ASC`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []Update
	for rows.Next() {
		var u Update
		if err := rows.Scan(&u.ID, &u.ComplaintID, &u.Tipo, &u.Mensagem, &u.CreatedBy, &u.CriadoEm); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// AddAttachment grava referência de anexo.
func (r *Repository) AddAttachment(ctx context.Context, complaintID uuid.UUID, url, contentType string, tamanho int64) (*Attachment, error) {
	const query = `
        INSERT INTO complaint_attachments (complaint_id, url, content_type, tamanho)
        VALUES ($1, $2, $3, $4)
        RETURNING id, complaint_id, url, content_type, tamanho, criado_em`

	var a Attachment
	err := r.pool.QueryRow(ctx, query, complaintID, url, contentType, tamanho).
		Scan(&a.ID, &a.ComplaintID, &a.URL, &a.ContentType, &a.Tamanho, &a.CriadoEm)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAttachments lista anexos da reclamação.
func (r *Repository) ListAttachments(ctx context.Context, complaintID uuid.UUID) ([]Attachment, error) {
	const query = `
        SELECT id, complaint_id, url, content_type, tamanho, criado_em
        FROM complaint_attachments
        WHERE complaint_id = $1
        ORDER BY criado_em ASC`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.ComplaintID, &a.URL, &a.ContentType, &a.Tamanho, &a.CriadoEm); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

// Archive marca a reclamação como arquivada (nunca removemos registros).
func (r *Repository) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE complaints SET archived_at = now(), atualizado_em = now() WHERE id = $1 AND archived_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats consolida números do painel administrativo.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		PorStatus:       make(map[string]int64),
		PorCategoria:    make(map[string]int64),
		PorPrioridade:   make(map[string]int64),
		PorDepartamento: make(map[string]int64),
	}

	const query = `
        SELECT status, categoria, prioridade, department_id::text, emergencia, COUNT(*)
        FROM complaints
        WHERE archived_at IS NULL
        GROUP BY status, categoria, prioridade, department_id, emergencia`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, categoria, prioridade, deptID string
		var emergencia bool
		var count int64
		if err := rows.Scan(&status, &categoria, &prioridade, &deptID, &emergencia, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.PorStatus[status] += count
		stats.PorCategoria[categoria] += count
		stats.PorPrioridade[prioridade] += count
		stats.PorDepartamento[deptID] += count
		if emergencia {
			stats.Emergencias += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var media *float64
	err = r.pool.QueryRow(ctx,
		`SELECT AVG(resolution_hours)::float8 FROM complaints WHERE resolution_hours IS NOT NULL`).Scan(&media)
	if err != nil {
		return nil, err
	}
	stats.MediaResolucaoHora = media

	return stats, nil
}

type execQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertUpdate(ctx context.Context, q execQuerier, input UpdateInput) (*Update, error) {
	const query = `
        INSERT INTO complaint_updates (complaint_id, tipo, mensagem, created_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, complaint_id, tipo, mensagem, created_by, criado_em`

	var u Update
	err := q.QueryRow(ctx, query, input.ComplaintID, input.Tipo, strings.TrimSpace(input.Mensagem), input.CreatedBy).
		Scan(&u.ID, &u.ComplaintID, &u.Tipo, &u.Mensagem, &u.CreatedBy, &u.CriadoEm)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanComplaint(row pgx.Row) (*Complaint, error) {
	var c Complaint
	err := row.Scan(
		&c.ID, &c.Titulo, &c.Descricao, &c.Categoria, &c.Prioridade, &c.Status, &c.Emergencia,
		&c.SubmittedBy, &c.DepartmentID, &c.AssignedTo,
		&c.Location.Latitude, &c.Location.Longitude, &c.Location.Endereco, &c.Location.Bairro, &c.Location.Cidade,
		&c.ResolvedAt, &c.ResolutionHours, &c.Rating, &c.Feedback, &c.ArchivedAt,
		&c.CriadoEm, &c.AtualizadoEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

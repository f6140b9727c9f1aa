package review

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanbyte/ouvidoria/internal/db"
)

// Repository provê acesso à tabela de avaliações.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const reviewColumns = "id, user_id, complaint_id, tipo, rating, titulo, conteudo, categoria, criado_em"

// GetComplaintSnapshot carrega status e dono da reclamação para as precondições.
func (r *Repository) GetComplaintSnapshot(ctx context.Context, complaintID uuid.UUID) (*ComplaintSnapshot, error) {
	const query = `SELECT id, status, submitted_by, categoria FROM complaints WHERE id = $1`

	var snap ComplaintSnapshot
	err := r.pool.QueryRow(ctx, query, complaintID).Scan(&snap.ID, &snap.Status, &snap.SubmittedBy, &snap.Categoria)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}

// CreateComplaintReview grava a avaliação e desnormaliza nota/feedback na
// reclamação dentro da mesma transação. A linha em reviews é a fonte da
// verdade; as colunas na reclamação existem para leitura barata.
func (r *Repository) CreateComplaintReview(ctx context.Context, complaintID, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error) {
	var created *Review

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const insert = `
            INSERT INTO reviews (user_id, complaint_id, tipo, rating, titulo, conteudo, categoria)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (complaint_id, user_id) WHERE complaint_id IS NOT NULL DO NOTHING
            RETURNING ` + reviewColumns

		rev, err := scanReview(tx.QueryRow(ctx, insert,
			userID, complaintID, TypeComplaint, rating,
			strings.TrimSpace(titulo), strings.TrimSpace(conteudo), categoria))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrDuplicate
			}
			return err
		}

		const denormalize = `
            UPDATE complaints
            SET rating = $2, feedback = NULLIF($3, ''), atualizado_em = now()
            WHERE id = $1`
		if _, err := tx.Exec(ctx, denormalize, complaintID, rating, strings.TrimSpace(conteudo)); err != nil {
			return err
		}

		created = rev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateSystemReview grava avaliação geral do sistema.
func (r *Repository) CreateSystemReview(ctx context.Context, userID uuid.UUID, rating int, titulo, conteudo, categoria string) (*Review, error) {
	const query = `
        INSERT INTO reviews (user_id, tipo, rating, titulo, conteudo, categoria)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + reviewColumns

	return scanReview(r.pool.QueryRow(ctx, query,
		userID, TypeSystem, rating,
		strings.TrimSpace(titulo), strings.TrimSpace(conteudo), strings.TrimSpace(categoria)))
}

// ListByComplaint lista avaliações de uma reclamação.
func (r *Repository) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]Review, error) {
	const query = `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE complaint_id = $1
        ORDER BY criado_em DESC`

	return r.list(ctx, query, complaintID)
}

// ListByType lista avaliações por tipo, mais recentes primeiro.
func (r *Repository) ListByType(ctx context.Context, tipo string, limit, offset int) ([]Review, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE tipo = $1
        ORDER BY criado_em DESC
        LIMIT $2 OFFSET $3`

	return r.list(ctx, query, tipo, limit, offset)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rev)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (*Review, error) {
	var rev Review
	var titulo, conteudo, categoria *string
	err := row.Scan(&rev.ID, &rev.UserID, &rev.ComplaintID, &rev.Tipo, &rev.Rating, &titulo, &conteudo, &categoria, &rev.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if titulo != nil {
		rev.Titulo = *titulo
	}
	if conteudo != nil {
		rev.Conteudo = *conteudo
	}
	if categoria != nil {
		rev.Categoria = *categoria
	}
	return &rev, nil
}

package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries provê acesso às tabelas de usuários e sessões.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria instância de Queries.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const userColumns = "id, nome, email, senha_hash, role, ativo, criado_em"

// CreateUser insere usuário novo com papel informado.
func (q *Queries) CreateUser(ctx context.Context, nome, email, senhaHash, role string) (User, error) {
	const query = `
        INSERT INTO users (nome, email, senha_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + userColumns

	row := q.pool.QueryRow(ctx, query, strings.TrimSpace(nome), strings.ToLower(strings.TrimSpace(email)), senhaHash, role)
	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail busca usuário por e-mail normalizado.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

// GetUserByID busca usuário por id.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.pool.QueryRow(ctx, query, id))
}

// UpdateUserRole troca o papel do usuário (promoção/rebaixamento de prestador).
func (q *Queries) UpdateUserRole(ctx context.Context, id uuid.UUID, role string) error {
	tag, err := q.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserActive ativa/desativa a conta.
func (q *Queries) SetUserActive(ctx context.Context, id uuid.UUID, ativo bool) error {
	tag, err := q.pool.Exec(ctx, `UPDATE users SET ativo = $2 WHERE id = $1`, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsersByRole lista usuários de um papel (painel administrativo).
func (q *Queries) ListUsersByRole(ctx context.Context, role string, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
        SELECT ` + userColumns + `
        FROM users
        WHERE role = $1
        ORDER BY criado_em DESC
        LIMIT $2 OFFSET $3`

	rows, err := q.pool.Query(ctx, query, role, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Role, &u.Ativo, &u.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

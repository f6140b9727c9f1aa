package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertRefreshTokenParams agrupa campos do novo refresh token.
type InsertRefreshTokenParams struct {
	ID        uuid.UUID
	Subject   uuid.UUID
	TokenHash string
	Expiracao time.Time
}

// InsertRefreshToken persiste hash de refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (RefreshToken, error) {
	const query = `
        INSERT INTO refresh_tokens (id, subject, token_hash, expiracao)
        VALUES ($1, $2, $3, $4)
        RETURNING id, subject, token_hash, expiracao, revogado, criado_em`

	row := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.TokenHash, arg.Expiracao)
	return scanRefreshToken(row)
}

// GetRefreshTokenByHash busca refresh token não revogado pelo hash.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	const query = `
        SELECT id, subject, token_hash, expiracao, revogado, criado_em
        FROM refresh_tokens
        WHERE token_hash = $1`

	return scanRefreshToken(q.pool.QueryRow(ctx, query, tokenHash))
}

// RevokeRefreshToken marca token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := q.pool.Exec(ctx, `UPDATE refresh_tokens SET revogado = TRUE WHERE token_hash = $1`, tokenHash)
	return err
}

// RevokeOtherRefreshTokens revoga todas as sessões do subject exceto o hash atual.
func (q *Queries) RevokeOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	_, err := q.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revogado = TRUE WHERE subject = $1 AND token_hash <> $2 AND NOT revogado`,
		subject, keepHash)
	return err
}

func scanRefreshToken(row pgx.Row) (RefreshToken, error) {
	var t RefreshToken
	if err := row.Scan(&t.ID, &t.Subject, &t.TokenHash, &t.Expiracao, &t.Revogado, &t.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RefreshToken{}, ErrNotFound
		}
		return RefreshToken{}, err
	}
	return t, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/urbanbyte/ouvidoria/internal/auth"
	"github.com/urbanbyte/ouvidoria/internal/repo"
	"github.com/urbanbyte/ouvidoria/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type authRepository interface {
	CreateUser(ctx context.Context, nome, email, senhaHash, role string) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error
}

// AuthService concentra regras de autenticação e sessões. O domínio consome
// apenas subject e papel já verificados; nada aqui revalida tokens de acesso.
type AuthService struct {
	repo       authRepository
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	User          repo.User
}

// Register cria conta de cidadão. Papéis de prestador e admin nunca nascem
// no cadastro público.
func (s *AuthService) Register(ctx context.Context, nome, email, senha string) (*LoginResult, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, errors.New("nome obrigatório")
	}
	if err := util.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(senha); err != nil {
		return nil, err
	}

	hash, err := auth.Hash(senha)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, nome, email, hash, repo.RoleCitizen)
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

// Login autentica por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, senha string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil || !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	return s.issueSession(ctx, user)
}

// Refresh rotaciona sessão a partir do refresh token atual.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	hash := auth.HashRefreshToken(rawToken)

	stored, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if stored.Revogado || time.Now().After(stored.Expiracao) {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUserByID(ctx, stored.Subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		log.Warn().Err(err).Msg("refresh: falha ao revogar token anterior")
	}

	return result, nil
}

// Logout revoga o refresh token atual.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	return s.repo.RevokeRefreshToken(ctx, auth.HashRefreshToken(rawToken))
}

// GetMe carrega perfil do usuário autenticado.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (repo.User, error) {
	return s.repo.GetUserByID(ctx, subject)
}

func (s *AuthService) issueSession(ctx context.Context, user repo.User) (*LoginResult, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	raw, hashed, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(s.refreshTTL)
	_, err = s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   user.ID,
		TokenHash: hashed,
		Expiracao: expiry,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   access,
		RefreshToken:  raw,
		RefreshExpiry: expiry,
		User:          user,
	}, nil
}

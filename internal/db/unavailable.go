package db

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrUnavailable sinaliza falha transitória de infraestrutura (banco fora do ar,
// timeout de conexão). É a única classe de erro elegível para retry no cliente.
var ErrUnavailable = errors.New("armazenamento indisponível")

// IsUnavailable classifica erros de conectividade/timeout como indisponibilidade.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

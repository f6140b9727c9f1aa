package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrEmailTaken indica e-mail já cadastrado.
	ErrEmailTaken = errors.New("email já cadastrado")
)

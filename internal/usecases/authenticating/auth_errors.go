package authenticating

import (
	"errors"
	"fmt"

	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

var (
	ErrInvalidToken    = errors.New("token inválido")
	ErrExpiredToken    = errors.New("token expirado")
	ErrMissingSecret   = errors.New("chave secreta não configurada")
	ErrMissingSubject  = errors.New("nome do cliente é obrigatório")
	ErrInvalidDuration = errors.New("validade do token deve ser positiva")
)

// AuthError associa o erro de autenticação ao código devolvido pela API
type AuthError struct {
	Err     error
	Code    string
	Details string
}

func (e *AuthError) Error() string {
	if e.Details == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Details)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(baseErr error, code string, details string) *AuthError {
	return &AuthError{Err: baseErr, Code: code, Details: details}
}

// ErrorCode retorna o código de API do erro; erros sem código viram token inválido
func ErrorCode(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Code != "" {
		return authErr.Code
	}
	return apiErrors.ErrInvalidToken
}

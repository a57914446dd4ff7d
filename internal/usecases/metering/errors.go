package metering

import (
	"errors"
	"fmt"
)

// Erros específicos para o contexto de métricas
var (
	// ErrInvalidInput cobre período mal formatado, formato de data não suportado,
	// especificação de métricas inválida e chaves de agrupamento com aridade inconsistente
	ErrInvalidInput = errors.New("invalid input")

	// Erros de validação mais específicos, todos também ErrInvalidInput
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrUnsupportedFormat = errors.New("unsupported date format")
	ErrInvalidMetricSpec = errors.New("invalid metric specification")
	ErrGroupKeyArity     = errors.New("inconsistent group key arity")
	ErrInvalidFunc       = errors.New("invalid metric function")

	// Erros de fonte de registros
	ErrSourceFetch = errors.New("error fetching records from source")
)

// MetricsError é um erro com contexto adicional para o cálculo de métricas
type MetricsError struct {
	Err     error  // Erro base
	Code    string // Código de erro para API
	Value   string // Valor que causou o erro (quando aplicável)
	Details string // Detalhes adicionais
}

// Error implementa a interface error
func (e *MetricsError) Error() string {
	msg := e.Err.Error()
	if e.Value != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Value)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

// Unwrap retorna o erro subjacente
func (e *MetricsError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, ErrInvalidInput) para todos os erros de validação
func (e *MetricsError) Is(target error) bool {
	if target != ErrInvalidInput {
		return false
	}
	switch e.Err {
	case ErrInvalidInput, ErrInvalidDateRange, ErrUnsupportedFormat, ErrInvalidMetricSpec, ErrGroupKeyArity, ErrInvalidFunc:
		return true
	}
	return false
}

// NewMetricsError cria um novo MetricsError
func NewMetricsError(err error, code string, details string) *MetricsError {
	return &MetricsError{
		Err:     err,
		Code:    code,
		Details: details,
	}
}

// NewInvalidValueError cria um MetricsError identificando o valor inválido
func NewInvalidValueError(err error, code string, value string) *MetricsError {
	return &MetricsError{
		Err:   err,
		Code:  code,
		Value: value,
	}
}

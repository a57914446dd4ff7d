package domain

import (
	"fmt"
	"time"
)

// UnknownKey é usado quando a parte da chave é nula
const UnknownKey = "Unknown"

// GroupKey é o valor usado para agrupar registros: escalar (um nível) ou composto (um nível por posição)
type GroupKey struct {
	parts     []string
	composite bool
}

// ScalarKey cria uma chave de um único nível
func ScalarKey(v any) GroupKey {
	return GroupKey{parts: []string{keyString(v)}}
}

// CompositeKey cria uma chave hierárquica
func CompositeKey(values ...any) GroupKey {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, keyString(v))
	}
	return GroupKey{parts: parts, composite: true}
}

// Composite reporta se a chave foi criada com CompositeKey
func (k GroupKey) Composite() bool {
	return k.composite
}

// Depth é o número de níveis da chave
func (k GroupKey) Depth() int {
	return len(k.parts)
}

// Parts retorna uma cópia das partes da chave
func (k GroupKey) Parts() []string {
	out := make([]string, len(k.parts))
	copy(out, k.parts)
	return out
}

// Shape descreve a aridade da chave, usada para exigir chaves uniformes
func (k GroupKey) Shape() string {
	if k.composite {
		return fmt.Sprintf("composite/%d", len(k.parts))
	}
	return "scalar"
}

// GroupKeyFunc extrai a chave de agrupamento de um registro
type GroupKeyFunc func(r Record) GroupKey

// FieldsKey agrupa pelos campos informados; um campo gera chave escalar
func FieldsKey(fields ...string) GroupKeyFunc {
	if len(fields) == 1 {
		field := fields[0]
		return func(r Record) GroupKey {
			v, _ := r.Get(field)
			return ScalarKey(v)
		}
	}

	return func(r Record) GroupKey {
		values := make([]any, 0, len(fields))
		for _, field := range fields {
			v, _ := r.Get(field)
			values = append(values, v)
		}
		return CompositeKey(values...)
	}
}

func keyString(v any) string {
	switch val := v.(type) {
	case nil:
		return UnknownKey
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.DateOnly)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

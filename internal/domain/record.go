package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Record é uma linha retornada por uma fonte de registros, com acesso por nome de campo
type Record map[string]any

// Get retorna o valor do campo. Caminhos com ponto ("customer.city") descem em mapas aninhados.
func (r Record) Get(field string) (any, bool) {
	if v, ok := r[field]; ok {
		return v, true
	}

	if !strings.Contains(field, ".") {
		return nil, false
	}

	var current any = map[string]any(r)
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		case Record:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			current = v
		default:
			return nil, false
		}
	}

	return current, true
}

// Time retorna o campo como time.Time quando possível.
// Valores sem fuso horário são interpretados em loc.
func (r Record) Time(field string, loc *time.Location) (time.Time, bool) {
	v, ok := r.Get(field)
	if !ok || v == nil {
		return time.Time{}, false
	}

	if loc == nil {
		loc = time.UTC
	}

	t, err := cast.ToTimeInDefaultLocationE(v, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Numeric converte um valor para float64 quando ele representa um número.
// nil e booleanos não são numéricos; strings numéricas e []byte (NUMERIC do postgres) são.
func Numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case nil, bool:
		return 0, false
	case []byte:
		v = string(val)
	case fmt.Stringer:
		v = val.String()
	}

	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		v = s
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

package domain

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Operator é o operador de comparação de uma Condition
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// Valid reporta se o operador é suportado
func (o Operator) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return true
	}
	return false
}

// Predicate decide se um registro participa de um cálculo
type Predicate interface {
	Match(r Record) bool
}

// PredicateFunc adapta uma função comum para Predicate
type PredicateFunc func(r Record) bool

func (f PredicateFunc) Match(r Record) bool {
	return f(r)
}

// Condition compara um campo do registro com um valor fixo.
// Operador vazio equivale a "=".
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator,omitempty"`
	Value    any      `json:"value"`
}

// Op retorna o operador efetivo
func (c Condition) Op() Operator {
	if c.Operator == "" {
		return OpEqual
	}
	return c.Operator
}

// Match compara numericamente quando os dois lados são números e como texto caso contrário
func (c Condition) Match(r Record) bool {
	v, ok := r.Get(c.Field)
	if !ok {
		return false
	}

	cmp, comparable := compare(v, c.Value)
	if !comparable {
		return c.Op() == OpNotEqual
	}

	switch c.Op() {
	case OpEqual:
		return cmp == 0
	case OpNotEqual:
		return cmp != 0
	case OpGreater:
		return cmp > 0
	case OpGreaterOrEqual:
		return cmp >= 0
	case OpLess:
		return cmp < 0
	case OpLessOrEqual:
		return cmp <= 0
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s%s%v", c.Field, c.Op(), c.Value)
}

func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}

	fa, okA := Numeric(a)
	fb, okB := Numeric(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}

	sa, errA := cast.ToStringE(a)
	sb, errB := cast.ToStringE(b)
	if errA != nil || errB != nil {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

// Filter é uma conjunção de Conditions, aplicada antes da busca dos registros
type Filter []Condition

// Match reporta se todas as condições são satisfeitas
func (f Filter) Match(r Record) bool {
	for _, c := range f {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// ParseCondition interpreta expressões como "status=paid" ou "amount>=100".
// Vale o operador que aparece primeiro; na mesma posição, o de dois caracteres (">=" antes de ">").
// O restante da expressão é o valor, mesmo que contenha outros operadores.
func ParseCondition(expr string) (Condition, error) {
	best, bestIdx := Operator(""), -1
	for _, op := range []Operator{OpNotEqual, OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpGreater, OpLess} {
		idx := strings.Index(expr, string(op))
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && len(op) > len(best)) {
			best, bestIdx = op, idx
		}
	}

	if bestIdx <= 0 {
		return Condition{}, fmt.Errorf("invalid condition %q", expr)
	}

	field := strings.TrimSpace(expr[:bestIdx])
	if field == "" {
		return Condition{}, fmt.Errorf("invalid condition %q", expr)
	}

	return Condition{
		Field:    field,
		Operator: best,
		Value:    strings.TrimSpace(expr[bestIdx+len(best):]),
	}, nil
}

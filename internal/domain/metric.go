package domain

import (
	"fmt"
	"strings"
)

// Aggregation é a função aplicada a um campo dentro de um grupo
type Aggregation string

const (
	AggregationSum   Aggregation = "sum"
	AggregationCount Aggregation = "count"
	AggregationAvg   Aggregation = "avg"
	AggregationList  Aggregation = "list"
)

// Valid reporta se a agregação é suportada
func (a Aggregation) Valid() bool {
	switch a {
	case AggregationSum, AggregationCount, AggregationAvg, AggregationList:
		return true
	}
	return false
}

// Metric descreve uma métrica calculada em cada grupo folha
type Metric struct {
	Name  string      `json:"name"`
	Field string      `json:"field"`
	Func  Aggregation `json:"func"`
	// Where restringe os registros do grupo que participam da métrica (opcional)
	Where Predicate `json:"-"`
}

// MetricSpec é a lista ordenada de métricas de uma chamada
type MetricSpec []Metric

// Names retorna os nomes na ordem de declaração
func (m MetricSpec) Names() []string {
	names := make([]string, 0, len(m))
	for _, metric := range m {
		names = append(names, metric.Name)
	}
	return names
}

// ParseMetric interpreta "name:field:func[:condition]", ex: "paid_total:amount:sum:status=paid"
func ParseMetric(expr string) (Metric, error) {
	parts := strings.SplitN(expr, ":", 4)
	if len(parts) < 3 {
		return Metric{}, fmt.Errorf("invalid metric %q, expected name:field:func", expr)
	}

	metric := Metric{
		Name:  strings.TrimSpace(parts[0]),
		Field: strings.TrimSpace(parts[1]),
		Func:  Aggregation(strings.ToLower(strings.TrimSpace(parts[2]))),
	}

	if len(parts) == 4 && parts[3] != "" {
		cond, err := ParseCondition(parts[3])
		if err != nil {
			return Metric{}, err
		}
		metric.Where = cond
	}

	return metric, nil
}

package metering

import (
	"fmt"

	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

// validateMetrics garante ao menos uma métrica, nomes únicos e funções suportadas
func validateMetrics(metrics domain.MetricSpec) error {
	if len(metrics) == 0 {
		return NewMetricsError(ErrInvalidMetricSpec, apiErrors.ErrMissingRequiredData, "at least one metric is required")
	}

	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if m.Name == "" {
			return NewMetricsError(ErrInvalidMetricSpec, apiErrors.ErrInvalidRequest, "metric name is required")
		}
		if seen[m.Name] {
			return NewInvalidValueError(ErrInvalidMetricSpec, apiErrors.ErrInvalidRequest, m.Name)
		}
		seen[m.Name] = true

		if !m.Func.Valid() {
			return NewInvalidValueError(ErrInvalidFunc, apiErrors.ErrInvalidRequest, string(m.Func))
		}
		if m.Field == "" && m.Func != domain.AggregationCount {
			return NewMetricsError(ErrInvalidMetricSpec, apiErrors.ErrInvalidRequest, fmt.Sprintf("metric %s requires a field", m.Name))
		}
	}

	return nil
}

// computeLeaf calcula todas as métricas de um grupo folha
func computeLeaf(group []domain.Record, metrics domain.MetricSpec) *domain.Node {
	node := domain.NewNode()
	for _, m := range metrics {
		node.SetMetric(m.Name, computeMetric(group, m))
	}
	return node
}

// computeMetric aplica o predicado da métrica e depois a função de agregação.
// count conta os registros independentemente do campo; sum e avg ignoram valores não numéricos;
// list devolve os valores brutos na ordem de busca.
func computeMetric(group []domain.Record, m domain.Metric) domain.Value {
	filtered := group
	if m.Where != nil {
		filtered = make([]domain.Record, 0, len(group))
		for _, r := range group {
			if m.Where.Match(r) {
				filtered = append(filtered, r)
			}
		}
	}

	switch m.Func {
	case domain.AggregationList:
		items := make([]any, 0, len(filtered))
		for _, r := range filtered {
			v, _ := r.Get(m.Field)
			items = append(items, v)
		}
		return domain.ListValue(items)

	case domain.AggregationCount:
		return domain.NumberValue(float64(len(filtered)))

	case domain.AggregationAvg:
		sum, count := sumNumeric(filtered, m.Field)
		return domain.AverageValue(sum, count)

	default:
		sum, _ := sumNumeric(filtered, m.Field)
		return domain.NumberValue(sum)
	}
}

func sumNumeric(records []domain.Record, field string) (float64, float64) {
	var sum, count float64
	for _, r := range records {
		v, ok := r.Get(field)
		if !ok {
			continue
		}
		if n, ok := domain.Numeric(v); ok {
			sum += n
			count++
		}
	}
	return sum, count
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

// metricsQuery são os parâmetros comuns às rotas de métricas
type metricsQuery struct {
	Datasets  []string
	Start     *time.Time
	End       *time.Time
	DateField string
	Filter    domain.Filter
	Metrics   domain.MetricSpec
	GroupBy   []string
	Func      domain.Aggregation
	Field     string

	// RangeErr guarda o erro de um date_range inválido que foi trocado pela janela padrão
	RangeErr error
}

// parseMetricsQuery lê o dataset da rota e os parâmetros da query string
func parseMetricsQuery(r *http.Request, now time.Time) (*metricsQuery, error) {
	q := &metricsQuery{
		Datasets:  splitList(httprouter.ParamsFromContext(r.Context()).ByName("dataset")),
		DateField: strings.TrimSpace(r.URL.Query().Get("date_field")),
		GroupBy:   splitList(r.URL.Query().Get("group_by")),
		Func:      domain.Aggregation(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("func")))),
		Field:     strings.TrimSpace(r.URL.Query().Get("field")),
	}

	if len(q.Datasets) == 0 {
		return nil, metering.NewMetricsError(metering.ErrInvalidInput, apiErrors.ErrMissingRequiredData, "dataset is required")
	}

	if err := q.parseRange(r, now); err != nil {
		return nil, err
	}

	for _, expr := range r.URL.Query()["filter"] {
		cond, err := domain.ParseCondition(expr)
		if err != nil {
			return nil, metering.NewInvalidValueError(metering.ErrInvalidInput, apiErrors.ErrInvalidFormat, expr)
		}
		q.Filter = append(q.Filter, cond)
	}

	for _, expr := range r.URL.Query()["metric"] {
		metric, err := domain.ParseMetric(expr)
		if err != nil {
			return nil, metering.NewInvalidValueError(metering.ErrInvalidMetricSpec, apiErrors.ErrInvalidFormat, expr)
		}
		q.Metrics = append(q.Metrics, metric)
	}

	return q, nil
}

// parseRange aceita date_range ("A - B") ou start_date/end_date; sem nenhum deles vale o mês corrente
func (q *metricsQuery) parseRange(r *http.Request, now time.Time) error {
	if value := r.URL.Query().Get("date_range"); value != "" {
		rng, err := metering.ParseDateRangeOrDefault(value, now)
		q.Start, q.End = &rng.Start, &rng.End
		q.RangeErr = err
		return nil
	}

	if value := r.URL.Query().Get("start_date"); value != "" {
		start, err := metering.ParseDate(value, now.Location())
		if err != nil {
			return err
		}
		q.Start = &start
	}

	if value := r.URL.Query().Get("end_date"); value != "" {
		end, err := metering.ParseDate(value, now.Location())
		if err != nil {
			return err
		}
		q.End = &end
	}

	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return metering.NewMetricsError(metering.ErrInvalidDateRange, apiErrors.ErrInvalidRequest, "start date is after end date")
	}

	return nil
}

// Range devolve o período efetivo da consulta, com os mesmos padrões do serviço de métricas
func (q *metricsQuery) Range(now time.Time) domain.TimeRange {
	return metering.Normalize(q.Start, q.End, now)
}

// GroupKey agrupa pelos campos de group_by; nil quando não há agrupamento
func (q *metricsQuery) GroupKey() domain.GroupKeyFunc {
	if len(q.GroupBy) == 0 {
		return nil
	}
	return domain.FieldsKey(q.GroupBy...)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

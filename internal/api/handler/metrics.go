package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vfg2006/metrics-api/infrastructure/export"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-api/pkg/log"
	"github.com/vfg2006/metrics-api/pkg/palette"
)

// MetricServices contém as dependências das rotas de métricas
type MetricServices struct {
	Aggregator metering.Aggregator
	Sources    metering.SourceResolver
	Exporter   export.Exporter
	// Now retorna o instante atual no fuso configurado
	Now func() time.Time
}

type aggregateResponse struct {
	*domain.AggregateResult
	Datasets []string `json:"datasets"`
	Label    string   `json:"label"`
}

type headlineResponse struct {
	Datasets []string           `json:"datasets"`
	Func     domain.Aggregation `json:"func"`
	Field    string             `json:"field,omitempty"`
	Value    string             `json:"value"`
	Range    domain.TimeRange   `json:"range"`
	Label    string             `json:"label"`
}

type seriesResponse struct {
	*domain.TimeSeries
	Datasets []string           `json:"datasets"`
	Func     domain.Aggregation `json:"func"`
	Field    string             `json:"field,omitempty"`
	Label    string             `json:"label"`
	Colors   palette.Chart      `json:"colors"`
}

// ListDatasets retorna os datasets configurados
func ListDatasets(services MetricServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		names := services.Sources.Names()
		logger.WithField("count", len(names)).Debug("metrics: listing datasets")

		writeJSON(w, logger, http.StatusOK, map[string]any{"datasets": names})
	})
}

func GetAggregate(services MetricServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		q, sources, ok := prepareMetricsQuery(w, r, services, logger)
		if !ok {
			return
		}

		if len(q.Metrics) == 0 {
			logger.WithField("dataset", strings.Join(q.Datasets, ",")).Warn("metrics: aggregate without metric parameter")
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "at least one metric parameter is required", nil)
			return
		}

		result, ok := runAggregate(w, r, services, logger, q, sources)
		if !ok {
			return
		}

		logger.WithFields(log.Fields{
			"dataset":  strings.Join(q.Datasets, ","),
			"interval": result.Interval,
			"depth":    result.Depth,
		}).Info("metrics: aggregate computed")

		writeJSON(w, logger, http.StatusOK, aggregateResponse{
			AggregateResult: result,
			Datasets:        q.Datasets,
			Label:           metering.FormatRangeLabel(result.Range),
		})
	})
}

func GetHeadline(services MetricServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		q, sources, ok := prepareMetricsQuery(w, r, services, logger)
		if !ok {
			return
		}

		fn := q.Func
		if fn == "" {
			fn = domain.AggregationCount
		}

		value, err := services.Aggregator.Headline(r.Context(), metering.HeadlineRequest{
			Sources:   sources,
			Func:      fn,
			Field:     q.Field,
			Start:     q.Start,
			End:       q.End,
			Filter:    q.Filter,
			DateField: q.DateField,
		})
		if err != nil {
			writeMetricsError(w, logger, err)
			return
		}

		rng := q.Range(services.Now())
		logger.WithFields(log.Fields{
			"dataset":     strings.Join(q.Datasets, ","),
			"metric_func": fn,
		}).Info("metrics: headline computed")

		writeJSON(w, logger, http.StatusOK, headlineResponse{
			Datasets: q.Datasets,
			Func:     fn,
			Field:    q.Field,
			Value:    value,
			Range:    rng,
			Label:    metering.FormatRangeLabel(rng),
		})
	})
}

func GetSeries(services MetricServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		q, sources, ok := prepareMetricsQuery(w, r, services, logger)
		if !ok {
			return
		}

		fn := q.Func
		if fn == "" {
			fn = domain.AggregationCount
		}

		series, err := services.Aggregator.Series(r.Context(), metering.SeriesRequest{
			Sources:   sources,
			Func:      fn,
			Field:     q.Field,
			Start:     q.Start,
			End:       q.End,
			Filter:    q.Filter,
			DateField: q.DateField,
		})
		if err != nil {
			writeMetricsError(w, logger, err)
			return
		}

		logger.WithFields(log.Fields{
			"dataset":  strings.Join(q.Datasets, ","),
			"interval": series.Interval,
			"points":   len(series.Points),
		}).Info("metrics: series computed")

		writeJSON(w, logger, http.StatusOK, seriesResponse{
			TimeSeries: series,
			Datasets:   q.Datasets,
			Func:       fn,
			Field:      q.Field,
			Label:      metering.FormatRangeLabel(series.Range),
			Colors:     palette.Colors(len(series.Points)),
		})
	})
}

// ExportMetrics gera uma planilha com a agregação (parâmetros metric) e/ou a série (parâmetro func)
func ExportMetrics(services MetricServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		q, sources, ok := prepareMetricsQuery(w, r, services, logger)
		if !ok {
			return
		}

		if len(q.Metrics) == 0 && q.Func == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "metric or func parameter is required", nil)
			return
		}

		input := export.ReportInput{
			Title:      strings.Join(q.Datasets, ", "),
			KeyColumns: q.GroupBy,
		}
		if q.RangeErr != nil {
			input.Notes = append(input.Notes, "Invalid date_range, showing the last 30 days")
		}

		if len(q.Metrics) > 0 {
			input.Aggregate, ok = runAggregate(w, r, services, logger, q, sources)
			if !ok {
				return
			}
		}

		if q.Func != "" {
			series, err := services.Aggregator.Series(r.Context(), metering.SeriesRequest{
				Sources:   sources,
				Func:      q.Func,
				Field:     q.Field,
				Start:     q.Start,
				End:       q.End,
				Filter:    q.Filter,
				DateField: q.DateField,
			})
			if err != nil {
				writeMetricsError(w, logger, err)
				return
			}
			input.Series = series
		}

		if len(q.Filter) > 0 {
			conds := make([]string, 0, len(q.Filter))
			for _, c := range q.Filter {
				conds = append(conds, c.String())
			}
			input.Notes = append(input.Notes, "Filters: "+strings.Join(conds, ", "))
		}

		report, err := services.Exporter.Export(input)
		if err != nil {
			logger.WithField("error", err.Error()).Error("metrics: failed to export report")
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "failed to export report", nil)
			return
		}

		logger.WithFields(log.Fields{
			"dataset": strings.Join(q.Datasets, ","),
			"file":    report.FileName,
		}).Info("metrics: report exported")

		w.Header().Set("Content-Type", report.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.FileName+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(report.Data)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(report.Data); err != nil {
			logger.WithField("error", err.Error()).Warn("metrics: failed to write report")
		}
	})
}

func runAggregate(
	w http.ResponseWriter,
	r *http.Request,
	services MetricServices,
	logger log.Logger,
	q *metricsQuery,
	sources []metering.RecordSource,
) (*domain.AggregateResult, bool) {
	result, err := services.Aggregator.Aggregate(r.Context(), metering.AggregateRequest{
		Sources:   sources,
		Metrics:   q.Metrics,
		Start:     q.Start,
		End:       q.End,
		GroupKey:  q.GroupKey(),
		Filter:    q.Filter,
		DateField: q.DateField,
	})
	if err != nil {
		writeMetricsError(w, logger, err)
		return nil, false
	}
	return result, true
}

// prepareMetricsQuery interpreta os parâmetros e resolve os datasets; escreve o erro e retorna false se falhar
func prepareMetricsQuery(
	w http.ResponseWriter,
	r *http.Request,
	services MetricServices,
	logger log.Logger,
) (*metricsQuery, []metering.RecordSource, bool) {
	q, err := parseMetricsQuery(r, services.Now())
	if err != nil {
		writeMetricsError(w, logger, err)
		return nil, nil, false
	}

	if q.RangeErr != nil {
		logger.WithFields(log.Fields{
			"date_range": r.URL.Query().Get("date_range"),
			"error":      q.RangeErr.Error(),
		}).Warn("metrics: invalid date_range, falling back to the last 30 days")
	}

	sources, err := services.Sources.Resolve(q.Datasets...)
	if err != nil {
		writeMetricsError(w, logger, err)
		return nil, nil, false
	}

	return q, sources, true
}

package metering

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-api/pkg/format"
)

// DefaultDateField é o campo de data usado quando a requisição não informa outro
const DefaultDateField = "created_at"

// AggregateRequest são os parâmetros de uma agregação agrupada
type AggregateRequest struct {
	Sources   []RecordSource
	Metrics   domain.MetricSpec
	Start     *time.Time
	End       *time.Time
	GroupKey  domain.GroupKeyFunc
	Filter    domain.Filter
	DateField string
}

// ScalarRequest são os parâmetros das métricas de um único valor (headline e série temporal)
type ScalarRequest struct {
	Sources   []RecordSource
	Func      domain.Aggregation
	Field     string
	Start     *time.Time
	End       *time.Time
	Filter    domain.Filter
	DateField string
}

type (
	HeadlineRequest = ScalarRequest
	SeriesRequest   = ScalarRequest
)

// Service implementa Aggregator
type Service struct {
	cfg       config.Metrics
	formatter NumberFormatter
	location  *time.Location
	now       func() time.Time
}

// NewService cria uma nova instância do serviço de métricas
func NewService(cfg config.Metrics, formatter NumberFormatter) *Service {
	if formatter == nil {
		formatter = NumberFormatterFunc(format.IndianFormat)
	}

	loc := time.Local
	if cfg.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Timezone); err == nil {
			loc = l
		} else {
			logrus.WithError(err).WithField("timezone", cfg.Timezone).Warn("Fuso horário inválido, usando o fuso local")
		}
	}

	return &Service{
		cfg:       cfg,
		formatter: formatter,
		location:  loc,
		now:       time.Now,
	}
}

// WithClock substitui o relógio usado para os períodos padrão
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Location retorna o fuso usado para os limites de dia
func (s *Service) Location() *time.Location {
	return s.location
}

// Now retorna o horário atual no fuso do serviço
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// Aggregate busca os registros de cada fonte em cada sub-período, agrupa, calcula as métricas
// das folhas e faz o deep-merge dos parciais entre sub-períodos e entre fontes
func (s *Service) Aggregate(ctx context.Context, req AggregateRequest) (*domain.AggregateResult, error) {
	if err := validateMetrics(req.Metrics); err != nil {
		return nil, err
	}

	period := Normalize(req.Start, req.End, s.Now())
	interval := DetermineInterval(period.Start, period.End)
	subRanges := GenerateSubRanges(period.Start, period.End, interval)

	result := &domain.AggregateResult{
		Range:    period,
		Interval: interval,
		Metrics:  req.Metrics.Names(),
		Root:     domain.NewNode(),
	}

	if len(req.Sources) == 0 {
		return result, nil
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	dateField := s.dateField(req.DateField)
	guard := &arityGuard{}

	for _, source := range req.Sources {
		sourceNode := domain.NewNode()

		err := s.forEachSubRange(ctx, source, subRanges, dateField, req.Filter, func(_ int, records []domain.Record) error {
			if len(records) == 0 {
				return nil
			}

			partial, err := groupRecords(records, req.GroupKey, req.Metrics, guard)
			if err != nil {
				return err
			}

			sourceNode.Merge(partial)
			return nil
		})
		if err != nil {
			return nil, err
		}

		result.Root.Merge(sourceNode)
	}

	if req.GroupKey != nil && guard.shape != "" {
		result.Depth = depthOf(result.Root)
	}

	logrus.WithFields(logrus.Fields{
		"sources":    len(req.Sources),
		"sub_ranges": len(subRanges),
		"interval":   interval,
		"start_date": period.Start.Format(time.DateOnly),
		"end_date":   period.End.Format(time.DateOnly),
	}).Debug("Agregação de métricas concluída")

	return result, nil
}

// Headline calcula a soma ou contagem total do período e formata o valor para exibição
func (s *Service) Headline(ctx context.Context, req HeadlineRequest) (string, error) {
	value, err := s.HeadlineValue(ctx, req)
	if err != nil {
		return "", err
	}
	return s.formatter.Format(value), nil
}

// HeadlineValue calcula a soma ou contagem total do período
func (s *Service) HeadlineValue(ctx context.Context, req HeadlineRequest) (float64, error) {
	series, err := s.Series(ctx, req)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, p := range series.Points {
		total += p.Value
	}
	return total, nil
}

// Series calcula um valor por sub-período, somando todas as fontes
func (s *Service) Series(ctx context.Context, req SeriesRequest) (*domain.TimeSeries, error) {
	if err := validateScalar(req.Func, req.Field); err != nil {
		return nil, err
	}

	period := Normalize(req.Start, req.End, s.Now())
	interval := DetermineInterval(period.Start, period.End)
	subRanges := GenerateSubRanges(period.Start, period.End, interval)

	series := &domain.TimeSeries{
		Range:    period,
		Interval: interval,
		Points:   make([]domain.SeriesPoint, len(subRanges)),
	}
	for i, sr := range subRanges {
		series.Points[i] = domain.SeriesPoint{
			Label: PointLabel(sr.Start, interval),
			Start: sr.Start,
			End:   sr.End,
		}
	}

	if len(req.Sources) == 0 {
		return series, nil
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	dateField := s.dateField(req.DateField)
	metric := domain.Metric{Name: string(req.Func), Field: req.Field, Func: req.Func}

	for _, source := range req.Sources {
		if reducer, ok := source.(Reducer); ok {
			values, err := s.reduceAll(ctx, source, reducer, subRanges, dateField, req)
			if err != nil {
				return nil, err
			}
			for i, v := range values {
				series.Points[i].Value += v
			}
			continue
		}

		err := s.forEachSubRange(ctx, source, subRanges, dateField, req.Filter, func(i int, records []domain.Record) error {
			if len(records) == 0 {
				return nil
			}
			series.Points[i].Value += computeMetric(records, metric).Number
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return series, nil
}

// forEachSubRange busca os registros de cada sub-período e entrega os resultados em ordem.
// Com MaxConcurrentFetches > 1 as buscas rodam em paralelo e a entrega continua sequencial.
func (s *Service) forEachSubRange(
	ctx context.Context,
	source RecordSource,
	subRanges []domain.SubRange,
	dateField string,
	filter domain.Filter,
	visit func(i int, records []domain.Record) error,
) error {
	query := func(sr domain.SubRange) RecordQuery {
		return RecordQuery{DateField: dateField, Range: sr, Filter: filter}
	}

	if s.cfg.MaxConcurrentFetches <= 1 || len(subRanges) == 1 {
		for i, sr := range subRanges {
			records, err := source.Fetch(ctx, query(sr))
			if err != nil {
				return s.fetchError(source, sr, err)
			}
			if err := visit(i, records); err != nil {
				return err
			}
		}
		return nil
	}

	batches := make([][]domain.Record, len(subRanges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentFetches)

	for i, sr := range subRanges {
		g.Go(func() error {
			records, err := source.Fetch(gctx, query(sr))
			if err != nil {
				return s.fetchError(source, sr, err)
			}
			batches[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, records := range batches {
		if err := visit(i, records); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) reduceAll(
	ctx context.Context,
	source RecordSource,
	reducer Reducer,
	subRanges []domain.SubRange,
	dateField string,
	req ScalarRequest,
) ([]float64, error) {
	values := make([]float64, len(subRanges))

	limit := s.cfg.MaxConcurrentFetches
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sr := range subRanges {
		g.Go(func() error {
			q := RecordQuery{DateField: dateField, Range: sr, Filter: req.Filter}
			v, err := reducer.Reduce(gctx, q, req.Func, req.Field)
			if err != nil {
				return s.fetchError(source, sr, err)
			}
			values[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Service) fetchError(source RecordSource, sr domain.SubRange, err error) error {
	logrus.WithError(err).WithFields(logrus.Fields{
		"source":     source.Name(),
		"start_date": sr.Start.Format(time.DateTime),
		"end_date":   sr.End.Format(time.DateTime),
	}).Error("Erro ao buscar registros da fonte")

	return &MetricsError{
		Err:     fmt.Errorf("%w: %w", ErrSourceFetch, err),
		Code:    apiErrors.ErrDatabaseOperation,
		Value:   source.Name(),
		Details: err.Error(),
	}
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

func (s *Service) dateField(field string) string {
	if field != "" {
		return field
	}
	if s.cfg.DefaultDateField != "" {
		return s.cfg.DefaultDateField
	}
	return DefaultDateField
}

func validateScalar(fn domain.Aggregation, field string) error {
	switch fn {
	case domain.AggregationCount:
		return nil
	case domain.AggregationSum:
		if field == "" {
			return NewMetricsError(ErrInvalidMetricSpec, apiErrors.ErrMissingRequiredData, "sum requires a field")
		}
		return nil
	default:
		return NewInvalidValueError(ErrInvalidFunc, apiErrors.ErrInvalidRequest, string(fn))
	}
}

// PointLabel gera o rótulo de um ponto da série conforme a granularidade
func PointLabel(t time.Time, interval domain.Interval) string {
	switch interval {
	case domain.IntervalMonthly:
		return t.Format("Jan 2006")
	case domain.IntervalQuarterly:
		return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
	default:
		return t.Format(time.DateOnly)
	}
}

func depthOf(n *domain.Node) int {
	depth := 0
	for n != nil && len(n.Children) > 0 {
		depth++
		n = n.Children[n.Keys()[0]]
	}
	return depth
}

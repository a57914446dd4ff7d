package metering

import (
	"context"

	"github.com/vfg2006/metrics-api/internal/domain"
)

// RecordQuery descreve a busca de registros de um sub-período
type RecordQuery struct {
	DateField string
	Range     domain.SubRange
	Filter    domain.Filter
}

// RecordSource é a capacidade de uma fonte de registros (tabela, coleção, memória)
type RecordSource interface {
	// Name identifica a fonte nos logs e nas respostas
	Name() string
	// Fetch retorna os registros cujo DateField está dentro do sub-período e que satisfazem o filtro
	Fetch(ctx context.Context, q RecordQuery) ([]domain.Record, error)
}

// Reducer é implementado por fontes capazes de calcular soma e contagem sem trazer os registros
type Reducer interface {
	Reduce(ctx context.Context, q RecordQuery, fn domain.Aggregation, field string) (float64, error)
}

// NumberFormatter formata o valor final das métricas headline
type NumberFormatter interface {
	Format(n float64) string
}

// NumberFormatterFunc adapta uma função comum para NumberFormatter
type NumberFormatterFunc func(n float64) string

func (f NumberFormatterFunc) Format(n float64) string {
	return f(n)
}

// Aggregator é a interface exposta aos consumidores (dashboards, relatórios, agendadores)
type Aggregator interface {
	// Aggregate agrupa e agrega registros de uma ou mais fontes
	Aggregate(ctx context.Context, req AggregateRequest) (*domain.AggregateResult, error)

	// Headline calcula a soma ou contagem total, formatada para exibição
	Headline(ctx context.Context, req HeadlineRequest) (string, error)

	// HeadlineValue calcula a soma ou contagem total sem formatação
	HeadlineValue(ctx context.Context, req HeadlineRequest) (float64, error)

	// Series retorna um valor por sub-período
	Series(ctx context.Context, req SeriesRequest) (*domain.TimeSeries, error)
}

// SourceResolver resolve nomes de datasets em fontes de registros
type SourceResolver interface {
	Resolve(names ...string) ([]RecordSource, error)
	Names() []string
}

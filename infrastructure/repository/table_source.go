package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/vfg2006/metrics-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidIdentifier indica nome de tabela ou coluna que não pode ser usado em SQL
var ErrInvalidIdentifier = errors.New("invalid sql identifier")

// TableSource é uma fonte de registros apoiada em uma tabela do PostgreSQL
type TableSource struct {
	name  string
	table string
	conn  postgres.Queryer
}

// NewTableSource cria a fonte; table aceita "tabela" ou "schema.tabela"
func NewTableSource(conn postgres.Queryer, name, table string) (*TableSource, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}

	return &TableSource{
		name:  name,
		table: quoted,
		conn:  conn,
	}, nil
}

func (s *TableSource) Name() string {
	return s.name
}

// Fetch executa SELECT * no sub-período, já aplicando o filtro no banco
func (s *TableSource) Fetch(ctx context.Context, q metering.RecordQuery) ([]domain.Record, error) {
	query, args, err := buildFetchQuery(s.table, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Reduce calcula SUM ou COUNT direto no banco, sem trazer os registros
func (s *TableSource) Reduce(ctx context.Context, q metering.RecordQuery, fn domain.Aggregation, field string) (float64, error) {
	query, args, err := buildReduceQuery(s.table, q, fn, field)
	if err != nil {
		return 0, err
	}

	var value sql.NullFloat64
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		return 0, wrapQueryError(err)
	}

	return value.Float64, nil
}

func buildFetchQuery(table string, q metering.RecordQuery) (string, []any, error) {
	builder, err := baseQuery(squirrel.Select("*"), table, q)
	if err != nil {
		return "", nil, err
	}

	dateColumn, _ := quoteColumn(q.DateField)

	query, args, err := builder.OrderBy(dateColumn + " ASC").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("erro ao construir a query: %w", err)
	}
	return query, args, nil
}

func buildReduceQuery(table string, q metering.RecordQuery, fn domain.Aggregation, field string) (string, []any, error) {
	var expr string
	switch fn {
	case domain.AggregationCount:
		expr = "COUNT(*)"
	case domain.AggregationSum:
		column, err := quoteColumn(field)
		if err != nil {
			return "", nil, err
		}
		expr = fmt.Sprintf("COALESCE(SUM(%s), 0)", column)
	default:
		return "", nil, metering.NewInvalidValueError(metering.ErrInvalidFunc, apiErrors.ErrInvalidRequest, string(fn))
	}

	builder, err := baseQuery(squirrel.Select(expr), table, q)
	if err != nil {
		return "", nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("erro ao construir a query: %w", err)
	}
	return query, args, nil
}

func baseQuery(builder squirrel.SelectBuilder, table string, q metering.RecordQuery) (squirrel.SelectBuilder, error) {
	dateColumn, err := quoteColumn(q.DateField)
	if err != nil {
		return builder, err
	}

	builder = builder.
		From(table).
		Where(dateBounds(dateColumn, q.Range)).
		PlaceholderFormat(squirrel.Dollar)

	for _, cond := range q.Filter {
		where, err := conditionToSql(cond)
		if err != nil {
			return builder, err
		}
		builder = builder.Where(where)
	}

	return builder, nil
}

// dateBounds restringe a coluna de data ao sub-período: BETWEEN no último, [Start, Next) nos demais
func dateBounds(column string, r domain.SubRange) squirrel.Sqlizer {
	if r.Closed() {
		return squirrel.Expr(column+" BETWEEN ? AND ?", r.Start, r.End)
	}
	return squirrel.Expr(column+" >= ? AND "+column+" < ?", r.Start, r.Next)
}

// conditionToSql traduz uma Condition para o predicado equivalente do squirrel
func conditionToSql(c domain.Condition) (squirrel.Sqlizer, error) {
	column, err := quoteColumn(c.Field)
	if err != nil {
		return nil, err
	}

	switch c.Op() {
	case domain.OpEqual:
		return squirrel.Eq{column: c.Value}, nil
	case domain.OpNotEqual:
		return squirrel.NotEq{column: c.Value}, nil
	case domain.OpGreater:
		return squirrel.Gt{column: c.Value}, nil
	case domain.OpGreaterOrEqual:
		return squirrel.GtOrEq{column: c.Value}, nil
	case domain.OpLess:
		return squirrel.Lt{column: c.Value}, nil
	case domain.OpLessOrEqual:
		return squirrel.LtOrEq{column: c.Value}, nil
	default:
		return nil, metering.NewInvalidValueError(metering.ErrInvalidInput, apiErrors.ErrInvalidRequest, string(c.Operator))
	}
}

func quoteColumn(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", metering.NewInvalidValueError(metering.ErrInvalidInput, apiErrors.ErrInvalidRequest, name)
	}
	return pq.QuoteIdentifier(name), nil
}

func quoteTable(table string) (string, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
	}

	quoted := make([]string, 0, len(parts))
	for _, part := range parts {
		if !identifierPattern.MatchString(part) {
			return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, table)
		}
		quoted = append(quoted, pq.QuoteIdentifier(part))
	}
	return strings.Join(quoted, "."), nil
}

// scanRecords converte cada linha em um Record indexado pelo nome da coluna.
// Valores []byte (numeric, text) viram string para que a conversão numérica funcione.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter colunas: %w", err)
	}

	records := make([]domain.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("erro ao escanear registro: %w", err)
		}

		record := make(domain.Record, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				record[column] = string(b)
				continue
			}
			record[column] = values[i]
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

func wrapQueryError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
	}
	return fmt.Errorf("erro ao executar a query: %w", err)
}

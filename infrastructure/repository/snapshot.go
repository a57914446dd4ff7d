package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/metrics-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/utils"
)

const (
	snapshotsTable   = "metric_snapshots"
	snapshotsColumns = "ms.id, ms.dataset, ms.metric, ms.field, ms.func, ms.date, ms.value, ms.created_at, ms.updated_at"
)

type SnapshotRepository interface {
	SaveOrUpdate(ctx context.Context, snapshot *domain.MetricSnapshot) error
	GetByDateRange(ctx context.Context, dataset string, startDate, endDate time.Time) ([]*domain.MetricSnapshot, error)
	DeleteOlderThan(ctx context.Context, days int) (int64, error)
}

type snapshotRepository struct {
	conn postgres.Queryer
}

func NewSnapshotRepository(conn postgres.Queryer) SnapshotRepository {
	return &snapshotRepository{
		conn: conn,
	}
}

func (r *snapshotRepository) SaveOrUpdate(ctx context.Context, snapshot *domain.MetricSnapshot) error {
	if snapshot.ID == "" {
		id, err := utils.SnapshotID()
		if err != nil {
			return fmt.Errorf("erro ao gerar id: %w", err)
		}
		snapshot.ID = id
	}

	query, args, err := buildUpsertSnapshotQuery(snapshot)
	if err != nil {
		return err
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return wrapQueryError(err)
	}

	return nil
}

func (r *snapshotRepository) GetByDateRange(ctx context.Context, dataset string, startDate, endDate time.Time) ([]*domain.MetricSnapshot, error) {
	query, args, err := buildSnapshotRangeQuery(dataset, startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	snapshots := make([]*domain.MetricSnapshot, 0)
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return snapshots, nil
}

func (r *snapshotRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.DateOnly)

	query, args, err := squirrel.
		Delete(snapshotsTable).
		Where(squirrel.Lt{"date": cutoffDate}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapQueryError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	return rowsAffected, nil
}

func buildUpsertSnapshotQuery(snapshot *domain.MetricSnapshot) (string, []any, error) {
	query, args, err := squirrel.StatementBuilder.
		Insert(snapshotsTable).
		Columns("id", "dataset", "metric", "field", "func", "date", "value").
		Values(
			snapshot.ID,
			snapshot.Dataset,
			snapshot.Metric,
			snapshot.Field,
			string(snapshot.Func),
			snapshot.Date.Format(time.DateOnly),
			snapshot.Value,
		).
		Suffix(`
			ON CONFLICT (dataset, metric, date) DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = NOW()
		`).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("erro ao construir a query: %w", err)
	}
	return query, args, nil
}

func buildSnapshotRangeQuery(dataset string, startDate, endDate time.Time) (string, []any, error) {
	builder := squirrel.
		Select(snapshotsColumns).
		From(snapshotsTable+" ms").
		Where(squirrel.GtOrEq{"ms.date": startDate.Format(time.DateOnly)}).
		Where(squirrel.LtOrEq{"ms.date": endDate.Format(time.DateOnly)}).
		OrderBy("ms.date ASC", "ms.metric ASC").
		PlaceholderFormat(squirrel.Dollar)

	if dataset != "" {
		builder = builder.Where(squirrel.Eq{"ms.dataset": dataset})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("erro ao construir a query: %w", err)
	}
	return query, args, nil
}

func scanSnapshot(rows *sql.Rows) (*domain.MetricSnapshot, error) {
	snapshot := &domain.MetricSnapshot{}
	var fn string

	err := rows.Scan(
		&snapshot.ID,
		&snapshot.Dataset,
		&snapshot.Metric,
		&snapshot.Field,
		&fn,
		&snapshot.Date,
		&snapshot.Value,
		&snapshot.CreatedAt,
		&snapshot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	snapshot.Func = domain.Aggregation(fn)
	return snapshot, nil
}

package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/internal/usecases/metering/mocks"
	"go.uber.org/mock/gomock"
)

func testQuery() metering.RecordQuery {
	return metering.RecordQuery{
		DateField: "created_at",
		Range: domain.SubRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 7, 23, 59, 59, 999000000, time.UTC),
		},
	}
}

func TestBuildFetchQuery(t *testing.T) {
	q := testQuery()
	q.Filter = domain.Filter{
		{Field: "status", Value: "paid"},
		{Field: "amount", Operator: domain.OpGreaterOrEqual, Value: "100"},
	}

	query, args, err := buildFetchQuery(`"orders"`, q)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT * FROM "orders" WHERE "created_at" BETWEEN $1 AND $2 AND "status" = $3 AND "amount" >= $4 ORDER BY "created_at" ASC`,
		query,
	)
	assert.Equal(t, []any{q.Range.Start, q.Range.End, "paid", "100"}, args)
}

func TestBuildFetchQuery_NullCondition(t *testing.T) {
	q := testQuery()
	q.Filter = domain.Filter{{Field: "deleted_at", Value: nil}}

	query, _, err := buildFetchQuery(`"orders"`, q)
	require.NoError(t, err)

	assert.Contains(t, query, `"deleted_at" IS NULL`)
}

func TestBuildFetchQuery_RejectsUnsafeIdentifiers(t *testing.T) {
	q := testQuery()
	q.DateField = "created_at; DROP TABLE orders"

	_, _, err := buildFetchQuery(`"orders"`, q)
	assert.ErrorIs(t, err, metering.ErrInvalidInput)

	q = testQuery()
	q.Filter = domain.Filter{{Field: "customer.city", Value: "Pune"}}

	_, _, err = buildFetchQuery(`"orders"`, q)
	assert.ErrorIs(t, err, metering.ErrInvalidInput)
}

func TestBuildReduceQuery(t *testing.T) {
	query, args, err := buildReduceQuery(`"orders"`, testQuery(), domain.AggregationSum, "amount")
	require.NoError(t, err)
	assert.Equal(t, `SELECT COALESCE(SUM("amount"), 0) FROM "orders" WHERE "created_at" BETWEEN $1 AND $2`, query)
	assert.Len(t, args, 2)

	query, _, err = buildReduceQuery(`"orders"`, testQuery(), domain.AggregationCount, "")
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "orders" WHERE "created_at" BETWEEN $1 AND $2`, query)

	_, _, err = buildReduceQuery(`"orders"`, testQuery(), domain.AggregationAvg, "amount")
	assert.ErrorIs(t, err, metering.ErrInvalidFunc)
}

func TestBuildFetchQuery_InteriorSubRangeIsHalfOpen(t *testing.T) {
	q := testQuery()
	q.Range.Next = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	query, args, err := buildFetchQuery(`"orders"`, q)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT * FROM "orders" WHERE "created_at" >= $1 AND "created_at" < $2 ORDER BY "created_at" ASC`,
		query,
	)
	assert.Equal(t, []any{q.Range.Start, q.Range.Next}, args)

	query, _, err = buildReduceQuery(`"orders"`, q, domain.AggregationCount, "")
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "orders" WHERE "created_at" >= $1 AND "created_at" < $2`, query)
}

func TestQuoteTable(t *testing.T) {
	quoted, err := quoteTable("reporting.orders")
	require.NoError(t, err)
	assert.Equal(t, `"reporting"."orders"`, quoted)

	_, err = quoteTable("orders;--")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = quoteTable("a.b.c")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSourceRegistry(t *testing.T) {
	registry, err := NewSourceRegistry(nil, []string{"orders=orders", " payments = payment_transactions ", "refunds", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"orders", "payments", "refunds"}, registry.Names())

	sources, err := registry.Resolve("payments", "orders")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "payments", sources[0].Name())
	assert.Implements(t, (*metering.Reducer)(nil), sources[0])

	_, err = registry.Resolve("unknown")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestSourceRegistry_InvalidEntries(t *testing.T) {
	_, err := NewSourceRegistry(nil, []string{"orders=orders", "orders=other"})
	assert.Error(t, err)

	_, err = NewSourceRegistry(nil, []string{"bad=drop table"})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSourceRegistry_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockRecordSource(ctrl)
	remote.EXPECT().Name().Return("sales").AnyTimes()

	registry, err := NewSourceRegistry(nil, []string{"orders"})
	require.NoError(t, err)

	require.NoError(t, registry.Register(remote))
	assert.Equal(t, []string{"orders", "sales"}, registry.Names())
	assert.Error(t, registry.Register(remote))

	sources, err := registry.Resolve("sales")
	require.NoError(t, err)
	assert.Same(t, remote, sources[0])
}

func TestBuildUpsertSnapshotQuery(t *testing.T) {
	query, args, err := buildUpsertSnapshotQuery(&domain.MetricSnapshot{
		ID:      "abc123",
		Dataset: "orders",
		Metric:  "amount_sum",
		Field:   "amount",
		Func:    domain.AggregationSum,
		Date:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Value:   25,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO metric_snapshots (id,dataset,metric,field,func,date,value) VALUES ($1,$2,$3,$4,$5,$6,$7)")
	assert.Contains(t, query, "ON CONFLICT (dataset, metric, date) DO UPDATE SET")
	assert.Equal(t, []any{"abc123", "orders", "amount_sum", "amount", "sum", "2024-01-02", 25.0}, args)
}

func TestBuildSnapshotRangeQuery(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	query, args, err := buildSnapshotRangeQuery("orders", start, end)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT "+snapshotsColumns+" FROM metric_snapshots ms WHERE ms.date >= $1 AND ms.date <= $2 AND ms.dataset = $3 ORDER BY ms.date ASC, ms.metric ASC",
		query,
	)
	assert.Equal(t, []any{"2024-01-01", "2024-01-31", "orders"}, args)

	_, args, err = buildSnapshotRangeQuery("", start, end)
	require.NoError(t, err)
	assert.Len(t, args, 2)
}

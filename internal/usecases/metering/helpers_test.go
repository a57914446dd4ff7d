package metering

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/domain"
)

// memorySource filtra registros em memória da mesma forma que a fonte SQL faria
type memorySource struct {
	name    string
	records []domain.Record
	err     error
	calls   atomic.Int32
	// delay simula latência para testes de prazo
	delay time.Duration
}

func (m *memorySource) Name() string {
	return m.name
}

func (m *memorySource) Fetch(ctx context.Context, q RecordQuery) ([]domain.Record, error) {
	m.calls.Add(1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	var out []domain.Record
	for _, r := range m.records {
		t, ok := r.Time(q.DateField, q.Range.Start.Location())
		if !ok || !q.Range.Contains(t) || !q.Filter.Match(r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// reducingSource adiciona o cálculo no próprio armazenamento
type reducingSource struct {
	*memorySource
	reduced atomic.Int32
}

func (s *reducingSource) Reduce(ctx context.Context, q RecordQuery, fn domain.Aggregation, field string) (float64, error) {
	s.reduced.Add(1)

	records, err := s.memorySource.Fetch(ctx, q)
	if err != nil {
		return 0, err
	}
	return computeMetric(records, domain.Metric{Field: field, Func: fn}).Number, nil
}

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(maxConcurrent int) *Service {
	return NewService(config.Metrics{
		Timezone:             "UTC",
		MaxConcurrentFetches: maxConcurrent,
		Timeout:              5 * time.Second,
	}, nil).WithClock(func() time.Time { return fixedNow })
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func record(date time.Time, fields map[string]any) domain.Record {
	r := domain.Record{"created_at": date}
	for k, v := range fields {
		r[k] = v
	}
	return r
}

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/metrics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/metrics-api/internal/config"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	meteringmocks "github.com/vfg2006/metrics-api/internal/usecases/metering/mocks"
	"go.uber.org/mock/gomock"
)

func TestSnapshotSyncService_processDefinitions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Mocks
	mockResolver := meteringmocks.NewMockSourceResolver(ctrl)
	mockAggregator := meteringmocks.NewMockAggregator(ctrl)
	mockSnapshotRepo := mocks.NewMockSnapshotRepository(ctrl)
	mockSource := meteringmocks.NewMockRecordSource(ctrl)

	service := &SnapshotSyncService{
		sources:      mockResolver,
		aggregator:   mockAggregator,
		snapshotRepo: mockSnapshotRepo,
		now:          time.Now,
	}

	day1 := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	definitions := []domain.SnapshotDefinition{
		{Dataset: "orders", Field: "amount", Func: domain.AggregationSum},
		{Dataset: "missing", Func: domain.AggregationCount},
	}

	tests := []struct {
		name     string
		setup    func()
		validate func(t *testing.T, result SyncResult)
	}{
		{
			name: "Salva um snapshot por data e contabiliza datasets inexistentes como falha",
			setup: func() {
				mockResolver.EXPECT().
					Resolve("orders").
					Return([]metering.RecordSource{mockSource}, nil)

				mockResolver.EXPECT().
					Resolve("missing").
					Return(nil, errors.New("dataset not found"))

				mockAggregator.EXPECT().
					HeadlineValue(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req metering.HeadlineRequest) (float64, error) {
						assert.Equal(t, domain.AggregationSum, req.Func)
						assert.Equal(t, "amount", req.Field)
						assert.Equal(t, req.Start, req.End)
						if req.Start.Equal(day1) {
							return 10, nil
						}
						return 15, nil
					}).
					Times(2)

				mockSnapshotRepo.EXPECT().
					SaveOrUpdate(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, s *domain.MetricSnapshot) error {
						assert.Equal(t, "orders", s.Dataset)
						assert.Equal(t, "amount_sum", s.Metric)
						return nil
					}).
					Times(2)
			},
			validate: func(t *testing.T, result SyncResult) {
				assert.Equal(t, 2, result.Saved)
				assert.Equal(t, 2, result.Failed)
			},
		},
		{
			name: "Erro ao salvar não interrompe as demais datas",
			setup: func() {
				mockResolver.EXPECT().
					Resolve("orders").
					Return([]metering.RecordSource{mockSource}, nil)

				mockResolver.EXPECT().
					Resolve("missing").
					Return(nil, errors.New("dataset not found"))

				mockAggregator.EXPECT().
					HeadlineValue(gomock.Any(), gomock.Any()).
					Return(25.0, nil).
					Times(2)

				gomock.InOrder(
					mockSnapshotRepo.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(errors.New("db down")),
					mockSnapshotRepo.EXPECT().SaveOrUpdate(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
			validate: func(t *testing.T, result SyncResult) {
				assert.Equal(t, 1, result.Saved)
				assert.Equal(t, 3, result.Failed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			result := service.processDefinitions(context.Background(), definitions, []time.Time{day1, day2})
			tt.validate(t, result)
		})
	}
}

func TestSnapshotSyncService_getDatesToProcess(t *testing.T) {
	service := &SnapshotSyncService{
		config: SnapshotSyncConfig{LookbackDays: 3},
		now: func() time.Time {
			return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		},
	}

	dates := service.getDatesToProcess()

	assert.Equal(t, []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC),
	}, dates)
}

func TestNewSnapshotSyncService(t *testing.T) {
	cfg := &config.Config{
		SnapshotSync: config.SnapshotSync{
			CronSchedule: "0 2 * * *",
			LookbackDays: 7,
			Definitions:  []string{"orders:amount:sum", "", "orders::count"},
		},
	}

	service, err := NewSnapshotSyncService(nil, nil, nil, cfg)
	require.NoError(t, err)
	assert.Len(t, service.config.Definitions, 2)

	status := service.GetStatus()
	assert.Equal(t, []string{"orders.amount_sum", "orders.count"}, status["definitions"])
	assert.Equal(t, false, status["sync_running"])

	cfg.SnapshotSync.Definitions = []string{"orders:amount:avg"}
	_, err = NewSnapshotSyncService(nil, nil, nil, cfg)
	assert.Error(t, err)

	cfg.SnapshotSync.Definitions = []string{"orders::count"}
	cfg.SnapshotSync.LookbackDays = -1
	_, err = NewSnapshotSyncService(nil, nil, nil, cfg)
	assert.ErrorContains(t, err, "snapshot_sync_lookback_days")
}

func TestSnapshotSyncService_getDatesToProcessWithoutLookback(t *testing.T) {
	for _, days := range []int{0, -3} {
		service := &SnapshotSyncService{config: SnapshotSyncConfig{LookbackDays: days}, now: time.Now}
		assert.Empty(t, service.getDatesToProcess())
	}
}

func TestSnapshotSyncService_TriggerManualSyncWhileRunning(t *testing.T) {
	service := &SnapshotSyncService{syncRunning: true, now: time.Now}

	assert.False(t, service.TriggerManualSync())
	assert.Equal(t, true, service.GetStatus()["sync_running"])
}

func TestSnapshotSyncService_syncSnapshotsRecordsRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockResolver := meteringmocks.NewMockSourceResolver(ctrl)
	mockResolver.EXPECT().Resolve("missing").Return(nil, errors.New("dataset not found"))

	fixedNow := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	service := &SnapshotSyncService{
		config: SnapshotSyncConfig{
			LookbackDays: 2,
			Definitions:  []domain.SnapshotDefinition{{Dataset: "missing", Func: domain.AggregationCount}},
		},
		sources: mockResolver,
		now:     func() time.Time { return fixedNow },
	}

	// leituras de status concorrentes com a execução não podem disputar os campos da última sincronização
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			service.GetStatus()
		}
	}()

	service.syncSnapshots(context.Background())
	<-done

	status := service.GetStatus()
	assert.Equal(t, fixedNow, status["last_sync_started_at"])
	assert.Equal(t, fixedNow, status["last_sync_completed_at"])
	assert.Equal(t, SyncResult{Failed: 2}, status["last_sync_result"])
	assert.Equal(t, false, status["sync_running"])
}

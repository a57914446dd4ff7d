package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/metrics-api/infrastructure/repository/mocks"
	"github.com/vfg2006/metrics-api/internal/api/handler/router"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"go.uber.org/mock/gomock"
)

func newSnapshotsFixture(t *testing.T) (*mocks.MockSnapshotRepository, *metricsFixture) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSnapshotRepository(ctrl)

	f := &metricsFixture{
		handler: router.New(router.WithRoutes(Snapshots(repo, func() time.Time { return fixedNow })...)),
	}
	return repo, f
}

func TestListSnapshots(t *testing.T) {
	repo, f := newSnapshotsFixture(t)

	repo.EXPECT().GetByDateRange(gomock.Any(), "orders", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, start, end time.Time) ([]*domain.MetricSnapshot, error) {
			assert.True(t, start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
			assert.Equal(t, 7, end.Day())
			return []*domain.MetricSnapshot{
				{ID: "abc123", Dataset: "orders", Metric: "amount_sum", Value: 25},
			}, nil
		})

	rec := f.get("/v1/snapshots", url.Values{"dataset": {"orders"}, "date_range": {"2024-03-01 - 2024-03-07"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Mar 1, 2024 - Mar 7, 2024", body["label"])
	require.Len(t, body["snapshots"], 1)
}

func TestListSnapshots_DefaultRange(t *testing.T) {
	repo, f := newSnapshotsFixture(t)

	repo.EXPECT().GetByDateRange(gomock.Any(), "", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, start, end time.Time) ([]*domain.MetricSnapshot, error) {
			assert.True(t, start.Equal(time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)))
			assert.Equal(t, 10, end.Day())
			return nil, nil
		})

	rec := f.get("/v1/snapshots", url.Values{})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListSnapshots_Errors(t *testing.T) {
	repo, f := newSnapshotsFixture(t)

	rec := f.get("/v1/snapshots", url.Values{"date_range": {"2024/01/01 - 2024/01/02"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apiErrors.ErrInvalidFormat, decodeBody(t, rec)["code"])

	repo.EXPECT().GetByDateRange(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("conn refused"))

	rec = f.get("/v1/snapshots", url.Values{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apiErrors.ErrDatabaseOperation, decodeBody(t, rec)["code"])
}

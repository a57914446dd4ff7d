package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/metrics-api/internal/api/handler/router"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

type fakeCronJob struct {
	running   bool
	triggered int
}

func (j *fakeCronJob) TriggerManualSync() bool {
	if j.running {
		return false
	}
	j.triggered++
	return true
}

func (j *fakeCronJob) GetStatus() map[string]any {
	return map[string]any{"sync_running": j.running}
}

func serveCron(job *fakeCronJob, method, path string) *httptest.ResponseRecorder {
	h := router.New(router.WithRoutes(CronJobs(CronJobServices{SnapshotSyncService: job})...))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRunCronJob(t *testing.T) {
	job := &fakeCronJob{}

	rec := serveCron(job, http.MethodPost, "/v1/cron/snapshots/run")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, job.triggered)
	assert.Equal(t, "snapshots", decodeBody(t, rec)["type"])
}

func TestRunCronJob_AlreadyRunning(t *testing.T) {
	rec := serveCron(&fakeCronJob{running: true}, http.MethodPost, "/v1/cron/snapshots/run")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apiErrors.ErrConflict, decodeBody(t, rec)["code"])
}

func TestRunCronJob_UnknownType(t *testing.T) {
	rec := serveCron(&fakeCronJob{}, http.MethodPost, "/v1/cron/meta/run")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetCronStatus(t *testing.T) {
	rec := serveCron(&fakeCronJob{running: true}, http.MethodGet, "/v1/cron/status")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, map[string]any{"sync_running": true}, body["snapshots"])
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(_ context.Context) error { return p.err }

func TestHealthcheck(t *testing.T) {
	h := router.New(router.WithRoutes(Healthcheck(fakePinger{})...))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h = router.New(router.WithRoutes(Healthcheck(fakePinger{err: errors.New("down")})...))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

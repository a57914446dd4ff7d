package handler

import (
	"net/http"
	"time"

	"github.com/vfg2006/metrics-api/infrastructure/repository"
	"github.com/vfg2006/metrics-api/internal/api/handler/router"
)

func Healthcheck(db Pinger) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(db),
		},
	}
}

func Metrics(services MetricServices) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/metrics",
			Method:  http.MethodGet,
			Handler: ListDatasets(services),
		},
		{
			Path:    "/v1/metrics/:dataset/aggregate",
			Method:  http.MethodGet,
			Handler: GetAggregate(services),
		},
		{
			Path:    "/v1/metrics/:dataset/headline",
			Method:  http.MethodGet,
			Handler: GetHeadline(services),
		},
		{
			Path:    "/v1/metrics/:dataset/series",
			Method:  http.MethodGet,
			Handler: GetSeries(services),
		},
		{
			Path:    "/v1/metrics/:dataset/export",
			Method:  http.MethodGet,
			Handler: ExportMetrics(services),
		},
	}
}

func Snapshots(repo repository.SnapshotRepository, now func() time.Time) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/snapshots",
			Method:  http.MethodGet,
			Handler: ListSnapshots(repo, now),
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/cron/:type/run",
			Method:  http.MethodPost,
			Handler: RunCronJob(services),
		},
		{
			Path:    "/v1/cron/status",
			Method:  http.MethodGet,
			Handler: GetCronStatus(services),
		},
	}
}

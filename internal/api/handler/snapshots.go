package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/vfg2006/metrics-api/infrastructure/repository"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-api/pkg/log"
)

// ListSnapshots retorna os snapshots diários gravados pelo agendador; sem date_range usa os últimos 30 dias
func ListSnapshots(repo repository.SnapshotRepository, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		dataset := strings.TrimSpace(r.URL.Query().Get("dataset"))

		rng := metering.TrailingDays(now(), metering.DefaultFallbackDays)
		if value := r.URL.Query().Get("date_range"); value != "" {
			parsed, err := metering.ParseDateRange(value, now().Location())
			if err != nil {
				logger.WithFields(log.Fields{
					"date_range": value,
					"error":      err.Error(),
				}).Warn("snapshots: invalid date_range parameter")
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, err.Error(), nil)
				return
			}
			rng = parsed
		}

		snapshots, err := repo.GetByDateRange(r.Context(), dataset, rng.Start, rng.End)
		if err != nil {
			logger.WithFields(log.Fields{
				"dataset": dataset,
				"error":   err.Error(),
			}).Error("snapshots: failed to list snapshots")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "failed to list snapshots", nil)
			return
		}

		logger.WithFields(log.Fields{
			"dataset": dataset,
			"count":   len(snapshots),
		}).Info("snapshots: listed")

		writeJSON(w, logger, http.StatusOK, map[string]any{
			"range":     rng,
			"label":     metering.FormatRangeLabel(rng),
			"snapshots": snapshots,
		})
	})
}

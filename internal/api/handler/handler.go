package handler

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/vfg2006/metrics-api/infrastructure/repository"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
	"github.com/vfg2006/metrics-api/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, logger log.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WithField("error", err.Error()).Error("response: failed to encode body")
	}
}

// writeMetricsError traduz os erros do serviço de métricas para o formato padrão da API
func writeMetricsError(w http.ResponseWriter, logger log.Logger, err error) {
	var metricsErr *metering.MetricsError

	switch {
	case errors.Is(err, repository.ErrDatasetNotFound):
		logger.WithField("error", err.Error()).Warn("metrics: dataset not found")
		apiErrors.WriteError(w, apiErrors.ErrResourceNotFound, err.Error(), nil)

	case errors.Is(err, context.DeadlineExceeded):
		logger.WithField("error", err.Error()).Error("metrics: deadline exceeded")
		apiErrors.WriteError(w, apiErrors.ErrTimeout, "metrics computation timed out", nil)

	case errors.Is(err, metering.ErrInvalidInput):
		logger.WithField("error", err.Error()).Warn("metrics: invalid input")
		code := apiErrors.ErrInvalidRequest
		if errors.As(err, &metricsErr) && metricsErr.Code != "" {
			code = metricsErr.Code
		}
		apiErrors.WriteError(w, code, err.Error(), nil)

	case errors.As(err, &metricsErr):
		logger.WithField("error", err.Error()).Error("metrics: failed to compute metrics")
		apiErrors.WriteError(w, metricsErr.Code, "failed to compute metrics", map[string]string{"source": metricsErr.Value})

	default:
		logger.WithField("error", err.Error()).Error("metrics: unexpected error")
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "failed to compute metrics", nil)
	}
}

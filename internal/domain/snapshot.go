package domain

import (
	"fmt"
	"strings"
	"time"
)

// MetricSnapshot é o valor de uma métrica headline de um dataset em um dia, armazenado no banco
type MetricSnapshot struct {
	ID        string      `json:"id"`
	Dataset   string      `json:"dataset"`
	Metric    string      `json:"metric"`
	Field     string      `json:"field"`
	Func      Aggregation `json:"func"`
	Date      time.Time   `json:"date"`
	Value     float64     `json:"value"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SnapshotDefinition descreve uma métrica que o agendador deve materializar diariamente
type SnapshotDefinition struct {
	Dataset string
	Field   string
	Func    Aggregation
}

// Name identifica a métrica no formato field_func, ou só func para contagens sem campo
func (d SnapshotDefinition) Name() string {
	if d.Field == "" {
		return string(d.Func)
	}
	return d.Field + "_" + string(d.Func)
}

// ParseSnapshotDefinition interpreta "dataset:field:func", ex: "orders:amount:sum" ou "orders::count"
func ParseSnapshotDefinition(expr string) (SnapshotDefinition, error) {
	parts := strings.Split(strings.TrimSpace(expr), ":")
	if len(parts) != 3 || parts[0] == "" {
		return SnapshotDefinition{}, fmt.Errorf("invalid snapshot definition %q, expected dataset:field:func", expr)
	}

	def := SnapshotDefinition{
		Dataset: parts[0],
		Field:   parts[1],
		Func:    Aggregation(strings.ToLower(parts[2])),
	}

	switch {
	case def.Func == AggregationCount:
	case def.Func == AggregationSum && def.Field != "":
	default:
		return SnapshotDefinition{}, fmt.Errorf("invalid snapshot definition %q, only sum with field or count are supported", expr)
	}

	return def, nil
}

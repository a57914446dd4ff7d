package domain

import "time"

// SeriesPoint é um ponto da série temporal, um por sub-período
type SeriesPoint struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

// TimeSeries é uma sequência ordenada de valores por sub-período
type TimeSeries struct {
	Range    TimeRange     `json:"range"`
	Interval Interval      `json:"interval"`
	Points   []SeriesPoint `json:"points"`
}

// Values retorna apenas os valores, na ordem dos sub-períodos
func (s *TimeSeries) Values() []float64 {
	values := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		values = append(values, p.Value)
	}
	return values
}

// Labels retorna os rótulos dos pontos
func (s *TimeSeries) Labels() []string {
	labels := make([]string, 0, len(s.Points))
	for _, p := range s.Points {
		labels = append(labels, p.Label)
	}
	return labels
}

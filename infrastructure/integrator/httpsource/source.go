package httpsource

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
)

// Source é uma fonte de registros servida por uma API HTTP externa.
// A API recebe o período e filtros de igualdade; o recorte final por data e filtro é feito localmente.
type Source struct {
	name     string
	endpoint string
	client   Client
}

func NewSource(client Client, name, endpoint string) (*Source, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("endpoint inválido para o dataset %q: %s", name, endpoint)
	}

	return &Source{
		name:     name,
		endpoint: endpoint,
		client:   client,
	}, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Fetch(ctx context.Context, q metering.RecordQuery) ([]domain.Record, error) {
	records, err := s.client.GetRecords(ctx, s.endpoint, PeriodParams{
		Start:     q.Range.Start,
		End:       q.Range.Upper(),
		DateField: q.DateField,
		Filter:    q.Filter,
	})
	if err != nil {
		return nil, err
	}

	out := records[:0]
	skipped := 0
	for _, r := range records {
		t, ok := r.Time(q.DateField, q.Range.Start.Location())
		if !ok || !q.Range.Contains(t) || !q.Filter.Match(r) {
			skipped++
			continue
		}
		out = append(out, r)
	}

	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"dataset": s.name,
			"skipped": skipped,
		}).Debug("Registros fora do período ou do filtro descartados")
	}

	return out, nil
}

// FromConfig cria as fontes a partir de entradas "nome=url"
func FromConfig(client Client, entries []string) ([]*Source, error) {
	var sources []*Source
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, endpoint, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("dataset remoto inválido %q, esperado nome=url", entry)
		}

		source, err := NewSource(client, strings.TrimSpace(name), strings.TrimSpace(endpoint))
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

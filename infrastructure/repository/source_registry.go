package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vfg2006/metrics-api/infrastructure/database/postgres"
	"github.com/vfg2006/metrics-api/internal/usecases/metering"
)

// ErrDatasetNotFound indica um dataset que não está configurado
var ErrDatasetNotFound = errors.New("dataset not found")

// SourceRegistry mantém as fontes de registros configuradas, por nome de dataset
type SourceRegistry struct {
	sources map[string]metering.RecordSource
	order   []string
}

// NewSourceRegistry interpreta entradas "nome=tabela" (ou só "tabela", usando o mesmo nome)
func NewSourceRegistry(conn postgres.Queryer, datasets []string) (*SourceRegistry, error) {
	registry := &SourceRegistry{sources: make(map[string]metering.RecordSource)}

	for _, entry := range datasets {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, table, found := strings.Cut(entry, "=")
		if !found {
			table = name
		}
		name, table = strings.TrimSpace(name), strings.TrimSpace(table)

		source, err := NewTableSource(conn, name, table)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", name, err)
		}

		if err := registry.Register(source); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adiciona uma fonte de qualquer tipo (ex: API HTTP); nomes repetidos são rejeitados
func (r *SourceRegistry) Register(source metering.RecordSource) error {
	name := source.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("dataset %q configurado mais de uma vez", name)
	}

	r.sources[name] = source
	r.order = append(r.order, name)
	return nil
}

// Resolve retorna as fontes na ordem pedida
func (r *SourceRegistry) Resolve(names ...string) ([]metering.RecordSource, error) {
	sources := make([]metering.RecordSource, 0, len(names))
	for _, name := range names {
		source, ok := r.sources[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, name)
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Names retorna os datasets na ordem de configuração
func (r *SourceRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

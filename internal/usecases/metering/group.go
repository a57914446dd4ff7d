package metering

import (
	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

// keyedRecord guarda a chave já extraída para não chamar a função de agrupamento a cada nível
type keyedRecord struct {
	record domain.Record
	parts  []string
}

// arityGuard garante que todas as chaves de uma chamada tenham o mesmo formato
type arityGuard struct {
	shape string
}

func (g *arityGuard) check(key domain.GroupKey) error {
	if key.Depth() == 0 {
		return NewMetricsError(ErrGroupKeyArity, apiErrors.ErrInvalidRequest, "group key has no parts")
	}

	shape := key.Shape()
	if g.shape == "" {
		g.shape = shape
		return nil
	}
	if g.shape != shape {
		return NewInvalidValueError(ErrGroupKeyArity, apiErrors.ErrInvalidRequest, g.shape+" vs "+shape)
	}
	return nil
}

// groupRecords agrupa os registros de um sub-período e calcula as métricas das folhas.
// Sem função de agrupamento, todos os registros formam um único grupo na raiz.
func groupRecords(records []domain.Record, keyFn domain.GroupKeyFunc, metrics domain.MetricSpec, guard *arityGuard) (*domain.Node, error) {
	if keyFn == nil {
		return computeLeaf(records, metrics), nil
	}

	keyed := make([]keyedRecord, 0, len(records))
	for _, r := range records {
		key := keyFn(r)
		if err := guard.check(key); err != nil {
			return nil, err
		}
		keyed = append(keyed, keyedRecord{record: r, parts: key.Parts()})
	}

	return groupLevel(keyed, 0, metrics), nil
}

// groupLevel agrupa pela parte level da chave e desce recursivamente até a última parte,
// onde as métricas são calculadas
func groupLevel(keyed []keyedRecord, level int, metrics domain.MetricSpec) *domain.Node {
	node := domain.NewNode()

	order := make([]string, 0)
	groups := make(map[string][]keyedRecord)
	for _, kr := range keyed {
		key := kr.parts[level]
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], kr)
	}

	for _, key := range order {
		members := groups[key]

		if level+1 < len(members[0].parts) {
			node.Child(key).Merge(groupLevel(members, level+1, metrics))
			continue
		}

		records := make([]domain.Record, 0, len(members))
		for _, kr := range members {
			records = append(records, kr.record)
		}
		node.Child(key).Merge(computeLeaf(records, metrics))
	}

	return node
}

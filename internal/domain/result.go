package domain

import (
	jsoniter "github.com/json-iterator/go"
)

// ValueKind identifica o tipo de um valor de métrica
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindList
)

// Value é o valor de uma métrica em um grupo folha: número ou lista
type Value struct {
	Kind   ValueKind
	Number float64
	List   []any

	// soma e quantidade acumuladas para médias, que são mescladas como média ponderada
	avgSum   float64
	avgCount float64
	isAvg    bool
}

// NumberValue cria um valor numérico
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// ListValue cria um valor do tipo lista
func ListValue(items []any) Value {
	if items == nil {
		items = []any{}
	}
	return Value{Kind: KindList, List: items}
}

// AverageValue cria uma média a partir da soma e da quantidade de valores numéricos
func AverageValue(sum, count float64) Value {
	v := Value{Kind: KindNumber, avgSum: sum, avgCount: count, isAvg: true}
	if count > 0 {
		v.Number = sum / count
	}
	return v
}

// Merge combina dois valores parciais: números somam, médias viram média ponderada
// e listas são concatenadas na ordem (base, depois other).
func (v Value) Merge(other Value) Value {
	if v.Kind != other.Kind {
		return v
	}

	if v.Kind == KindList {
		list := make([]any, 0, len(v.List)+len(other.List))
		list = append(list, v.List...)
		list = append(list, other.List...)
		return ListValue(list)
	}

	if v.isAvg && other.isAvg {
		return AverageValue(v.avgSum+other.avgSum, v.avgCount+other.avgCount)
	}

	return NumberValue(v.Number + other.Number)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == KindList {
		return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v.List)
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v.Number)
}

// Node é um nível do resultado agregado. Folhas têm Metrics, níveis intermediários têm Children.
type Node struct {
	Metrics  map[string]Value
	Children map[string]*Node

	metricOrder []string
	childOrder  []string
}

// NewNode cria um nó vazio
func NewNode() *Node {
	return &Node{
		Metrics:  map[string]Value{},
		Children: map[string]*Node{},
	}
}

// Empty reporta se o nó não tem métricas nem filhos
func (n *Node) Empty() bool {
	return n == nil || (len(n.Metrics) == 0 && len(n.Children) == 0)
}

// SetMetric define o valor de uma métrica preservando a ordem de inserção
func (n *Node) SetMetric(name string, v Value) {
	if _, ok := n.Metrics[name]; !ok {
		n.metricOrder = append(n.metricOrder, name)
	}
	n.Metrics[name] = v
}

// Child retorna o filho com a chave informada, criando-o se necessário
func (n *Node) Child(key string) *Node {
	child, ok := n.Children[key]
	if !ok {
		child = NewNode()
		n.Children[key] = child
		n.childOrder = append(n.childOrder, key)
	}
	return child
}

// Keys retorna as chaves dos filhos na ordem em que apareceram
func (n *Node) Keys() []string {
	out := make([]string, len(n.childOrder))
	copy(out, n.childOrder)
	return out
}

// MetricNames retorna os nomes das métricas na ordem em que foram definidas
func (n *Node) MetricNames() []string {
	out := make([]string, len(n.metricOrder))
	copy(out, n.metricOrder)
	return out
}

// Lookup desce pelo caminho de chaves e retorna o nó encontrado
func (n *Node) Lookup(path ...string) (*Node, bool) {
	current := n
	for _, key := range path {
		if current == nil {
			return nil, false
		}
		child, ok := current.Children[key]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, current != nil
}

// Merge faz o deep-merge de other em n: chaves novas são adicionadas e caminhos iguais são combinados
func (n *Node) Merge(other *Node) {
	if other == nil {
		return
	}

	for _, name := range other.metricOrder {
		value := other.Metrics[name]
		if existing, ok := n.Metrics[name]; ok {
			n.Metrics[name] = existing.Merge(value)
			continue
		}
		n.SetMetric(name, value)
	}

	for _, key := range other.childOrder {
		n.Child(key).Merge(other.Children[key])
	}
}

// Leaf é uma linha achatada do resultado: caminho de chaves e métricas
type Leaf struct {
	Path    []string
	Metrics map[string]Value
}

// Leaves percorre a árvore em profundidade, na ordem de inserção
func (n *Node) Leaves() []Leaf {
	var leaves []Leaf
	n.walk(nil, &leaves)
	return leaves
}

func (n *Node) walk(path []string, out *[]Leaf) {
	if len(n.Metrics) > 0 {
		p := make([]string, len(path))
		copy(p, path)
		*out = append(*out, Leaf{Path: p, Metrics: n.Metrics})
	}
	for _, key := range n.childOrder {
		n.Children[key].walk(append(path, key), out)
	}
}

// MarshalJSON escreve o nó como objeto: métricas e depois filhos, na ordem em que apareceram
func (n *Node) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	n.writeTo(stream)
	if stream.Error != nil {
		return nil, stream.Error
	}

	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func (n *Node) writeTo(stream *jsoniter.Stream) {
	stream.WriteObjectStart()
	first := true
	field := func(name string) {
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(name)
	}

	for _, name := range n.metricOrder {
		field(name)
		stream.WriteVal(n.Metrics[name])
	}
	for _, key := range n.childOrder {
		field(key)
		n.Children[key].writeTo(stream)
	}
	stream.WriteObjectEnd()
}

// AggregateResult é o resultado de uma agregação agrupada
type AggregateResult struct {
	Range    TimeRange `json:"range"`
	Interval Interval  `json:"interval"`
	Metrics  []string  `json:"metrics"`
	Depth    int       `json:"depth"`
	Root     *Node     `json:"data"`
}

package domain

import "time"

// TimeRange representa um intervalo fechado [Start, End]
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SubRange é um bucket do período total, dimensionado conforme o Interval escolhido.
// Next é o início do sub-período seguinte; quando preenchido o limite superior é aberto
// (t < Next), cobrindo instantes entre End e Next com precisão abaixo de milissegundo.
// O último sub-período não tem Next e termina em End, inclusive.
type SubRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Next  time.Time `json:"-"`
}

// Closed reporta se o limite superior é End, inclusive
func (s SubRange) Closed() bool {
	return s.Next.IsZero()
}

// Upper retorna o limite superior usado nas consultas: Next quando aberto, End quando fechado
func (s SubRange) Upper() time.Time {
	if s.Closed() {
		return s.End
	}
	return s.Next
}

// Contains reporta se t está dentro do sub-período
func (s SubRange) Contains(t time.Time) bool {
	if t.Before(s.Start) {
		return false
	}
	if s.Closed() {
		return !t.After(s.End)
	}
	return t.Before(s.Next)
}

// Interval define a granularidade dos buckets de um período
type Interval string

const (
	IntervalDaily     Interval = "daily"
	IntervalWeekly    Interval = "weekly"
	IntervalMonthly   Interval = "monthly"
	IntervalQuarterly Interval = "quarterly"
)

// Rank ordena as granularidades da mais fina para a mais grossa
func (i Interval) Rank() int {
	switch i {
	case IntervalDaily:
		return 0
	case IntervalWeekly:
		return 1
	case IntervalMonthly:
		return 2
	case IntervalQuarterly:
		return 3
	default:
		return -1
	}
}

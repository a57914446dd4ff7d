package metering

import (
	"time"

	"github.com/vfg2006/metrics-api/internal/domain"
)

// Limites (em dias inteiros) para a escolha da granularidade
const (
	dailyMaxDays   = 7
	weeklyMaxDays  = 90
	monthlyMaxDays = 365
)

// timeUnit é a menor unidade entre o fim de um sub-período e o início do próximo
const timeUnit = time.Millisecond

// DetermineInterval escolhe a granularidade pelo número de dias inteiros decorridos entre start e end
func DetermineInterval(start, end time.Time) domain.Interval {
	days := elapsedDays(start, end)

	switch {
	case days <= dailyMaxDays:
		return domain.IntervalDaily
	case days <= weeklyMaxDays:
		return domain.IntervalWeekly
	case days <= monthlyMaxDays:
		return domain.IntervalMonthly
	default:
		return domain.IntervalQuarterly
	}
}

func elapsedDays(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

// GenerateSubRanges divide [start, end] em sub-períodos contíguos do tamanho do intervalo.
// O início de cada sub-período é o fim do anterior mais 1ms e o último termina exatamente em end.
// Sub-períodos intermediários carregam Next, então consultas usam [Start, Next) e nenhum instante fica de fora.
// Sempre retorna ao menos um sub-período.
func GenerateSubRanges(start, end time.Time, interval domain.Interval) []domain.SubRange {
	anchor := StartOfDay(start)
	current := start
	ranges := make([]domain.SubRange, 0, 1)

	for step := 1; ; step++ {
		next := AddInterval(anchor, interval, step)

		if !next.Before(end) {
			ranges = append(ranges, domain.SubRange{Start: current, End: end})
			return ranges
		}

		subEnd := next.Add(-timeUnit)
		ranges = append(ranges, domain.SubRange{Start: current, End: subEnd, Next: next})
		current = next
	}
}

// AddInterval avança t em n unidades do intervalo. Meses que não possuem o dia de t
// são ajustados para o último dia válido (31/01 + 1 mês = 28/02 ou 29/02).
func AddInterval(t time.Time, interval domain.Interval, n int) time.Time {
	switch interval {
	case domain.IntervalWeekly:
		return t.AddDate(0, 0, 7*n)
	case domain.IntervalMonthly:
		return AddMonthsClamped(t, n)
	case domain.IntervalQuarterly:
		return AddMonthsClamped(t, 3*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

// AddMonthsClamped soma meses sem transbordar para o mês seguinte
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// StartOfDay retorna 00:00:00.000 do dia de t
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay retorna 23:59:59.999 do dia de t
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-timeUnit), t.Location())
}

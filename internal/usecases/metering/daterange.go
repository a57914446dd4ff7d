package metering

import (
	"regexp"
	"strings"
	"time"

	"github.com/vfg2006/metrics-api/internal/domain"
	"github.com/vfg2006/metrics-api/pkg/apiErrors"
)

// RangeSeparator separa início e fim em strings como "2024-01-01 - 2024-01-31"
const RangeSeparator = " - "

// DefaultFallbackDays é a janela usada quando o período informado é inválido
const DefaultFallbackDays = 30

// Layouts aceitos para cada ponta do período
const (
	LayoutISO      = "2006-01-02"
	LayoutDayFirst = "02/01/2006"
)

var (
	isoDatePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dayFirstDatePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// ParseDateRange interpreta "A - B" (A e B em YYYY-MM-DD ou DD/MM/YYYY) no fuso loc.
// O início é normalizado para 00:00:00.000 e o fim para 23:59:59.999.
func ParseDateRange(value string, loc *time.Location) (domain.TimeRange, error) {
	if !strings.Contains(value, RangeSeparator) {
		return domain.TimeRange{}, NewInvalidValueError(ErrInvalidDateRange, apiErrors.ErrInvalidFormat, value)
	}

	parts := strings.SplitN(value, RangeSeparator, 2)
	return ParseDatePair(parts[0], parts[1], loc)
}

// ParseDatePair interpreta início e fim informados separadamente
func ParseDatePair(startValue, endValue string, loc *time.Location) (domain.TimeRange, error) {
	start, err := ParseDate(startValue, loc)
	if err != nil {
		return domain.TimeRange{}, err
	}

	end, err := ParseDate(endValue, loc)
	if err != nil {
		return domain.TimeRange{}, err
	}

	r := domain.TimeRange{Start: StartOfDay(start), End: EndOfDay(end)}
	if r.Start.After(r.End) {
		return domain.TimeRange{}, NewMetricsError(ErrInvalidDateRange, apiErrors.ErrInvalidRequest, "start date is after end date")
	}

	return r, nil
}

// ParseDate aceita YYYY-MM-DD ou DD/MM/YYYY
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	value = strings.TrimSpace(value)

	var layout string
	switch {
	case isoDatePattern.MatchString(value):
		layout = LayoutISO
	case dayFirstDatePattern.MatchString(value):
		layout = LayoutDayFirst
	default:
		return time.Time{}, NewInvalidValueError(ErrUnsupportedFormat, apiErrors.ErrInvalidFormat, value)
	}

	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, NewInvalidValueError(ErrUnsupportedFormat, apiErrors.ErrInvalidFormat, value)
	}

	return t, nil
}

// CurrentMonth retorna o mês corrente de now, do primeiro dia 00:00 ao último dia 23:59:59.999
func CurrentMonth(now time.Time) domain.TimeRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)

	return domain.TimeRange{Start: first, End: EndOfDay(last)}
}

// TrailingDays retorna os últimos days dias até o fim do dia de now
func TrailingDays(now time.Time, days int) domain.TimeRange {
	return domain.TimeRange{
		Start: StartOfDay(now.AddDate(0, 0, -days)),
		End:   EndOfDay(now),
	}
}

// ParseDateRangeOrDefault devolve o período informado ou, se inválido, a janela padrão de 30 dias.
// O erro de parsing é retornado junto para que o chamador possa registrá-lo.
func ParseDateRangeOrDefault(value string, now time.Time) (domain.TimeRange, error) {
	r, err := ParseDateRange(value, now.Location())
	if err != nil {
		return TrailingDays(now, DefaultFallbackDays), err
	}
	return r, nil
}

// FormatRangeLabel gera um rótulo legível, ex: "Jan 1, 2024 - Jan 31, 2024"
func FormatRangeLabel(r domain.TimeRange) string {
	const layout = "Jan 2, 2006"
	return r.Start.Format(layout) + RangeSeparator + r.End.Format(layout)
}

// Normalize aplica os padrões de período (mês corrente) e ajusta as pontas para os limites do dia
func Normalize(start, end *time.Time, now time.Time) domain.TimeRange {
	def := CurrentMonth(now)

	r := def
	if start != nil {
		r.Start = StartOfDay(start.In(now.Location()))
	}
	if end != nil {
		r.End = EndOfDay(end.In(now.Location()))
	}

	return r
}

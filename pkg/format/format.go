package format

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Estilos de formatação aceitos na configuração
const (
	StyleIndian = "indian"
	StyleShort  = "short"
	StyleLocale = "locale"
)

var shortUnits = []string{"K", "M", "B", "T"}

// IndianFormat arredonda para duas casas e agrupa os dígitos no padrão indiano:
// os três últimos dígitos e depois grupos de dois (1234567 -> "12,34,567")
func IndianFormat(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}

	s := plain(round(n, 2))

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	integer, decimal, hasDecimal := strings.Cut(s, ".")

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}

	if len(integer) <= 3 {
		b.WriteString(integer)
	} else {
		head, tail := integer[:len(integer)-3], integer[len(integer)-3:]
		if lead := len(head) % 2; lead > 0 {
			b.WriteString(head[:lead])
			b.WriteByte(',')
			head = head[lead:]
		}
		for i := 0; i < len(head); i += 2 {
			b.WriteString(head[i : i+2])
			b.WriteByte(',')
		}
		b.WriteString(tail)
	}

	if hasDecimal {
		b.WriteByte('.')
		b.WriteString(decimal)
	}

	return b.String()
}

// ShortFormat abrevia números grandes: 1500 -> "1.5K", 1500000 -> "1.5M"
func ShortFormat(n float64, precision int) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}

	abs := math.Abs(n)
	if abs < 1000 {
		return plain(n)
	}

	unit := int(math.Floor(math.Log10(abs)/3)) - 1
	if unit >= len(shortUnits) {
		unit = len(shortUnits) - 1
	}

	return plain(round(n/math.Pow(1000, float64(unit+1)), precision)) + shortUnits[unit]
}

// LocaleFormatter formata números com o agrupamento do idioma informado
type LocaleFormatter struct {
	printer *message.Printer
}

// NewLocaleFormatter cria um formatador para a tag BCP 47 informada; tags inválidas usam inglês
func NewLocaleFormatter(locale string) *LocaleFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &LocaleFormatter{printer: message.NewPrinter(tag)}
}

// Format aplica o agrupamento do idioma com no máximo duas casas decimais
func (f *LocaleFormatter) Format(n float64) string {
	return f.printer.Sprint(number.Decimal(round(n, 2), number.MaxFractionDigits(2)))
}

// ForStyle devolve a função de formatação correspondente ao estilo configurado
func ForStyle(style, locale string) func(float64) string {
	switch strings.ToLower(style) {
	case StyleShort:
		return func(n float64) string { return ShortFormat(n, 1) }
	case StyleLocale:
		return NewLocaleFormatter(locale).Format
	default:
		return IndianFormat
	}
}

func round(n float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(n*p) / p
}

func plain(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

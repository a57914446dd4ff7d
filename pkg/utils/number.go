package utils

import "math"

// Round arredonda para a quantidade de casas decimais informada.
// NaN e infinitos viram 0, já que não podem ser gravados em planilhas nem em JSON.
func Round(f float64, places int) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	pow := math.Pow(10, float64(places))
	return math.Round(f*pow) / pow
}

// RoundMetric arredonda valores de métricas para exibição
func RoundMetric(f float64) float64 {
	return Round(f, 2)
}

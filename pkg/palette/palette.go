package palette

import (
	"fmt"
	"math"
)

// Chart é a paleta de um gráfico: uma cor de fundo e uma de borda por série
type Chart struct {
	BackgroundColor []string `json:"backgroundColor"`
	BorderColor     []string `json:"borderColor"`
}

type rgb struct{ r, g, b int }

var predefined = []rgb{
	{255, 99, 132},  // Red
	{54, 162, 235},  // Blue
	{255, 206, 86},  // Yellow
	{75, 192, 192},  // Teal
	{153, 102, 255}, // Purple
	{255, 159, 64},  // Orange
	{34, 197, 94},   // Green
	{255, 99, 71},   // Tomato
	{139, 69, 19},   // SaddleBrown
	{255, 140, 0},   // DarkOrange
	{47, 79, 79},    // DarkSlateGray
	{64, 224, 208},  // Turquoise
}

const (
	backgroundAlpha = "0.7"
	borderAlpha     = "1"
	goldenAngle     = 137.508
)

// Colors retorna n cores. As 12 primeiras são fixas; as seguintes são geradas
// de forma determinística espalhando o matiz pelo ângulo áureo.
func Colors(n int) Chart {
	if n < 0 {
		n = 0
	}

	chart := Chart{
		BackgroundColor: make([]string, 0, n),
		BorderColor:     make([]string, 0, n),
	}

	for i := 0; i < n; i++ {
		c := colorAt(i)
		chart.BackgroundColor = append(chart.BackgroundColor, c.rgba(backgroundAlpha))
		chart.BorderColor = append(chart.BorderColor, c.rgba(borderAlpha))
	}

	return chart
}

func colorAt(i int) rgb {
	if i < len(predefined) {
		return predefined[i]
	}

	hue := math.Mod(float64(i-len(predefined))*goldenAngle, 360)
	return fromHSL(hue, 0.65, 0.55)
}

func (c rgb) rgba(alpha string) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.r, c.g, c.b, alpha)
}

func fromHSL(h, s, l float64) rgb {
	chroma := (1 - math.Abs(2*l-1)) * s
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - chroma/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}

	return rgb{
		r: int(math.Round((r + m) * 255)),
		g: int(math.Round((g + m) * 255)),
		b: int(math.Round((b + m) * 255)),
	}
}

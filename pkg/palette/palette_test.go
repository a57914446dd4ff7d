package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColors_Predefined(t *testing.T) {
	chart := Colors(2)

	assert.Equal(t, []string{"rgba(255, 99, 132, 0.7)", "rgba(54, 162, 235, 0.7)"}, chart.BackgroundColor)
	assert.Equal(t, []string{"rgba(255, 99, 132, 1)", "rgba(54, 162, 235, 1)"}, chart.BorderColor)
}

func TestColors_GeneratedAreDeterministic(t *testing.T) {
	first := Colors(20)
	second := Colors(20)

	assert.Len(t, first.BackgroundColor, 20)
	assert.Len(t, first.BorderColor, 20)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first.BackgroundColor[12], first.BackgroundColor[13])
}

func TestColors_Empty(t *testing.T) {
	assert.Empty(t, Colors(0).BackgroundColor)
	assert.Empty(t, Colors(-1).BorderColor)
}

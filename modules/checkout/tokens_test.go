package checkout_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ludens-school/paywidget/modules/checkout"
)

func TestParseTokensInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"1 000", 1000},
		{"1_000", 1000},
		{"  42 ", 42},
		{"007", 7},
		{"0", 0},
		{"9999", 9999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, checkout.ParseTokensInput(tt.in), tt.in)
	}

	for _, in := range []string{"", "   ", "12a", "-5", "1.5", "1e3", "+3", "0x10", "１２"} {
		assert.True(t, math.IsNaN(checkout.ParseTokensInput(in)), "%q should not parse", in)
	}
}

func TestClampTokens(t *testing.T) {
	t.Parallel()

	for n := -600; n <= 1200; n++ {
		want := max(1, min(500, n))
		assert.Equal(t, want, checkout.ClampTokens(float64(n)), "n=%d", n)
	}

	assert.Equal(t, 1, checkout.ClampTokens(math.NaN()))
	assert.Equal(t, 1, checkout.ClampTokens(0.9))
	assert.Equal(t, 250, checkout.ClampTokens(250.99))
	assert.Equal(t, 1, checkout.ClampTokens(-0.5))
}

func TestSliderValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, checkout.SliderValue(1))
	assert.Equal(t, 500, checkout.SliderValue(500))
	assert.Equal(t, checkout.SliderMaxTokens, checkout.SliderValue(checkout.MaxTokens+1))
}

package format

import (
	"testing"

	"twstockbot/pkg/market"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"nil 顯示破折號", nil, "-"},
		{"整數不帶小數", market.FloatPtr(12345678), "12,345,678"},
		{"小數保留兩位", market.FloatPtr(1234.5), "1,234.50"},
		{"零", market.FloatPtr(0), "0"},
		{"負整數", market.FloatPtr(-2500), "-2,500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "-", Price(nil))
	assert.Equal(t, "825.00", Price(market.FloatPtr(825)))
	assert.Equal(t, "1,085.50", Price(market.FloatPtr(1085.5)))
}

func TestSignedPrice(t *testing.T) {
	assert.Equal(t, "-", SignedPrice(nil))
	assert.Equal(t, "+12.00", SignedPrice(market.FloatPtr(12)))
	assert.Equal(t, "-3.50", SignedPrice(market.FloatPtr(-3.5)))
	assert.Equal(t, "+0.00", SignedPrice(market.FloatPtr(0)))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "-", Percent(nil))
	assert.Equal(t, "1.47%", Percent(market.FloatPtr(1.47)))
	assert.Equal(t, "-2.30%", Percent(market.FloatPtr(-2.3)))
}

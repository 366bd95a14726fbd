package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"一般代碼", "2330", "2330"},
		{"小寫轉大寫", "tdr1", "TDR1"},
		{"去除空白", " 2330 ", "2330"},
		{"去除特殊字元", "23-30.tw", "2330TW"},
		{"全形與符號", "2330！＠", "2330"},
		{"空字串", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeSymbol(tt.input))
		})
	}
}

func TestNormalizeSymbolIdempotent(t *testing.T) {
	inputs := []string{"2330", "tdr-1", " 00878 ", "a!b@c#1"}
	for _, in := range inputs {
		once := NormalizeSymbol(in)
		assert.Equal(t, once, NormalizeSymbol(once), "正規化應為冪等: %q", in)
	}
}

func TestROCDate(t *testing.T) {
	d := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "113/05/17", ROCDate(d))
	assert.Equal(t, "113/05", ROCYearMonth(d))

	// 民國兩位數年份補零
	d = time.Date(2008, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "097/01/02", ROCDate(d))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *float64
	}{
		{"整數", "1234", FloatPtr(1234)},
		{"千分位", "1,234,567", FloatPtr(1234567)},
		{"小數", "123.45", FloatPtr(123.45)},
		{"帶千分位小數", "1,234.50", FloatPtr(1234.5)},
		{"前後空白", " 42 ", FloatPtr(42)},
		{"零", "0", FloatPtr(0)},
		{"單橫線哨兵", "-", nil},
		{"雙橫線哨兵", "--", nil},
		{"全形破折號哨兵", "—", nil},
		{"NaN 哨兵", "NaN", nil},
		{"空字串", "", nil},
		{"不可解析", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNumber(tt.input)
			if tt.expected == nil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, *tt.expected, *got)
			}
		})
	}
}

func TestParseNumberZeroIsNotUnknown(t *testing.T) {
	// 零與未知必須區分：零是值，哨兵是無值
	zero := ParseNumber("0")
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
	assert.Nil(t, ParseNumber("-"))
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)

	for _, in := range []string{"2024-05-17", "2024/05/17", "20240517"} {
		t.Run(in, func(t *testing.T) {
			got, err := ParseDate(in)
			require.NoError(t, err)
			assert.True(t, want.Equal(got))
		})
	}

	t.Run("不合法格式", func(t *testing.T) {
		for _, in := range []string{"", "17/05/2024", "2024年5月17日", "notadate"} {
			_, err := ParseDate(in)
			assert.ErrorIs(t, err, ErrInvalidDate, "輸入: %q", in)
		}
	})
}

func TestParseMarket(t *testing.T) {
	tests := []struct {
		input    string
		expected Market
		wantErr  bool
	}{
		{"TWSE", TWSE, false},
		{"twse", TWSE, false},
		{" tpex ", TPEX, false},
		{"ALL", All, false},
		{"NYSE", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMarket(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMarket)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestChangePct(t *testing.T) {
	t.Run("正常計算", func(t *testing.T) {
		// 收盤 110、漲 10 → 前日收盤 100 → +10%
		pct := ChangePct(FloatPtr(110), FloatPtr(10))
		require.NotNil(t, pct)
		assert.InDelta(t, 10.0, *pct, 1e-9)
	})

	t.Run("跌幅", func(t *testing.T) {
		pct := ChangePct(FloatPtr(90), FloatPtr(-10))
		require.NotNil(t, pct)
		assert.InDelta(t, -10.0, *pct, 1e-9)
	})

	t.Run("缺漏輸入", func(t *testing.T) {
		assert.Nil(t, ChangePct(nil, FloatPtr(1)))
		assert.Nil(t, ChangePct(FloatPtr(100), nil))
	})

	t.Run("前日收盤不合理", func(t *testing.T) {
		assert.Nil(t, ChangePct(FloatPtr(5), FloatPtr(5)))
	})
}

func TestUpstreamError(t *testing.T) {
	err := NewUpstreamError(TWSE, "stock_day", "HTTP 500", nil)
	assert.True(t, IsUpstream(err))
	assert.Contains(t, err.Error(), "TWSE")
	assert.False(t, IsUpstream(ErrInvalidDate))
}

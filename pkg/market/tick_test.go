package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtimeTickPrice(t *testing.T) {
	t.Run("z 欄位", func(t *testing.T) {
		tick := RealtimeTick{"z": "1,234.50"}
		p := tick.Price()
		require.NotNil(t, p)
		assert.Equal(t, 1234.5, *p)
	})

	t.Run("price 欄位優先", func(t *testing.T) {
		tick := RealtimeTick{"price": "100", "z": "200"}
		p := tick.Price()
		require.NotNil(t, p)
		assert.Equal(t, 100.0, *p)
	})

	t.Run("price 空值時退用 z", func(t *testing.T) {
		tick := RealtimeTick{"price": "", "z": "200"}
		p := tick.Price()
		require.NotNil(t, p)
		assert.Equal(t, 200.0, *p)
	})

	t.Run("哨兵價格", func(t *testing.T) {
		assert.Nil(t, RealtimeTick{"z": "--"}.Price())
		assert.Nil(t, RealtimeTick{"z": "-"}.Price())
		assert.Nil(t, RealtimeTick{"z": "—"}.Price())
	})
}

func TestRealtimeTickValid(t *testing.T) {
	tests := []struct {
		name  string
		tick  RealtimeTick
		valid bool
	}{
		{"帶千分位價格且無時間欄位", RealtimeTick{"z": "1,234.50"}, true},
		{"價格哨兵", RealtimeTick{"z": "--"}, false},
		{"價格有效但時間欄位為空", RealtimeTick{"z": "100", "time": ""}, false},
		{"價格與時間皆有效", RealtimeTick{"z": "100", "t": "13:30:00"}, true},
		{"時間掛在 ts 欄位", RealtimeTick{"price": "55.5", "ts": "09:01:02"}, true},
		{"完全無價格欄位", RealtimeTick{"n": "台積電"}, false},
		{"nil 報價", nil, false},
		{"價格不可解析", RealtimeTick{"z": "N/A"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.tick.Valid())
		})
	}
}

func TestRealtimeTickTimeString(t *testing.T) {
	assert.Equal(t, "13:30:00", RealtimeTick{"time": "13:30:00"}.TimeString())
	assert.Equal(t, "09:01", RealtimeTick{"t": "09:01"}.TimeString())
	assert.Equal(t, "", RealtimeTick{"n": "台積電"}.TimeString())
}

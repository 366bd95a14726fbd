package backfill

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"twstockbot/pkg/config"
	"twstockbot/pkg/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRealtime 假即時客戶端：依呼叫次數回放腳本
type fakeRealtime struct {
	calls   int64
	script  []market.RealtimeTick
	err     error
	lastTic market.RealtimeTick // 腳本耗盡後固定回傳
}

func (f *fakeRealtime) Realtime(context.Context, string) (market.RealtimeTick, error) {
	n := atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	if int(n) <= len(f.script) {
		return f.script[n-1], nil
	}
	return f.lastTic, nil
}

func newRealtimeService(rt RealtimeQuoter) *Service {
	cfg := config.Default()
	return NewService(cfg, &fakeQuoter{mkt: market.TWSE}, &fakeQuoter{mkt: market.TPEX}, rt)
}

func TestAttempts(t *testing.T) {
	tests := []struct {
		name        string
		maxMinutes  int
		intervalSec float64
		expected    int
	}{
		{"一分鐘十五秒間隔", 1, 15, 5},
		{"三分鐘十五秒間隔", 3, 15, 13},
		{"零分鐘至少一次", 0, 15, 1},
		{"負值視為零", -1, 15, 1},
		{"間隔大於視窗", 1, 120, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Attempts(tt.maxMinutes, tt.intervalSec))
		})
	}
}

func TestFindLastRealtime(t *testing.T) {
	t.Run("第一筆有效立即回傳", func(t *testing.T) {
		rt := &fakeRealtime{script: []market.RealtimeTick{{"z": "841.00", "t": "13:30:00"}}}
		svc := newRealtimeService(rt)

		start := time.Now()
		tick, err := svc.FindLastRealtime(context.Background(), "2330", 1, 15)
		require.NoError(t, err)
		require.NotNil(t, tick)

		assert.Equal(t, int64(1), atomic.LoadInt64(&rt.calls))
		assert.Less(t, time.Since(start), time.Second, "有效報價不應進入等待")
	})

	t.Run("無效報價後第二次成功", func(t *testing.T) {
		rt := &fakeRealtime{script: []market.RealtimeTick{
			{"z": "--"},
			{"z": "841.00"},
		}}
		svc := newRealtimeService(rt)

		// 間隔低於下限會被拉到 0.2 秒
		tick, err := svc.FindLastRealtime(context.Background(), "2330", 1, 0.05)
		require.NoError(t, err)
		require.NotNil(t, tick)
		assert.Equal(t, int64(2), atomic.LoadInt64(&rt.calls))
	})

	t.Run("視窗耗盡回傳 nil 非錯誤", func(t *testing.T) {
		rt := &fakeRealtime{lastTic: market.RealtimeTick{"z": "--"}}
		svc := newRealtimeService(rt)

		// 零分鐘 → 恰一次嘗試，不等待
		tick, err := svc.FindLastRealtime(context.Background(), "2330", 0, 15)
		require.NoError(t, err)
		assert.Nil(t, tick)
		assert.Equal(t, int64(1), atomic.LoadInt64(&rt.calls))
	})

	t.Run("傳輸錯誤視為無報價", func(t *testing.T) {
		rt := &fakeRealtime{err: market.NewUpstreamError(market.TWSE, "realtime", "HTTP 500", nil)}
		svc := newRealtimeService(rt)

		tick, err := svc.FindLastRealtime(context.Background(), "2330", 0, 15)
		require.NoError(t, err)
		assert.Nil(t, tick)
	})

	t.Run("等待中取消與視窗耗盡無從分辨", func(t *testing.T) {
		rt := &fakeRealtime{lastTic: market.RealtimeTick{"z": "--"}}
		svc := newRealtimeService(rt)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		tick, err := svc.FindLastRealtime(ctx, "2330", 1, 15)
		require.NoError(t, err)
		assert.Nil(t, tick)

		// 第一次嘗試後進入等待即被取消，不會撐滿十五秒
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, int64(1), atomic.LoadInt64(&rt.calls))
	})

	t.Run("負參數取設定預設值", func(t *testing.T) {
		rt := &fakeRealtime{script: []market.RealtimeTick{{"z": "841.00"}}}
		cfg := config.Default()
		cfg.Realtime.MaxMinutes = 0 // 預設改為單次，測試不等待
		svc := NewService(cfg, &fakeQuoter{mkt: market.TWSE}, &fakeQuoter{mkt: market.TPEX}, rt)

		tick, err := svc.FindLastRealtime(context.Background(), "2330", -1, -1)
		require.NoError(t, err)
		require.NotNil(t, tick)
	})
}

func TestFetchRealtime(t *testing.T) {
	t.Run("單次查詢不重試", func(t *testing.T) {
		rt := &fakeRealtime{script: []market.RealtimeTick{{"z": "841.00"}}}
		svc := newRealtimeService(rt)

		tick, err := svc.FetchRealtime(context.Background(), "2330")
		require.NoError(t, err)
		require.NotNil(t, tick)
		assert.Equal(t, int64(1), atomic.LoadInt64(&rt.calls))
	})

	t.Run("錯誤降級為查無資料", func(t *testing.T) {
		rt := &fakeRealtime{err: market.NewUpstreamError(market.TWSE, "realtime", "HTTP 500", nil)}
		svc := newRealtimeService(rt)

		tick, err := svc.FetchRealtime(context.Background(), "2330")
		require.NoError(t, err)
		assert.Nil(t, tick)
	})
}

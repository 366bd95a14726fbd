package backfill

import (
	"context"
	"time"

	"twstockbot/pkg/market"
)

// minIntervalSec 輪詢間隔下限（秒）
const minIntervalSec = 0.2

// FetchRealtime 查詢一次即時報價，不重試
// 傳輸或格式錯誤降級為查無資料
func (s *Service) FetchRealtime(ctx context.Context, symbol string) (market.RealtimeTick, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}
	tick, err := s.realtime.Realtime(ctx, symbol)
	if err != nil {
		s.log.Debugf("即時報價查詢失敗: %v", err)
		return nil, nil
	}
	return tick, nil
}

// FindLastRealtime 以時間視窗輪詢近似回補最近一筆即時報價
// MIS 沒有歷史分鐘查詢，只能在視窗內反覆要「現在」直到出現可用報價。
//   - maxMinutes < 0 時取設定預設；intervalSec <= 0 時取設定預設，下限 0.2 秒
//   - 嘗試次數 = floor(視窗秒數/間隔) + 1，至少 1 次
//   - 視窗耗盡或輪詢途中被取消都回傳 (nil, nil)，對呼叫端而言無從分辨
func (s *Service) FindLastRealtime(ctx context.Context, symbol string, maxMinutes int, intervalSec float64) (market.RealtimeTick, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}

	if maxMinutes < 0 {
		maxMinutes = s.rtCfg.MaxMinutes
	}
	if intervalSec <= 0 {
		intervalSec = s.rtCfg.IntervalSec
	}
	if intervalSec < minIntervalSec {
		intervalSec = minIntervalSec
	}

	attempts := Attempts(maxMinutes, intervalSec)
	interval := time.Duration(intervalSec * float64(time.Second))

	for i := 0; i < attempts; i++ {
		tick, err := s.realtime.Realtime(ctx, symbol)
		if err != nil {
			s.log.Debugf("即時報價第 %d/%d 次失敗: %v", i+1, attempts, err)
			tick = nil
		}
		if tick.Valid() {
			return tick, nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, nil
			case <-time.After(interval):
			}
		}
	}
	return nil, nil
}

// Attempts 由視窗與間隔推出嘗試次數，至少 1 次
func Attempts(maxMinutes int, intervalSec float64) int {
	if maxMinutes < 0 {
		maxMinutes = 0
	}
	n := int(float64(maxMinutes*60)/intervalSec) + 1
	if n < 1 {
		n = 1
	}
	return n
}

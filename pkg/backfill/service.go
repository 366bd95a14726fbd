// Package backfill 實作日線回補與即時報價回補引擎：
// 在兩個各自不穩定的上游市場之間，往前回溯找出最近有資料的交易日，
// 或在時間視窗內輪詢即時端點直到出現可用報價
package backfill

import (
	"context"
	"time"

	"twstockbot/pkg/config"
	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"

	"github.com/sirupsen/logrus"
)

// DailyQuoter 市場日線查詢介面
// 查無該日資料回傳 (nil, nil)；傳輸或格式問題回傳錯誤，由引擎決定容忍
type DailyQuoter interface {
	Market() market.Market
	DailyRecord(ctx context.Context, symbol string, date time.Time) (*market.DailyRecord, error)
}

// RealtimeQuoter 即時報價查詢介面
type RealtimeQuoter interface {
	Realtime(ctx context.Context, symbol string) (market.RealtimeTick, error)
}

// Service 回補引擎
// quoters 依優先序排列（證交所在前），同一天兩市都有資料時以前者為準
type Service struct {
	quoters  []DailyQuoter
	realtime RealtimeQuoter
	markets  config.MarketsConfig
	rtCfg    config.RealtimeConfig
	now      func() time.Time
	log      *logrus.Entry
}

// NewService 建立回補引擎
func NewService(cfg *config.Config, twse DailyQuoter, tpex DailyQuoter, rt RealtimeQuoter) *Service {
	return &Service{
		quoters:  []DailyQuoter{twse, tpex},
		realtime: rt,
		markets:  cfg.Markets,
		rtCfg:    cfg.Realtime,
		now:      time.Now,
		log:      logger.WithComponent("Backfill"),
	}
}

// SetClock 注入時鐘（測試用），決定「今天」的基準
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// anchor 取回補起點：呼叫端未給日期時以今天為準
func (s *Service) anchor(date time.Time) time.Time {
	if date.IsZero() {
		return s.now()
	}
	return date
}

package backfill

import (
	"context"
	"time"

	"twstockbot/pkg/market"
)

// FetchSingleDaily 查詢指定市場單一日期的日線，不做回補
// date 為零值時查今天；市場別不認得回傳 ErrUnknownMarket
func (s *Service) FetchSingleDaily(ctx context.Context, symbol string, mkt market.Market, date time.Time) (*market.DailyResult, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}
	when := s.anchor(date)

	for _, q := range s.quoters {
		if q.Market() != mkt {
			continue
		}
		rec, err := q.DailyRecord(ctx, symbol, when)
		if err != nil {
			return nil, err
		}
		return market.NewDailyResult(mkt, symbol, when, rec), nil
	}
	return nil, market.ErrUnknownMarket
}

// AutoDaily 對單一日期依序嘗試各市場（證交所→櫃買）
// 單一市場的錯誤只略過該市場，不中斷整體流程；都沒有資料回傳 (nil, nil)
func (s *Service) AutoDaily(ctx context.Context, symbol string, date time.Time) (*market.DailyResult, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}
	when := s.anchor(date)

	for _, q := range s.quoters {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec, err := q.DailyRecord(ctx, symbol, when)
		if err != nil {
			s.log.WithField("market", q.Market()).Debugf("日線查詢失敗，略過該市場: %v", err)
			continue
		}
		if rec != nil {
			return market.NewDailyResult(q.Market(), symbol, when, rec), nil
		}
	}
	return nil, nil
}

// FindLastDaily 回補日線：從 anchor 起逐日往前呼叫 AutoDaily，
// 最多回溯 MaxBacktrackDays 天（含 anchor 共 MaxBacktrackDays+1 個候選日）
// 第一個有資料的（市場, 日期）即為結果；全部落空回傳 (nil, 零值, nil)
func (s *Service) FindLastDaily(ctx context.Context, symbol string, date time.Time) (*market.DailyResult, time.Time, error) {
	base := s.anchor(date)

	for delta := 0; delta <= s.markets.MaxBacktrackDays; delta++ {
		if ctx.Err() != nil {
			return nil, time.Time{}, ctx.Err()
		}
		candidate := base.AddDate(0, 0, -delta)
		res, err := s.AutoDaily(ctx, symbol, candidate)
		if err != nil {
			return nil, time.Time{}, err
		}
		if res.HasRecord() {
			return res, candidate, nil
		}
	}
	return nil, time.Time{}, nil
}

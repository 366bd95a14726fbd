package tpex

import (
	"time"

	"twstockbot/pkg/market"

	"github.com/tidwall/gjson"
)

// thousandUnit 櫃買日線的成交量與成交值以「仟」為單位，
// 乘回 1000 與證交所同單位，跨市場比較時才有意義
const thousandUnit = 1000

// pickDailyRecord 在列導向的日線表中找出民國日期完全相符的那一列
// 資料列可能掛在 aaData 或 data 鍵下，依序探測
// 列格式：[日期, 成交仟股, 成交仟元, 開盤, 最高, 最低, 收盤, 漲跌, 筆數]
func pickDailyRecord(body []byte, date time.Time) (*market.DailyRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, market.NewUpstreamError(market.TPEX, "stock_day", "malformed JSON body", nil)
	}

	rows := gjson.GetBytes(body, "aaData")
	if !rows.Exists() {
		rows = gjson.GetBytes(body, "data")
	}

	wanted := market.ROCDate(date)
	var rec *market.DailyRecord
	rows.ForEach(func(_, row gjson.Result) bool {
		cols := row.Array()
		if len(cols) < 9 {
			return true
		}
		if cols[0].String() != wanted {
			return true
		}
		rec = &market.DailyRecord{
			Date:         cols[0].String(),
			Volume:       scaleThousand(market.ParseNumber(cols[1].String())),
			Turnover:     scaleThousand(market.ParseNumber(cols[2].String())),
			Open:         market.ParseNumber(cols[3].String()),
			High:         market.ParseNumber(cols[4].String()),
			Low:          market.ParseNumber(cols[5].String()),
			Close:        market.ParseNumber(cols[6].String()),
			Change:       cols[7].String(),
			Transactions: market.ParseNumber(cols[8].String()),
		}
		return false // 日期唯一，第一筆為準
	})
	return rec, nil
}

// scaleThousand 仟股/仟元換算回股/元；無值維持無值
func scaleThousand(v *float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * thousandUnit
	return &scaled
}

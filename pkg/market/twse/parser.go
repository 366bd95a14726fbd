package twse

import (
	"time"

	"twstockbot/pkg/market"

	"github.com/tidwall/gjson"
)

// statEmpty 證交所以這段訊息表示查無資料，視同正常的空回應
const statEmpty = "很抱歉，沒有符合條件的資料!"

// checkStat 驗證 STOCK_DAY 回應的 stat 欄位
func checkStat(body []byte) error {
	if !gjson.ValidBytes(body) {
		return market.NewUpstreamError(market.TWSE, "stock_day", "malformed JSON body", nil)
	}
	stat := gjson.GetBytes(body, "stat").String()
	if stat != "OK" && stat != statEmpty {
		return market.NewUpstreamError(market.TWSE, "stock_day", "unexpected stat: "+stat, nil)
	}
	return nil
}

// pickDailyRecord 在列導向的日線表中找出民國日期完全相符的那一列
// 列格式：[日期, 成交股數, 成交金額, 開盤, 最高, 最低, 收盤, 漲跌價差, 成交筆數]
// 查無相符列回傳 (nil, nil)
func pickDailyRecord(body []byte, date time.Time) (*market.DailyRecord, error) {
	rows := gjson.GetBytes(body, "data")
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
			Volume:       market.ParseNumber(cols[1].String()),
			Turnover:     market.ParseNumber(cols[2].String()),
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

// parseRealtime 解析 MIS 回應，取 msgArray 第一筆為鬆散鍵值報價
func parseRealtime(body []byte) (market.RealtimeTick, error) {
	if !gjson.ValidBytes(body) {
		return nil, market.NewUpstreamError(market.TWSE, "realtime", "malformed JSON body", nil)
	}
	arr := gjson.GetBytes(body, "msgArray")
	if !arr.Exists() || len(arr.Array()) == 0 {
		return nil, nil
	}
	tick := market.RealtimeTick{}
	arr.Array()[0].ForEach(func(key, value gjson.Result) bool {
		tick[key.String()] = value.String()
		return true
	})
	return tick, nil
}

package market

import (
	"strings"
	"time"
)

// Market 市場別
type Market string

const (
	TWSE Market = "TWSE" // 上市（證交所）
	TPEX Market = "TPEX" // 上櫃（櫃買中心）
	All  Market = "ALL"  // 兩市合併（排行榜用）
)

// ParseMarket 解析市場別字串，不認得的值回傳 ErrUnknownMarket
func ParseMarket(s string) (Market, error) {
	switch Market(strings.ToUpper(strings.TrimSpace(s))) {
	case TWSE:
		return TWSE, nil
	case TPEX:
		return TPEX, nil
	case All:
		return All, nil
	default:
		return "", ErrUnknownMarket
	}
}

// DailyRecord 單一股票單一交易日的日線摘要
// Date 保留上游回傳的民國日期字串以利追溯；數值欄位缺漏或不可解析時為 nil，
// 絕不以零替代（零與未知是不同狀態）
type DailyRecord struct {
	Date         string   `json:"date"`
	Volume       *float64 `json:"volume"`
	Turnover     *float64 `json:"turnover"`
	Open         *float64 `json:"open"`
	High         *float64 `json:"high"`
	Low          *float64 `json:"low"`
	Close        *float64 `json:"close"`
	Change       string   `json:"change"` // 上游原始字串，格式不一，不做正規化
	Transactions *float64 `json:"transactions"`
}

// DailyResult 一次日線查詢的結果
type DailyResult struct {
	Market  Market       `json:"market"`
	Symbol  string       `json:"symbol"`
	Date    string       `json:"date"`     // 查詢日（西元 2006-01-02）
	RawDate string       `json:"raw_date"` // 上游回傳的民國日期字串；無資料時為空
	Record  *DailyRecord `json:"record"`   // 無該日資料時為 nil（非錯誤）
}

// HasRecord 是否查到該日資料
func (r *DailyResult) HasRecord() bool {
	return r != nil && r.Record != nil
}

// RankingItem 排行榜單一項目
type RankingItem struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Market     Market   `json:"market"`
	Close      *float64 `json:"close"`
	Change     *float64 `json:"change"`
	ChangePct  *float64 `json:"change_pct"`
	Volume     *float64 `json:"volume"`
	Turnover   *float64 `json:"turnover"`
}

// NewDailyResult 組裝查詢結果，從記錄帶出上游日期字串
func NewDailyResult(mkt Market, symbol string, date time.Time, rec *DailyRecord) *DailyResult {
	res := &DailyResult{
		Market: mkt,
		Symbol: symbol,
		Date:   date.Format("2006-01-02"),
		Record: rec,
	}
	if rec != nil {
		res.RawDate = rec.Date
	}
	return res
}

package twse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"twstockbot/pkg/market"

	"github.com/tidwall/gjson"
)

// Rankings 抓取全市場收盤行情（MI_INDEX）作為排行榜資料源
func (c *Client) Rankings(ctx context.Context, date time.Time) ([]market.RankingItem, error) {
	u := fmt.Sprintf("%s/exchangeReport/MI_INDEX?response=json&date=%s&type=ALLBUT0999",
		c.baseURL, date.Format("20060102"))

	body, err := c.doRequest(ctx, u, "mi_index")
	if err != nil {
		return nil, err
	}
	return parseMIIndex(body)
}

// parseMIIndex 解析 MI_INDEX 回應
// 新版回應把各表放在 tables 陣列；舊版用 fields9/data9。
// 逐表找出第一欄為「證券代號」的那張個股行情表
func parseMIIndex(body []byte) ([]market.RankingItem, error) {
	if !gjson.ValidBytes(body) {
		return nil, market.NewUpstreamError(market.TWSE, "mi_index", "malformed JSON body", nil)
	}

	rows := findQuoteRows(gjson.ParseBytes(body))
	if !rows.Exists() {
		return nil, market.NewUpstreamError(market.TWSE, "mi_index", "quote table not found", nil)
	}

	var items []market.RankingItem
	rows.ForEach(func(_, row gjson.Result) bool {
		cols := row.Array()
		if len(cols) < 11 {
			return true
		}
		item := market.RankingItem{
			Symbol:   strings.TrimSpace(cols[0].String()),
			Name:     strings.TrimSpace(cols[1].String()),
			Market:   market.TWSE,
			Volume:   market.ParseNumber(cols[2].String()),
			Turnover: market.ParseNumber(cols[4].String()),
			Close:    market.ParseNumber(cols[8].String()),
		}
		item.Change = signedChange(cols[9].String(), market.ParseNumber(cols[10].String()))
		item.ChangePct = market.ChangePct(item.Close, item.Change)
		items = append(items, item)
		return true
	})
	return items, nil
}

// findQuoteRows 在新舊兩種版型中找個股行情表的資料列
func findQuoteRows(doc gjson.Result) gjson.Result {
	var rows gjson.Result
	doc.Get("tables").ForEach(func(_, table gjson.Result) bool {
		fields := table.Get("fields").Array()
		if len(fields) > 0 && fields[0].String() == "證券代號" {
			rows = table.Get("data")
			return false
		}
		return true
	})
	if rows.Exists() {
		return rows
	}
	return doc.Get("data9")
}

// signedChange 由漲跌符號欄（可能含 HTML 標記）與價差欄組出帶號漲跌
func signedChange(dir string, diff *float64) *float64 {
	if diff == nil {
		return nil
	}
	v := *diff
	if strings.Contains(dir, "-") {
		v = -v
	}
	return &v
}

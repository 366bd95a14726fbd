package tpex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"twstockbot/pkg/market"

	"github.com/tidwall/gjson"
)

// Rankings 抓取上櫃主板行情作為排行榜資料源
// OpenAPI 回傳物件陣列，欄位為 SecuritiesCompanyCode / CompanyName /
// Close / Change / TradingShares / TransactionAmount 等
func (c *Client) Rankings(ctx context.Context, date time.Time) ([]market.RankingItem, error) {
	u := fmt.Sprintf("%s/openapi/v1/tpex_mainboard_quotes", c.baseURL)

	body, err := c.doRequest(ctx, u, "mainboard_quotes")
	if err != nil {
		return nil, err
	}
	return parseMainboardQuotes(body)
}

// parseMainboardQuotes 解析主板行情陣列
func parseMainboardQuotes(body []byte) ([]market.RankingItem, error) {
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, market.NewUpstreamError(market.TPEX, "mainboard_quotes", "expected JSON array", nil)
	}

	var items []market.RankingItem
	doc.ForEach(func(_, row gjson.Result) bool {
		symbol := strings.TrimSpace(row.Get("SecuritiesCompanyCode").String())
		if symbol == "" {
			return true
		}
		item := market.RankingItem{
			Symbol:   symbol,
			Name:     strings.TrimSpace(row.Get("CompanyName").String()),
			Market:   market.TPEX,
			Close:    market.ParseNumber(row.Get("Close").String()),
			Change:   market.ParseNumber(row.Get("Change").String()),
			Volume:   market.ParseNumber(row.Get("TradingShares").String()),
			Turnover: market.ParseNumber(row.Get("TransactionAmount").String()),
		}
		item.ChangePct = market.ChangePct(item.Close, item.Change)
		items = append(items, item)
		return true
	})
	return items, nil
}

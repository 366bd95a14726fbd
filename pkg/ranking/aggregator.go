// Package ranking 聚合兩市排行榜：抓取全市場行情、過濾、合併、
// 穩定排序、截斷，並以短 TTL 快取結果
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"twstockbot/pkg/cache"
	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"

	"github.com/sirupsen/logrus"
)

// Type 排行榜類型
type Type string

const (
	Gainers Type = "gainers" // 漲幅排行
	Losers  Type = "losers"  // 跌幅排行
	Actives Type = "actives" // 成交量排行
)

// Fetcher 單一市場的排行資料源
type Fetcher interface {
	Market() market.Market
	Rankings(ctx context.Context, date time.Time) ([]market.RankingItem, error)
}

// Query 排行榜查詢條件；Limit 的合法範圍（1-50）由呼叫端把關
type Query struct {
	Market          market.Market
	Limit           int
	ExcludeWarrants bool
	ExcludeETF      bool
}

// Result 排行榜結果
type Result struct {
	Date   string               `json:"date"`
	Items  []market.RankingItem `json:"items"`
	Source string               `json:"source"`
}

// Aggregator 排行榜聚合器
// 快取是此核心唯一的共享可變狀態；同鍵並發重算是無害的冪等覆寫
type Aggregator struct {
	fetchers []Fetcher
	cache    *cache.TTLCache
	ttl      time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

// NewAggregator 建立聚合器；clock 為 nil 時使用系統時鐘
func NewAggregator(fetchers []Fetcher, c *cache.TTLCache, ttl time.Duration, clock cache.Clock) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{
		fetchers: fetchers,
		cache:    c,
		ttl:      ttl,
		now:      clock,
		log:      logger.WithComponent("Ranking"),
	}
}

// TopGainers 漲幅排行
func (a *Aggregator) TopGainers(ctx context.Context, q Query) (*Result, error) {
	return a.rank(ctx, Gainers, q)
}

// TopLosers 跌幅排行
func (a *Aggregator) TopLosers(ctx context.Context, q Query) (*Result, error) {
	return a.rank(ctx, Losers, q)
}

// MostActives 成交量排行
func (a *Aggregator) MostActives(ctx context.Context, q Query) (*Result, error) {
	return a.rank(ctx, Actives, q)
}

// rank 快取命中直接回傳；否則逐市場抓取、過濾、合併後排序截斷再快取
func (a *Aggregator) rank(ctx context.Context, typ Type, q Query) (*Result, error) {
	if q.Market == "" {
		q.Market = market.All
	}
	key := cacheKey(typ, q)
	if v, ok := a.cache.Get(key); ok {
		return v.(*Result), nil
	}

	var merged []market.RankingItem
	for _, f := range a.fetchers {
		if !inScope(q.Market, f.Market()) {
			continue
		}
		items, err := f.Rankings(ctx, a.now())
		if err != nil {
			// 單一市場失敗視為該市場無資料，不中斷另一市場
			a.log.WithField("market", f.Market()).Warnf("排行資料抓取失敗: %v", err)
			continue
		}
		merged = append(merged, applyFilters(items, q.ExcludeWarrants, q.ExcludeETF)...)
	}

	sortItems(merged, typ)
	if q.Limit > 0 && len(merged) > q.Limit {
		merged = merged[:q.Limit]
	}

	result := &Result{
		Date:   a.now().Format("2006-01-02"),
		Items:  merged,
		Source: "TWSE/TPEX",
	}
	a.cache.Set(key, result, a.ttl)
	return result, nil
}

// cacheKey 組合快取鍵：排行類型、市場範圍與兩個過濾旗標
func cacheKey(typ Type, q Query) string {
	return fmt.Sprintf("%s:%s:%t:%t", typ, q.Market, q.ExcludeWarrants, q.ExcludeETF)
}

// inScope 市場是否在查詢範圍內
func inScope(scope, mkt market.Market) bool {
	return scope == market.All || scope == mkt
}

// sortItems 穩定排序；缺漏鍵僅在比較時視為零，不回寫項目
func sortItems(items []market.RankingItem, typ Type) {
	switch typ {
	case Gainers:
		sort.SliceStable(items, func(i, j int) bool {
			return market.Float(items[i].ChangePct, 0) > market.Float(items[j].ChangePct, 0)
		})
	case Losers:
		sort.SliceStable(items, func(i, j int) bool {
			return market.Float(items[i].ChangePct, 0) < market.Float(items[j].ChangePct, 0)
		})
	case Actives:
		sort.SliceStable(items, func(i, j int) bool {
			return market.Float(items[i].Volume, 0) > market.Float(items[j].Volume, 0)
		})
	}
}

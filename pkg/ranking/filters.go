package ranking

import (
	"strings"

	"twstockbot/pkg/market"
)

// warrantMarks 權證與牛熊證的名稱特徵字
var warrantMarks = []string{"購", "售", "牛", "熊"}

// applyFilters 套用排除條件
// 權證看名稱特徵字；ETF 看名稱含 ETF 或代碼 00 開頭（台灣 ETF 慣例）
func applyFilters(items []market.RankingItem, excludeWarrants, excludeETF bool) []market.RankingItem {
	if !excludeWarrants && !excludeETF {
		return items
	}

	result := make([]market.RankingItem, 0, len(items))
	for _, it := range items {
		if excludeWarrants && isWarrantLike(it.Name) {
			continue
		}
		if excludeETF && isETFLike(it.Symbol, it.Name) {
			continue
		}
		result = append(result, it)
	}
	return result
}

func isWarrantLike(name string) bool {
	for _, mark := range warrantMarks {
		if strings.Contains(name, mark) {
			return true
		}
	}
	return false
}

func isETFLike(symbol, name string) bool {
	return strings.Contains(name, "ETF") || strings.HasPrefix(symbol, "00")
}

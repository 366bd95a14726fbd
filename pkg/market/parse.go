package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ROCStartYear 民國元年對應的西元年差
const ROCStartYear = 1911

// NormalizeSymbol 正規化股票代碼：轉大寫並移除 [0-9A-Z] 以外字元
// 對已正規化的輸入為冪等
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ROCDate 西元日期轉民國日期字串，如 2024-05-17 → "113/05/17"
func ROCDate(t time.Time) string {
	return fmt.Sprintf("%03d/%02d/%02d", t.Year()-ROCStartYear, int(t.Month()), t.Day())
}

// ROCYearMonth 西元日期轉民國年月字串，如 2024-05-17 → "113/05"
func ROCYearMonth(t time.Time) string {
	return fmt.Sprintf("%03d/%02d", t.Year()-ROCStartYear, int(t.Month()))
}

// numberSentinels 上游以這些字串表示「無值」
var numberSentinels = map[string]struct{}{
	"":    {},
	"-":   {},
	"--":  {},
	"—":   {},
	"NaN": {},
}

// ParseNumber 解析上游數值字串：去除千分位逗號與空白，
// 哨兵字串（"-"、"--"、"NaN"、空白）與不可解析的值回傳 nil 而非錯誤
func ParseNumber(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if _, sentinel := numberSentinels[s]; sentinel {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateLayouts 呼叫端可接受的日期格式
var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

// ParseDate 解析呼叫端輸入的西元日期字串；格式不符回傳 ErrInvalidDate
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// ChangePct 以收盤價與帶號漲跌推回漲跌幅（%）；前日收盤不可得時為 nil
func ChangePct(close, change *float64) *float64 {
	if close == nil || change == nil {
		return nil
	}
	prev := *close - *change
	if prev <= 0 {
		return nil
	}
	pct := *change / prev * 100
	return &pct
}

// Float 取指標值，nil 時回傳替代值；排序等唯讀場合使用，不回寫
func Float(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

// FloatPtr 便利建構函式，測試與組裝常用
func FloatPtr(v float64) *float64 {
	return &v
}

package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer 千分位格式化用；台灣行情慣例同英文分組
var printer = message.NewPrinter(language.English)

// Number 數值顯示：nil 以「-」呈現，整數不帶小數，其餘保留兩位
func Number(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v == math.Trunc(*v) && math.Abs(*v) < 1e15 {
		return printer.Sprintf("%d", int64(*v))
	}
	return printer.Sprintf("%.2f", *v)
}

// Price 價格顯示：nil 以「-」呈現，固定兩位小數
func Price(v *float64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%.2f", *v)
}

// SignedPrice 帶正負號的價格顯示
func SignedPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%+.2f", *v)
}

// Percent 百分比顯示
func Percent(v *float64) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%.2f%%", *v)
}

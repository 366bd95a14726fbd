package market

import "strings"

// RealtimeTick MIS 即時報價的鬆散鍵值資料
// 僅成交價與時間兩個語意欄位參與有效性判斷，其餘欄位原樣帶給呈現層
type RealtimeTick map[string]string

// 上游欄位名稱不固定，依優先序探測
var (
	priceKeys = []string{"price", "z"}
	timeKeys  = []string{"time", "t", "ts"}
)

// probe 依優先序取第一個非空值；另回報是否有任一鍵存在
func (tk RealtimeTick) probe(keys []string) (value string, present bool) {
	for _, k := range keys {
		v, ok := tk[k]
		if !ok {
			continue
		}
		present = true
		if s := strings.TrimSpace(v); s != "" && value == "" {
			value = s
		}
	}
	return value, present
}

// Price 解析成交價；欄位缺漏、哨兵或不可解析時回傳 nil
func (tk RealtimeTick) Price() *float64 {
	v, _ := tk.probe(priceKeys)
	return ParseNumber(v)
}

// TimeString 取報價時間字串；無時間欄位時為空
func (tk RealtimeTick) TimeString() string {
	v, _ := tk.probe(timeKeys)
	return v
}

// Valid 報價是否可用：成交價必須存在且為數值；
// 時間欄位可整組缺漏，但欄位存在而內容為空視為無效
func (tk RealtimeTick) Valid() bool {
	if tk == nil {
		return false
	}
	if tk.Price() == nil {
		return false
	}
	t, present := tk.probe(timeKeys)
	if present && t == "" {
		return false
	}
	return true
}

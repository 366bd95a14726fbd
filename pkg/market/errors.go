package market

import (
	"errors"
	"fmt"
)

// 核心錯誤定義
var (
	// ErrUnknownMarket 不支援的市場別
	ErrUnknownMarket = errors.New("market must be TWSE or TPEX")

	// ErrInvalidDate 日期字串無法解析
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrEmptySymbol 正規化後股票代碼為空
	ErrEmptySymbol = errors.New("symbol is empty")
)

// UpstreamError 上游傳輸或格式錯誤
// 由市場客戶端拋出，回補引擎與排行榜聚合器會將其降級為「該市場無資料」，
// 不會中斷跨市場或跨日期的迴圈
type UpstreamError struct {
	Market Market
	Op     string // 例如 "stock_day"
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Market, e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Market, e.Op, e.Reason)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError 建立上游錯誤
func NewUpstreamError(mkt Market, op, reason string, err error) *UpstreamError {
	return &UpstreamError{Market: mkt, Op: op, Reason: reason, Err: err}
}

// IsUpstream 判斷是否為上游錯誤
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

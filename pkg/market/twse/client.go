package twse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"

	"github.com/sirupsen/logrus"
)

// Client 證交所資料客戶端
// 日線走 www 主站、即時報價走 MIS 行情站，兩者皆可覆寫供測試使用
type Client struct {
	httpClient  *http.Client
	baseURL     string
	misURL      string
	userAgent   string
	rateLimit   time.Duration
	maxRetries  int
	lastRequest time.Time
	requestMu   sync.Mutex
	log         *logrus.Entry
}

// NewClient 建立證交所客戶端
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				MaxConnsPerHost:     10,
			},
			Timeout: 15 * time.Second,
		},
		baseURL:    "https://www.twse.com.tw",
		misURL:     "https://mis.twse.com.tw",
		userAgent:  "Mozilla/5.0",
		rateLimit:  200 * time.Millisecond,
		maxRetries: 3,
		log:        logger.WithComponent("TWSEClient"),
	}
}

// Market 回傳市場別
func (c *Client) Market() market.Market {
	return market.TWSE
}

// SetBaseURL 覆寫日線端點（測試用）
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetMISURL 覆寫即時報價端點（測試用）
func (c *Client) SetMISURL(u string) {
	c.misURL = u
}

// SetTimeout 設定請求逾時
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetRateLimit 設定請求間隔限制
func (c *Client) SetRateLimit(limit time.Duration) {
	c.rateLimit = limit
}

// SetMaxRetries 設定傳輸層重試次數
func (c *Client) SetMaxRetries(retries int) {
	c.maxRetries = retries
}

// DailyRecord 查詢單一股票於指定日期的日線資料
// 該月有回應但查無當日列時回傳 (nil, nil)，屬正常結果而非錯誤
func (c *Client) DailyRecord(ctx context.Context, symbol string, date time.Time) (*market.DailyRecord, error) {
	body, err := c.stockDay(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	return pickDailyRecord(body, date)
}

// stockDay 抓取 STOCK_DAY 原始回應並檢查 stat 欄位
func (c *Client) stockDay(ctx context.Context, symbol string, date time.Time) ([]byte, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}

	u := fmt.Sprintf("%s/exchangeReport/STOCK_DAY?response=json&date=%s&stockNo=%s",
		c.baseURL, date.Format("20060102"), url.QueryEscape(symbol))

	body, err := c.doRequest(ctx, u, "stock_day")
	if err != nil {
		return nil, err
	}
	if err := checkStat(body); err != nil {
		return nil, err
	}
	return body, nil
}

// Realtime 查詢 MIS 即時報價，取 msgArray 第一筆
// 查無資料回傳 (nil, nil)；傳輸或格式問題回傳上游錯誤，由呼叫端決定容忍
func (c *Client) Realtime(ctx context.Context, symbol string) (market.RealtimeTick, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}

	exCh := fmt.Sprintf("tse_%s.tw", symbol)
	u := fmt.Sprintf("%s/stock/api/getStockInfo.jsp?ex_ch=%s&json=1&delay=0", c.misURL, url.QueryEscape(exCh))

	body, err := c.doRequest(ctx, u, "realtime")
	if err != nil {
		return nil, err
	}
	return parseRealtime(body)
}

// doRequest 帶限流與重試的 GET；重試間隔隨次數遞增且可被 context 取消
func (c *Client) doRequest(ctx context.Context, u, op string) ([]byte, error) {
	c.enforceRateLimit()

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			lastErr = fmt.Errorf("create request failed: %w", err)
			continue
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			c.log.Debugf("%s 請求失敗 (%d/%d): %v", op, i+1, c.maxRetries, err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response failed: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("HTTP status %d", resp.StatusCode)
			continue
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty response")
			continue
		}

		return body, nil
	}

	return nil, market.NewUpstreamError(market.TWSE, op, fmt.Sprintf("failed after %d retries", c.maxRetries), lastErr)
}

// enforceRateLimit 控制對上游的請求頻率
func (c *Client) enforceRateLimit() {
	c.requestMu.Lock()
	defer c.requestMu.Unlock()

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.rateLimit && !c.lastRequest.IsZero() {
		time.Sleep(c.rateLimit - elapsed)
	}
	c.lastRequest = time.Now()
}

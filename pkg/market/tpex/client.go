package tpex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
	"unicode/utf8"

	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Client 櫃買中心資料客戶端
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimit   time.Duration
	maxRetries  int
	lastRequest time.Time
	requestMu   sync.Mutex
	log         *logrus.Entry
}

// NewClient 建立櫃買中心客戶端
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
		baseURL:    "https://www.tpex.org.tw",
		userAgent:  "Mozilla/5.0",
		rateLimit:  200 * time.Millisecond,
		maxRetries: 3,
		log:        logger.WithComponent("TPEXClient"),
	}
}

// Market 回傳市場別
func (c *Client) Market() market.Market {
	return market.TPEX
}

// SetBaseURL 覆寫端點（測試用）
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
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
// 櫃買以民國年月查整月，再於回應中找當日列；查無當日列回傳 (nil, nil)
func (c *Client) DailyRecord(ctx context.Context, symbol string, date time.Time) (*market.DailyRecord, error) {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, market.ErrEmptySymbol
	}

	u := fmt.Sprintf("%s/web/stock/aftertrading/daily_trading_info/st43_result.php?l=zh-tw&d=%s&stkno=%s",
		c.baseURL, url.QueryEscape(market.ROCYearMonth(date)), url.QueryEscape(symbol))

	body, err := c.doRequest(ctx, u, "stock_day")
	if err != nil {
		return nil, err
	}
	return pickDailyRecord(body, date)
}

// doRequest 帶限流與重試的 GET；舊版頁面偶有 Big5 回應，統一轉為 UTF-8
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

		return big5ToUTF8(body), nil
	}

	return nil, market.NewUpstreamError(market.TPEX, op, fmt.Sprintf("failed after %d retries", c.maxRetries), lastErr)
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

// big5ToUTF8 非 UTF-8 回應以 Big5 嘗試解碼；解不開時原樣帶回
func big5ToUTF8(body []byte) []byte {
	if utf8.Valid(body) {
		return body
	}
	decoded, _, err := transform.Bytes(traditionalchinese.Big5.NewDecoder(), body)
	if err != nil {
		return body
	}
	return decoded
}

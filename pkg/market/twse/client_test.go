package twse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"twstockbot/pkg/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stockDayBody = `{
  "stat": "OK",
  "date": "20240517",
  "title": "113年05月 2330 台積電 各日成交資訊",
  "fields": ["日期","成交股數","成交金額","開盤價","最高價","最低價","收盤價","漲跌價差","成交筆數"],
  "data": [
    ["113/05/16","31,482,965","26,178,643,832","829.00","834.00","825.00","829.00","-4.00","28,737"],
    ["113/05/17","28,404,532","23,824,575,942","834.00","843.00","832.00","841.00","+12.00","31,224"]
  ]
}`

func newTestClient(serverURL string) *Client {
	c := NewClient()
	c.SetBaseURL(serverURL)
	c.SetMISURL(serverURL)
	c.SetRateLimit(0)
	c.SetMaxRetries(1)
	return c
}

func TestDailyRecord(t *testing.T) {
	t.Run("正常回應取指定日期列", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.Path, "/exchangeReport/STOCK_DAY")
			assert.Equal(t, "20240517", r.URL.Query().Get("date"))
			assert.Equal(t, "2330", r.URL.Query().Get("stockNo"))
			fmt.Fprint(w, stockDayBody)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		rec, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, rec)

		assert.Equal(t, "113/05/17", rec.Date)
		require.NotNil(t, rec.Volume)
		assert.Equal(t, 28404532.0, *rec.Volume)
		require.NotNil(t, rec.Close)
		assert.Equal(t, 841.0, *rec.Close)
		assert.Equal(t, "+12.00", rec.Change)
		require.NotNil(t, rec.Transactions)
		assert.Equal(t, 31224.0, *rec.Transactions)
	})

	t.Run("查無當日列回傳 nil 非錯誤", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, stockDayBody)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		rec, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 18, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("查無資料的 stat 視為空回應", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"stat":"很抱歉，沒有符合條件的資料!"}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		rec, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("非預期 stat 回傳上游錯誤", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"stat":"查詢過於頻繁"}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))
		assert.True(t, market.IsUpstream(err))
	})

	t.Run("HTTP 500 回傳上游錯誤", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))
		assert.True(t, market.IsUpstream(err))
	})

	t.Run("非 JSON 回應回傳上游錯誤", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html>maintenance</html>")
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.DailyRecord(context.Background(), "2330", time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))
		assert.True(t, market.IsUpstream(err))
	})

	t.Run("空代碼被拒絕", func(t *testing.T) {
		c := newTestClient("http://127.0.0.1:0")
		_, err := c.DailyRecord(context.Background(), "!!", time.Now())
		assert.ErrorIs(t, err, market.ErrEmptySymbol)
	})
}

func TestRealtime(t *testing.T) {
	t.Run("取 msgArray 第一筆", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tse_2330.tw", r.URL.Query().Get("ex_ch"))
			fmt.Fprint(w, `{"msgArray":[{"c":"2330","n":"台積電","z":"841.00","t":"13:30:00","v":"28404"}]}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		tick, err := c.Realtime(context.Background(), "2330")
		require.NoError(t, err)
		require.NotNil(t, tick)

		assert.Equal(t, "台積電", tick["n"])
		require.NotNil(t, tick.Price())
		assert.Equal(t, 841.0, *tick.Price())
		assert.True(t, tick.Valid())
	})

	t.Run("msgArray 為空回傳 nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"msgArray":[]}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		tick, err := c.Realtime(context.Background(), "2330")
		require.NoError(t, err)
		assert.Nil(t, tick)
	})

	t.Run("代碼正規化後進入查詢鍵", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tse_2330.tw", r.URL.Query().Get("ex_ch"))
			fmt.Fprint(w, `{"msgArray":[]}`)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.Realtime(context.Background(), " 23-30 ")
		require.NoError(t, err)
	})
}

// twstockbot API 伺服器：把回補引擎與排行榜聚合器掛上 HTTP JSON 介面，
// 提供 Discord 以外的查詢入口
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"twstockbot/pkg/backfill"
	"twstockbot/pkg/cache"
	"twstockbot/pkg/config"
	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"
	"twstockbot/pkg/market/decorators"
	"twstockbot/pkg/market/tpex"
	"twstockbot/pkg/market/twse"
	"twstockbot/pkg/ranking"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var (
	addr      = flag.String("addr", ":8080", "監聽位址")
	ginMode   = flag.String("mode", gin.ReleaseMode, "gin 模式 (debug, release, test)")
	logLevel  = flag.String("log-level", "", "日誌層級，空值沿用環境設定")
	logFormat = flag.String("log-format", "", "日誌格式 (json 或 text)")
)

type apiServer struct {
	svc *backfill.Service
	agg *ranking.Aggregator
}

type errorResponse struct {
	Error string `json:"error"`
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.InitFromEnv()
		logger.GetLogger().Fatalf("設定載入失敗: %v", err)
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logger.Format = *logFormat
	}
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.WithComponent("APIServer")

	twseClient := twse.NewClient()
	twseClient.SetTimeout(cfg.HTTP.Timeout)
	twseClient.SetRateLimit(cfg.HTTP.RateLimit)
	twseClient.SetMaxRetries(cfg.HTTP.MaxRetries)

	tpexClient := tpex.NewClient()
	tpexClient.SetTimeout(cfg.HTTP.Timeout)
	tpexClient.SetRateLimit(cfg.HTTP.RateLimit)
	tpexClient.SetMaxRetries(cfg.HTTP.MaxRetries)

	svc := backfill.NewService(cfg,
		decorators.NewCircuitBreakerQuoter(twseClient, nil),
		decorators.NewCircuitBreakerQuoter(tpexClient, nil),
		twseClient,
	)
	agg := ranking.NewAggregator(
		[]ranking.Fetcher{twseClient, tpexClient},
		cache.NewTTLCache(cfg.Ranking.CacheTTL, nil),
		cfg.Ranking.CacheTTL, nil,
	)

	api := &apiServer{svc: svc, agg: agg}

	gin.SetMode(*ginMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/daily/:symbol", api.handleDaily)
		v1.GET("/daily/:symbol/last", api.handleLastDaily)
		v1.GET("/realtime/:symbol", api.handleRealtime)
		v1.GET("/rankings/:type", api.handleRankings)
	}

	server := &http.Server{Addr: *addr, Handler: router}
	go func() {
		log.Infof("API 伺服器啟動於 %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("伺服器異常終止: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("關閉伺服器失敗: %v", err)
	}
	log.Info("伺服器已關閉")
}

// requestID 為每個請求配置追蹤用識別碼
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// handleDaily 單一日期日線查詢；market 未給時自動判斷市場
func (a *apiServer) handleDaily(c *gin.Context) {
	symbol := c.Param("symbol")
	date, ok := queryDate(c)
	if !ok {
		return
	}

	mktParam := c.Query("market")
	if mktParam == "" {
		res, err := a.svc.AutoDaily(c.Request.Context(), symbol, date)
		a.writeDaily(c, res, err)
		return
	}

	mkt, err := market.ParseMarket(mktParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	res, err := a.svc.FetchSingleDaily(c.Request.Context(), symbol, mkt, date)
	a.writeDaily(c, res, err)
}

// handleLastDaily 回補查詢：最近一個有資料的交易日
func (a *apiServer) handleLastDaily(c *gin.Context) {
	symbol := c.Param("symbol")
	date, ok := queryDate(c)
	if !ok {
		return
	}

	res, usedDate, err := a.svc.FindLastDaily(c.Request.Context(), symbol, date)
	if err != nil {
		a.writeDaily(c, nil, err)
		return
	}
	if !res.HasRecord() {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":    res,
		"used_date": usedDate.Format("2006-01-02"),
	})
}

// handleRealtime 即時報價；backfill=1 時在時間視窗內輪詢回補
func (a *apiServer) handleRealtime(c *gin.Context) {
	symbol := c.Param("symbol")

	tick, err := a.svc.FetchRealtime(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if !tick.Valid() && c.Query("backfill") == "1" {
		maxMinutes := queryInt(c, "max_minutes", -1)
		intervalSec := queryFloat(c, "interval_sec", -1)
		tick, err = a.svc.FindLastRealtime(c.Request.Context(), symbol, maxMinutes, intervalSec)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	if !tick.Valid() {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no valid tick"})
		return
	}
	c.JSON(http.StatusOK, tick)
}

// handleRankings 排行榜查詢，type 為 gainers/losers/actives
func (a *apiServer) handleRankings(c *gin.Context) {
	mkt, err := market.ParseMarket(c.DefaultQuery("market", "ALL"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	limit := queryInt(c, "limit", 10)
	if limit < 1 || limit > 50 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be 1-50"})
		return
	}

	q := ranking.Query{
		Market:          mkt,
		Limit:           limit,
		ExcludeWarrants: c.DefaultQuery("exclude_warrants", "true") == "true",
		ExcludeETF:      c.DefaultQuery("exclude_etf", "true") == "true",
	}

	var res *ranking.Result
	switch c.Param("type") {
	case "gainers":
		res, err = a.agg.TopGainers(c.Request.Context(), q)
	case "losers":
		res, err = a.agg.TopLosers(c.Request.Context(), q)
	case "actives":
		res, err = a.agg.MostActives(c.Request.Context(), q)
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "type must be gainers, losers or actives"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, errorResponse{Error: "query failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// writeDaily 日線查詢的共通回應
func (a *apiServer) writeDaily(c *gin.Context, res *market.DailyResult, err error) {
	switch {
	case errors.Is(err, market.ErrUnknownMarket), errors.Is(err, market.ErrEmptySymbol):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, errorResponse{Error: "query failed"})
	case !res.HasRecord():
		c.JSON(http.StatusNotFound, errorResponse{Error: "no data"})
	default:
		c.JSON(http.StatusOK, res)
	}
}

// queryDate 解析 date 參數；格式不符直接回 400
func queryDate(c *gin.Context) (time.Time, bool) {
	s := c.Query("date")
	if s == "" {
		return time.Time{}, true
	}
	t, err := market.ParseDate(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return time.Time{}, false
	}
	return t, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	s := c.Query(name)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	s := c.Query(name)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

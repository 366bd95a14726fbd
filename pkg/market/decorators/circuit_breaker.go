// Package decorators 提供市場客戶端的裝飾器，
// 目前實作熔斷器：上游連續失敗達門檻後暫停打該市場，避免回補迴圈持續撞牆
package decorators

import (
	"context"
	"fmt"
	"time"

	"twstockbot/pkg/backfill"
	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig 熔斷器設定
type CircuitBreakerConfig struct {
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半開狀態下允許的請求數
	Interval    time.Duration `mapstructure:"interval"`      // 統計視窗
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔斷後多久轉半開
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 連續失敗門檻
	Enabled     bool          `mapstructure:"enabled"`       // 是否啟用
}

// DefaultCircuitBreakerConfig 預設熔斷器設定
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: 5,
		Enabled:     true,
	}
}

// CircuitBreakerQuoter 帶熔斷器的日線查詢裝飾器
type CircuitBreakerQuoter struct {
	inner  backfill.DailyQuoter
	cb     *gobreaker.CircuitBreaker
	config *CircuitBreakerConfig
}

// NewCircuitBreakerQuoter 以熔斷器包裝日線查詢客戶端
func NewCircuitBreakerQuoter(inner backfill.DailyQuoter, config *CircuitBreakerConfig) *CircuitBreakerQuoter {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}

	log := logger.WithComponent("CircuitBreaker")
	settings := gobreaker.Settings{
		Name:        string(inner.Market()),
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ReadyToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("熔斷器 %s 狀態 %v → %v", name, from, to)
		},
	}

	return &CircuitBreakerQuoter{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(settings),
		config: config,
	}
}

// Market 回傳被包裝客戶端的市場別
func (c *CircuitBreakerQuoter) Market() market.Market {
	return c.inner.Market()
}

// DailyRecord 經熔斷器執行日線查詢
// 熔斷打開時直接回傳上游錯誤，回補引擎會將其視為該市場無資料
func (c *CircuitBreakerQuoter) DailyRecord(ctx context.Context, symbol string, date time.Time) (*market.DailyRecord, error) {
	if !c.config.Enabled {
		return c.inner.DailyRecord(ctx, symbol, date)
	}

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.inner.DailyRecord(ctx, symbol, date)
	})
	if err != nil {
		return nil, market.NewUpstreamError(c.inner.Market(), "daily", "circuit breaker", err)
	}

	rec, ok := result.(*market.DailyRecord)
	if !ok && result != nil {
		return nil, fmt.Errorf("unexpected result type %T", result)
	}
	return rec, nil
}

// State 熔斷器目前狀態
func (c *CircuitBreakerQuoter) State() gobreaker.State {
	return c.cb.State()
}

// IsOpen 熔斷器是否處於打開狀態
func (c *CircuitBreakerQuoter) IsOpen() bool {
	return c.cb.State() == gobreaker.StateOpen
}

var _ backfill.DailyQuoter = (*CircuitBreakerQuoter)(nil)

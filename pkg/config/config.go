package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config 主設定結構
type Config struct {
	// 市場查詢設定
	Markets MarketsConfig `mapstructure:"markets"`

	// 即時報價回補設定
	Realtime RealtimeConfig `mapstructure:"realtime"`

	// 排行榜設定
	Ranking RankingConfig `mapstructure:"ranking"`

	// HTTP 客戶端設定
	HTTP HTTPConfig `mapstructure:"http"`

	// 日誌設定
	Logger LoggerConfig `mapstructure:"logger"`

	// Discord 機器人設定
	Discord DiscordConfig `mapstructure:"discord"`
}

// MarketsConfig 日線查詢與回補設定
type MarketsConfig struct {
	MaxBacktrackDays int `mapstructure:"max_backtrack_days"` // 回補最多往前天數
}

// RealtimeConfig 即時報價重試視窗設定
type RealtimeConfig struct {
	MaxMinutes  int     `mapstructure:"max_minutes"`  // 重試視窗（分鐘）
	IntervalSec float64 `mapstructure:"interval_sec"` // 重試間隔（秒），下限 0.2
}

// RankingConfig 排行榜快取與資料源設定
type RankingConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`     // 快取存活時間
	TWSEBaseURL string        `mapstructure:"twse_base_url"` // TWSE 排行資料源
	TPEXBaseURL string        `mapstructure:"tpex_base_url"` // TPEX 排行資料源
}

// HTTPConfig 上游 HTTP 請求設定
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`     // 單次請求逾時
	MaxRetries int           `mapstructure:"max_retries"` // 傳輸層重試次數
	RateLimit  time.Duration `mapstructure:"rate_limit"`  // 請求間隔限制
	UserAgent  string        `mapstructure:"user_agent"`  // 使用者代理
}

// LoggerConfig 日誌設定
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// DiscordConfig Discord 機器人設定
type DiscordConfig struct {
	Token string `mapstructure:"token"` // 機器人 Token
}

// Default 回傳預設設定
func Default() *Config {
	return &Config{
		Markets: MarketsConfig{
			MaxBacktrackDays: 14,
		},
		Realtime: RealtimeConfig{
			MaxMinutes:  3,
			IntervalSec: 15.0,
		},
		Ranking: RankingConfig{
			CacheTTL:    60 * time.Second,
			TWSEBaseURL: "https://www.twse.com.tw",
			TPEXBaseURL: "https://www.tpex.org.tw",
		},
		HTTP: HTTPConfig{
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			RateLimit:  200 * time.Millisecond,
			UserAgent:  "Mozilla/5.0",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 讀取設定：預設值 + 環境變數覆寫
// 環境變數沿用既有名稱（MARKETS_MAX_BACKTRACK_DAYS 等），不合法值回落預設
func Load() (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetDefault("markets.max_backtrack_days", cfg.Markets.MaxBacktrackDays)
	v.SetDefault("realtime.max_minutes", cfg.Realtime.MaxMinutes)
	v.SetDefault("realtime.interval_sec", cfg.Realtime.IntervalSec)
	v.SetDefault("ranking.cache_ttl_sec", int(cfg.Ranking.CacheTTL/time.Second))

	bind := map[string]string{
		"markets.max_backtrack_days": "MARKETS_MAX_BACKTRACK_DAYS",
		"realtime.max_minutes":       "REALTIME_MAX_MINUTES",
		"realtime.interval_sec":      "REALTIME_INTERVAL_SEC",
		"ranking.cache_ttl_sec":      "RANKING_CACHE_TTL_SEC",
		"discord.token":              "DISCORD_TOKEN",
		"logger.level":               "LOG_LEVEL",
		"logger.format":              "LOG_FORMAT",
	}
	for key, env := range bind {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if n := v.GetInt("markets.max_backtrack_days"); n >= 0 {
		cfg.Markets.MaxBacktrackDays = n
	}
	if n := v.GetInt("realtime.max_minutes"); n >= 0 {
		cfg.Realtime.MaxMinutes = n
	}
	if f := v.GetFloat64("realtime.interval_sec"); f >= 0 {
		cfg.Realtime.IntervalSec = f
	}
	if n := v.GetInt("ranking.cache_ttl_sec"); n > 0 {
		cfg.Ranking.CacheTTL = time.Duration(n) * time.Second
	}
	if s := v.GetString("discord.token"); s != "" {
		cfg.Discord.Token = s
	}
	if s := v.GetString("logger.level"); s != "" {
		cfg.Logger.Level = s
	}
	if s := v.GetString("logger.format"); s != "" {
		cfg.Logger.Format = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 驗證設定
func (c *Config) Validate() error {
	if c.Markets.MaxBacktrackDays < 0 {
		return errors.New("markets max_backtrack_days cannot be negative")
	}

	if c.Realtime.MaxMinutes < 0 {
		return errors.New("realtime max_minutes cannot be negative")
	}

	if c.Realtime.IntervalSec < 0 {
		return errors.New("realtime interval_sec cannot be negative")
	}

	if c.Ranking.CacheTTL <= 0 {
		return errors.New("ranking cache_ttl must be positive")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("http timeout must be positive")
	}

	if c.HTTP.MaxRetries < 0 {
		return errors.New("http max_retries cannot be negative")
	}

	return nil
}

// SetMaxBacktrackDays 設定回補天數上限
func (c *Config) SetMaxBacktrackDays(days int) *Config {
	c.Markets.MaxBacktrackDays = days
	return c
}

// SetRealtimeWindow 設定即時回補視窗
func (c *Config) SetRealtimeWindow(maxMinutes int, intervalSec float64) *Config {
	c.Realtime.MaxMinutes = maxMinutes
	c.Realtime.IntervalSec = intervalSec
	return c
}

// SetRankingCacheTTL 設定排行榜快取存活時間
func (c *Config) SetRankingCacheTTL(ttl time.Duration) *Config {
	c.Ranking.CacheTTL = ttl
	return c
}

package main

import (
	"context"
	"os"
	"os/signal"
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

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// .env 不存在時沿用既有環境變數
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.InitFromEnv()
		logger.GetLogger().Fatalf("設定載入失敗: %v", err)
	}

	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: cfg.Logger.Format})
	log := logger.WithComponent("Bot")

	if cfg.Discord.Token == "" {
		log.Fatal("請先設定 DISCORD_TOKEN")
	}

	// 市場客戶端與熔斷器
	twseClient := twse.NewClient()
	twseClient.SetTimeout(cfg.HTTP.Timeout)
	twseClient.SetRateLimit(cfg.HTTP.RateLimit)
	twseClient.SetMaxRetries(cfg.HTTP.MaxRetries)

	tpexClient := tpex.NewClient()
	tpexClient.SetTimeout(cfg.HTTP.Timeout)
	tpexClient.SetRateLimit(cfg.HTTP.RateLimit)
	tpexClient.SetMaxRetries(cfg.HTTP.MaxRetries)

	twseQuoter := decorators.NewCircuitBreakerQuoter(twseClient, nil)
	tpexQuoter := decorators.NewCircuitBreakerQuoter(tpexClient, nil)

	svc := backfill.NewService(cfg, twseQuoter, tpexQuoter, twseClient)

	rankCache := cache.NewTTLCache(cfg.Ranking.CacheTTL, nil)
	agg := ranking.NewAggregator(
		[]ranking.Fetcher{twseClient, tpexClient},
		rankCache, cfg.Ranking.CacheTTL, nil,
	)

	// 盤中每分鐘預熱排行榜快取，指令回應不用等上游
	c := cron.New()
	if _, err := c.AddFunc("* 9-13 * * 1-5", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		warmQuery := ranking.Query{Market: market.All, Limit: 50, ExcludeWarrants: true, ExcludeETF: true}
		if _, err := agg.TopGainers(ctx, warmQuery); err != nil {
			log.Debugf("排行榜預熱失敗: %v", err)
		}
	}); err != nil {
		log.Warnf("排行榜預熱排程註冊失敗: %v", err)
	}
	c.Start()
	defer c.Stop()

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("建立 Discord session 失敗: %v", err)
	}

	h := newHandlers(svc, agg, cfg)
	session.AddHandler(h.onInteraction)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Infof("已登入 %s#%s", r.User.Username, r.User.Discriminator)
	})

	if err := session.Open(); err != nil {
		log.Fatalf("連線 Discord 失敗: %v", err)
	}
	defer session.Close()

	if err := h.registerCommands(session); err != nil {
		log.Fatalf("註冊指令失敗: %v", err)
	}
	log.Info("指令註冊完成，開始服務")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("收到中止訊號，關閉中")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twstockbot/pkg/backfill"
	"twstockbot/pkg/config"
	"twstockbot/pkg/format"
	"twstockbot/pkg/logger"
	"twstockbot/pkg/market"
	"twstockbot/pkg/ranking"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// handlerTimeout 單一指令的整體時限，涵蓋即時回補視窗
const handlerTimeout = 5 * time.Minute

type handlers struct {
	svc *backfill.Service
	agg *ranking.Aggregator
	cfg *config.Config
	log *logrus.Entry
}

func newHandlers(svc *backfill.Service, agg *ranking.Aggregator, cfg *config.Config) *handlers {
	return &handlers{
		svc: svc,
		agg: agg,
		cfg: cfg,
		log: logger.WithComponent("Handlers"),
	}
}

var marketChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "TWSE", Value: "TWSE"},
	{Name: "TPEX", Value: "TPEX"},
}

var marketAllChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "TWSE", Value: "TWSE"},
	{Name: "TPEX", Value: "TPEX"},
	{Name: "ALL", Value: "ALL"},
}

// rankOptions 排行榜指令共用的參數定義
func rankOptions() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type: discordgo.ApplicationCommandOptionString, Name: "market",
			Description: "市場 (TWSE/TPEX/ALL)", Required: true, Choices: marketAllChoices,
		},
		{
			Type: discordgo.ApplicationCommandOptionInteger, Name: "limit",
			Description: "顯示前 N 名 (1-50, 預設 10)",
		},
		{
			Type: discordgo.ApplicationCommandOptionBoolean, Name: "exclude_warrants",
			Description: "排除權證/牛熊證 (預設開)",
		},
		{
			Type: discordgo.ApplicationCommandOptionBoolean, Name: "exclude_etf",
			Description: "排除 ETF (預設開)",
		},
	}
}

// registerCommands 註冊所有斜線指令
func (h *handlers) registerCommands(s *discordgo.Session) error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name: "search", Description: "自動判斷市場（可回補最近有資料的交易日）",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "symbol", Description: "股票代碼，例如 2330", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "date", Description: "日期 YYYY-MM-DD，預設今天"},
				{Type: discordgo.ApplicationCommandOptionBoolean, Name: "auto_previous", Description: "若無資料，自動往前回補（預設開）"},
			},
		},
		{
			Name: "daily", Description: "查詢日線 (TWSE/TPEX)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "symbol", Description: "股票代碼", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "market", Description: "TWSE 或 TPEX", Required: true, Choices: marketChoices},
				{Type: discordgo.ApplicationCommandOptionString, Name: "date", Description: "日期 YYYY-MM-DD，預設今天"},
			},
		},
		{
			Name: "realtime", Description: "查詢即時報價 (TWSE, 自動回補)",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "symbol", Description: "股票代碼", Required: true},
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "max_minutes", Description: "回補分鐘數 (預設環境值)"},
				{Type: discordgo.ApplicationCommandOptionNumber, Name: "interval_sec", Description: "重試間隔秒 (預設環境值)"},
			},
		},
		{Name: "top_gainers", Description: "漲幅排行", Options: rankOptions()},
		{Name: "top_losers", Description: "跌幅排行", Options: rankOptions()},
		{Name: "actives", Description: "成交量排行", Options: rankOptions()},
	}

	for _, cmd := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			return fmt.Errorf("register %s: %w", cmd.Name, err)
		}
	}
	return nil
}

// onInteraction 指令分派
func (h *handlers) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	// 先 defer，查詢可能要等上游回補
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		h.log.Warnf("defer 回應失敗: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	data := i.ApplicationCommandData()
	opts := optionMap(data.Options)

	switch data.Name {
	case "search":
		h.handleSearch(ctx, s, i, opts)
	case "daily":
		h.handleDaily(ctx, s, i, opts)
	case "realtime":
		h.handleRealtime(ctx, s, i, opts)
	case "top_gainers":
		h.handleRank(ctx, s, i, opts, h.agg.TopGainers, format.GainersEmbed)
	case "top_losers":
		h.handleRank(ctx, s, i, opts, h.agg.TopLosers, format.LosersEmbed)
	case "actives":
		h.handleRank(ctx, s, i, opts, h.agg.MostActives, format.ActivesEmbed)
	}
}

func (h *handlers) handleSearch(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts optionValues) {
	symbol := opts.str("symbol")
	date, err := opts.date("date")
	if err != nil {
		h.replyText(s, i, "日期格式錯誤，請用 YYYY-MM-DD。")
		return
	}

	autoPrevious := opts.boolOr("auto_previous", true)
	if autoPrevious {
		res, usedDate, err := h.svc.FindLastDaily(ctx, symbol, date)
		if err != nil {
			h.replyError(s, i, err)
			return
		}
		if !res.HasRecord() {
			h.replyText(s, i, "找不到最近的日線資料。")
			return
		}
		title := fmt.Sprintf("%s %s 日線", symbol, res.Market)
		h.replyEmbed(s, i, format.OHLCEmbed(title, res, usedDate.Format("2006-01-02")))
		return
	}

	res, err := h.svc.AutoDaily(ctx, symbol, date)
	if err != nil {
		h.replyError(s, i, err)
		return
	}
	if !res.HasRecord() {
		h.replyText(s, i, "找不到該日期的資料。")
		return
	}
	h.replyEmbed(s, i, format.OHLCEmbed(fmt.Sprintf("%s %s 日線", symbol, res.Market), res, ""))
}

func (h *handlers) handleDaily(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts optionValues) {
	symbol := opts.str("symbol")
	mkt, err := market.ParseMarket(opts.str("market"))
	if err != nil {
		h.replyError(s, i, err)
		return
	}
	date, err := opts.date("date")
	if err != nil {
		h.replyText(s, i, "日期格式錯誤，請用 YYYY-MM-DD。")
		return
	}

	res, err := h.svc.FetchSingleDaily(ctx, symbol, mkt, date)
	if err != nil {
		h.replyError(s, i, err)
		return
	}
	if !res.HasRecord() {
		h.replyText(s, i, "找不到該日期的資料。")
		return
	}
	h.replyEmbed(s, i, format.OHLCEmbed(fmt.Sprintf("%s %s 日線", symbol, mkt), res, ""))
}

func (h *handlers) handleRealtime(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts optionValues) {
	symbol := opts.str("symbol")
	maxMinutes := int(opts.intOr("max_minutes", -1))
	intervalSec := opts.floatOr("interval_sec", -1)

	tick, err := h.svc.FetchRealtime(ctx, symbol)
	if err != nil {
		h.replyError(s, i, err)
		return
	}
	if !tick.Valid() {
		tick, err = h.svc.FindLastRealtime(ctx, symbol, maxMinutes, intervalSec)
		if err != nil {
			h.replyError(s, i, err)
			return
		}
	}
	if !tick.Valid() {
		h.replyText(s, i, "找不到有效的即時報價。")
		return
	}
	h.replyEmbed(s, i, format.RealtimeEmbed(symbol, tick))
}

type rankFn func(context.Context, ranking.Query) (*ranking.Result, error)
type rankEmbedFn func(*ranking.Result) *discordgo.MessageEmbed

func (h *handlers) handleRank(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, opts optionValues, fn rankFn, embed rankEmbedFn) {
	mkt, err := market.ParseMarket(opts.strOr("market", "ALL"))
	if err != nil {
		h.replyError(s, i, err)
		return
	}

	limit := int(opts.intOr("limit", 10))
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	res, err := fn(ctx, ranking.Query{
		Market:          mkt,
		Limit:           limit,
		ExcludeWarrants: opts.boolOr("exclude_warrants", true),
		ExcludeETF:      opts.boolOr("exclude_etf", true),
	})
	if err != nil {
		h.replyError(s, i, err)
		return
	}
	h.replyEmbed(s, i, embed(res))
}

func (h *handlers) replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		h.log.Warnf("送出回應失敗: %v", err)
	}
}

func (h *handlers) replyText(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	if _, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: msg,
	}); err != nil {
		h.log.Warnf("送出回應失敗: %v", err)
	}
}

// replyError 呼叫端可見的錯誤一律降級為簡短訊息，不外漏內部狀態
func (h *handlers) replyError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidDate):
		h.replyText(s, i, "日期格式錯誤，請用 YYYY-MM-DD。")
	case errors.Is(err, market.ErrUnknownMarket):
		h.replyText(s, i, "市場別必須是 TWSE 或 TPEX。")
	case errors.Is(err, market.ErrEmptySymbol):
		h.replyText(s, i, "股票代碼不可為空。")
	default:
		h.replyText(s, i, fmt.Sprintf("查詢失敗：%v", err))
	}
}

// optionValues 斜線指令參數存取
type optionValues map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) optionValues {
	m := make(optionValues, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o optionValues) str(name string) string {
	if v, ok := o[name]; ok {
		return v.StringValue()
	}
	return ""
}

func (o optionValues) strOr(name, fallback string) string {
	if v := o.str(name); v != "" {
		return v
	}
	return fallback
}

func (o optionValues) intOr(name string, fallback int64) int64 {
	if v, ok := o[name]; ok {
		return v.IntValue()
	}
	return fallback
}

func (o optionValues) floatOr(name string, fallback float64) float64 {
	if v, ok := o[name]; ok {
		return v.FloatValue()
	}
	return fallback
}

func (o optionValues) boolOr(name string, fallback bool) bool {
	if v, ok := o[name]; ok {
		return v.BoolValue()
	}
	return fallback
}

// date 解析日期參數；未給回傳零值（由引擎取今天）
func (o optionValues) date(name string) (time.Time, error) {
	s := o.str(name)
	if s == "" {
		return time.Time{}, nil
	}
	return market.ParseDate(s)
}

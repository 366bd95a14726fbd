// Package format 將查詢結果組成 Discord 訊息內嵌
package format

import (
	"fmt"
	"strings"

	"twstockbot/pkg/market"
	"twstockbot/pkg/ranking"

	"github.com/bwmarrin/discordgo"
)

// 內嵌顏色：台灣行情慣例紅漲綠跌
const (
	colorUp      = 0xE74C3C
	colorDown    = 0x95A5A6
	colorNeutral = 0x3498DB
)

// OHLCEmbed 組日線查詢結果內嵌
// actualDate 非空時表示回補後實際使用的日期，與查詢日一併標示
func OHLCEmbed(title string, res *market.DailyResult, actualDate string) *discordgo.MessageEmbed {
	desc := fmt.Sprintf("日期：%s", res.Date)
	if actualDate != "" && actualDate != res.Date {
		desc = fmt.Sprintf("日期：%s（回補自 %s）", actualDate, res.Date)
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       colorNeutral,
	}

	rec := res.Record
	if rec == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "資料", Value: "無資料", Inline: false,
		})
		return embed
	}

	fields := []struct {
		name  string
		value string
	}{
		{"開盤", Price(rec.Open)},
		{"最高", Price(rec.High)},
		{"最低", Price(rec.Low)},
		{"收盤", Price(rec.Close)},
		{"漲跌", changeDisplay(rec.Change)},
		{"成交量", Number(rec.Volume)},
		{"成交金額", Number(rec.Turnover)},
		{"成交筆數", Number(rec.Transactions)},
	}
	for _, f := range fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: f.name, Value: f.value, Inline: true,
		})
	}
	if rec.Date != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "上游日期：" + rec.Date}
	}
	return embed
}

// changeDisplay 漲跌沿用上游原始字串，空值以「-」呈現
func changeDisplay(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	return raw
}

// RealtimeEmbed 組即時報價內嵌
func RealtimeEmbed(symbol string, tick market.RealtimeTick) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s 即時報價", symbol),
		Color: colorNeutral,
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "成交價", Value: Price(tick.Price()), Inline: true,
	})
	if t := tick.TimeString(); t != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "時間", Value: t, Inline: true,
		})
	}

	// 其餘 MIS 欄位原樣帶過，挑常見的顯示
	passthrough := []struct {
		key  string
		name string
	}{
		{"n", "名稱"},
		{"o", "開盤"},
		{"h", "最高"},
		{"l", "最低"},
		{"y", "昨收"},
		{"v", "累積成交量"},
	}
	for _, p := range passthrough {
		if v, ok := tick[p.key]; ok && strings.TrimSpace(v) != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: p.name, Value: v, Inline: true,
			})
		}
	}
	return embed
}

// GainersEmbed 漲幅排行內嵌
func GainersEmbed(res *ranking.Result) *discordgo.MessageEmbed {
	return rankEmbed(res, "漲幅排行", moverLines(res.Items), colorUp)
}

// LosersEmbed 跌幅排行內嵌
func LosersEmbed(res *ranking.Result) *discordgo.MessageEmbed {
	return rankEmbed(res, "跌幅排行", moverLines(res.Items), colorDown)
}

// ActivesEmbed 成交量排行內嵌
func ActivesEmbed(res *ranking.Result) *discordgo.MessageEmbed {
	return rankEmbed(res, "成交量排行", activeLines(res.Items), colorNeutral)
}

func rankEmbed(res *ranking.Result, title string, lines []string, color int) *discordgo.MessageEmbed {
	value := "無資料"
	if len(lines) > 0 {
		value = strings.Join(lines, "\n")
	}
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("日期：%s", res.Date),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "前幾名", Value: value, Inline: false},
		},
	}
	if res.Source != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "來源：" + res.Source}
	}
	return embed
}

// moverLines 漲跌排行的條列：收盤、漲跌、漲幅
func moverLines(items []market.RankingItem) []string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("**%d. [%s] %s %s**\n收盤 %s｜漲跌 %s｜漲幅 %s",
			i+1, it.Market, it.Symbol, it.Name,
			Price(it.Close), SignedPrice(it.Change), Percent(it.ChangePct)))
	}
	return lines
}

// activeLines 成交量排行的條列：收盤、量、額
func activeLines(items []market.RankingItem) []string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("**%d. [%s] %s %s**\n收盤 %s｜量 %s｜額 %s",
			i+1, it.Market, it.Symbol, it.Name,
			Price(it.Close), Number(it.Volume), Number(it.Turnover)))
	}
	return lines
}

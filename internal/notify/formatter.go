package notify

import (
	"fmt"
	"sort"
	"strings"

	"mid-scanner/internal/pattern"
	"mid-scanner/internal/scanner"
	"mid-scanner/internal/signal"
)

// FormatSignal 将交易信号渲染为 Telegram HTML 消息。
func FormatSignal(sig signal.TradeSignal) string {
	var b strings.Builder

	emoji := "🟢"
	if sig.Direction == pattern.Sell {
		emoji = "🔴"
	}

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | %s\n\n", emoji, sig.Symbol, sig.Direction, sig.PatternName))
	b.WriteString(fmt.Sprintf("入场: %.2f\n", sig.EntryPrice))
	b.WriteString(fmt.Sprintf("止损: %.2f\n", sig.StopLoss))
	b.WriteString(fmt.Sprintf("目标1: %.2f | 目标2: %.2f\n", sig.Target1, sig.Target2))
	b.WriteString(fmt.Sprintf("风险回报: 1:%.2f\n\n", sig.RiskReward))

	b.WriteString(fmt.Sprintf("RSI: %.2f | 量比: %.2fx\n", sig.RSIValue, sig.VolumeRatio))
	if len(sig.SupportLevels) > 0 {
		b.WriteString(fmt.Sprintf("支撑: %s\n", joinLevels(sig.SupportLevels)))
	}
	if len(sig.ResistanceLevels) > 0 {
		b.WriteString(fmt.Sprintf("阻力: %s\n", joinLevels(sig.ResistanceLevels)))
	}

	if len(sig.Confirmations) > 0 {
		b.WriteString(fmt.Sprintf("\n✅ 确认: %s\n", strings.Join(sig.Confirmations, " | ")))
	}
	if sig.PatternDetails != "" {
		b.WriteString(fmt.Sprintf("📋 %s\n", sig.PatternDetails))
	}

	b.WriteString(fmt.Sprintf("\n⏰ %s", sig.CreatedAt.Format("2006-01-02 15:04:05")))

	return b.String()
}

// FormatScanReport 将一轮扫描的诊断计数渲染为报告消息。
func FormatScanReport(stats scanner.Snapshot) string {
	var b strings.Builder

	b.WriteString("🔬 <b>扫描诊断报告</b>\n\n")
	b.WriteString(fmt.Sprintf("扫描标的: %d | 信号: %d\n", stats.Scanned, stats.Signals))
	b.WriteString(fmt.Sprintf("无数据: %d | K线不足: %d\n", stats.NoData, stats.InsufficientCandles))
	b.WriteString(fmt.Sprintf("风险回报不足: %d\n", stats.LowRiskReward))
	b.WriteString(fmt.Sprintf("耗时: %.2fs\n\n", stats.DurationSeconds))

	names := make([]string, 0, len(stats.Detectors))
	for name := range stats.Detectors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ds := stats.Detectors[name]
		b.WriteString(fmt.Sprintf("• %s: 命中 %d / 否决 %d\n", name, ds.Detected, ds.Rejected))
	}

	return b.String()
}

func joinLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, v := range levels {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, ", ")
}

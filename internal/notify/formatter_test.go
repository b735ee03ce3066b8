package notify

import (
	"strings"
	"testing"
	"time"

	"mid-scanner/internal/pattern"
	"mid-scanner/internal/scanner"
	"mid-scanner/internal/signal"
)

func TestFormatSignal(t *testing.T) {
	sig := signal.TradeSignal{
		Symbol:           "BTC/USDT:USDT",
		Direction:        pattern.Buy,
		PatternName:      "Bullish Liquidity Sweep",
		Strength:         "Strong",
		EntryPrice:       100,
		StopLoss:         98.5,
		Target1:          102,
		Target2:          103.5,
		RiskReward:       1.33,
		RSIValue:         28.5,
		VolumeRatio:      1.8,
		VolumeConfirmed:  true,
		SupportLevels:    []float64{99, 98},
		ResistanceLevels: []float64{101, 102},
		Confirmations:    []string{"成交量 1.8x", "RSI 28"},
		PatternDetails:   "下探 100.00 后收阳",
		CreatedAt:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	msg := FormatSignal(sig)

	for _, want := range []string{
		"<b>BTC/USDT:USDT BUY</b>",
		"Bullish Liquidity Sweep",
		"入场: 100.00",
		"止损: 98.50",
		"目标1: 102.00 | 目标2: 103.50",
		"风险回报: 1:1.33",
		"支撑: 99.00, 98.00",
		"成交量 1.8x",
		"2024-06-01 12:00:00",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	if !strings.Contains(msg, "🟢") {
		t.Errorf("expected green marker for BUY signal")
	}
}

func TestFormatSignal_SellMarker(t *testing.T) {
	msg := FormatSignal(signal.TradeSignal{Symbol: "ETH/USDT:USDT", Direction: pattern.Sell})
	if !strings.Contains(msg, "🔴") {
		t.Errorf("expected red marker for SELL signal")
	}
}

func TestFormatScanReport(t *testing.T) {
	snap := scanner.Snapshot{
		Scanned:             10,
		NoData:              1,
		InsufficientCandles: 2,
		LowRiskReward:       3,
		Signals:             1,
		DurationSeconds:     1.5,
		Detectors: map[string]scanner.DetectorSnapshot{
			"liquidity_sweep": {Detected: 2, Rejected: 1},
			"engulfing":       {Detected: 1, Rejected: 0},
		},
	}

	msg := FormatScanReport(snap)

	for _, want := range []string{
		"扫描标的: 10 | 信号: 1",
		"无数据: 1 | K线不足: 2",
		"风险回报不足: 3",
		"耗时: 1.50s",
		"liquidity_sweep: 命中 2 / 否决 1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q:\n%s", want, msg)
		}
	}

	// 检测器按名称排序，输出稳定。
	if strings.Index(msg, "engulfing") > strings.Index(msg, "liquidity_sweep") {
		t.Errorf("expected detectors sorted by name:\n%s", msg)
	}
}

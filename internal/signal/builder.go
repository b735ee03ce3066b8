package signal

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
	"mid-scanner/internal/pattern"
)

const (
	rsiBuyTag  = 45.0
	rsiSellTag = 55.0
)

// Builder 将形态命中合成为完整交易信号，并执行最小风险回报门槛。
type Builder struct {
	cfg        config.SignalConfig
	indicators *indicator.Calculator
	logger     *zap.Logger
	now        func() time.Time
}

// NewBuilder 创建信号合成器。
func NewBuilder(cfg config.SignalConfig, calc *indicator.Calculator, logger *zap.Logger) *Builder {
	if cfg.StopLossPercent <= 0 {
		cfg.StopLossPercent = 1.5
	}
	if cfg.TargetPercent1 <= 0 {
		cfg.TargetPercent1 = 2.0
	}
	if cfg.TargetPercent2 <= 0 {
		cfg.TargetPercent2 = 3.5
	}
	if cfg.MinRiskReward <= 0 {
		cfg.MinRiskReward = 1.2
	}
	if calc == nil {
		calc = indicator.NewCalculator(config.IndicatorConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		cfg:        cfg,
		indicators: calc,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Build 以最新收盘价为入场价合成信号。风险回报低于门槛时静默拒绝，
// 返回 (零值, false)——这是策略性否决，不是错误。
func (b *Builder) Build(symbol string, m pattern.Match, s indicator.Series, lv levels.Levels, candles []market.Candle) (TradeSignal, bool) {
	if s.Len() == 0 {
		return TradeSignal{}, false
	}

	entry := indicator.Last(s.Close)

	var stopLoss, target1, target2 float64
	if m.Direction == pattern.Buy {
		stopLoss = entry * (1 - b.cfg.StopLossPercent/100)
		target1 = entry * (1 + b.cfg.TargetPercent1/100)
		target2 = entry * (1 + b.cfg.TargetPercent2/100)
	} else {
		stopLoss = entry * (1 + b.cfg.StopLossPercent/100)
		target1 = entry * (1 - b.cfg.TargetPercent1/100)
		target2 = entry * (1 - b.cfg.TargetPercent2/100)
	}

	risk := math.Abs(entry - stopLoss)
	reward := math.Abs(target1 - entry)
	riskReward := 0.0
	if risk > 0 {
		riskReward = reward / risk
	}

	if riskReward < b.cfg.MinRiskReward {
		b.logger.Debug("信号被风险回报门槛拒绝",
			zap.String("symbol", symbol),
			zap.Float64("risk_reward", riskReward),
		)
		return TradeSignal{}, false
	}

	volumeConfirmed, volumeRatio := b.indicators.VolumeConfirmation(s)
	rsi := b.indicators.LastRSI(s)

	confirmations := make([]string, 0, 2)
	if volumeConfirmed {
		confirmations = append(confirmations, fmt.Sprintf("成交量 %.1fx", volumeRatio))
	}
	// RSI 只在与方向共振时作为佐证标签。
	if m.Direction == pattern.Buy && rsi < rsiBuyTag {
		confirmations = append(confirmations, fmt.Sprintf("RSI %.0f", rsi))
	} else if m.Direction == pattern.Sell && rsi > rsiSellTag {
		confirmations = append(confirmations, fmt.Sprintf("RSI %.0f", rsi))
	}

	return TradeSignal{
		Symbol:           symbol,
		Direction:        m.Direction,
		PatternName:      m.PatternName,
		Strength:         m.Strength,
		EntryPrice:       round2(entry),
		StopLoss:         round2(stopLoss),
		Target1:          round2(target1),
		Target2:          round2(target2),
		RiskReward:       round2(riskReward),
		RSIValue:         round2(rsi),
		VolumeRatio:      round2(volumeRatio),
		VolumeConfirmed:  volumeConfirmed,
		SupportLevels:    roundedHead(lv.Supports, 3),
		ResistanceLevels: roundedHead(lv.Resistances, 3),
		Confirmations:    confirmations,
		PatternDetails:   m.Confirmation,
		CreatedAt:        b.now(),
		Candles:          candles,
	}, true
}

// roundedHead 返回前 n 个价位，保留两位小数。
func roundedHead(values []float64, n int) []float64 {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = round2(v)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

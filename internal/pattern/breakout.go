package pattern

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
)

const (
	// NameBreakout 为假突破检测器名称。
	NameBreakout = "false_breakout"

	breakoutBreakMargin   = 0.003
	breakoutRecoverMargin = 0.002
	breakoutMinBodyRatio  = 0.3
	breakoutMaxDistance   = 0.01
)

// BreakoutDetector 检测假突破：前一根刺破关键位，当前一根收回原侧。
type BreakoutDetector struct {
	cfg    config.BreakoutConfig
	logger *zap.Logger
}

// NewBreakoutDetector 创建假突破检测器。
func NewBreakoutDetector(cfg config.BreakoutConfig, logger *zap.Logger) *BreakoutDetector {
	if cfg.VolumeMultiplier <= 0 {
		cfg.VolumeMultiplier = 1.2
	}
	if cfg.MinCandles < 3 {
		cfg.MinCandles = 15
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BreakoutDetector{cfg: cfg, logger: logger}
}

// Name 返回检测器名称。
func (d *BreakoutDetector) Name() string {
	return NameBreakout
}

// Detect 检测假突破形态，最少需要 MinCandles 根K线且至少一个支撑或阻力位。
// 看涨（支撑假跌破）优先，未命中时才检查看跌镜像。
func (d *BreakoutDetector) Detect(s indicator.Series, lv levels.Levels) (match Match, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("假突破检测异常", zap.Any("panic", r))
			match, ok = Match{}, false
		}
	}()

	n := s.Len()
	if n < d.cfg.MinCandles {
		return Match{}, false
	}
	if len(lv.Supports) == 0 && len(lv.Resistances) == 0 {
		return Match{}, false
	}

	cur := n - 1
	prev := n - 2
	closePrice := s.Close[cur]

	// 看涨：前一根跌破最近支撑，当前收回其上且收阳。
	if len(lv.Supports) > 0 {
		support := nearestLevel(lv.Supports, closePrice)
		brokeBelow := s.Low[prev] < support*(1-breakoutBreakMargin)
		backAbove := closePrice > support*(1+breakoutRecoverMargin)
		isBullish := s.Close[cur] > s.Open[cur]

		if brokeBelow && backAbove && isBullish && d.breakoutHadVolume(s, prev) {
			level := round2(support)
			d.logger.Debug("检测到看涨假突破", zap.Float64("level", level))
			return Match{
				Direction:    Buy,
				PatternName:  "Bullish False Breakout",
				Strength:     "Strong",
				KeyLevel:     level,
				Confirmation: fmt.Sprintf("跌破支撑 %.2f 失败，反转收阳", level),
			}, true
		}
	}

	// 看跌：前一根突破最近阻力，当前收回其下且收阴。
	if len(lv.Resistances) > 0 {
		resistance := nearestLevel(lv.Resistances, closePrice)
		brokeAbove := s.High[prev] > resistance*(1+breakoutBreakMargin)
		backBelow := closePrice < resistance*(1-breakoutRecoverMargin)
		isBearish := s.Close[cur] < s.Open[cur]

		if brokeAbove && backBelow && isBearish && d.breakoutHadVolume(s, prev) {
			level := round2(resistance)
			d.logger.Debug("检测到看跌假突破", zap.Float64("level", level))
			return Match{
				Direction:    Sell,
				PatternName:  "Bearish False Breakout",
				Strength:     "Strong",
				KeyLevel:     level,
				Confirmation: fmt.Sprintf("突破阻力 %.2f 失败，反转收阴", level),
			}, true
		}
	}

	return Match{}, false
}

// breakoutHadVolume 检查刺破那根K线是否放量（止损猎杀特征）。
// K线不足20根时视为满足。
func (d *BreakoutDetector) breakoutHadVolume(s indicator.Series, breakIdx int) bool {
	if s.Len() < 20 {
		return true
	}
	avgVolume := indicator.AverageVolume(s, 20)
	return s.Volume[breakIdx] > avgVolume*d.cfg.VolumeMultiplier
}

// Validate 校验假突破信号：反转K线实体不可过弱，且收盘不能偏离假突破位太远。
func (d *BreakoutDetector) Validate(s indicator.Series, m Match) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("假突破校验异常", zap.Any("panic", r))
			valid = false
		}
	}()

	n := s.Len()
	if n == 0 || m.KeyLevel == 0 {
		return false
	}
	cur := n - 1

	shape := shapeAt(s, cur)
	if shape.Range > 0 {
		if shape.Body/shape.Range < breakoutMinBodyRatio {
			d.logger.Debug("假突破被否决：反转K线实体过弱")
			return false
		}
	}

	distance := math.Abs(s.Close[cur]-m.KeyLevel) / m.KeyLevel
	if distance > breakoutMaxDistance {
		d.logger.Debug("假突破被否决：收盘偏离关键位过远", zap.Float64("distance", distance))
		return false
	}

	return true
}

// nearestLevel 返回距离 price 最近的价位。
func nearestLevel(candidates []float64, price float64) float64 {
	best := candidates[0]
	bestDistance := math.Abs(best - price)
	for _, v := range candidates[1:] {
		if d := math.Abs(v - price); d < bestDistance {
			best = v
			bestDistance = d
		}
	}
	return best
}

package pattern

import (
	"fmt"

	"go.uber.org/zap"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
)

const (
	// NameSweep 为流动性扫荡检测器名称。
	NameSweep = "liquidity_sweep"

	sweepVolumeFloor   = 0.8
	sweepReversalFloor = 0.4
)

// SweepDetector 检测流动性扫荡：长影线刺破近期极值后反向收盘。
type SweepDetector struct {
	cfg        config.SweepConfig
	indicators *indicator.Calculator
	rsiHigh    float64
	rsiLow     float64
	logger     *zap.Logger
}

// NewSweepDetector 创建流动性扫荡检测器。
func NewSweepDetector(cfg config.SweepConfig, indicatorCfg config.IndicatorConfig, calc *indicator.Calculator, logger *zap.Logger) *SweepDetector {
	if cfg.WickRatio <= 0 {
		cfg.WickRatio = 0.5
	}
	if cfg.Lookback < 3 {
		cfg.Lookback = 20
	}
	if cfg.ReversalBodyRatio <= 0 {
		cfg.ReversalBodyRatio = 0.35
	}
	if calc == nil {
		calc = indicator.NewCalculator(indicatorCfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rsiHigh := indicatorCfg.RSIOverbought
	if rsiHigh <= 0 {
		rsiHigh = 70
	}
	rsiLow := indicatorCfg.RSIOversold
	if rsiLow <= 0 {
		rsiLow = 30
	}
	return &SweepDetector{
		cfg:        cfg,
		indicators: calc,
		rsiHigh:    rsiHigh,
		rsiLow:     rsiLow,
		logger:     logger,
	}
}

// Name 返回检测器名称。
func (d *SweepDetector) Name() string {
	return NameSweep
}

// Detect 检测流动性扫荡形态，最少需要 lookback 根K线。
// 看涨形态优先，只有未命中时才检查看跌镜像。
func (d *SweepDetector) Detect(s indicator.Series, _ levels.Levels) (match Match, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("扫荡检测异常", zap.Any("panic", r))
			match, ok = Match{}, false
		}
	}()

	n := s.Len()
	if n < d.cfg.Lookback {
		return Match{}, false
	}

	cur := n - 1
	shape := shapeAt(s, cur)
	if shape.Range == 0 {
		return Match{}, false
	}

	bodyRatio := shape.Body / shape.Range

	// 看涨扫荡：长下影线，收阳，且最低价刺破此前 lookback-1 根K线的最低点。
	lowerWickRatio := shape.LowerWick / shape.Range
	if lowerWickRatio >= d.cfg.WickRatio && shape.Bullish && bodyRatio >= d.cfg.ReversalBodyRatio {
		priorLow := minOver(s.Low, cur-(d.cfg.Lookback-1), cur)
		if s.Low[cur] < priorLow {
			sweepLevel := round2(priorLow)
			d.logger.Debug("检测到看涨流动性扫荡",
				zap.Float64("sweep_level", sweepLevel),
				zap.Float64("wick_ratio", lowerWickRatio),
			)
			return Match{
				Direction:    Buy,
				PatternName:  "Bullish Liquidity Sweep",
				Strength:     "Strong",
				KeyLevel:     sweepLevel,
				Confirmation: fmt.Sprintf("下探 %.2f 后收阳，下影线占比 %.0f%%", sweepLevel, lowerWickRatio*100),
			}, true
		}
	}

	// 看跌扫荡：长上影线，收阴，最高价刺破此前最高点。
	upperWickRatio := shape.UpperWick / shape.Range
	if upperWickRatio >= d.cfg.WickRatio && shape.Bearish && bodyRatio >= d.cfg.ReversalBodyRatio {
		priorHigh := maxOver(s.High, cur-(d.cfg.Lookback-1), cur)
		if s.High[cur] > priorHigh {
			sweepLevel := round2(priorHigh)
			d.logger.Debug("检测到看跌流动性扫荡",
				zap.Float64("sweep_level", sweepLevel),
				zap.Float64("wick_ratio", upperWickRatio),
			)
			return Match{
				Direction:    Sell,
				PatternName:  "Bearish Liquidity Sweep",
				Strength:     "Strong",
				KeyLevel:     sweepLevel,
				Confirmation: fmt.Sprintf("上探 %.2f 后收阴，上影线占比 %.0f%%", sweepLevel, upperWickRatio*100),
			}, true
		}
	}

	return Match{}, false
}

// Validate 校验扫荡信号：成交量、反转力度与可选的RSI共振过滤。
func (d *SweepDetector) Validate(s indicator.Series, m Match) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("扫荡校验异常", zap.Any("panic", r))
			valid = false
		}
	}()

	n := s.Len()
	if n == 0 {
		return false
	}
	cur := n - 1

	// 扫荡需要起码的量能配合。
	if n >= 20 {
		avgVolume := indicator.AverageVolume(s, 20)
		if s.Volume[cur] < avgVolume*sweepVolumeFloor {
			d.logger.Debug("扫荡被否决：量能不足")
			return false
		}
	}

	// 收盘必须显著远离被扫的极值，否则视为弱反转。
	candleRange := s.High[cur] - s.Low[cur]
	var reversalDistance float64
	if m.Direction == Buy {
		reversalDistance = s.Close[cur] - s.Low[cur]
	} else {
		reversalDistance = s.High[cur] - s.Close[cur]
	}
	if reversalDistance < candleRange*sweepReversalFloor {
		d.logger.Debug("扫荡被否决：反转力度不足")
		return false
	}

	// RSI共振为可选过滤：计算失败时放行，不拦截信号。
	if rsi, ok := d.tryRSI(s); ok {
		if m.Direction == Buy && rsi > d.rsiHigh {
			d.logger.Debug("扫荡被否决：RSI超买", zap.Float64("rsi", rsi))
			return false
		}
		if m.Direction == Sell && rsi < d.rsiLow {
			d.logger.Debug("扫荡被否决：RSI超卖", zap.Float64("rsi", rsi))
			return false
		}
	}

	return true
}

func (d *SweepDetector) tryRSI(s indicator.Series) (value float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			value, ok = 0, false
		}
	}()
	return d.indicators.LastRSI(s), true
}

// minOver 返回 values[from:to) 的最小值。
func minOver(values []float64, from, to int) float64 {
	m := values[from]
	for _, v := range values[from+1 : to] {
		if v < m {
			m = v
		}
	}
	return m
}

// maxOver 返回 values[from:to) 的最大值。
func maxOver(values []float64, from, to int) float64 {
	m := values[from]
	for _, v := range values[from+1 : to] {
		if v > m {
			m = v
		}
	}
	return m
}

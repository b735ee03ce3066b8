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
	// NameEngulfing 为关键位吞没检测器名称。
	NameEngulfing = "engulfing"

	engulfingMinCandles   = 3
	engulfingMinBodyRatio = 0.5
	engulfingVolumeFloor  = 0.9
	engulfingMaxDistance  = 0.008
)

// EngulfingDetector 检测发生在支撑/阻力附近的吞没形态。
type EngulfingDetector struct {
	cfg        config.EngulfingConfig
	indicators *indicator.Calculator
	logger     *zap.Logger
}

// NewEngulfingDetector 创建吞没检测器。
func NewEngulfingDetector(cfg config.EngulfingConfig, calc *indicator.Calculator, logger *zap.Logger) *EngulfingDetector {
	if cfg.BodyRatio <= 1 {
		cfg.BodyRatio = 1.2
	}
	if calc == nil {
		calc = indicator.NewCalculator(config.IndicatorConfig{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngulfingDetector{cfg: cfg, indicators: calc, logger: logger}
}

// Name 返回检测器名称。
func (d *EngulfingDetector) Name() string {
	return NameEngulfing
}

// Detect 检测关键位吞没形态，最少需要3根K线。
// 先做十字星过滤，再按"看涨优先"匹配贴近的支撑/阻力（取列表中首个命中的价位）。
func (d *EngulfingDetector) Detect(s indicator.Series, lv levels.Levels) (match Match, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("吞没检测异常", zap.Any("panic", r))
			match, ok = Match{}, false
		}
	}()

	n := s.Len()
	if n < engulfingMinCandles {
		return Match{}, false
	}

	cur := n - 1
	prev := n - 2

	prevBody := math.Abs(s.Close[prev] - s.Open[prev])
	curBody := math.Abs(s.Close[cur] - s.Open[cur])
	curRange := s.High[cur] - s.Low[cur]

	// 十字星过滤：实体不足一半的K线没有方向意义。
	if curRange > 0 && curBody/curRange < engulfingMinBodyRatio {
		return Match{}, false
	}

	closePrice := s.Close[cur]
	strongBody := curBody > prevBody*d.cfg.BodyRatio

	// 看涨吞没：阴后阳且完整包裹前实体，需贴近某一支撑位。
	prevBearish := s.Close[prev] < s.Open[prev]
	curBullish := s.Close[cur] > s.Open[cur]
	bullEngulfs := s.Open[cur] <= s.Close[prev] && s.Close[cur] >= s.Open[prev]

	if prevBearish && curBullish && bullEngulfs && strongBody {
		if level, found := d.firstNearLevel(closePrice, lv.Supports); found {
			d.logger.Debug("检测到支撑位看涨吞没", zap.Float64("level", level))
			return Match{
				Direction:    Buy,
				PatternName:  "Bullish Engulfing",
				Strength:     "Strong",
				KeyLevel:     level,
				Confirmation: fmt.Sprintf("支撑 %.2f 附近看涨吞没", level),
			}, true
		}
	}

	// 看跌吞没：阳后阴的镜像，需贴近某一阻力位。
	prevBullish := s.Close[prev] > s.Open[prev]
	curBearish := s.Close[cur] < s.Open[cur]
	bearEngulfs := s.Open[cur] >= s.Close[prev] && s.Close[cur] <= s.Open[prev]

	if prevBullish && curBearish && bearEngulfs && strongBody {
		if level, found := d.firstNearLevel(closePrice, lv.Resistances); found {
			d.logger.Debug("检测到阻力位看跌吞没", zap.Float64("level", level))
			return Match{
				Direction:    Sell,
				PatternName:  "Bearish Engulfing",
				Strength:     "Strong",
				KeyLevel:     level,
				Confirmation: fmt.Sprintf("阻力 %.2f 附近看跌吞没", level),
			}, true
		}
	}

	return Match{}, false
}

// firstNearLevel 按列表顺序返回首个贴近现价的价位。
func (d *EngulfingDetector) firstNearLevel(price float64, candidates []float64) (float64, bool) {
	for _, level := range candidates {
		if d.indicators.IsNearLevel(price, level) {
			return round2(level), true
		}
	}
	return 0, false
}

// Validate 校验吞没信号：量能需不低于均量的九成，且收盘仍需贴着关键位。
func (d *EngulfingDetector) Validate(s indicator.Series, m Match) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("吞没校验异常", zap.Any("panic", r))
			valid = false
		}
	}()

	n := s.Len()
	if n == 0 || m.KeyLevel == 0 {
		return false
	}
	cur := n - 1

	if n >= 20 {
		avgVolume := indicator.AverageVolume(s, 20)
		if s.Volume[cur] < avgVolume*engulfingVolumeFloor {
			d.logger.Debug("吞没被否决：量能不足")
			return false
		}
	}

	distance := math.Abs(s.Close[cur]-m.KeyLevel) / m.KeyLevel
	if distance > engulfingMaxDistance {
		d.logger.Debug("吞没被否决：价格已脱离关键位", zap.Float64("distance", distance))
		return false
	}

	return true
}

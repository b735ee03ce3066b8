package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"

	"mid-scanner/internal/config"
)

const neutralRSI = 50.0

// Calculator 提供检测器与信号合成所需的技术指标。
type Calculator struct {
	rsiPeriod      int
	volumePeriod   int
	minVolumeRatio float64
	touchThreshold float64
}

// NewCalculator 根据指标配置创建 Calculator，非法参数回退默认值。
func NewCalculator(cfg config.IndicatorConfig) *Calculator {
	if cfg.RSIPeriod <= 1 {
		cfg.RSIPeriod = 14
	}
	if cfg.VolumeMAPeriod <= 0 {
		cfg.VolumeMAPeriod = 20
	}
	if cfg.MinVolumeRatio <= 0 {
		cfg.MinVolumeRatio = 1.1
	}
	if cfg.SRTouchThresholdPct <= 0 {
		cfg.SRTouchThresholdPct = 0.8
	}
	return &Calculator{
		rsiPeriod:      cfg.RSIPeriod,
		volumePeriod:   cfg.VolumeMAPeriod,
		minVolumeRatio: cfg.MinVolumeRatio,
		touchThreshold: cfg.SRTouchThresholdPct,
	}
}

// RSI 计算简单均值版RSI：period 内正负变动均值之比映射到 100-100/(1+rs)。
// 历史不足的位置返回中性值50；平均跌幅为0且有涨幅时 rs 发散，RSI 饱和为100。
func (c *Calculator) RSI(s Series) []float64 {
	n := s.Len()
	out := make([]float64, n)
	for i := range out {
		out[i] = neutralRSI
	}
	if n < c.rsiPeriod+1 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := s.Close[i] - s.Close[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := talib.Sma(gains, c.rsiPeriod)
	avgLoss := talib.Sma(losses, c.rsiPeriod)

	// 首个有效点位于 rsiPeriod：此时窗口恰好覆盖 period 个真实变动。
	for i := c.rsiPeriod; i < n; i++ {
		switch {
		case avgLoss[i] > 0:
			rs := avgGain[i] / avgLoss[i]
			out[i] = 100 - 100/(1+rs)
		case avgGain[i] > 0:
			out[i] = 100
		default:
			out[i] = neutralRSI
		}
	}

	return out
}

// LastRSI 返回最新RSI值，序列为空时返回中性值50。
func (c *Calculator) LastRSI(s Series) float64 {
	values := c.RSI(s)
	if len(values) == 0 {
		return neutralRSI
	}
	return values[len(values)-1]
}

// ATR 计算平均真实波幅：真实波幅的滚动简单均值，暖启动区间为0。
func (c *Calculator) ATR(s Series, period int) []float64 {
	n := s.Len()
	if n == 0 {
		return nil
	}
	if period <= 0 {
		period = 14
	}

	tr := make([]float64, n)
	tr[0] = s.High[0] - s.Low[0]
	for i := 1; i < n; i++ {
		prevClose := s.Close[i-1]
		hl := s.High[i] - s.Low[i]
		hc := math.Abs(s.High[i] - prevClose)
		lc := math.Abs(s.Low[i] - prevClose)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	return talib.Sma(tr, period)
}

// VolumeConfirmation 判断最新成交量相对均量是否放量。
// K线不足或均量为0时返回 (false, 1.0)。
func (c *Calculator) VolumeConfirmation(s Series) (bool, float64) {
	if s.Len() < c.volumePeriod {
		return false, 1.0
	}

	avg := AverageVolume(s, c.volumePeriod)
	if avg == 0 {
		return false, 1.0
	}

	ratio := Last(s.Volume) / avg
	return ratio >= c.minVolumeRatio, ratio
}

// IsNearLevel 判断价格是否贴近关键价位（按百分比距离）。
func (c *Calculator) IsNearLevel(price, level float64) bool {
	if level == 0 {
		return false
	}
	distance := math.Abs(price-level) / level * 100
	return distance <= c.touchThreshold
}

// AverageVolume 返回末尾 period 根K线的平均成交量，不足时取全部。
func AverageVolume(s Series, period int) float64 {
	tail := SliceTail(s.Volume, period)
	if len(tail) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range tail {
		sum += v
	}
	return sum / float64(len(tail))
}

// Package levels 基于K线窗口计算支撑与阻力价位：
// 局部极值、窗口摆动高低点与整数心理价位三类候选，
// 去重后只保留距离现价最近的各5个。
package levels

import (
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"mid-scanner/internal/indicator"
)

// Levels 为一次快照计算出的支撑/阻力集合。
// Supports 按价格降序（最近优先），Resistances 按价格升序（最近优先）。
type Levels struct {
	Supports    []float64
	Resistances []float64
}

// Calculator 计算支撑阻力位。
type Calculator struct {
	lookback int
	logger   *zap.Logger
}

// NewCalculator 创建计算器，lookback 为回看窗口（默认20）。
func NewCalculator(lookback int, logger *zap.Logger) *Calculator {
	if lookback < 5 {
		lookback = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{lookback: lookback, logger: logger}
}

// Compute 计算支撑阻力位。任何内部异常都会被吞掉并返回空集合，
// 调用方应将空集合视为"无法给出S/R信号"而非错误。
func (c *Calculator) Compute(s indicator.Series) (result Levels) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("支撑阻力计算异常", zap.Any("panic", r))
			result = Levels{}
		}
	}()

	if s.Len() == 0 {
		return Levels{}
	}

	highs := indicator.SliceTail(s.High, c.lookback)
	lows := indicator.SliceTail(s.Low, c.lookback)
	currentPrice := indicator.Last(s.Close)

	var supports, resistances []float64

	// 局部极值：两侧各需2个邻居且严格高于/低于它们。
	for i := 2; i < len(highs)-2; i++ {
		if highs[i] > highs[i-1] && highs[i] > highs[i-2] &&
			highs[i] > highs[i+1] && highs[i] > highs[i+2] {
			resistances = append(resistances, highs[i])
		}
		if lows[i] < lows[i-1] && lows[i] < lows[i-2] &&
			lows[i] < lows[i+1] && lows[i] < lows[i+2] {
			supports = append(supports, lows[i])
		}
	}

	// 窗口摆动高低点。
	windowHigh := maxOf(highs)
	windowLow := minOf(lows)
	resistances = append(resistances, windowHigh)
	supports = append(supports, windowLow)

	// 整数心理价位：以现价量级取整步长，现价上下各3档。
	if windowHigh-windowLow > 0 {
		step := psychStep(currentPrice)
		base := math.Round(currentPrice/step) * step
		for k := -3; k <= 3; k++ {
			level := base + float64(k)*step
			if level < windowLow || level > windowHigh {
				continue
			}
			if level > currentPrice {
				resistances = append(resistances, level)
			} else if level < currentPrice {
				supports = append(supports, level)
			}
		}
	}

	supports = nearestBelow(supports, currentPrice)
	resistances = nearestAbove(resistances, currentPrice)

	return Levels{Supports: supports, Resistances: resistances}
}

// psychStep 返回心理价位步长：现价整数位数-2 的10次幂，约为现价的十分之一。
func psychStep(price float64) float64 {
	digits := len(strconv.Itoa(int(price)))
	return math.Pow(10, float64(digits-2))
}

// nearestBelow 去重后保留现价下方最近的5个支撑，按降序排列。
func nearestBelow(candidates []float64, price float64) []float64 {
	kept := dedupe(candidates)
	filtered := kept[:0]
	for _, v := range kept {
		if v < price {
			filtered = append(filtered, v)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(filtered)))
	if len(filtered) > 5 {
		filtered = filtered[:5]
	}
	return filtered
}

// nearestAbove 去重后保留现价上方最近的5个阻力，按升序排列。
func nearestAbove(candidates []float64, price float64) []float64 {
	kept := dedupe(candidates)
	filtered := kept[:0]
	for _, v := range kept {
		if v > price {
			filtered = append(filtered, v)
		}
	}
	sort.Float64s(filtered)
	if len(filtered) > 5 {
		filtered = filtered[:5]
	}
	return filtered
}

// dedupe 按两位小数去重。
func dedupe(values []float64) []float64 {
	seen := make(map[float64]struct{}, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		rounded := math.Round(v*100) / 100
		if _, ok := seen[rounded]; ok {
			continue
		}
		seen[rounded] = struct{}{}
		out = append(out, rounded)
	}
	return out
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

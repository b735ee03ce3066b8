// Package pattern 实现三种K线形态检测器：流动性扫荡、假突破与关键位吞没。
// 检测器是 (序列, 价位) 的无状态纯函数，检测与校验分离，
// 任何内部异常都按"无形态"处理，绝不向上传播。
package pattern

import (
	"math"

	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
)

// Direction 表示信号方向。
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Match 为一次形态命中结果，KeyLevel 依形态不同承载扫荡位/假突破位/关键位。
type Match struct {
	Direction    Direction
	PatternName  string
	Strength     string
	KeyLevel     float64
	Confirmation string
}

// Detector 为检测器统一契约：Detect 产出候选，Validate 追加否决规则。
// 编排器按固定优先级依次调用，首个通过的信号胜出。
type Detector interface {
	Name() string
	Detect(s indicator.Series, lv levels.Levels) (Match, bool)
	Validate(s indicator.Series, m Match) bool
}

// candleShape 汇总单根K线的几何量。
type candleShape struct {
	Range     float64
	Body      float64
	UpperWick float64
	LowerWick float64
	Bullish   bool
	Bearish   bool
}

// shapeAt 计算第 i 根K线的形态几何，影线划分取决于收盘方向。
func shapeAt(s indicator.Series, i int) candleShape {
	open := s.Open[i]
	high := s.High[i]
	low := s.Low[i]
	closePrice := s.Close[i]

	shape := candleShape{
		Range:   high - low,
		Body:    math.Abs(closePrice - open),
		Bullish: closePrice > open,
		Bearish: closePrice < open,
	}

	if shape.Bullish {
		shape.UpperWick = high - closePrice
		shape.LowerWick = open - low
	} else {
		shape.UpperWick = high - open
		shape.LowerWick = closePrice - low
	}

	return shape
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

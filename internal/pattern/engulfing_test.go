package pattern

import (
	"testing"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
)

func newTestEngulfingDetector() *EngulfingDetector {
	indicatorCfg := config.IndicatorConfig{SRTouchThresholdPct: 0.8}
	return NewEngulfingDetector(
		config.EngulfingConfig{BodyRatio: 1.2},
		indicator.NewCalculator(indicatorCfg),
		nil,
	)
}

func bullishEngulfingCandles() []market.Candle {
	return []market.Candle{
		{Open: 100.2, High: 100.8, Low: 100.0, Close: 100.5, Volume: 1000},
		{Open: 100.6, High: 100.7, Low: 100.0, Close: 100.1, Volume: 1000},
		{Open: 100.0, High: 100.75, Low: 99.95, Close: 100.7, Volume: 1200},
	}
}

func TestEngulfingDetect_BullishAtSupport(t *testing.T) {
	det := newTestEngulfingDetector()
	series := buildSeries(bullishEngulfingCandles())
	lv := levels.Levels{Supports: []float64{100}}

	match, ok := det.Detect(series, lv)
	if !ok {
		t.Fatalf("expected bullish engulfing match")
	}
	if match.Direction != Buy {
		t.Errorf("expected direction BUY, got %s", match.Direction)
	}
	if match.KeyLevel != 100 {
		t.Errorf("expected key level 100, got %f", match.KeyLevel)
	}
	if match.PatternName != "Bullish Engulfing" {
		t.Errorf("unexpected pattern name %q", match.PatternName)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestEngulfingDetect_BearishAtResistance(t *testing.T) {
	candles := []market.Candle{
		{Open: 99.5, High: 100.2, Low: 99.3, Close: 99.8, Volume: 1000},
		{Open: 99.5, High: 100.1, Low: 99.4, Close: 100.0, Volume: 1000},
		{Open: 100.1, High: 100.15, Low: 99.35, Close: 99.4, Volume: 1200},
	}

	det := newTestEngulfingDetector()
	series := buildSeries(candles)
	lv := levels.Levels{Resistances: []float64{100}}

	match, ok := det.Detect(series, lv)
	if !ok {
		t.Fatalf("expected bearish engulfing match")
	}
	if match.Direction != Sell {
		t.Errorf("expected direction SELL, got %s", match.Direction)
	}
	if match.KeyLevel != 100 {
		t.Errorf("expected key level 100, got %f", match.KeyLevel)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestEngulfingDetect_DojiFiltered(t *testing.T) {
	candles := bullishEngulfingCandles()
	// 实体不足K线范围一半的十字星没有方向意义。
	candles[2] = market.Candle{Open: 100.3, High: 101.0, Low: 99.8, Close: 100.35, Volume: 1200}

	det := newTestEngulfingDetector()
	if _, ok := det.Detect(buildSeries(candles), levels.Levels{Supports: []float64{100}}); ok {
		t.Fatalf("expected doji to be filtered out")
	}
}

func TestEngulfingDetect_RequiresNearbyLevel(t *testing.T) {
	det := newTestEngulfingDetector()
	series := buildSeries(bullishEngulfingCandles())
	// 支撑距离现价超过0.8%，不构成关键位吞没。
	lv := levels.Levels{Supports: []float64{95}}

	if _, ok := det.Detect(series, lv); ok {
		t.Fatalf("expected no match without a nearby level")
	}
}

func TestEngulfingDetect_MinimumCandles(t *testing.T) {
	det := newTestEngulfingDetector()
	series := buildSeries(bullishEngulfingCandles()[:2])

	if _, ok := det.Detect(series, levels.Levels{Supports: []float64{100}}); ok {
		t.Fatalf("expected no match with fewer than 3 candles")
	}
}

func TestEngulfingDetect_RequiresStrongerBody(t *testing.T) {
	candles := bullishEngulfingCandles()
	// 当前实体未达到前实体的1.2倍。
	candles[2] = market.Candle{Open: 100.05, High: 100.65, Low: 100.0, Close: 100.6, Volume: 1200}

	det := newTestEngulfingDetector()
	if _, ok := det.Detect(buildSeries(candles), levels.Levels{Supports: []float64{100}}); ok {
		t.Fatalf("expected rejection when body does not dominate previous body")
	}
}

func TestEngulfingValidate_RejectsLowVolume(t *testing.T) {
	candles := make([]market.Candle, 20)
	for i := 0; i < 18; i++ {
		candles[i] = market.Candle{Open: 100.2, High: 100.8, Low: 100.0, Close: 100.5, Volume: 1000}
	}
	candles[18] = market.Candle{Open: 100.6, High: 100.7, Low: 100.0, Close: 100.1, Volume: 1000}
	candles[19] = market.Candle{Open: 100.0, High: 100.75, Low: 99.95, Close: 100.7, Volume: 100}

	det := newTestEngulfingDetector()
	series := buildSeries(candles)
	match := Match{Direction: Buy, KeyLevel: 100}

	if det.Validate(series, match) {
		t.Fatalf("expected low-volume rejection")
	}
}

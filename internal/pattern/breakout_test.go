package pattern

import (
	"testing"

	"mid-scanner/internal/config"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
)

// falseBreakoutCandles 构造支撑假跌破场景：倒数第二根放量跌破支撑100，
// 最后一根收回支撑上方且收阳。
func falseBreakoutCandles() []market.Candle {
	candles := make([]market.Candle, 20)
	for i := 0; i < 18; i++ {
		candles[i] = market.Candle{Open: 100, High: 100.6, Low: 99.8, Close: 100.1, Volume: 1000}
	}
	candles[18] = market.Candle{Open: 100, High: 100.2, Low: 99.5, Close: 99.8, Volume: 3000}
	candles[19] = market.Candle{Open: 99.8, High: 100.6, Low: 99.7, Close: 100.5, Volume: 1200}
	return candles
}

func newTestBreakoutDetector() *BreakoutDetector {
	return NewBreakoutDetector(config.BreakoutConfig{VolumeMultiplier: 1.2, MinCandles: 15}, nil)
}

func TestBreakoutDetect_BullishAtSupport(t *testing.T) {
	det := newTestBreakoutDetector()
	series := buildSeries(falseBreakoutCandles())
	lv := levels.Levels{Supports: []float64{100}}

	match, ok := det.Detect(series, lv)
	if !ok {
		t.Fatalf("expected bullish false breakout match")
	}
	if match.Direction != Buy {
		t.Errorf("expected direction BUY, got %s", match.Direction)
	}
	if match.KeyLevel != 100 {
		t.Errorf("expected key level 100, got %f", match.KeyLevel)
	}
	if match.PatternName != "Bullish False Breakout" {
		t.Errorf("unexpected pattern name %q", match.PatternName)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestBreakoutDetect_BearishAtResistance(t *testing.T) {
	candles := make([]market.Candle, 20)
	for i := 0; i < 18; i++ {
		candles[i] = market.Candle{Open: 109.8, High: 110.1, Low: 109.4, Close: 109.7, Volume: 1000}
	}
	// 放量突破阻力110后失败。
	candles[18] = market.Candle{Open: 109.9, High: 110.5, Low: 109.8, Close: 110.2, Volume: 3000}
	candles[19] = market.Candle{Open: 110.1, High: 110.2, Low: 109.4, Close: 109.5, Volume: 1200}

	det := newTestBreakoutDetector()
	series := buildSeries(candles)
	lv := levels.Levels{Resistances: []float64{110}}

	match, ok := det.Detect(series, lv)
	if !ok {
		t.Fatalf("expected bearish false breakout match")
	}
	if match.Direction != Sell {
		t.Errorf("expected direction SELL, got %s", match.Direction)
	}
	if match.KeyLevel != 110 {
		t.Errorf("expected key level 110, got %f", match.KeyLevel)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestBreakoutDetect_RequiresVolumeSpike(t *testing.T) {
	candles := falseBreakoutCandles()
	candles[18].Volume = 1000

	det := newTestBreakoutDetector()
	lv := levels.Levels{Supports: []float64{100}}

	if _, ok := det.Detect(buildSeries(candles), lv); ok {
		t.Fatalf("expected no match without volume spike on the break candle")
	}
}

func TestBreakoutDetect_RequiresLevels(t *testing.T) {
	det := newTestBreakoutDetector()
	series := buildSeries(falseBreakoutCandles())

	if _, ok := det.Detect(series, levels.Levels{}); ok {
		t.Fatalf("expected no match without any level")
	}
}

func TestBreakoutDetect_InsufficientCandles(t *testing.T) {
	det := newTestBreakoutDetector()
	series := buildSeries(falseBreakoutCandles()[:10])

	if _, ok := det.Detect(series, levels.Levels{Supports: []float64{100}}); ok {
		t.Fatalf("expected no match for short series")
	}
}

func TestBreakoutValidate_RejectsWeakReversalBody(t *testing.T) {
	candles := falseBreakoutCandles()
	// 反转K线实体过弱：实体占比远低于30%。
	candles[19] = market.Candle{Open: 100.4, High: 101.4, Low: 99.9, Close: 100.5, Volume: 1200}

	det := newTestBreakoutDetector()
	series := buildSeries(candles)
	match := Match{Direction: Buy, KeyLevel: 100}

	if det.Validate(series, match) {
		t.Fatalf("expected weak-body rejection")
	}
}

func TestBreakoutValidate_RejectsFarClose(t *testing.T) {
	candles := falseBreakoutCandles()
	candles[19] = market.Candle{Open: 101.0, High: 102.2, Low: 100.9, Close: 102.1, Volume: 1200}

	det := newTestBreakoutDetector()
	series := buildSeries(candles)
	match := Match{Direction: Buy, KeyLevel: 100}

	if det.Validate(series, match) {
		t.Fatalf("expected rejection when close drifts beyond 1%% of the level")
	}
}

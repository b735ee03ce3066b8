package pattern

import (
	"testing"
	"time"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
)

func buildSeries(candles []market.Candle) indicator.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Timestamp = base.Add(time.Duration(i) * 5 * time.Minute)
	}
	return indicator.NewSeries(candles)
}

// bullishSweepCandles 构造看涨扫荡场景：前19根阴跌且最低价恒为100，
// 最后一根下探99后以长下影线收阳。
func bullishSweepCandles() []market.Candle {
	candles := make([]market.Candle, 20)
	for i := 0; i < 19; i++ {
		c := 103 - 0.1*float64(i)
		candles[i] = market.Candle{
			Open:   c + 0.2,
			High:   c + 0.5,
			Low:    100,
			Close:  c,
			Volume: 1000,
		}
	}
	candles[19] = market.Candle{
		Open:   100.0,
		High:   101.0,
		Low:    99.0,
		Close:  100.9,
		Volume: 1500,
	}
	return candles
}

func newTestSweepDetector() *SweepDetector {
	indicatorCfg := config.IndicatorConfig{RSIPeriod: 14, RSIOverbought: 70, RSIOversold: 30}
	return NewSweepDetector(
		config.SweepConfig{WickRatio: 0.5, Lookback: 20, ReversalBodyRatio: 0.35},
		indicatorCfg,
		indicator.NewCalculator(indicatorCfg),
		nil,
	)
}

func TestSweepDetect_Bullish(t *testing.T) {
	det := newTestSweepDetector()
	series := buildSeries(bullishSweepCandles())

	match, ok := det.Detect(series, levels.Levels{})
	if !ok {
		t.Fatalf("expected bullish sweep match")
	}
	if match.Direction != Buy {
		t.Errorf("expected direction BUY, got %s", match.Direction)
	}
	if match.KeyLevel != 100 {
		t.Errorf("expected sweep level 100 (prior window low), got %f", match.KeyLevel)
	}
	if match.PatternName != "Bullish Liquidity Sweep" {
		t.Errorf("unexpected pattern name %q", match.PatternName)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestSweepDetect_Bearish(t *testing.T) {
	candles := make([]market.Candle, 20)
	for i := 0; i < 19; i++ {
		c := 100 + 0.1*float64(i)
		candles[i] = market.Candle{
			Open:   c - 0.2,
			High:   104,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	// 上探105后收阴：上影线占比50%，实体占比35%。
	candles[19] = market.Candle{
		Open:   104.0,
		High:   105.0,
		Low:    103.0,
		Close:  103.3,
		Volume: 1000,
	}

	det := newTestSweepDetector()
	series := buildSeries(candles)

	match, ok := det.Detect(series, levels.Levels{})
	if !ok {
		t.Fatalf("expected bearish sweep match")
	}
	if match.Direction != Sell {
		t.Errorf("expected direction SELL, got %s", match.Direction)
	}
	if match.KeyLevel != 104 {
		t.Errorf("expected sweep level 104 (prior window high), got %f", match.KeyLevel)
	}

	if !det.Validate(series, match) {
		t.Fatalf("expected validation to pass")
	}
}

func TestSweepDetect_InsufficientCandles(t *testing.T) {
	det := newTestSweepDetector()
	series := buildSeries(bullishSweepCandles()[:10])

	if _, ok := det.Detect(series, levels.Levels{}); ok {
		t.Fatalf("expected no match for series shorter than lookback")
	}
}

func TestSweepDetect_NoSweepWithoutNewLow(t *testing.T) {
	candles := bullishSweepCandles()
	// 最低价未刺破此前窗口最低点，不构成扫荡。
	candles[19].Low = 100.5
	candles[19].Open = 101.5
	candles[19].High = 102.5
	candles[19].Close = 102.4

	det := newTestSweepDetector()
	if _, ok := det.Detect(buildSeries(candles), levels.Levels{}); ok {
		t.Fatalf("expected no match when prior low is not taken out")
	}
}

func TestSweepValidate_RejectsLowVolume(t *testing.T) {
	candles := bullishSweepCandles()
	candles[19].Volume = 100

	det := newTestSweepDetector()
	series := buildSeries(candles)

	match, ok := det.Detect(series, levels.Levels{})
	if !ok {
		t.Fatalf("expected detection before validation")
	}
	if det.Validate(series, match) {
		t.Fatalf("expected low-volume rejection")
	}
}

func TestSweepValidate_RejectsOverboughtRSI(t *testing.T) {
	// 阳线连涨使RSI饱和为100，看涨扫荡应被超买过滤否决。
	candles := make([]market.Candle, 20)
	for i := 0; i < 19; i++ {
		c := 100 + 0.1*float64(i)
		candles[i] = market.Candle{
			Open:   c - 0.2,
			High:   c + 0.3,
			Low:    99,
			Close:  c,
			Volume: 1000,
		}
	}
	candles[19] = market.Candle{
		Open:   101.9,
		High:   104.4,
		Low:    98.0,
		Close:  104.3,
		Volume: 1500,
	}

	det := newTestSweepDetector()
	series := buildSeries(candles)

	match, ok := det.Detect(series, levels.Levels{})
	if !ok {
		t.Fatalf("expected detection before validation")
	}
	if match.Direction != Buy {
		t.Fatalf("expected BUY match, got %s", match.Direction)
	}
	if det.Validate(series, match) {
		t.Fatalf("expected overbought RSI rejection")
	}
}

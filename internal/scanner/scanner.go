// Package scanner 按固定优先级在标的集合上编排形态检测：
// 扫荡 → 假突破 → 吞没，单标的首个通过校验与风险回报门槛的信号胜出。
package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
	"mid-scanner/internal/pattern"
	"mid-scanner/internal/signal"
)

// Provider 抽象行情数据源。拉取失败或数据不足统一按"跳过该标的"处理。
type Provider interface {
	FetchCandles(ctx context.Context, symbol string, limit int) ([]market.Candle, error)
}

// Scanner 为扫描编排器。检测器与合成器均为纯计算，
// 并发任务之间除计数器外不共享任何可变状态。
type Scanner struct {
	provider  Provider
	levels    *levels.Calculator
	detectors []pattern.Detector
	builder   *signal.Builder
	logger    *zap.Logger

	workers     int
	candleLimit int
	minCandles  int
}

// New 创建 Scanner，检测器顺序即优先级顺序。
func New(provider Provider, levelsCalc *levels.Calculator, detectors []pattern.Detector, builder *signal.Builder, cfg config.ScannerConfig, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	candleLimit := cfg.CandleLimit
	if candleLimit <= 0 {
		candleLimit = 200
	}
	minCandles := cfg.MinCandles
	if minCandles <= 0 {
		minCandles = 30
	}
	return &Scanner{
		provider:    provider,
		levels:      levelsCalc,
		detectors:   detectors,
		builder:     builder,
		logger:      logger,
		workers:     workers,
		candleLimit: candleLimit,
		minCandles:  minCandles,
	}
}

// Scan 并发扫描全部标的并聚合信号，信号顺序为完成顺序。
// 单个标的的失败只计数不扩散，不会中断其他标的的扫描。
func (s *Scanner) Scan(ctx context.Context, symbols []string) ([]signal.TradeSignal, *Stats) {
	names := make([]string, 0, len(s.detectors))
	for _, det := range s.detectors {
		names = append(names, det.Name())
	}
	stats := NewStats(names)

	var (
		mu      sync.Mutex
		signals []signal.TradeSignal
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for _, symbol := range symbols {
		group.Go(func() error {
			stats.Scanned.Add(1)
			if sig, ok := s.scanSymbol(groupCtx, symbol, stats); ok {
				mu.Lock()
				signals = append(signals, sig)
				mu.Unlock()
				stats.Signals.Add(1)
			}
			return nil
		})
	}

	_ = group.Wait()
	stats.Duration = time.Since(stats.StartedAt)

	s.logger.Info("扫描完成",
		zap.Int("symbols", len(symbols)),
		zap.Int("signals", len(signals)),
		zap.Duration("duration", stats.Duration),
	)

	return signals, stats
}

// scanSymbol 对单个标的执行完整流水线，终态为 (信号, true) 或 (零值, false)。
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, stats *Stats) (signal.TradeSignal, bool) {
	candles, err := s.provider.FetchCandles(ctx, symbol, s.candleLimit)
	if err != nil {
		stats.NoData.Add(1)
		s.logger.Warn("行情数据不可用，跳过标的",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return signal.TradeSignal{}, false
	}
	if len(candles) < s.minCandles {
		stats.InsufficientCandles.Add(1)
		s.logger.Debug("K线数量不足，跳过标的",
			zap.String("symbol", symbol),
			zap.Int("count", len(candles)),
		)
		return signal.TradeSignal{}, false
	}

	series := indicator.NewSeries(candles)
	lv := s.levels.Compute(series)

	// 固定优先级逐个尝试；校验失败或风险回报不足时落入下一个检测器。
	for _, det := range s.detectors {
		match, found := det.Detect(series, lv)
		if !found {
			continue
		}

		ds := stats.Detector(det.Name())
		ds.Detected.Add(1)

		if !det.Validate(series, match) {
			ds.Rejected.Add(1)
			continue
		}

		sig, ok := s.builder.Build(symbol, match, series, lv, candles)
		if !ok {
			stats.LowRiskReward.Add(1)
			continue
		}

		s.logger.Info("发现交易信号",
			zap.String("symbol", symbol),
			zap.String("pattern", sig.PatternName),
			zap.String("direction", string(sig.Direction)),
			zap.Float64("risk_reward", sig.RiskReward),
		)
		return sig, true
	}

	return signal.TradeSignal{}, false
}

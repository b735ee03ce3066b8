package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CandleFetcher 抽象底层行情客户端，便于测试替换。
type CandleFetcher interface {
	FetchCandles(ctx context.Context, symbol string, limit int64) ([]Candle, error)
}

// CandleService 在客户端之上提供单次扫描内的缓存与全局限速。
// 缓存只在一次扫描内有效，每轮扫描前必须调用 ResetCache。
type CandleService struct {
	fetcher   CandleFetcher
	logger    *zap.Logger
	rateLimit time.Duration

	cacheMu sync.Mutex
	cache   map[string][]Candle

	callMu   sync.Mutex
	lastCall time.Time
}

// NewCandleService 创建带缓存的行情服务。
func NewCandleService(fetcher CandleFetcher, rateLimit time.Duration, logger *zap.Logger) *CandleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandleService{
		fetcher:   fetcher,
		logger:    logger,
		rateLimit: rateLimit,
		cache:     make(map[string][]Candle),
	}
}

// FetchCandles 返回指定标的的K线，同一轮扫描内命中缓存则不再请求。
func (s *CandleService) FetchCandles(ctx context.Context, symbol string, limit int) ([]Candle, error) {
	s.cacheMu.Lock()
	if cached, ok := s.cache[symbol]; ok {
		s.cacheMu.Unlock()
		return cached, nil
	}
	s.cacheMu.Unlock()

	candles, err := s.fetchWithRateLimit(ctx, symbol, int64(limit))
	if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[symbol] = candles
	s.cacheMu.Unlock()

	return candles, nil
}

// ResetCache 清空单轮扫描缓存。
func (s *CandleService) ResetCache() {
	s.cacheMu.Lock()
	s.cache = make(map[string][]Candle)
	s.cacheMu.Unlock()
}

// fetchWithRateLimit 串行化对外请求，保证相邻调用至少间隔 rateLimit。
func (s *CandleService) fetchWithRateLimit(ctx context.Context, symbol string, limit int64) ([]Candle, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if s.rateLimit > 0 && !s.lastCall.IsZero() {
		wait := s.rateLimit - time.Since(s.lastCall)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	candles, err := s.fetcher.FetchCandles(ctx, symbol, limit)
	s.lastCall = time.Now()
	if err != nil {
		return nil, err
	}

	s.logger.Debug("K线拉取完成",
		zap.String("symbol", symbol),
		zap.Int("count", len(candles)),
	)

	return candles, nil
}

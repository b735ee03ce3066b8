package scanner

import (
	"sync/atomic"
	"time"
)

// DetectorStats 记录单个检测器在一轮扫描内的命中与否决次数。
type DetectorStats struct {
	Detected atomic.Int64
	Rejected atomic.Int64
}

// Stats 为单轮扫描的诊断计数器。每轮扫描新建一份，绝不跨扫描共享。
// 策略性否决（校验失败、风险回报不足）与数据缺失分开计数。
type Stats struct {
	StartedAt time.Time
	Duration  time.Duration

	Scanned             atomic.Int64
	NoData              atomic.Int64
	InsufficientCandles atomic.Int64
	LowRiskReward       atomic.Int64
	Signals             atomic.Int64

	detectors map[string]*DetectorStats
}

// NewStats 为给定检测器集合创建计数器。
func NewStats(detectorNames []string) *Stats {
	detectors := make(map[string]*DetectorStats, len(detectorNames))
	for _, name := range detectorNames {
		detectors[name] = &DetectorStats{}
	}
	return &Stats{
		StartedAt: time.Now().UTC(),
		detectors: detectors,
	}
}

// Detector 返回指定检测器的计数器，未注册的名称返回可安全丢弃的空计数器。
func (s *Stats) Detector(name string) *DetectorStats {
	if ds, ok := s.detectors[name]; ok {
		return ds
	}
	return &DetectorStats{}
}

// DetectorSnapshot 为检测器计数的只读副本。
type DetectorSnapshot struct {
	Detected int64 `json:"detected"`
	Rejected int64 `json:"rejected"`
}

// Snapshot 为一轮扫描计数的只读副本，用于诊断上报与持久化。
type Snapshot struct {
	StartedAt           time.Time                   `json:"started_at"`
	DurationSeconds     float64                     `json:"duration_seconds"`
	Scanned             int64                       `json:"scanned"`
	NoData              int64                       `json:"no_data"`
	InsufficientCandles int64                       `json:"insufficient_candles"`
	LowRiskReward       int64                       `json:"low_risk_reward"`
	Signals             int64                       `json:"signals"`
	Detectors           map[string]DetectorSnapshot `json:"detectors"`
}

// Snapshot 导出当前计数副本。
func (s *Stats) Snapshot() Snapshot {
	detectors := make(map[string]DetectorSnapshot, len(s.detectors))
	for name, ds := range s.detectors {
		detectors[name] = DetectorSnapshot{
			Detected: ds.Detected.Load(),
			Rejected: ds.Rejected.Load(),
		}
	}
	return Snapshot{
		StartedAt:           s.StartedAt,
		DurationSeconds:     s.Duration.Seconds(),
		Scanned:             s.Scanned.Load(),
		NoData:              s.NoData.Load(),
		InsufficientCandles: s.InsufficientCandles.Load(),
		LowRiskReward:       s.LowRiskReward.Load(),
		Signals:             s.Signals.Load(),
		Detectors:           detectors,
	}
}

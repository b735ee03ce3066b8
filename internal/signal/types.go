package signal

import (
	"time"

	"mid-scanner/internal/market"
	"mid-scanner/internal/pattern"
)

// TradeSignal 为一条完整的交易信号，构造后不可变，归当次扫描的调用方所有。
// 所有价格与比率字段在构造时统一保留两位小数。
type TradeSignal struct {
	Symbol           string            `json:"symbol"`
	Direction        pattern.Direction `json:"direction"`
	PatternName      string            `json:"pattern_name"`
	Strength         string            `json:"strength"`
	EntryPrice       float64           `json:"entry_price"`
	StopLoss         float64           `json:"stop_loss"`
	Target1          float64           `json:"target_1"`
	Target2          float64           `json:"target_2"`
	RiskReward       float64           `json:"risk_reward"`
	RSIValue         float64           `json:"rsi_value"`
	VolumeRatio      float64           `json:"volume_ratio"`
	VolumeConfirmed  bool              `json:"volume_confirmed"`
	SupportLevels    []float64         `json:"support_levels"`
	ResistanceLevels []float64         `json:"resistance_levels"`
	Confirmations    []string          `json:"confirmations"`
	PatternDetails   string            `json:"pattern_details"`
	CreatedAt        time.Time         `json:"created_at"`
	Candles          []market.Candle   `json:"-"`
}

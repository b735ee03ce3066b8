package market

import "time"

// Candle 代表单根K线，时间升序、时间戳不重复。
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

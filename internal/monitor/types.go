package monitor

import (
	"time"

	"mid-scanner/internal/scanner"
	"mid-scanner/internal/signal"
)

// EventType 表示监控事件类型。
type EventType string

const (
	EventScan   EventType = "scan"
	EventSignal EventType = "signal"
	EventError  EventType = "error"
)

// Event 封装通用监控事件。
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ScanPayload 记录一轮扫描的诊断计数。
type ScanPayload struct {
	Stats scanner.Snapshot `json:"stats"`
}

// SignalPayload 记录发出的交易信号。
type SignalPayload struct {
	Signal signal.TradeSignal `json:"signal"`
}

// ErrorPayload 记录异常。
type ErrorPayload struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// StoredEvent 为查询返回的事件记录。
type StoredEvent struct {
	ID        int64     `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload"`
}

package app

import (
	"fmt"
	"time"

	"mid-scanner/internal/config"
)

// MarketClock 判断当前是否处于可扫描时段。
// 未启用时段限制时全天可扫描。
type MarketClock struct {
	cfg      config.MarketHoursConfig
	location *time.Location
}

// NewMarketClock 创建时段判断器，时区解析失败时返回错误。
func NewMarketClock(cfg config.MarketHoursConfig) (*MarketClock, error) {
	clock := &MarketClock{cfg: cfg, location: time.UTC}
	if !cfg.Enabled {
		return clock, nil
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("解析交易时段时区失败: %w", err)
	}
	clock.location = loc
	return clock, nil
}

// IsOpen 判断给定时刻是否位于交易时段内。周末视为休市。
func (c *MarketClock) IsOpen(t time.Time) bool {
	if !c.cfg.Enabled {
		return true
	}

	local := t.In(c.location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	open := c.cfg.OpenHour*60 + c.cfg.OpenMinute
	close := c.cfg.CloseHour*60 + c.cfg.CloseMinute

	return minutes >= open && minutes < close
}

// NextOpen 返回下一个开盘时刻，用于日志提示。
func (c *MarketClock) NextOpen(t time.Time) time.Time {
	if !c.cfg.Enabled {
		return t
	}

	local := t.In(c.location)
	candidate := time.Date(local.Year(), local.Month(), local.Day(),
		c.cfg.OpenHour, c.cfg.OpenMinute, 0, 0, c.location)

	for !candidate.After(local) || candidate.Weekday() == time.Saturday || candidate.Weekday() == time.Sunday {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

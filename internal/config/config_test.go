package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App: AppConfig{Environment: "test"},
		Exchange: ExchangeConfig{
			Name:      "binanceusdm",
			Interval:  "5m",
			RateLimit: time.Second,
			Retry: RetryConfig{
				MaxAttempts: 3,
				MinDelay:    500 * time.Millisecond,
				MaxDelay:    5 * time.Second,
			},
		},
		Scanner: ScannerConfig{
			Symbols:      []string{"BTC/USDT:USDT"},
			Workers:      5,
			ScanInterval: 5 * time.Minute,
			CandleLimit:  200,
			MinCandles:   30,
		},
		Strategy: StrategyConfig{
			Sweep:     SweepConfig{WickRatio: 0.5, Lookback: 20, ReversalBodyRatio: 0.35},
			Breakout:  BreakoutConfig{VolumeMultiplier: 1.2, MinCandles: 15},
			Engulfing: EngulfingConfig{BodyRatio: 1.2},
		},
		Signal: SignalConfig{
			StopLossPercent: 1.5,
			TargetPercent1:  2.0,
			TargetPercent2:  3.5,
			MinRiskReward:   1.2,
		},
		Indicator: IndicatorConfig{
			RSIPeriod:           14,
			RSIOverbought:       70,
			RSIOversold:         30,
			VolumeMAPeriod:      20,
			MinVolumeRatio:      1.1,
			SRLookback:          20,
			SRTouchThresholdPct: 0.8,
		},
		Database: DatabaseConfig{
			Path:         "data/test.db",
			MaxOpenConns: 4,
			MaxIdleConns: 4,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Encoding:         "console",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
	}
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_RejectsMissingSymbols(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.Symbols = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "scanner.symbols") {
		t.Errorf("expected symbols message, got %v", err)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.Workers = 0
	cfg.Signal.MinRiskReward = 0
	cfg.Strategy.Sweep.WickRatio = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"scanner.workers", "signal.min_risk_reward", "strategy.sweep.wick_ratio"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected aggregated error to mention %s, got %v", want, err)
		}
	}
}

func TestValidate_TelegramOnlyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram = TelegramConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled telegram must not require a token, got %v", err)
	}

	cfg.Telegram.Enabled = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "telegram.bot_token") {
		t.Fatalf("expected bot token requirement when enabled, got %v", err)
	}
}

func TestValidate_MarketHoursBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Scanner.MarketHours = MarketHoursConfig{
		Enabled:  true,
		Timezone: "Asia/Kolkata",
		OpenHour: 25,
	}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "market_hours") {
		t.Fatalf("expected market hours bounds error, got %v", err)
	}
}

func TestValidate_RiskRewardOrdering(t *testing.T) {
	cfg := validConfig()
	cfg.Signal.TargetPercent2 = 1.0

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "target_percent_2") {
		t.Fatalf("expected target ordering error, got %v", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config 聚合了扫描系统运行所需的全部配置项。
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Exchange  ExchangeConfig  `mapstructure:"exchange"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。MonitorPort 为0时不启动监控接口。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	MonitorPort int    `mapstructure:"monitor_port"`
}

// ExchangeConfig 描述行情数据源连接信息。
type ExchangeConfig struct {
	Name       string        `mapstructure:"name"`
	APIKey     string        `mapstructure:"api_key"`
	APISecret  string        `mapstructure:"api_secret"`
	UseSandbox bool          `mapstructure:"use_sandbox"`
	Interval   string        `mapstructure:"interval"`
	RateLimit  time.Duration `mapstructure:"rate_limit"`
	Retry      RetryConfig   `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// ScannerConfig 控制扫描编排参数。
type ScannerConfig struct {
	Symbols      []string          `mapstructure:"symbols"`
	Workers      int               `mapstructure:"workers"`
	ScanInterval time.Duration     `mapstructure:"scan_interval"`
	CandleLimit  int               `mapstructure:"candle_limit"`
	MinCandles   int               `mapstructure:"min_candles"`
	MarketHours  MarketHoursConfig `mapstructure:"market_hours"`
}

// MarketHoursConfig 描述交易时段限制，关闭时全天可扫描。
type MarketHoursConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Timezone    string `mapstructure:"timezone"`
	OpenHour    int    `mapstructure:"open_hour"`
	OpenMinute  int    `mapstructure:"open_minute"`
	CloseHour   int    `mapstructure:"close_hour"`
	CloseMinute int    `mapstructure:"close_minute"`
}

// StrategyConfig 汇总三个形态检测器的阈值。
type StrategyConfig struct {
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Breakout  BreakoutConfig  `mapstructure:"breakout"`
	Engulfing EngulfingConfig `mapstructure:"engulfing"`
}

// SweepConfig 控制流动性扫荡检测。
type SweepConfig struct {
	WickRatio         float64 `mapstructure:"wick_ratio"`
	Lookback          int     `mapstructure:"lookback"`
	ReversalBodyRatio float64 `mapstructure:"reversal_body_ratio"`
}

// BreakoutConfig 控制假突破检测。
type BreakoutConfig struct {
	VolumeMultiplier float64 `mapstructure:"volume_multiplier"`
	MinCandles       int     `mapstructure:"min_candles"`
}

// EngulfingConfig 控制吞没形态检测。
type EngulfingConfig struct {
	BodyRatio float64 `mapstructure:"body_ratio"`
}

// SignalConfig 控制信号合成与风险回报门槛。
type SignalConfig struct {
	StopLossPercent float64 `mapstructure:"stop_loss_percent"`
	TargetPercent1  float64 `mapstructure:"target_percent_1"`
	TargetPercent2  float64 `mapstructure:"target_percent_2"`
	MinRiskReward   float64 `mapstructure:"min_risk_reward"`
}

// IndicatorConfig 控制指标计算参数。
type IndicatorConfig struct {
	RSIPeriod           int     `mapstructure:"rsi_period"`
	RSIOverbought       float64 `mapstructure:"rsi_overbought"`
	RSIOversold         float64 `mapstructure:"rsi_oversold"`
	VolumeMAPeriod      int     `mapstructure:"volume_ma_period"`
	MinVolumeRatio      float64 `mapstructure:"min_volume_ratio"`
	SRLookback          int     `mapstructure:"sr_lookback"`
	SRTouchThresholdPct float64 `mapstructure:"sr_touch_threshold"`
}

// TelegramConfig 描述推送通道。
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BotToken    string `mapstructure:"bot_token"`
	ChatID      string `mapstructure:"chat_id"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
	ProxyURL    string `mapstructure:"proxy_url"`
	MaxRetries  int    `mapstructure:"max_retries"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.App.MonitorPort < 0 || c.App.MonitorPort > 65535 {
		err = multierr.Append(err, errors.New("app.monitor_port 必须位于[0,65535]"))
	}
	if c.Exchange.Name == "" {
		err = multierr.Append(err, errors.New("exchange.name 不能为空"))
	}
	if c.Exchange.Interval == "" {
		err = multierr.Append(err, errors.New("exchange.interval 不能为空"))
	}
	if c.Exchange.RateLimit < 0 {
		err = multierr.Append(err, errors.New("exchange.rate_limit 不能为负"))
	}
	if c.Exchange.Retry.MaxAttempts <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.max_attempts 必须大于0"))
	}
	if c.Exchange.Retry.MinDelay <= 0 || c.Exchange.Retry.MaxDelay <= 0 {
		err = multierr.Append(err, errors.New("exchange.retry.delay 必须为正"))
	}
	if c.Exchange.Retry.MinDelay > c.Exchange.Retry.MaxDelay {
		err = multierr.Append(err, errors.New("exchange.retry.min_delay 不能大于 max_delay"))
	}
	if len(c.Scanner.Symbols) == 0 {
		err = multierr.Append(err, errors.New("scanner.symbols 至少包含一个标的"))
	}
	if c.Scanner.Workers <= 0 {
		err = multierr.Append(err, errors.New("scanner.workers 必须大于0"))
	}
	if c.Scanner.ScanInterval <= 0 {
		err = multierr.Append(err, errors.New("scanner.scan_interval 必须大于0"))
	}
	if c.Scanner.MinCandles <= 0 {
		err = multierr.Append(err, errors.New("scanner.min_candles 必须大于0"))
	}
	if c.Scanner.CandleLimit < c.Scanner.MinCandles {
		err = multierr.Append(err, errors.New("scanner.candle_limit 不应小于 min_candles"))
	}
	if c.Scanner.MarketHours.Enabled {
		if c.Scanner.MarketHours.Timezone == "" {
			err = multierr.Append(err, errors.New("scanner.market_hours.timezone 不能为空"))
		}
		if c.Scanner.MarketHours.OpenHour < 0 || c.Scanner.MarketHours.OpenHour > 23 ||
			c.Scanner.MarketHours.CloseHour < 0 || c.Scanner.MarketHours.CloseHour > 23 {
			err = multierr.Append(err, errors.New("scanner.market_hours 小时必须位于[0,23]"))
		}
		if c.Scanner.MarketHours.OpenMinute < 0 || c.Scanner.MarketHours.OpenMinute > 59 ||
			c.Scanner.MarketHours.CloseMinute < 0 || c.Scanner.MarketHours.CloseMinute > 59 {
			err = multierr.Append(err, errors.New("scanner.market_hours 分钟必须位于[0,59]"))
		}
	}
	if c.Strategy.Sweep.WickRatio <= 0 || c.Strategy.Sweep.WickRatio >= 1 {
		err = multierr.Append(err, errors.New("strategy.sweep.wick_ratio 必须位于(0,1)"))
	}
	if c.Strategy.Sweep.Lookback < 3 {
		err = multierr.Append(err, errors.New("strategy.sweep.lookback 不应小于3"))
	}
	if c.Strategy.Sweep.ReversalBodyRatio <= 0 || c.Strategy.Sweep.ReversalBodyRatio >= 1 {
		err = multierr.Append(err, errors.New("strategy.sweep.reversal_body_ratio 必须位于(0,1)"))
	}
	if c.Strategy.Breakout.VolumeMultiplier <= 0 {
		err = multierr.Append(err, errors.New("strategy.breakout.volume_multiplier 必须大于0"))
	}
	if c.Strategy.Breakout.MinCandles < 3 {
		err = multierr.Append(err, errors.New("strategy.breakout.min_candles 不应小于3"))
	}
	if c.Strategy.Engulfing.BodyRatio <= 1 {
		err = multierr.Append(err, errors.New("strategy.engulfing.body_ratio 必须大于1"))
	}
	if c.Signal.StopLossPercent <= 0 {
		err = multierr.Append(err, errors.New("signal.stop_loss_percent 必须大于0"))
	}
	if c.Signal.TargetPercent1 <= 0 || c.Signal.TargetPercent2 <= 0 {
		err = multierr.Append(err, errors.New("signal.target_percent 必须大于0"))
	}
	if c.Signal.TargetPercent2 < c.Signal.TargetPercent1 {
		err = multierr.Append(err, errors.New("signal.target_percent_2 不应小于 target_percent_1"))
	}
	if c.Signal.MinRiskReward <= 0 {
		err = multierr.Append(err, errors.New("signal.min_risk_reward 必须大于0"))
	}
	if c.Indicator.RSIPeriod <= 1 {
		err = multierr.Append(err, errors.New("indicator.rsi_period 必须大于1"))
	}
	if c.Indicator.RSIOversold >= c.Indicator.RSIOverbought {
		err = multierr.Append(err, errors.New("indicator.rsi_oversold 必须小于 rsi_overbought"))
	}
	if c.Indicator.VolumeMAPeriod <= 0 {
		err = multierr.Append(err, errors.New("indicator.volume_ma_period 必须大于0"))
	}
	if c.Indicator.MinVolumeRatio <= 0 {
		err = multierr.Append(err, errors.New("indicator.min_volume_ratio 必须大于0"))
	}
	if c.Indicator.SRLookback < 5 {
		err = multierr.Append(err, errors.New("indicator.sr_lookback 不应小于5"))
	}
	if c.Indicator.SRTouchThresholdPct <= 0 {
		err = multierr.Append(err, errors.New("indicator.sr_touch_threshold 必须大于0"))
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			err = multierr.Append(err, errors.New("telegram.bot_token 不能为空"))
		}
		if c.Telegram.ChatID == "" && c.Telegram.AdminChatID == 0 {
			err = multierr.Append(err, errors.New("telegram.chat_id 与 admin_chat_id 至少配置一个"))
		}
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}

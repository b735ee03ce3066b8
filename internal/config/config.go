package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "scanner"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.monitor_port", 0)

	v.SetDefault("exchange.name", "binanceusdm")
	v.SetDefault("exchange.use_sandbox", false)
	v.SetDefault("exchange.interval", "5m")
	v.SetDefault("exchange.rate_limit", "1s")
	v.SetDefault("exchange.retry.max_attempts", 5)
	v.SetDefault("exchange.retry.min_delay", "500ms")
	v.SetDefault("exchange.retry.max_delay", "5s")

	v.SetDefault("scanner.symbols", []string{"BTC/USDT:USDT", "ETH/USDT:USDT"})
	v.SetDefault("scanner.workers", 5)
	v.SetDefault("scanner.scan_interval", "5m")
	v.SetDefault("scanner.candle_limit", 200)
	v.SetDefault("scanner.min_candles", 30)
	v.SetDefault("scanner.market_hours.enabled", false)
	v.SetDefault("scanner.market_hours.timezone", "Asia/Kolkata")
	v.SetDefault("scanner.market_hours.open_hour", 9)
	v.SetDefault("scanner.market_hours.open_minute", 15)
	v.SetDefault("scanner.market_hours.close_hour", 15)
	v.SetDefault("scanner.market_hours.close_minute", 30)

	v.SetDefault("strategy.sweep.wick_ratio", 0.5)
	v.SetDefault("strategy.sweep.lookback", 20)
	v.SetDefault("strategy.sweep.reversal_body_ratio", 0.35)
	v.SetDefault("strategy.breakout.volume_multiplier", 1.2)
	v.SetDefault("strategy.breakout.min_candles", 15)
	v.SetDefault("strategy.engulfing.body_ratio", 1.2)

	v.SetDefault("signal.stop_loss_percent", 1.5)
	v.SetDefault("signal.target_percent_1", 2.0)
	v.SetDefault("signal.target_percent_2", 3.5)
	v.SetDefault("signal.min_risk_reward", 1.2)

	v.SetDefault("indicator.rsi_period", 14)
	v.SetDefault("indicator.rsi_overbought", 70)
	v.SetDefault("indicator.rsi_oversold", 30)
	v.SetDefault("indicator.volume_ma_period", 20)
	v.SetDefault("indicator.min_volume_ratio", 1.1)
	v.SetDefault("indicator.sr_lookback", 20)
	v.SetDefault("indicator.sr_touch_threshold", 0.8)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)

	v.SetDefault("database.path", "data/mid_scanner.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

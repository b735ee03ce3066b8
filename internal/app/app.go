package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mid-scanner/internal/approval"
	"mid-scanner/internal/config"
	"mid-scanner/internal/indicator"
	"mid-scanner/internal/levels"
	"mid-scanner/internal/market"
	"mid-scanner/internal/monitor"
	"mid-scanner/internal/notify"
	"mid-scanner/internal/pattern"
	"mid-scanner/internal/scanner"
	"mid-scanner/internal/signal"
	"mid-scanner/internal/store"
)

// App 聚合核心依赖并驱动扫描生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// pipeline 持有一次组装完成的扫描链路。
type pipeline struct {
	scanner  *scanner.Scanner
	provider *market.CandleService
	monitor  *monitor.Service
	approval *approval.Store
	notifier *notify.Telegram
	clock    *MarketClock
	symbols  []string
	logger   *zap.Logger

	telegram config.TelegramConfig
}

// Run 组装扫描链路并按固定间隔驱动扫描，直到收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("扫描系统已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("exchange", a.cfg.Exchange.Name),
		zap.Strings("symbols", a.cfg.Scanner.Symbols),
	)

	pipe, err := a.buildPipeline()
	if err != nil {
		return err
	}

	if a.cfg.App.MonitorPort > 0 {
		startMonitorServer(ctx, pipe.monitor, a.cfg.App.MonitorPort, a.logger)
	}

	scanInterval := a.cfg.Scanner.ScanInterval
	if scanInterval <= 0 {
		scanInterval = 5 * time.Minute
	}

	pipe.tick(ctx)

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("系统异常退出: %w", err)
			}
			a.logger.Info("系统收到退出信号，正在停止")
			return nil
		case <-ticker.C:
			pipe.tick(ctx)
		}
	}
}

func (a *App) buildPipeline() (*pipeline, error) {
	client, err := market.NewClient(a.cfg.Exchange, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化行情客户端失败: %w", err)
	}
	provider := market.NewCandleService(client, a.cfg.Exchange.RateLimit, a.logger)

	calc := indicator.NewCalculator(a.cfg.Indicator)
	levelsCalc := levels.NewCalculator(a.cfg.Indicator.SRLookback, a.logger)

	// 检测器顺序即信号优先级：扫荡 → 假突破 → 吞没。
	detectors := []pattern.Detector{
		pattern.NewSweepDetector(a.cfg.Strategy.Sweep, a.cfg.Indicator, calc, a.logger),
		pattern.NewBreakoutDetector(a.cfg.Strategy.Breakout, a.logger),
		pattern.NewEngulfingDetector(a.cfg.Strategy.Engulfing, calc, a.logger),
	}

	builder := signal.NewBuilder(a.cfg.Signal, calc, a.logger)
	scan := scanner.New(provider, levelsCalc, detectors, builder, a.cfg.Scanner, a.logger)

	monitorSvc, err := monitor.NewService(a.store, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化监控服务失败: %w", err)
	}

	approvalStore, err := approval.NewStore(a.store, a.cfg.Telegram.AdminChatID, a.logger)
	if err != nil {
		return nil, fmt.Errorf("初始化会话白名单失败: %w", err)
	}

	clock, err := NewMarketClock(a.cfg.Scanner.MarketHours)
	if err != nil {
		return nil, fmt.Errorf("初始化交易时段失败: %w", err)
	}

	var notifier *notify.Telegram
	if a.cfg.Telegram.Enabled {
		notifier = notify.NewTelegram(a.cfg.Telegram, a.logger)
	}

	return &pipeline{
		scanner:  scan,
		provider: provider,
		monitor:  monitorSvc,
		approval: approvalStore,
		notifier: notifier,
		clock:    clock,
		symbols:  a.cfg.Scanner.Symbols,
		logger:   a.logger,
		telegram: a.cfg.Telegram,
	}, nil
}

// tick 执行一轮扫描：先判断交易时段，扫描结束后记录诊断并推送信号。
// 单轮失败只记录，不终止主循环。
func (p *pipeline) tick(ctx context.Context) {
	now := time.Now().UTC()
	if !p.clock.IsOpen(now) {
		p.logger.Info("当前为休市时段，跳过扫描",
			zap.Time("next_open", p.clock.NextOpen(now)),
		)
		return
	}

	p.provider.ResetCache()

	signals, stats := p.scanner.Scan(ctx, p.symbols)
	snapshot := stats.Snapshot()
	p.monitor.RecordScan(ctx, snapshot)

	for _, sig := range signals {
		p.monitor.RecordSignal(ctx, sig)
		p.broadcast(ctx, notify.FormatSignal(sig))
	}

	// 产出信号的轮次向管理员附带诊断报告。
	if len(signals) > 0 && p.notifier != nil && p.telegram.AdminChatID != 0 {
		adminChat := strconv.FormatInt(p.telegram.AdminChatID, 10)
		if err := p.notifier.SendWithRetry(ctx, adminChat, notify.FormatScanReport(snapshot)); err != nil {
			p.logger.Warn("推送诊断报告失败", zap.Error(err))
		}
	}
}

// broadcast 将消息推送到配置会话与白名单会话。单个会话失败不影响其余会话。
func (p *pipeline) broadcast(ctx context.Context, text string) {
	if p.notifier == nil {
		return
	}

	recipients := make(map[string]struct{})
	if p.telegram.ChatID != "" {
		recipients[p.telegram.ChatID] = struct{}{}
	}

	chats, err := p.approval.List(ctx)
	if err != nil {
		p.logger.Warn("读取会话白名单失败", zap.Error(err))
	}
	for _, chat := range chats {
		recipients[strconv.FormatInt(chat, 10)] = struct{}{}
	}

	for chatID := range recipients {
		if err := p.notifier.SendWithRetry(ctx, chatID, text); err != nil {
			p.logger.Warn("推送信号失败",
				zap.String("chat_id", chatID),
				zap.Error(err),
			)
			p.monitor.RecordError(ctx, "推送信号失败", err, map[string]interface{}{"chat_id": chatID})
		}
	}
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"mid-scanner/internal/config"
)

// Telegram 通过 Telegram Bot API 推送消息。
type Telegram struct {
	cfg    config.TelegramConfig
	client *http.Client
	logger *zap.Logger
}

// NewTelegram 创建推送客户端，支持可选代理。
func NewTelegram(cfg config.TelegramConfig, logger *zap.Logger) *Telegram {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	transport := &http.Transport{}
	if cfg.ProxyURL != "" {
		if proxy, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		} else {
			logger.Warn("代理地址无效，忽略", zap.String("proxy", cfg.ProxyURL), zap.Error(err))
		}
	}

	return &Telegram{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Send 向指定会话发送一条HTML消息。
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.cfg.BotToken)
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化推送消息失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造推送请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("发送推送失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API 返回异常: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// SendWithRetry 以指数退避重试发送。
func (t *Telegram) SendWithRetry(ctx context.Context, chatID, text string) error {
	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if err := t.Send(ctx, chatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			t.logger.Warn("推送失败，等待重试",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("推送重试 %d 次后仍失败: %w", t.cfg.MaxRetries+1, lastErr)
}

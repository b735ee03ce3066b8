// Package approval 维护允许接收信号推送的会话白名单。
// 管理员会话始终在册且不可移除。
package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mid-scanner/internal/store"
)

// ErrAdminProtected 表示管理员会话不可移除。
var ErrAdminProtected = errors.New("approval: 管理员会话不可移除")

// Store 为 SQLite 支撑的会话白名单。
type Store struct {
	db      *sql.DB
	adminID int64
	logger  *zap.Logger
}

// NewStore 初始化白名单存储并登记管理员会话。
func NewStore(store *store.Store, adminID int64, logger *zap.Logger) (*Store, error) {
	if store == nil {
		return nil, fmt.Errorf("approval: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		db:      store.DB(),
		adminID: adminID,
		logger:  logger,
	}

	if err := s.initSchema(); err != nil {
		return nil, err
	}

	if adminID != 0 {
		if err := s.Approve(context.Background(), adminID); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS approved_chats (
	chat_id INTEGER PRIMARY KEY,
	approved_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("approval: 初始化表失败: %w", err)
	}
	return nil
}

// Approve 将会话加入白名单，重复加入不报错。
func (s *Store) Approve(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO approved_chats (chat_id, approved_at) VALUES (?, ?)`,
		chatID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("approval: 登记会话失败: %w", err)
	}
	return nil
}

// Revoke 将会话移出白名单，管理员会话受保护。
func (s *Store) Revoke(ctx context.Context, chatID int64) error {
	if chatID == s.adminID {
		return ErrAdminProtected
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM approved_chats WHERE chat_id = ?`, chatID)
	if err != nil {
		return fmt.Errorf("approval: 移除会话失败: %w", err)
	}
	return nil
}

// IsApproved 判断会话是否在白名单中。
func (s *Store) IsApproved(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM approved_chats WHERE chat_id = ?`, chatID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("approval: 查询会话失败: %w", err)
	}
	return true, nil
}

// List 返回全部白名单会话。
func (s *Store) List(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM approved_chats ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("approval: 查询白名单失败: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("approval: 解析会话失败: %w", err)
		}
		chats = append(chats, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("approval: 遍历白名单失败: %w", err)
	}
	return chats, nil
}

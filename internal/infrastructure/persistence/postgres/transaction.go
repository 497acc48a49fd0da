package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"novel-copilot-api/internal/domain/repository"
)

// TxManager 章节写入与字数回写共用一个事务
type TxManager struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

var _ repository.Transactor = (*TxManager)(nil)

func NewTxManager(client *Client) *TxManager {
	return &TxManager{
		db:   client.db,
		opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
}

// WithTransaction 嵌套调用复用外层事务，fn 返回错误即回滚
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	if err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, repository.TxKey{}, tx))
	}, m.opts); err != nil {
		return fmt.Errorf("postgres tx: %w", err)
	}
	return nil
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(repository.TxKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// getDB 上下文中有事务时走事务连接
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Package postgres 以 sqlx 實作食譜與購物清單的持久層
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"souschef/internal/core/grocery"
	"souschef/internal/core/recipe"

	"github.com/jmoiron/sqlx"
)

var (
	_ recipe.Store  = (*Store)(nil)
	_ grocery.Store = (*Store)(nil)
)

// Store Postgres 持久層
type Store struct {
	db *sqlx.DB
}

// NewStore 創建新的 Postgres 儲存
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Ping 檢查資料庫連線
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 關閉連線池
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx 在交易中執行 fn，失敗時回滾
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() time.Time {
	return time.Now().UTC()
}

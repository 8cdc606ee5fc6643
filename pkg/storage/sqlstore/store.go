package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kvfs/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 把 KV 契约映射到一张 SQL 表
type Store struct {
	db *gorm.DB
}

// NewWithConn 使用现有的 GORM 连接，表结构需已迁移
func NewWithConn(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Put 使用 UPSERT 覆盖写入
// SQL: INSERT ... ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	rec := KVRecord{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("sql put failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var rec KVRecord
	err := s.db.WithContext(ctx).
		Where(&KVRecord{Key: key}).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql get failed: %w", err)
	}
	return rec.Value, nil
}

// Close 关闭底层连接池
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

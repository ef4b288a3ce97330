package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/service-journal/internal/domain"
)

// SQLStorage stores entries in the kv_entries table.
type SQLStorage struct {
	db *gorm.DB
}

// NewSQLStorage wraps an opened and migrated database.
func NewSQLStorage(db *gorm.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

// Get implements Storage.
func (s *SQLStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var e domain.Entry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("get", key, err)
	}
	return e.Value, true, nil
}

// Set implements Storage as an upsert on the key.
func (s *SQLStorage) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&domain.Entry{Key: key, Value: value}).Error
	return storageErr("set", key, err)
}

// Remove implements Storage.
func (s *SQLStorage) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&domain.Entry{}).Error
	return storageErr("remove", strings.Join(keys, ","), err)
}

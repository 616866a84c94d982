package chat

import (
	"context"
	"errors"

	"github.com/suPer8Hu/portfolio-chat/internal/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is a store.KV over the chat_histories table.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) AutoMigrate() error {
	return r.db.AutoMigrate(&HistoryRecord{})
}

func (r *Repo) Get(ctx context.Context, key string) (string, error) {
	var rec HistoryRecord
	if err := r.db.WithContext(ctx).
		Where("`key` = ?", key).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return rec.Value, nil
}

// Set upserts the value for key.
func (r *Repo) Set(ctx context.Context, key, value string) error {
	rec := HistoryRecord{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rec).Error
}

func (r *Repo) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).
		Where("`key` = ?", key).
		Delete(&HistoryRecord{}).Error
}

// ListKeys returns stored keys with the given prefix, newest first.
func (r *Repo) ListKeys(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&HistoryRecord{}).
		Where("`key` LIKE ?", prefix+"%").
		Order("updated_at DESC").
		Limit(limit).
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

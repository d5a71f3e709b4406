package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/localbid-backend/internal/model"
	"gorm.io/gorm"
)

type AlarmRepository interface {
	Create(ctx context.Context, a *model.Alarm) error
	FindByID(ctx context.Context, id uint64) (*model.Alarm, error)
	ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Alarm, error)
	MarkRead(ctx context.Context, id, readerID uint64, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, id, ownerID uint64) (int64, error)
}

type alarmRepository struct {
	db *gorm.DB
}

func NewAlarmRepository(db *gorm.DB) AlarmRepository {
	return &alarmRepository{db: db}
}

func (r *alarmRepository) Create(ctx context.Context, a *model.Alarm) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(a).Error
}

// FindByID returns nil, nil for a missing or soft-deleted alarm.
func (r *alarmRepository) FindByID(ctx context.Context, id uint64) (*model.Alarm, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var a model.Alarm
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *alarmRepository) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Alarm, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Alarm
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Model(&model.Alarm{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func readUpdates(at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"is_read": true,
		"read_at": at,
	}
}

// MarkRead flips one unread alarm owned by readerID. It reports zero rows for a
// foreign, deleted, missing or already-read alarm.
func (r *alarmRepository) MarkRead(ctx context.Context, id, readerID uint64, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Alarm{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, readerID, false).
		Updates(readUpdates(at))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// MarkAllRead is a single set-based update, so alarms inserted concurrently are
// either included or left unread, never lost.
func (r *alarmRepository) MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Alarm{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(readUpdates(at))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *alarmRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Alarm{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// Delete soft-deletes an alarm owned by ownerID.
func (r *alarmRepository) Delete(ctx context.Context, id, ownerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&model.Alarm{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Alarm is a per-user notification. It only moves from unread to read.
type Alarm struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	UserID    uint64         `gorm:"column:user_id;not null;index:idx_alarms_user_read,priority:1"`
	Content   string         `gorm:"type:text;not null"`
	IsRead    bool           `gorm:"column:is_read;not null;default:false;index:idx_alarms_user_read,priority:2"`
	ReadAt    *time.Time     `gorm:"column:read_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Alarm) TableName() string {
	return "alarms"
}

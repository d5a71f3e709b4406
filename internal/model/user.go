package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	Nickname        string         `gorm:"size:60;not null"`
	ProfileImageURL *string        `gorm:"column:profile_image_url;size:512"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

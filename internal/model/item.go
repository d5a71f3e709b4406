package model

import (
	"time"

	"gorm.io/gorm"
)

type Item struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	SellerID     uint64         `gorm:"column:seller_id;not null;index"`
	Title        string         `gorm:"size:120;not null"`
	Description  string         `gorm:"type:text;not null"`
	ImageURL     *string        `gorm:"size:512"`
	Category     Category       `gorm:"size:32;not null;index"`
	TradeMethod  TradeMethod    `gorm:"column:trade_method;size:16;not null"`
	StartPrice   int64          `gorm:"column:start_price;not null"`
	WinningPrice *int64         `gorm:"column:winning_price"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Item) TableName() string {
	return "items"
}

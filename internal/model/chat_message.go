package model

import "time"

type ChatMessage struct {
	ID       uint64      `gorm:"primaryKey;autoIncrement"`
	RoomID   uint64      `gorm:"column:room_id;not null;index:idx_chat_messages_room_sent,priority:1"`
	SenderID uint64      `gorm:"column:sender_id;not null"`
	Content  string      `gorm:"type:text;not null"`
	Type     MessageType `gorm:"column:type;size:16;not null"`
	SentAt   time.Time   `gorm:"column:sent_at;not null;index:idx_chat_messages_room_sent,priority:2"`
	IsRead   bool        `gorm:"column:is_read;not null;default:false"`
	Room     *ChatRoom   `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

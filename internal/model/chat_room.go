package model

import "time"

// ChatRoom is one conversation about an item between its seller and one buyer.
// Each participant can hide the room independently.
type ChatRoom struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	ItemID          uint64     `gorm:"column:item_id;not null;uniqueIndex:uk_chat_rooms_item_seller_buyer,priority:1"`
	SellerID        uint64     `gorm:"column:seller_id;not null;uniqueIndex:uk_chat_rooms_item_seller_buyer,priority:2;index"`
	BuyerID         uint64     `gorm:"column:buyer_id;not null;uniqueIndex:uk_chat_rooms_item_seller_buyer,priority:3;index"`
	SellerDeletedAt *time.Time `gorm:"column:seller_deleted_at"`
	BuyerDeletedAt  *time.Time `gorm:"column:buyer_deleted_at"`
	LastMessageAt   time.Time  `gorm:"column:last_message_at;not null;index"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (ChatRoom) TableName() string {
	return "chat_rooms"
}

// Side identifies which participant of a room a user is.
type Side int

const (
	SideNone Side = iota
	SideSeller
	SideBuyer
)

func (r *ChatRoom) SideOf(userID uint64) Side {
	switch userID {
	case r.SellerID:
		return SideSeller
	case r.BuyerID:
		return SideBuyer
	}
	return SideNone
}

func (r *ChatRoom) IsParticipant(userID uint64) bool {
	return r.SideOf(userID) != SideNone
}

// PartnerOf returns the other participant's id.
func (r *ChatRoom) PartnerOf(userID uint64) uint64 {
	if userID == r.SellerID {
		return r.BuyerID
	}
	return r.SellerID
}

// HiddenFor reports whether userID has left the room.
func (r *ChatRoom) HiddenFor(userID uint64) bool {
	switch r.SideOf(userID) {
	case SideSeller:
		return r.SellerDeletedAt != nil
	case SideBuyer:
		return r.BuyerDeletedAt != nil
	}
	return false
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/localbid-backend/internal/model"
	"gorm.io/gorm"
)

type ChatRepository interface {
	FindRoom(ctx context.Context, itemID, sellerID, buyerID uint64) (*model.ChatRoom, error)
	FindOrCreateRoom(ctx context.Context, itemID, sellerID, buyerID uint64) (*model.ChatRoom, error)
	FindRoomByID(ctx context.Context, id uint64) (*model.ChatRoom, error)
	FindRoomsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.ChatRoom, error)
	ListRoomIDsForUser(ctx context.Context, userID uint64, page Page) ([]uint64, int64, error)
	HideRoomFor(ctx context.Context, roomID uint64, side model.Side, at time.Time) error
	RestoreRoomFor(ctx context.Context, roomID uint64, side model.Side) error

	CreateMessage(ctx context.Context, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, roomID uint64, page Page) ([]model.ChatMessage, error)
	LatestMessage(ctx context.Context, roomID uint64) (*model.ChatMessage, error)
	LatestMessages(ctx context.Context, roomIDs []uint64) (map[uint64]model.ChatMessage, error)
	UnreadCountForViewer(ctx context.Context, roomID, viewerID uint64) (int64, error)
	UnreadCounts(ctx context.Context, roomIDs []uint64, viewerID uint64) (map[uint64]int64, error)
	MarkRoomRead(ctx context.Context, roomID, readerID uint64) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// FindRoom returns nil, nil when no room exists for the triple.
func (r *chatRepository) FindRoom(ctx context.Context, itemID, sellerID, buyerID uint64) (*model.ChatRoom, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var room model.ChatRoom
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND seller_id = ? AND buyer_id = ?", itemID, sellerID, buyerID).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

// FindOrCreateRoom relies on the unique index over (item, seller, buyer): a caller
// that loses the insert race re-reads and returns the winner's room.
func (r *chatRepository) FindOrCreateRoom(ctx context.Context, itemID, sellerID, buyerID uint64) (*model.ChatRoom, error) {
	room, err := r.FindRoom(ctx, itemID, sellerID, buyerID)
	if err != nil || room != nil {
		return room, err
	}
	return r.createRoom(ctx, itemID, sellerID, buyerID)
}

// createRoom inserts the room, falling back to the row a concurrent
// caller inserted first.
func (r *chatRepository) createRoom(ctx context.Context, itemID, sellerID, buyerID uint64) (*model.ChatRoom, error) {
	room := &model.ChatRoom{
		ItemID:        itemID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		LastMessageAt: r.db.NowFunc(),
	}
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		if !isDuplicateKey(err) {
			return nil, err
		}
		existing, ferr := r.FindRoom(ctx, itemID, sellerID, buyerID)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		return existing, nil
	}
	return room, nil
}

func (r *chatRepository) FindRoomByID(ctx context.Context, id uint64) (*model.ChatRoom, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var room model.ChatRoom
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) FindRoomsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.ChatRoom, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]model.ChatRoom, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rooms []model.ChatRoom
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rooms).Error; err != nil {
		return nil, err
	}
	for _, room := range rooms {
		out[room.ID] = room
	}
	return out, nil
}

func (r *chatRepository) visibleRooms(ctx context.Context, userID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.ChatRoom{}).
		Where("(seller_id = ? AND seller_deleted_at IS NULL) OR (buyer_id = ? AND buyer_deleted_at IS NULL)", userID, userID)
}

// ListRoomIDsForUser returns the ids of rooms the user has not left, most recent
// activity first, plus the total number of such rooms.
func (r *chatRepository) ListRoomIDsForUser(ctx context.Context, userID uint64, page Page) ([]uint64, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var total int64
	if err := r.visibleRooms(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	ids := make([]uint64, 0, page.Limit())
	if err := r.visibleRooms(ctx, userID).
		Order("last_message_at DESC").
		Order("id DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Pluck("id", &ids).Error; err != nil {
		return nil, 0, err
	}
	return ids, total, nil
}

func deletedColumn(side model.Side) (string, error) {
	switch side {
	case model.SideSeller:
		return "seller_deleted_at", nil
	case model.SideBuyer:
		return "buyer_deleted_at", nil
	}
	return "", errors.New("unknown room side")
}

func (r *chatRepository) HideRoomFor(ctx context.Context, roomID uint64, side model.Side, at time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	col, err := deletedColumn(side)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.ChatRoom{}).
		Where("id = ? AND "+col+" IS NULL", roomID).
		Update(col, at).Error
}

func (r *chatRepository) RestoreRoomFor(ctx context.Context, roomID uint64, side model.Side) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	col, err := deletedColumn(side)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&model.ChatRoom{}).
		Where("id = ?", roomID).
		Update(col, gorm.Expr("NULL")).Error
}

// CreateMessage stores the message and advances the room's activity timestamp in
// one transaction.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.ChatMessage) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = r.db.NowFunc()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		res := tx.Model(&model.ChatRoom{}).
			Where("id = ?", msg.RoomID).
			Update("last_message_at", msg.SentAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, roomID uint64, page Page) ([]model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msgs []model.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at DESC").
		Order("id DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// LatestMessage returns nil, nil for a room without messages.
func (r *chatRepository) LatestMessage(ctx context.Context, roomID uint64) (*model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at DESC").
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// LatestMessages fetches the newest message of every room in one query. Rooms
// without messages are absent from the result.
func (r *chatRepository) LatestMessages(ctx context.Context, roomIDs []uint64) (map[uint64]model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]model.ChatMessage, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var msgs []model.ChatMessage
	if err := r.db.WithContext(ctx).
		Table("chat_messages AS m").
		Select("m.*").
		Where("m.room_id IN ?", roomIDs).
		Where(`NOT EXISTS (
			SELECT 1 FROM chat_messages n
			WHERE n.room_id = m.room_id
			  AND (n.sent_at > m.sent_at OR (n.sent_at = m.sent_at AND n.id > m.id))
		)`).
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.RoomID] = m
	}
	return out, nil
}

func (r *chatRepository) unread(ctx context.Context, viewerID uint64) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("sender_id <> ? AND is_read = ?", viewerID, false)
}

func (r *chatRepository) UnreadCountForViewer(ctx context.Context, roomID, viewerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.unread(ctx, viewerID).Where("room_id = ?", roomID).Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// UnreadCounts groups unread counts by room. Rooms with nothing unread are absent.
func (r *chatRepository) UnreadCounts(ctx context.Context, roomIDs []uint64, viewerID uint64) (map[uint64]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]int64, len(roomIDs))
	if len(roomIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		RoomID uint64
		Cnt    int64
	}
	if err := r.unread(ctx, viewerID).
		Select("room_id, COUNT(*) AS cnt").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.RoomID] = row.Cnt
	}
	return out, nil
}

// MarkRoomRead flags every message addressed to the reader as read in a single
// statement. Messages the reader sent are never touched.
func (r *chatRepository) MarkRoomRead(ctx context.Context, roomID, readerID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.unread(ctx, readerID).
		Where("room_id = ?", roomID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

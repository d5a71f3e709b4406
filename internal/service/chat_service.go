package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
)

const maxMessageLength = 2000

type ChatService interface {
	OpenRoom(ctx context.Context, itemID, buyerID uint64) (*model.ChatRoom, error)
	GetRoom(ctx context.Context, roomID, viewerID uint64) (*model.ChatRoom, error)
	SendMessage(ctx context.Context, roomID, senderID uint64, content string, typ model.MessageType) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, roomID, viewerID uint64, page repository.Page) ([]model.ChatMessage, error)
	MarkRead(ctx context.Context, roomID, readerID uint64) (int64, error)
	LeaveRoom(ctx context.Context, roomID, userID uint64) error
}

type chatService struct {
	chatRepo repository.ChatRepository
	itemRepo repository.ItemRepository
	pub      Publisher
	now      Clock
}

func NewChatService(chatRepo repository.ChatRepository, itemRepo repository.ItemRepository, pub Publisher) ChatService {
	return &chatService{chatRepo: chatRepo, itemRepo: itemRepo, pub: pub, now: systemClock}
}

// MessageEvent is pushed to a room topic.
type MessageEvent struct {
	Event   string            `json:"event"`
	RoomID  uint64            `json:"roomId"`
	Message *MessagePayload   `json:"message,omitempty"`
	Reader  *ReadEventPayload `json:"read,omitempty"`
}

type MessagePayload struct {
	ID       uint64            `json:"id"`
	SenderID uint64            `json:"senderId"`
	Content  string            `json:"content"`
	Type     model.MessageType `json:"type"`
	SentAt   string            `json:"sentAt"`
	IsRead   bool              `json:"isRead"`
}

type ReadEventPayload struct {
	ReaderID uint64 `json:"readerId"`
	Changed  int64  `json:"changed"`
}

func (s *chatService) OpenRoom(ctx context.Context, itemID, buyerID uint64) (*model.ChatRoom, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, notFoundOr(err, "item")
	}
	if item.SellerID == 0 {
		return nil, apperr.Validation("item has no seller")
	}
	if item.SellerID == buyerID {
		return nil, apperr.Validation("cannot chat with yourself")
	}
	room, err := s.chatRepo.FindOrCreateRoom(ctx, itemID, item.SellerID, buyerID)
	if err != nil {
		return nil, err
	}
	if room.BuyerDeletedAt != nil {
		if err := s.chatRepo.RestoreRoomFor(ctx, room.ID, model.SideBuyer); err != nil {
			return nil, err
		}
		room.BuyerDeletedAt = nil
	}
	return room, nil
}

// memberRoom loads a room and checks that userID takes part in it.
func (s *chatService) memberRoom(ctx context.Context, roomID, userID uint64) (*model.ChatRoom, error) {
	room, err := s.chatRepo.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, notFoundOr(err, "chat room")
	}
	if !room.IsParticipant(userID) {
		return nil, apperr.Forbidden("not a participant of this chat room")
	}
	return room, nil
}

// participantRoom is memberRoom for a room userID has not left.
func (s *chatService) participantRoom(ctx context.Context, roomID, userID uint64) (*model.ChatRoom, error) {
	room, err := s.memberRoom(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if room.HiddenFor(userID) {
		return nil, apperr.NotFound("chat room", nil)
	}
	return room, nil
}

func (s *chatService) GetRoom(ctx context.Context, roomID, viewerID uint64) (*model.ChatRoom, error) {
	return s.participantRoom(ctx, roomID, viewerID)
}

func (s *chatService) SendMessage(ctx context.Context, roomID, senderID uint64, content string, typ model.MessageType) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, apperr.Validation("content is too long")
	}
	if typ == "" {
		typ = model.MessageTypeText
	}
	if !typ.Valid() {
		return nil, apperr.Validation("unknown message type")
	}
	if _, err := s.participantRoom(ctx, roomID, senderID); err != nil {
		return nil, err
	}
	msg := &model.ChatMessage{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Type:     typ,
		SentAt:   s.now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, notFoundOr(err, "chat room")
	}
	slog.DebugContext(ctx, "chat message stored", "room_id", roomID, "message_id", msg.ID)
	publish(ctx, s.pub, RoomTopic(roomID), MessageEvent{
		Event:   "message",
		RoomID:  roomID,
		Message: ToMessagePayload(*msg),
	})
	return msg, nil
}

func ToMessagePayload(m model.ChatMessage) *MessagePayload {
	return &MessagePayload{
		ID:       m.ID,
		SenderID: m.SenderID,
		Content:  m.Content,
		Type:     m.Type,
		SentAt:   m.SentAt.UTC().Format(timeLayout),
		IsRead:   m.IsRead,
	}
}

func (s *chatService) ListMessages(ctx context.Context, roomID, viewerID uint64, page repository.Page) ([]model.ChatMessage, error) {
	if _, err := s.participantRoom(ctx, roomID, viewerID); err != nil {
		return nil, err
	}
	return s.chatRepo.ListMessages(ctx, roomID, page)
}

// MarkRead marks every message the reader received in the room as read.
func (s *chatService) MarkRead(ctx context.Context, roomID, readerID uint64) (int64, error) {
	if _, err := s.participantRoom(ctx, roomID, readerID); err != nil {
		return 0, err
	}
	changed, err := s.chatRepo.MarkRoomRead(ctx, roomID, readerID)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		publish(ctx, s.pub, RoomTopic(roomID), MessageEvent{
			Event:  "read",
			RoomID: roomID,
			Reader: &ReadEventPayload{ReaderID: readerID, Changed: changed},
		})
	}
	return changed, nil
}

// LeaveRoom hides the room for userID only; the partner keeps seeing it.
func (s *chatService) LeaveRoom(ctx context.Context, roomID, userID uint64) error {
	room, err := s.memberRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if room.HiddenFor(userID) {
		return nil
	}
	return s.chatRepo.HideRoomFor(ctx, roomID, room.SideOf(userID), s.now())
}

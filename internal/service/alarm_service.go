package service

import (
	"context"
	"strings"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
)

type AlarmService interface {
	Create(ctx context.Context, userID uint64, content string) (*model.Alarm, error)
	List(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Alarm, int64, error)
	UnreadCount(ctx context.Context, userID uint64) (int64, error)
	MarkRead(ctx context.Context, alarmID, readerID uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
	Delete(ctx context.Context, alarmID, ownerID uint64) error
}

type alarmService struct {
	repo repository.AlarmRepository
	pub  Publisher
	now  Clock
}

func NewAlarmService(repo repository.AlarmRepository, pub Publisher) AlarmService {
	return &alarmService{repo: repo, pub: pub, now: systemClock}
}

type AlarmPayload struct {
	ID        uint64 `json:"id"`
	Content   string `json:"content"`
	IsRead    bool   `json:"isRead"`
	CreatedAt string `json:"createdAt"`
}

func (s *alarmService) Create(ctx context.Context, userID uint64, content string) (*model.Alarm, error) {
	content = strings.TrimSpace(content)
	if userID == 0 {
		return nil, apperr.Validation("userId is required")
	}
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	a := &model.Alarm{UserID: userID, Content: content}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	publish(ctx, s.pub, AlarmTopic(userID), AlarmPayload{
		ID:        a.ID,
		Content:   a.Content,
		IsRead:    false,
		CreatedAt: a.CreatedAt.UTC().Format(timeLayout),
	})
	return a, nil
}

func (s *alarmService) List(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]model.Alarm, int64, error) {
	list, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, err
	}
	cnt, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return list, 0, err
	}
	return list, cnt, nil
}

func (s *alarmService) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead never changes an alarm the reader does not own. When the conditional
// update matches nothing the alarm is re-read to tell the cases apart.
func (s *alarmService) MarkRead(ctx context.Context, alarmID, readerID uint64) error {
	changed, err := s.repo.MarkRead(ctx, alarmID, readerID, s.now())
	if err != nil {
		return err
	}
	if changed > 0 {
		return nil
	}
	a, err := s.repo.FindByID(ctx, alarmID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("alarm", nil)
	}
	if a.UserID != readerID {
		return apperr.Forbidden("alarm belongs to another user")
	}
	// already read
	return nil
}

func (s *alarmService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}

func (s *alarmService) Delete(ctx context.Context, alarmID, ownerID uint64) error {
	deleted, err := s.repo.Delete(ctx, alarmID, ownerID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		return nil
	}
	a, err := s.repo.FindByID(ctx, alarmID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("alarm", nil)
	}
	return apperr.Forbidden("alarm belongs to another user")
}

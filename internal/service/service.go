package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"gorm.io/gorm"
)

const timeLayout = time.RFC3339

// Publisher pushes an event to realtime subscribers of a destination.
type Publisher interface {
	Publish(ctx context.Context, destination string, payload any) error
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func RoomTopic(roomID uint64) string {
	return fmt.Sprintf("/topic/chat/rooms/%d", roomID)
}

func AlarmTopic(userID uint64) string {
	return fmt.Sprintf("/topic/alarms/%d", userID)
}

// notFoundOr maps gorm's not-found error to NOT_FOUND and passes others through.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource, err)
	}
	return err
}

// publish is best-effort: realtime delivery failures are logged, not returned.
func publish(ctx context.Context, pub Publisher, destination string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, destination, payload); err != nil {
		slog.WarnContext(ctx, "realtime publish failed", "destination", destination, "error", err)
	}
}

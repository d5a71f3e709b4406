package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"github.com/shinyyama/localbid-backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type published struct {
	Destination string
	Payload     any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, destination string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Destination: destination, Payload: payload})
	return p.err
}

func (p *recordingPublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type fixture struct {
	db       *gorm.DB
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	itemRepo repository.ItemRepository
	pub      *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.NewDB(t)
	return &fixture{
		db:       gdb,
		chatRepo: repository.NewChatRepository(gdb),
		userRepo: repository.NewUserRepository(gdb),
		itemRepo: repository.NewItemRepository(gdb),
		pub:      &recordingPublisher{},
	}
}

func (f *fixture) user(t *testing.T, nickname string) model.User {
	t.Helper()
	u := model.User{Nickname: nickname}
	require.NoError(t, f.userRepo.Create(context.Background(), &u))
	return u
}

func (f *fixture) item(t *testing.T, sellerID uint64, title string) model.Item {
	t.Helper()
	it := model.Item{
		SellerID:    sellerID,
		Title:       title,
		Description: "desc",
		Category:    model.CategoryDigital,
		TradeMethod: model.TradeMethodDirect,
		StartPrice:  1000,
	}
	require.NoError(t, f.itemRepo.Create(context.Background(), &it))
	return it
}

// tickingClock advances one second per call so message order is deterministic.
func tickingClock(start time.Time) Clock {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func (f *fixture) chatService() *chatService {
	svc := NewChatService(f.chatRepo, f.itemRepo, f.pub).(*chatService)
	svc.now = tickingClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	return svc
}

package service

import (
	"context"
	"time"

	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	RoomID uint64

	PartnerID              uint64
	PartnerNickname        string
	PartnerProfileImageURL *string

	ItemID           uint64
	ItemTitle        string
	ItemImageURL     *string
	ItemWinningPrice *int64

	LastMessage     *string
	LastMessageType *model.MessageType
	LastMessageAt   *time.Time

	UnreadCount int64
}

type ChatSummaryPage struct {
	Rows  []ChatSummary
	Total int64
	Page  repository.Page
}

// ChatSummaryAggregator builds chat-list rows with a fixed number of queries per
// page regardless of how many rooms the page holds.
type ChatSummaryAggregator struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
	itemRepo repository.ItemRepository
}

func NewChatSummaryAggregator(chatRepo repository.ChatRepository, userRepo repository.UserRepository, itemRepo repository.ItemRepository) *ChatSummaryAggregator {
	return &ChatSummaryAggregator{chatRepo: chatRepo, userRepo: userRepo, itemRepo: itemRepo}
}

func (a *ChatSummaryAggregator) List(ctx context.Context, viewerID uint64, page repository.Page) (*ChatSummaryPage, error) {
	page = page.Normalize()
	roomIDs, total, err := a.chatRepo.ListRoomIDsForUser(ctx, viewerID, page)
	if err != nil {
		return nil, err
	}
	out := &ChatSummaryPage{Rows: make([]ChatSummary, 0, len(roomIDs)), Total: total, Page: page}
	if len(roomIDs) == 0 {
		return out, nil
	}

	var (
		rooms   map[uint64]model.ChatRoom
		latest  map[uint64]model.ChatMessage
		unread  map[uint64]int64
		users   map[uint64]model.User
		items   map[uint64]model.Item
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		var err error
		latest, err = a.chatRepo.LatestMessages(gctx, roomIDs)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = a.chatRepo.UnreadCounts(gctx, roomIDs, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		rooms, err = a.chatRepo.FindRoomsByIDs(gctx, roomIDs)
		if err != nil {
			return err
		}
		partnerIDs := make([]uint64, 0, len(rooms))
		itemIDs := make([]uint64, 0, len(rooms))
		for _, r := range rooms {
			partnerIDs = append(partnerIDs, r.PartnerOf(viewerID))
			itemIDs = append(itemIDs, r.ItemID)
		}
		inner, ictx := errgroup.WithContext(gctx)
		inner.Go(func() error {
			var err error
			users, err = a.userRepo.FindByIDs(ictx, dedupe(partnerIDs))
			return err
		})
		inner.Go(func() error {
			var err error
			items, err = a.itemRepo.FindByIDs(ictx, dedupe(itemIDs))
			return err
		})
		return inner.Wait()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range roomIDs {
		room, ok := rooms[id]
		if !ok {
			// removed between the id page and the bulk read
			continue
		}
		row := ChatSummary{
			RoomID:      id,
			PartnerID:   room.PartnerOf(viewerID),
			ItemID:      room.ItemID,
			UnreadCount: unread[id],
		}
		if u, ok := users[row.PartnerID]; ok {
			row.PartnerNickname = u.Nickname
			row.PartnerProfileImageURL = u.ProfileImageURL
		}
		if it, ok := items[room.ItemID]; ok {
			row.ItemTitle = it.Title
			row.ItemImageURL = it.ImageURL
			row.ItemWinningPrice = it.WinningPrice
		}
		if m, ok := latest[id]; ok {
			content, typ, at := m.Content, m.Type, m.SentAt
			row.LastMessage = &content
			row.LastMessageType = &typ
			row.LastMessageAt = &at
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

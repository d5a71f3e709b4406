package service

import (
	"context"
	"testing"

	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSummaryRoomWithoutMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, buyer := f.user(t, "seller"), f.user(t, "buyer")
	item := f.item(t, seller.ID, "bike")
	room, err := f.chatService().OpenRoom(ctx, item.ID, buyer.ID)
	require.NoError(t, err)

	agg := NewChatSummaryAggregator(f.chatRepo, f.userRepo, f.itemRepo)
	page, err := agg.List(ctx, buyer.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	row := page.Rows[0]
	assert.Equal(t, room.ID, row.RoomID)
	assert.Equal(t, seller.ID, row.PartnerID)
	assert.Equal(t, "seller", row.PartnerNickname)
	assert.Equal(t, "bike", row.ItemTitle)
	assert.Nil(t, row.LastMessage)
	assert.Nil(t, row.LastMessageType)
	assert.Nil(t, row.LastMessageAt)
	assert.Zero(t, row.UnreadCount)
	assert.Equal(t, int64(1), page.Total)
}

func TestChatSummaryOrderAndUnread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, buyerA, buyerB := f.user(t, "seller"), f.user(t, "alice"), f.user(t, "bob")
	item := f.item(t, seller.ID, "bike")
	svc := f.chatService()

	roomA, err := svc.OpenRoom(ctx, item.ID, buyerA.ID)
	require.NoError(t, err)
	roomB, err := svc.OpenRoom(ctx, item.ID, buyerB.ID)
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, roomB.ID, buyerB.ID, "first", model.MessageTypeText)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, roomA.ID, buyerA.ID, "hello", model.MessageTypeText)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, roomA.ID, buyerA.ID, "https://example.com/p", model.MessageTypeURL)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, roomA.ID, seller.ID, "yes", model.MessageTypeText)
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, roomA.ID, buyerA.ID, "still here", model.MessageTypeText)
	require.NoError(t, err)

	agg := NewChatSummaryAggregator(f.chatRepo, f.userRepo, f.itemRepo)
	page, err := agg.List(ctx, seller.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)

	assert.Equal(t, roomA.ID, page.Rows[0].RoomID)
	assert.Equal(t, "alice", page.Rows[0].PartnerNickname)
	assert.Equal(t, int64(3), page.Rows[0].UnreadCount)
	require.NotNil(t, page.Rows[0].LastMessage)
	assert.Equal(t, "still here", *page.Rows[0].LastMessage)
	assert.Equal(t, model.MessageTypeText, *page.Rows[0].LastMessageType)

	assert.Equal(t, roomB.ID, page.Rows[1].RoomID)
	assert.Equal(t, "bob", page.Rows[1].PartnerNickname)
	assert.Equal(t, int64(1), page.Rows[1].UnreadCount)

	_, err = svc.MarkRead(ctx, roomA.ID, seller.ID)
	require.NoError(t, err)
	page, err = agg.List(ctx, seller.ID, repository.Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Rows[0].UnreadCount)

	buyerPage, err := agg.List(ctx, buyerA.ID, repository.Page{})
	require.NoError(t, err)
	require.Len(t, buyerPage.Rows, 1)
	assert.Equal(t, int64(1), buyerPage.Rows[0].UnreadCount)
}

func TestChatSummaryPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller := f.user(t, "seller")
	svc := f.chatService()
	for i := 0; i < 3; i++ {
		buyer := f.user(t, "buyer")
		_, err := svc.OpenRoom(ctx, f.item(t, seller.ID, "thing").ID, buyer.ID)
		require.NoError(t, err)
	}

	agg := NewChatSummaryAggregator(f.chatRepo, f.userRepo, f.itemRepo)
	page, err := agg.List(ctx, seller.ID, repository.Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)
	assert.Equal(t, int64(3), page.Total)
}

func TestChatSummaryEmpty(t *testing.T) {
	f := newFixture(t)
	agg := NewChatSummaryAggregator(f.chatRepo, f.userRepo, f.itemRepo)
	page, err := agg.List(context.Background(), 77, repository.Page{})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Zero(t, page.Total)
}

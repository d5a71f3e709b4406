package repository

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seller uint64 = 1
	buyer  uint64 = 2
	other  uint64 = 3
)

func newChatRepo(t *testing.T) ChatRepository {
	return NewChatRepository(testutil.NewDB(t))
}

func send(t *testing.T, repo ChatRepository, roomID, senderID uint64, content string, at time.Time) *model.ChatMessage {
	t.Helper()
	msg := &model.ChatMessage{RoomID: roomID, SenderID: senderID, Content: content, Type: model.MessageTypeText, SentAt: at}
	require.NoError(t, repo.CreateMessage(context.Background(), msg))
	return msg
}

func TestFindRoomMissingReturnsNil(t *testing.T) {
	repo := newChatRepo(t)
	room, err := repo.FindRoom(context.Background(), 10, seller, buyer)
	require.NoError(t, err)
	assert.Nil(t, room)
}

func TestFindOrCreateRoomReturnsExisting(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)

	first, err := repo.FindOrCreateRoom(ctx, 10, seller, buyer)
	require.NoError(t, err)
	second, err := repo.FindOrCreateRoom(ctx, 10, seller, buyer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := repo.FindOrCreateRoom(ctx, 10, seller, other)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestFindOrCreateRoomConcurrent(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := NewChatRepository(gdb)

	const workers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	ids := make([]uint64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			room, err := repo.FindOrCreateRoom(ctx, 42, seller, buyer)
			errs[i] = err
			if room != nil {
				ids[i] = room.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var cnt int64
	require.NoError(t, gdb.Model(&model.ChatRoom{}).Where("item_id = ?", 42).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestDuplicateTripleRejectedByStore(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := NewChatRepository(gdb)

	_, err := repo.FindOrCreateRoom(ctx, 7, seller, buyer)
	require.NoError(t, err)

	dup := &model.ChatRoom{ItemID: 7, SellerID: seller, BuyerID: buyer, LastMessageAt: time.Now().UTC()}
	err = gdb.Create(dup).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}

func TestUnreadCountCountsOnlyCounterpartyMessages(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	room, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	send(t, repo, room.ID, seller, "hello", base)
	send(t, repo, room.ID, seller, "still there?", base.Add(time.Minute))
	send(t, repo, room.ID, buyer, "yes", base.Add(2*time.Minute))

	forBuyer, err := repo.UnreadCountForViewer(ctx, room.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), forBuyer)

	forSeller, err := repo.UnreadCountForViewer(ctx, room.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, int64(1), forSeller)

	bulk, err := repo.UnreadCounts(ctx, []uint64{room.ID}, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bulk[room.ID])
}

func TestMarkRoomReadOnlyTouchesRecipientMessages(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := NewChatRepository(gdb)
	room, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	send(t, repo, room.ID, seller, "a", base)
	send(t, repo, room.ID, seller, "b", base.Add(time.Second))
	own := send(t, repo, room.ID, buyer, "c", base.Add(2*time.Second))

	changed, err := repo.MarkRoomRead(ctx, room.ID, buyer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	var stored model.ChatMessage
	require.NoError(t, gdb.First(&stored, own.ID).Error)
	assert.False(t, stored.IsRead, "sender's own message must stay unread")

	again, err := repo.MarkRoomRead(ctx, room.ID, buyer)
	require.NoError(t, err)
	assert.Zero(t, again)

	unread, err := repo.UnreadCountForViewer(ctx, room.ID, buyer)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestLatestMessages(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	withMsgs, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)
	empty, err := repo.FindOrCreateRoom(ctx, 2, seller, buyer)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	send(t, repo, withMsgs.ID, seller, "first", base)
	send(t, repo, withMsgs.ID, buyer, "last", base.Add(time.Hour))

	latest, err := repo.LatestMessage(ctx, withMsgs.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "last", latest.Content)

	none, err := repo.LatestMessage(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	bulk, err := repo.LatestMessages(ctx, []uint64{withMsgs.ID, empty.ID})
	require.NoError(t, err)
	require.Len(t, bulk, 1)
	assert.Equal(t, "last", bulk[withMsgs.ID].Content)
	_, ok := bulk[empty.ID]
	assert.False(t, ok)
}

func TestCreateMessageBumpsRoomActivity(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	room, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)

	at := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	send(t, repo, room.ID, buyer, "ping", at)

	reloaded, err := repo.FindRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.LastMessageAt.Equal(at))
}

func TestCreateMessageUnknownRoom(t *testing.T) {
	repo := newChatRepo(t)
	err := repo.CreateMessage(context.Background(), &model.ChatMessage{RoomID: 999, SenderID: buyer, Content: "x", Type: model.MessageTypeText})
	assert.Error(t, err)
}

func TestListRoomIDsOrderedByActivity(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	older, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)
	newer, err := repo.FindOrCreateRoom(ctx, 2, seller, buyer)
	require.NoError(t, err)
	_, err = repo.FindOrCreateRoom(ctx, 3, other, 4)
	require.NoError(t, err)

	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	send(t, repo, newer.ID, seller, "n", base)
	send(t, repo, older.ID, seller, "o", base.Add(time.Hour))

	ids, total, err := repo.ListRoomIDsForUser(ctx, buyer, Page{Number: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uint64{older.ID, newer.ID}, ids)

	page2, total2, err := repo.ListRoomIDsForUser(ctx, buyer, Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total2)
	assert.Equal(t, []uint64{newer.ID}, page2)
}

func TestHideRoomForSellerOnly(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	room, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)

	require.NoError(t, repo.HideRoomFor(ctx, room.ID, model.SideSeller, time.Now().UTC()))

	sellerIDs, sellerTotal, err := repo.ListRoomIDsForUser(ctx, seller, Page{Size: 10})
	require.NoError(t, err)
	assert.Empty(t, sellerIDs)
	assert.Zero(t, sellerTotal)

	buyerIDs, _, err := repo.ListRoomIDsForUser(ctx, buyer, Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []uint64{room.ID}, buyerIDs)

	require.NoError(t, repo.RestoreRoomFor(ctx, room.ID, model.SideSeller))
	sellerIDs, _, err = repo.ListRoomIDsForUser(ctx, seller, Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []uint64{room.ID}, sellerIDs)
}

func TestHideRoomRejectsUnknownSide(t *testing.T) {
	repo := newChatRepo(t)
	assert.Error(t, repo.HideRoomFor(context.Background(), 1, model.SideNone, time.Now()))
}

func TestListMessagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newChatRepo(t)
	room, err := repo.FindOrCreateRoom(ctx, 1, seller, buyer)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, body := range []string{"one", "two", "three"} {
		send(t, repo, room.ID, seller, body, base.Add(time.Duration(i)*time.Minute))
	}

	msgs, err := repo.ListMessages(ctx, room.ID, Page{Size: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Content)
	assert.Equal(t, "two", msgs[1].Content)
}

func TestNilDBGuards(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(nil)
	_, err := repo.FindRoom(ctx, 1, 2, 3)
	assert.ErrorIs(t, err, ErrDBNotReady)
	_, err = repo.MarkRoomRead(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrDBNotReady)
	_, err = NewAlarmRepository(nil).MarkAllRead(ctx, 1, time.Now())
	assert.ErrorIs(t, err, ErrDBNotReady)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 0, Size: defaultPageSize}, Page{Number: -1, Size: 0}.Normalize())
	assert.Equal(t, defaultPageSize, Page{Size: 1000}.Limit())
	assert.Equal(t, 30, Page{Number: 3, Size: 10}.Offset())

	huge := Page{Number: math.MaxInt, Size: maxPageSize}
	assert.Equal(t, maxPageNumber, huge.Normalize().Number)
	assert.Equal(t, maxPageNumber*maxPageSize, huge.Offset())
	assert.LessOrEqual(t, huge.Offset(), math.MaxInt32)
}

func TestCreateRoomRecoversFromDuplicate(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewDB(t)
	repo := &chatRepository{db: gdb}

	first, err := repo.FindOrCreateRoom(ctx, 10, seller, buyer)
	require.NoError(t, err)

	again, err := repo.createRoom(ctx, 10, seller, buyer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	var count int64
	require.NoError(t, gdb.Model(&model.ChatRoom{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

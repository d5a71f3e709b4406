package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHandlerFlow(t *testing.T) {
	en := newEnv(t)
	seller, buyer := en.seedUser(t, "seller"), en.seedUser(t, "buyer")
	item := en.seedItem(t, seller.ID)
	itemID := strconv.FormatUint(item.ID, 10)

	rec := en.call(t, en.chat.OpenRoom, http.MethodPost, "/api/items/"+itemID+"/chat-rooms", "", buyer.ID, "id", itemID)
	require.Equal(t, http.StatusOK, rec.Code)
	var room ChatRoomResponse
	decode(t, rec, &room)
	roomID := strconv.FormatUint(room.ID, 10)

	// a room without messages is listed with null preview fields
	rec = en.call(t, en.chat.ListRooms, http.MethodGet, "/api/chat-rooms", "", seller.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{
		"rooms": [{
			"roomId": %d,
			"partner": {"id": %d, "nickname": "buyer", "profileImageUrl": null},
			"item": {"id": %d, "title": "camera", "imageUrl": null, "winningPrice": null},
			"lastMessage": null,
			"lastMessageType": null,
			"lastMessageAt": null,
			"unreadCount": 0
		}],
		"total": 1, "page": 0, "size": 20
	}`, room.ID, buyer.ID, item.ID), rec.Body.String())

	for _, body := range []string{`{"content":"hi"}`, `{"content":"is it working?","type":"TEXT"}`} {
		rec = en.call(t, en.chat.SendMessage, http.MethodPost, "/api/chat-rooms/"+roomID+"/messages", body, buyer.ID, "id", roomID)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var list ChatSummaryListResponse
	decode(t, en.call(t, en.chat.ListRooms, http.MethodGet, "/api/chat-rooms", "", seller.ID), &list)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, int64(2), list.Rooms[0].UnreadCount)
	require.NotNil(t, list.Rooms[0].LastMessage)
	assert.Equal(t, "is it working?", *list.Rooms[0].LastMessage)

	rec = en.call(t, en.chat.MarkRead, http.MethodPost, "/api/chat-rooms/"+roomID+"/read", "", seller.ID, "id", roomID)
	assert.JSONEq(t, `{"changed":2}`, rec.Body.String())

	rec = en.call(t, en.chat.ListMessages, http.MethodGet, "/api/chat-rooms/"+roomID+"/messages", "", seller.ID, "id", roomID)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs struct {
		Messages []struct {
			Content string `json:"content"`
			IsRead  bool   `json:"isRead"`
		} `json:"messages"`
	}
	decode(t, rec, &msgs)
	require.Len(t, msgs.Messages, 2)
	assert.True(t, msgs.Messages[0].IsRead)

	rec = en.call(t, en.chat.LeaveRoom, http.MethodDelete, "/api/chat-rooms/"+roomID, "", seller.ID, "id", roomID)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	decode(t, en.call(t, en.chat.ListRooms, http.MethodGet, "/api/chat-rooms", "", seller.ID), &list)
	assert.Empty(t, list.Rooms)
	decode(t, en.call(t, en.chat.ListRooms, http.MethodGet, "/api/chat-rooms", "", buyer.ID), &list)
	assert.Len(t, list.Rooms, 1)
}

func TestChatHandlerErrors(t *testing.T) {
	en := newEnv(t)
	seller, buyer, outsider := en.seedUser(t, "seller"), en.seedUser(t, "buyer"), en.seedUser(t, "outsider")
	item := en.seedItem(t, seller.ID)
	itemID := strconv.FormatUint(item.ID, 10)

	var room ChatRoomResponse
	decode(t, en.call(t, en.chat.OpenRoom, http.MethodPost, "/", "", buyer.ID, "id", itemID), &room)
	roomID := strconv.FormatUint(room.ID, 10)

	rec := en.call(t, en.chat.GetRoom, http.MethodGet, "/", "", outsider.ID, "id", roomID)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = en.call(t, en.chat.GetRoom, http.MethodGet, "/", "", buyer.ID, "id", "999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = en.call(t, en.chat.GetRoom, http.MethodGet, "/", "", buyer.ID, "id", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = en.call(t, en.chat.SendMessage, http.MethodPost, "/", `{"content":""}`, buyer.ID, "id", roomID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION", errorCode(t, rec))

	rec = en.call(t, en.chat.SendMessage, http.MethodPost, "/", `{"content":"x","type":"VIDEO"}`, buyer.ID, "id", roomID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = en.call(t, en.chat.OpenRoom, http.MethodPost, "/", "", seller.ID, "id", itemID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = en.call(t, en.chat.ListRooms, http.MethodGet, "/", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

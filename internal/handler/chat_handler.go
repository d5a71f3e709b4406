package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/service"
)

type ChatHandler struct {
	svc     service.ChatService
	summary *service.ChatSummaryAggregator
}

func NewChatHandler(svc service.ChatService, summary *service.ChatSummaryAggregator) *ChatHandler {
	return &ChatHandler{svc: svc, summary: summary}
}

type ChatRoomResponse struct {
	ID            uint64 `json:"id"`
	ItemID        uint64 `json:"itemId"`
	SellerID      uint64 `json:"sellerId"`
	BuyerID       uint64 `json:"buyerId"`
	LastMessageAt string `json:"lastMessageAt"`
	CreatedAt     string `json:"createdAt"`
}

type ChatSummaryResponse struct {
	RoomID  uint64 `json:"roomId"`
	Partner struct {
		ID              uint64  `json:"id"`
		Nickname        string  `json:"nickname"`
		ProfileImageURL *string `json:"profileImageUrl"`
	} `json:"partner"`
	Item struct {
		ID           uint64  `json:"id"`
		Title        string  `json:"title"`
		ImageURL     *string `json:"imageUrl"`
		WinningPrice *int64  `json:"winningPrice"`
	} `json:"item"`
	LastMessage     *string            `json:"lastMessage"`
	LastMessageType *model.MessageType `json:"lastMessageType"`
	LastMessageAt   *string            `json:"lastMessageAt"`
	UnreadCount     int64              `json:"unreadCount"`
}

type ChatSummaryListResponse struct {
	Rooms []ChatSummaryResponse `json:"rooms"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=TEXT IMAGE URL"`
}

func (h *ChatHandler) OpenRoom(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	itemID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	room, err := h.svc.OpenRoom(c.Request().Context(), itemID, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toChatRoomResponse(room))
}

func (h *ChatHandler) ListRooms(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	page, err := h.summary.List(c.Request().Context(), uid, pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	resp := ChatSummaryListResponse{
		Rooms: make([]ChatSummaryResponse, 0, len(page.Rows)),
		Total: page.Total,
		Page:  page.Page.Number,
		Size:  page.Page.Size,
	}
	for _, row := range page.Rows {
		resp.Rooms = append(resp.Rooms, toChatSummaryResponse(row))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) GetRoom(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	room, err := h.svc.GetRoom(c.Request().Context(), roomID, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toChatRoomResponse(room))
}

func (h *ChatHandler) LeaveRoom(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.LeaveRoom(c.Request().Context(), roomID, uid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	msgs, err := h.svc.ListMessages(c.Request().Context(), roomID, uid, pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]*service.MessagePayload, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, service.ToMessagePayload(m))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": resp})
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), roomID, uid, req.Content, model.MessageType(req.Type))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, service.ToMessagePayload(*msg))
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	roomID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	changed, err := h.svc.MarkRead(c.Request().Context(), roomID, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"changed": changed})
}

func toChatRoomResponse(r *model.ChatRoom) ChatRoomResponse {
	return ChatRoomResponse{
		ID:            r.ID,
		ItemID:        r.ItemID,
		SellerID:      r.SellerID,
		BuyerID:       r.BuyerID,
		LastMessageAt: r.LastMessageAt.UTC().Format(time.RFC3339),
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toChatSummaryResponse(row service.ChatSummary) ChatSummaryResponse {
	var resp ChatSummaryResponse
	resp.RoomID = row.RoomID
	resp.Partner.ID = row.PartnerID
	resp.Partner.Nickname = row.PartnerNickname
	resp.Partner.ProfileImageURL = row.PartnerProfileImageURL
	resp.Item.ID = row.ItemID
	resp.Item.Title = row.ItemTitle
	resp.Item.ImageURL = row.ItemImageURL
	resp.Item.WinningPrice = row.ItemWinningPrice
	resp.LastMessage = row.LastMessage
	resp.LastMessageType = row.LastMessageType
	if row.LastMessageAt != nil {
		at := row.LastMessageAt.UTC().Format(time.RFC3339)
		resp.LastMessageAt = &at
	}
	resp.UnreadCount = row.UnreadCount
	return resp
}

package handler

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/realtime"
	"github.com/shinyyama/localbid-backend/internal/service"
)

// ChatRealtimeHandler serves chat SEND frames. Results reach clients through
// the room topic the chat service publishes to.
type ChatRealtimeHandler struct {
	svc service.ChatService
}

func NewChatRealtimeHandler(svc service.ChatService) *ChatRealtimeHandler {
	return &ChatRealtimeHandler{svc: svc}
}

func (h *ChatRealtimeHandler) Register(r *realtime.Router) {
	r.Handle("/app/chat/rooms/{roomId}/messages", h.SendMessage)
	r.Handle("/app/chat/rooms/{roomId}/read", h.MarkRead)
}

type realtimeMessage struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (h *ChatRealtimeHandler) SendMessage(ctx context.Context, req *realtime.Request) error {
	uid, roomID, err := realtimeTarget(req)
	if err != nil {
		return err
	}
	var body realtimeMessage
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return apperr.Validation("invalid json")
	}
	_, err = h.svc.SendMessage(ctx, roomID, uid, body.Content, model.MessageType(body.Type))
	return err
}

func (h *ChatRealtimeHandler) MarkRead(ctx context.Context, req *realtime.Request) error {
	uid, roomID, err := realtimeTarget(req)
	if err != nil {
		return err
	}
	_, err = h.svc.MarkRead(ctx, roomID, uid)
	return err
}

func realtimeTarget(req *realtime.Request) (uint64, uint64, error) {
	uid, ok := req.Principal.UserID()
	if !ok {
		return 0, 0, apperr.Unauthorized("unauthenticated")
	}
	roomID, err := strconv.ParseUint(req.Params["roomId"], 10, 64)
	if err != nil || roomID == 0 {
		return 0, 0, apperr.Validation("invalid roomId")
	}
	return uid, roomID, nil
}

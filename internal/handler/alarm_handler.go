package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/service"
)

type AlarmHandler struct {
	svc service.AlarmService
}

func NewAlarmHandler(svc service.AlarmService) *AlarmHandler {
	return &AlarmHandler{svc: svc}
}

type AlarmResponse struct {
	ID        uint64  `json:"id"`
	Content   string  `json:"content"`
	IsRead    bool    `json:"isRead"`
	ReadAt    *string `json:"readAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

type CreateAlarmRequest struct {
	UserID  uint64 `json:"userId" validate:"required"`
	Content string `json:"content" validate:"required,max=500"`
}

func toAlarmResponse(a model.Alarm) AlarmResponse {
	resp := AlarmResponse{
		ID:        a.ID,
		Content:   a.Content,
		IsRead:    a.IsRead,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ReadAt != nil {
		at := a.ReadAt.UTC().Format(time.RFC3339)
		resp.ReadAt = &at
	}
	return resp
}

// Create is called by producers such as the auction closer; the target user is
// taken from the body, not from the caller.
func (h *AlarmHandler) Create(c echo.Context) error {
	if _, ok := currentUserID(c); !ok {
		return unauthorized(c)
	}
	var req CreateAlarmRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	a, err := h.svc.Create(c.Request().Context(), req.UserID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toAlarmResponse(*a))
}

func (h *AlarmHandler) List(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, unreadOnly, limit)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]AlarmResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toAlarmResponse(a))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"alarms":      resp,
		"unreadCount": unreadCount,
	})
}

func (h *AlarmHandler) UnreadCount(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	cnt, err := h.svc.UnreadCount(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unreadCount": cnt})
}

func (h *AlarmHandler) MarkRead(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.MarkRead(c.Request().Context(), id, uid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AlarmHandler) MarkAllRead(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	changed, err := h.svc.MarkAllRead(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"changed": changed})
}

func (h *AlarmHandler) Delete(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id, uid); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type UserResponse struct {
	ID              uint64  `json:"id"`
	Nickname        string  `json:"nickname"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

type CreateUserRequest struct {
	Nickname        string  `json:"nickname" validate:"required,max=60"`
	ProfileImageURL *string `json:"profileImageUrl" validate:"omitempty,url"`
}

func (h *UserHandler) Create(c echo.Context) error {
	var req CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	u, err := h.svc.Create(c.Request().Context(), req.Nickname, req.ProfileImageURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Nickname:        u.Nickname,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

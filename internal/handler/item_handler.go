package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
	"github.com/shinyyama/localbid-backend/internal/service"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type ItemResponse struct {
	ID           uint64            `json:"id"`
	SellerID     uint64            `json:"sellerId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ImageURL     *string           `json:"imageUrl,omitempty"`
	Category     model.Category    `json:"category"`
	TradeMethod  model.TradeMethod `json:"tradeMethod"`
	StartPrice   int64             `json:"startPrice"`
	WinningPrice *int64            `json:"winningPrice,omitempty"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int64          `json:"total"`
}

type CreateItemRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"required"`
	ImageURL    *string `json:"imageUrl"`
	Category    string  `json:"category" validate:"required"`
	TradeMethod string  `json:"tradeMethod" validate:"required"`
	StartPrice  int64   `json:"startPrice" validate:"gte=0"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	uid, ok := currentUserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req CreateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	item, err := h.svc.Create(c.Request().Context(), service.CreateItemInput{
		SellerID:    uid,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    model.Category(req.Category),
		TradeMethod: model.TradeMethod(req.TradeMethod),
		StartPrice:  req.StartPrice,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	item, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	filter := repository.ItemFilter{
		Category: model.Category(c.QueryParam("category")),
		Sort:     model.ItemSortType(c.QueryParam("sort")),
	}
	items, total, err := h.svc.List(c.Request().Context(), filter, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	resp := ItemListResponse{
		Items: make([]ItemResponse, 0, len(items)),
		Total: total,
	}
	for i := range items {
		resp.Items = append(resp.Items, toItemResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func toItemResponse(item *model.Item) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		SellerID:     item.SellerID,
		Title:        item.Title,
		Description:  item.Description,
		ImageURL:     item.ImageURL,
		Category:     item.Category,
		TradeMethod:  item.TradeMethod,
		StartPrice:   item.StartPrice,
		WinningPrice: item.WinningPrice,
		CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

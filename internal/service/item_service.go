package service

import (
	"context"
	"strings"

	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/model"
	"github.com/shinyyama/localbid-backend/internal/repository"
)

type CreateItemInput struct {
	SellerID    uint64
	Title       string
	Description string
	ImageURL    *string
	Category    model.Category
	TradeMethod model.TradeMethod
	StartPrice  int64
}

type ItemService interface {
	Create(ctx context.Context, in CreateItemInput) (*model.Item, error)
	Get(ctx context.Context, id uint64) (*model.Item, error)
	List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]model.Item, int64, error)
}

type itemService struct {
	repo repository.ItemRepository
}

func NewItemService(repo repository.ItemRepository) ItemService {
	return &itemService{repo: repo}
}

func (s *itemService) Create(ctx context.Context, in CreateItemInput) (*model.Item, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.SellerID == 0 {
		return nil, apperr.Validation("seller is required")
	}
	if in.Title == "" || len([]rune(in.Title)) > 120 {
		return nil, apperr.Validation("invalid title")
	}
	if in.Description == "" {
		return nil, apperr.Validation("invalid description")
	}
	if !in.Category.Valid() {
		return nil, apperr.Validation("unknown category")
	}
	if !in.TradeMethod.Valid() {
		return nil, apperr.Validation("unknown trade method")
	}
	if in.StartPrice < 0 {
		return nil, apperr.Validation("startPrice must not be negative")
	}
	if in.ImageURL != nil && strings.HasPrefix(strings.TrimSpace(*in.ImageURL), "data:") {
		return nil, apperr.Validation("imageUrl must be a URL, not data URI")
	}

	item := &model.Item{
		SellerID:    in.SellerID,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		TradeMethod: in.TradeMethod,
		StartPrice:  in.StartPrice,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Get(ctx context.Context, id uint64) (*model.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "item")
	}
	return item, nil
}

func (s *itemService) List(ctx context.Context, filter repository.ItemFilter, limit, offset int) ([]model.Item, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, 0, apperr.Validation("unknown category")
	}
	if filter.Sort == "" {
		filter.Sort = model.ItemSortLatest
	}
	if !filter.Sort.Valid() {
		return nil, 0, apperr.Validation("unknown sort")
	}
	return s.repo.List(ctx, filter, limit, offset)
}

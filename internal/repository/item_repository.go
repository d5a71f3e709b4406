package repository

import (
	"context"

	"github.com/shinyyama/localbid-backend/internal/model"
	"gorm.io/gorm"
)

type ItemFilter struct {
	Category model.Category
	Sort     model.ItemSortType
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id uint64) (*model.Item, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Item, error)
	List(ctx context.Context, filter ItemFilter, limit, offset int) ([]model.Item, int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uint64) (*model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Item, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	out := make(map[uint64]model.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []model.Item
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *itemRepository) List(ctx context.Context, filter ItemFilter, limit, offset int) ([]model.Item, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		items []model.Item
		total int64
	)
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Item{})
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		return q
	}
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := base().
		Order(filter.Sort.OrderClause()).
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

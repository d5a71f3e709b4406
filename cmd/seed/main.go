package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/localbid-backend/internal/config"
	"github.com/shinyyama/localbid-backend/internal/db"
	"github.com/shinyyama/localbid-backend/internal/logging"
	"github.com/shinyyama/localbid-backend/internal/model"
	"gorm.io/gorm"
)

type seedItem struct {
	Title       string
	Description string
	Price       int64
	Category    model.Category
	TradeMethod model.TradeMethod
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogLevel)

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		slog.Info("items already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	items := buildSeedItems()
	err = gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := []model.User{{Nickname: "hana"}, {Nickname: "joon"}, {Nickname: "mina"}}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		for i, it := range items {
			seller := users[i%len(users)]
			imageURL := picsumURL(string(it.Category), i+1)
			row := model.Item{
				SellerID:    seller.ID,
				Title:       strings.TrimSpace(it.Title),
				Description: strings.TrimSpace(it.Description),
				ImageURL:    &imageURL,
				Category:    it.Category,
				TradeMethod: it.TradeMethod,
				StartPrice:  it.Price,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert item %q: %w", it.Title, err)
			}
			if i == 0 {
				if err := seedChat(tx, row, users[1]); err != nil {
					return err
				}
			}
		}
		alarm := model.Alarm{UserID: users[0].ID, Content: "Welcome to localbid"}
		return tx.Create(&alarm).Error
	})
	if err != nil {
		return err
	}

	slog.Info("seed complete", "items", len(items))
	return nil
}

// seedChat opens a room on item with buyer and leaves one unread message for the seller.
func seedChat(tx *gorm.DB, item model.Item, buyer model.User) error {
	now := time.Now().UTC()
	room := model.ChatRoom{ItemID: item.ID, SellerID: item.SellerID, BuyerID: buyer.ID, LastMessageAt: now}
	if err := tx.Create(&room).Error; err != nil {
		return fmt.Errorf("insert chat room: %w", err)
	}
	msg := model.ChatMessage{
		RoomID:   room.ID,
		SenderID: buyer.ID,
		Content:  "Is this still available?",
		Type:     model.MessageTypeText,
		SentAt:   now,
	}
	if err := tx.Create(&msg).Error; err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func buildSeedItems() []seedItem {
	type cat struct {
		Category model.Category
		Titles   []string
		Price    int64
	}
	categories := []cat{
		{Category: model.CategoryDigital, Price: 24000, Titles: []string{"14-inch laptop", "64GB tablet", "wireless keyboard"}},
		{Category: model.CategoryAppliance, Price: 15000, Titles: []string{"rice cooker", "air purifier", "desk fan"}},
		{Category: model.CategoryFurniture, Price: 7800, Titles: []string{"oak side table", "stacking shelf", "cotton rug"}},
		{Category: model.CategoryFashion, Price: 4200, Titles: []string{"relaxed hoodie", "denim jeans", "nylon parka"}},
		{Category: model.CategoryBook, Price: 1400, Titles: []string{"sci-fi anthology", "travel magazine", "comic box set"}},
		{Category: model.CategorySports, Price: 6200, Titles: []string{"running shoes", "training mat", "steel bottle"}},
		{Category: model.CategoryHobby, Price: 4800, Titles: []string{"block kit", "1000-piece puzzle", "model kit"}},
		{Category: model.CategoryEtc, Price: 3000, Titles: []string{"cable organizer", "travel adapter", "ear plugs"}},
	}
	methods := []model.TradeMethod{model.TradeMethodDirect, model.TradeMethodDelivery, model.TradeMethodAll}

	var items []seedItem
	for _, c := range categories {
		for i, t := range c.Titles {
			items = append(items, seedItem{
				Title:       t,
				Description: fmt.Sprintf("%s, kept at home and barely used.", t),
				Price:       c.Price + int64((i+1)*100),
				Category:    c.Category,
				TradeMethod: methods[i%len(methods)],
			})
		}
	}
	return items
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Item{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count items: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func picsumURL(slug string, itemIndex int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", strings.ToLower(slug), itemIndex)
}

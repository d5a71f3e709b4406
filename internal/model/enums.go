package model

// MessageType tags the payload of a chat message.
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeImage MessageType = "IMAGE"
	MessageTypeURL   MessageType = "URL"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeURL:
		return true
	}
	return false
}

type Category string

const (
	CategoryDigital   Category = "DIGITAL"
	CategoryAppliance Category = "APPLIANCE"
	CategoryFurniture Category = "FURNITURE"
	CategoryFashion   Category = "FASHION"
	CategoryBook      Category = "BOOK"
	CategorySports    Category = "SPORTS"
	CategoryHobby     Category = "HOBBY"
	CategoryEtc       Category = "ETC"
)

var Categories = []Category{
	CategoryDigital, CategoryAppliance, CategoryFurniture, CategoryFashion,
	CategoryBook, CategorySports, CategoryHobby, CategoryEtc,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type TradeMethod string

const (
	TradeMethodDirect   TradeMethod = "DIRECT"
	TradeMethodDelivery TradeMethod = "DELIVERY"
	TradeMethodAll      TradeMethod = "ALL"
)

func (m TradeMethod) Valid() bool {
	switch m {
	case TradeMethodDirect, TradeMethodDelivery, TradeMethodAll:
		return true
	}
	return false
}

// ItemSortType selects the ordering of item listings.
type ItemSortType string

const (
	ItemSortLatest    ItemSortType = "LATEST"
	ItemSortPriceAsc  ItemSortType = "PRICE_ASC"
	ItemSortPriceDesc ItemSortType = "PRICE_DESC"
)

func (s ItemSortType) Valid() bool {
	switch s {
	case ItemSortLatest, ItemSortPriceAsc, ItemSortPriceDesc:
		return true
	}
	return false
}

// OrderClause returns the SQL ordering for the sort type; unknown values sort by recency.
func (s ItemSortType) OrderClause() string {
	switch s {
	case ItemSortPriceAsc:
		return "start_price ASC, id DESC"
	case ItemSortPriceDesc:
		return "start_price DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}
